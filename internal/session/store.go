// Package session holds each user's pending images between submission and
// conversion.
//
// Operations on different user keys never wait on each other. Operations on
// one key are serialized by that entry's lock, and a conversion holds the lock
// from snapshot to removal, so a concurrent Add lands either in the snapshot
// or in the next session, never in both and never in neither.
package session

import (
	"context"
	"image"
	"log/slog"
	"sync"
	"time"

	"imagepress/internal/common"
	compressionDomain "imagepress/internal/domain/compression"
	preferencesDomain "imagepress/internal/domain/preferences"
	statisticsDomain "imagepress/internal/domain/statistics"
	"imagepress/internal/normalize"
	"imagepress/internal/report"
)

// Normalizer decodes raw submissions
type Normalizer interface {
	Normalize(raw []byte) (*normalize.Image, error)
}

// Result is a finished conversion
type Result struct {
	UserKey string
	Level   compressionDomain.Level
	Quality int
	PDF     []byte
	Report  report.Report
}

// Status describes a user's session without consuming it
type Status struct {
	UserKey       string                  `json:"user_key"`
	Pending       int                     `json:"pending"`
	Level         compressionDomain.Level `json:"level"`
	OriginalBytes int64                   `json:"original_bytes"`
}

type entry struct {
	mu      sync.Mutex
	images  []*normalize.Image
	level   compressionDomain.Level
	touched time.Time
	removed bool
}

// Store is the per-process session table
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	levels  map[string]compressionDomain.Level // levels chosen before any image

	normalizer Normalizer
	policy     compressionDomain.Policy
	assembler  compressionDomain.Assembler

	prefs   preferencesDomain.Repository
	stats   statisticsDomain.Service
	history statisticsDomain.HistoryRepository

	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Store
type Option func(*Store)

// WithPreferences persists levels as user defaults and seeds new sessions from them
func WithPreferences(repo preferencesDomain.Repository) Option {
	return func(s *Store) { s.prefs = repo }
}

// WithStats records every conversion outcome
func WithStats(stats statisticsDomain.Service) Option {
	return func(s *Store) { s.stats = stats }
}

// WithHistory appends successful conversions to a user's history
func WithHistory(history statisticsDomain.HistoryRepository) Option {
	return func(s *Store) { s.history = history }
}

// WithTTL lets Sweep drop sessions idle for longer than ttl. Zero disables expiry.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates an empty session store
func NewStore(normalizer Normalizer, policy compressionDomain.Policy, assembler compressionDomain.Assembler, opts ...Option) *Store {
	s := &Store{
		entries:    make(map[string]*entry),
		levels:     make(map[string]compressionDomain.Level),
		normalizer: normalizer,
		policy:     policy,
		assembler:  assembler,
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add decodes raw and appends it to userKey's session. A rejected image
// leaves the session untouched.
func (s *Store) Add(userKey string, raw []byte) (*normalize.Image, error) {
	img, err := s.normalizer.Normalize(raw)
	if err != nil {
		s.logger.Info("Image rejected", "user", userKey, "bytes", len(raw), "error", err)
		return nil, common.NewConversionError("add", userKey, err)
	}

	e := s.acquire(userKey, true)
	defer e.mu.Unlock()

	e.images = append(e.images, img)
	e.touched = s.now()

	s.logger.Debug("Image added", "user", userKey, "images", len(e.images), "format", img.Format)
	return img, nil
}

// SetLevel selects the level for userKey's current or next session. Without a
// session the level is kept for the first Add. With a preferences repository
// the level also becomes userKey's default.
func (s *Store) SetLevel(userKey string, level compressionDomain.Level) error {
	if err := s.SetSessionLevel(userKey, level); err != nil {
		return err
	}

	if s.prefs != nil {
		if err := s.prefs.SetDefaultLevel(userKey, level); err != nil {
			s.logger.Warn("Failed to persist default level", "user", userKey, "level", level, "error", err)
		}
	}
	return nil
}

// SetSessionLevel is SetLevel without touching stored preferences, for
// short-lived keys that should leave nothing behind.
func (s *Store) SetSessionLevel(userKey string, level compressionDomain.Level) error {
	if !level.Valid() {
		return common.NewConversionError("set level", userKey, common.ErrInvalidCompressionLevel)
	}

	for {
		s.mu.Lock()
		e, ok := s.entries[userKey]
		if !ok {
			s.levels[userKey] = level
			s.mu.Unlock()
			break
		}
		s.mu.Unlock()

		e.mu.Lock()
		if e.removed {
			e.mu.Unlock()
			continue
		}
		e.level = level
		e.touched = s.now()
		e.mu.Unlock()
		break
	}

	s.logger.Debug("Compression level set", "user", userKey, "level", level)
	return nil
}

// Convert assembles userKey's pending images into one PDF. The session is
// removed only when the PDF and its report were built.
func (s *Store) Convert(ctx context.Context, userKey string) (*Result, error) {
	e := s.acquire(userKey, false)
	if e == nil {
		return nil, common.NewConversionError("convert", userKey, common.ErrNoPendingImages)
	}
	defer e.mu.Unlock()

	if len(e.images) == 0 {
		return nil, common.NewConversionError("convert", userKey, common.ErrNoPendingImages)
	}

	pixels := make([]image.Image, len(e.images))
	sizes := make([]int64, len(e.images))
	meta := make([]report.ImageMeta, len(e.images))
	for i, img := range e.images {
		pixels[i] = img.Pixels
		sizes[i] = int64(img.OriginalSize)
		meta[i] = report.ImageMeta{
			Format: string(img.Format),
			Width:  img.Width,
			Height: img.Height,
			Bytes:  int64(img.OriginalSize),
		}
	}

	quality := s.policy.Resolve(e.level)
	s.logger.Info("Converting session", "user", userKey, "images", len(pixels), "level", e.level, "quality", quality)

	pdf, err := s.assembler.Assemble(ctx, pixels, quality)
	if err != nil {
		if s.stats != nil {
			s.stats.RecordFailure()
		}
		s.logger.Error("Conversion failed", "user", userKey, "images", len(pixels), "error", err)
		return nil, common.NewConversionError("convert", userKey, err)
	}

	result := &Result{
		UserKey: userKey,
		Level:   e.level,
		Quality: quality,
		PDF:     pdf,
		Report:  report.Calculate(sizes, int64(len(pdf)), meta),
	}

	s.remove(userKey, e)
	s.record(result)

	s.logger.Info("Conversion complete",
		"user", userKey,
		"images", result.Report.ImageCount,
		"original_bytes", result.Report.OriginalTotalBytes,
		"final_bytes", result.Report.FinalBytes,
		"ratio", result.Report.Ratio.String())

	return result, nil
}

// Clear discards userKey's pending images and level. It is a no-op for an
// unknown user.
func (s *Store) Clear(userKey string) {
	s.mu.Lock()
	delete(s.levels, userKey)
	s.mu.Unlock()

	e := s.acquire(userKey, false)
	if e == nil {
		return
	}
	defer e.mu.Unlock()

	s.remove(userKey, e)
	s.logger.Debug("Session cleared", "user", userKey, "images", len(e.images))
}

// Status reports the pending image count and level without changing anything
func (s *Store) Status(userKey string) Status {
	status := Status{UserKey: userKey}

	e := s.acquire(userKey, false)
	if e == nil {
		status.Level = s.initialLevel(userKey)
		return status
	}
	defer e.mu.Unlock()

	status.Pending = len(e.images)
	status.Level = e.level
	for _, img := range e.images {
		status.OriginalBytes += int64(img.OriginalSize)
	}
	return status
}

// Pending returns how many images userKey has queued
func (s *Store) Pending(userKey string) int {
	return s.Status(userKey).Pending
}

// Len returns the number of live sessions
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// acquire returns userKey's entry with its lock held, or nil when there is
// none and create is false.
func (s *Store) acquire(userKey string, create bool) *entry {
	var seed *compressionDomain.Level

	for {
		s.mu.Lock()
		e, ok := s.entries[userKey]
		if !ok {
			if !create {
				s.mu.Unlock()
				return nil
			}

			level, pending := s.levels[userKey]
			if !pending && s.prefs != nil && seed == nil {
				// Stored defaults are read outside the table lock
				s.mu.Unlock()
				stored := s.storedLevel(userKey)
				seed = &stored
				continue
			}
			if !pending {
				level = compressionDomain.DefaultLevel
				if seed != nil {
					level = *seed
				}
			}

			delete(s.levels, userKey)
			e = &entry{level: level, touched: s.now()}
			s.entries[userKey] = e
		}
		s.mu.Unlock()

		e.mu.Lock()
		if !e.removed {
			return e
		}
		e.mu.Unlock()
	}
}

// remove drops e from the table. The caller holds e.mu.
func (s *Store) remove(userKey string, e *entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e.removed = true
	if s.entries[userKey] == e {
		delete(s.entries, userKey)
	}
}

func (s *Store) initialLevel(userKey string) compressionDomain.Level {
	s.mu.Lock()
	level, ok := s.levels[userKey]
	s.mu.Unlock()
	if ok {
		return level
	}
	return s.storedLevel(userKey)
}

func (s *Store) storedLevel(userKey string) compressionDomain.Level {
	if s.prefs == nil {
		return compressionDomain.DefaultLevel
	}

	prefs, err := s.prefs.FindPreferences(userKey)
	if err != nil {
		s.logger.Warn("Failed to load preferences, using default compression level", "user", userKey, "error", err)
		return compressionDomain.DefaultLevel
	}
	if prefs == nil || !prefs.DefaultCompressionLevel.Valid() {
		return compressionDomain.DefaultLevel
	}
	return prefs.DefaultCompressionLevel
}

func (s *Store) record(result *Result) {
	summary := statisticsDomain.ConversionSummary{
		UserKey:       result.UserKey,
		Level:         result.Level.String(),
		ImageCount:    result.Report.ImageCount,
		OriginalBytes: result.Report.OriginalTotalBytes,
		FinalBytes:    result.Report.FinalBytes,
		CreatedAt:     s.now().UTC(),
	}

	if s.stats != nil {
		s.stats.RecordConversion(summary)
	}
	if s.history != nil {
		if err := s.history.Record(summary); err != nil {
			s.logger.Warn("Failed to record conversion history", "user", result.UserKey, "error", err)
		}
	}
}
