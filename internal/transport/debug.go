package transport

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"imagepress/internal/common"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// DebugWriter stores a copy of every produced PDF for diagnosis. Nothing
// reads the files back.
type DebugWriter struct {
	dir    string
	now    func() time.Time
	logger *slog.Logger
}

// NewDebugWriter creates a debug writer for dir
func NewDebugWriter(dir string, logger *slog.Logger) *DebugWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &DebugWriter{dir: dir, now: time.Now, logger: logger}
}

// FileName returns user_{userKey}_{timestamp}_{n}images.pdf
func (d *DebugWriter) FileName(userKey string, imageCount int, at time.Time) string {
	safeKey := unsafeFileChars.ReplaceAllString(userKey, "_")
	return fmt.Sprintf("user_%s_%s_%dimages.pdf", safeKey, at.Format(common.DebugTimestampLayout), imageCount)
}

// Write stores pdf and returns its path. The file is staged under a
// temporary name and the staging file is removed on every failure.
func (d *DebugWriter) Write(userKey string, imageCount int, pdf []byte) (path string, err error) {
	if err := os.MkdirAll(d.dir, common.DefaultFilePermissions); err != nil {
		return "", fmt.Errorf("failed to create debug directory: %w", err)
	}

	tmp, err := os.CreateTemp(d.dir, ".staging-*.pdf")
	if err != nil {
		return "", fmt.Errorf("failed to create staging file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(pdf); err != nil {
		return "", fmt.Errorf("failed to write staging file: %w", err)
	}
	if err = tmp.Chmod(common.DebugFilePermissions); err != nil {
		return "", fmt.Errorf("failed to set permissions: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close staging file: %w", err)
	}

	path = filepath.Join(d.dir, d.FileName(userKey, imageCount, d.now()))
	if err = os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to move debug file into place: %w", err)
	}

	d.logger.Debug("Debug PDF written", "user", userKey, "images", imageCount, "path", path)
	return path, nil
}
