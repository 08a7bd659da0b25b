// Package transport exposes the session store over HTTP and writes debug
// artifacts for the CLI and HTTP front ends.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"imagepress/internal/common"
	"imagepress/internal/domain/compression"
	statisticsDomain "imagepress/internal/domain/statistics"
	"imagepress/internal/normalize"
	"imagepress/internal/report"
	"imagepress/internal/session"
)

// SessionService is the part of the session store the API drives
type SessionService interface {
	Add(userKey string, raw []byte) (*normalize.Image, error)
	SetLevel(userKey string, level compression.Level) error
	Convert(ctx context.Context, userKey string) (*session.Result, error)
	Clear(userKey string)
	Status(userKey string) session.Status
}

// FormatLister reports the accepted input formats
type FormatLister interface {
	SupportedFormats() []normalize.Format
}

// Handler serves the HTTP API
type Handler struct {
	sessions SessionService
	formats  FormatLister
	stats    statisticsDomain.Service
	history  statisticsDomain.HistoryRepository
	debug    *DebugWriter
	maxBytes int64
	logger   *slog.Logger
}

// HandlerOption configures a Handler
type HandlerOption func(*Handler)

// WithHistory enables the history route
func WithHistory(history statisticsDomain.HistoryRepository) HandlerOption {
	return func(h *Handler) { h.history = history }
}

// WithDebugWriter stores a copy of every produced PDF
func WithDebugWriter(debug *DebugWriter) HandlerOption {
	return func(h *Handler) { h.debug = debug }
}

// WithMaxImageBytes bounds a single upload
func WithMaxImageBytes(n int64) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.maxBytes = n
		}
	}
}

// NewHandler creates a new API handler
func NewHandler(logger *slog.Logger, sessions SessionService, formats FormatLister, stats statisticsDomain.Service, opts ...HandlerOption) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		sessions: sessions,
		formats:  formats,
		stats:    stats,
		maxBytes: common.DefaultMaxImageBytes,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewRouter creates the API router with all routes configured
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "imagepress"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/formats", h.Formats)
		r.Get("/stats", h.Stats)

		r.Route("/sessions/{userKey}", func(r chi.Router) {
			r.Get("/", h.Status)
			r.Delete("/", h.Clear)
			r.Post("/images", h.SubmitImage)
			r.Put("/level", h.SetLevel)
			r.Post("/convert", h.Convert)
		})

		r.Get("/users/{userKey}/history", h.History)
	})

	return r
}

// SubmitImage handles POST /sessions/{userKey}/images. The image is either
// the raw request body or the "image" field of a multipart form.
func (h *Handler) SubmitImage(w http.ResponseWriter, r *http.Request) {
	userKey := chi.URLParam(r, "userKey")

	raw, err := h.readImage(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeMessage(w, http.StatusRequestEntityTooLarge, common.KindCorruptData,
				fmt.Sprintf("Images are limited to %s.", common.FormatBytes(h.maxBytes)))
			return
		}
		h.writeMessage(w, http.StatusBadRequest, common.KindEmptyInput, err.Error())
		return
	}

	img, err := h.sessions.Add(userKey, raw)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, SubmitResponse{
		UserKey: userKey,
		Pending: h.sessions.Status(userKey).Pending,
		Format:  string(img.Format),
		Width:   img.Width,
		Height:  img.Height,
		Bytes:   img.OriginalSize,
	})
}

// SetLevel handles PUT /sessions/{userKey}/level
func (h *Handler) SetLevel(w http.ResponseWriter, r *http.Request) {
	userKey := chi.URLParam(r, "userKey")

	var req LevelRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<10)).Decode(&req); err != nil {
		h.writeMessage(w, http.StatusBadRequest, common.KindInvalidLevel, "invalid request body")
		return
	}

	level, err := compression.ParseLevel(req.Level)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.sessions.SetLevel(userKey, level); err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, LevelResponse{UserKey: userKey, Level: level.String(), Title: level.Title()})
}

// Convert handles POST /sessions/{userKey}/convert. The PDF is returned
// as-is unless the client asks for JSON.
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	userKey := chi.URLParam(r, "userKey")

	result, err := h.sessions.Convert(r.Context(), userKey)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if h.debug != nil {
		if _, err := h.debug.Write(userKey, result.Report.ImageCount, result.PDF); err != nil {
			h.logger.Warn("Failed to write debug PDF", "user", userKey, "error", err)
		}
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, ConvertResponse{
			Report:  result.Report,
			UserKey: userKey,
			Level:   result.Level.String(),
			Summary: result.Report.Summary(),
			PDF:     result.PDF,
		})
		return
	}

	rep := result.Report
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": userKey + ".pdf"}))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.PDF)))
	w.Header().Set("X-Image-Count", strconv.Itoa(rep.ImageCount))
	w.Header().Set("X-Original-Bytes", strconv.FormatInt(rep.OriginalTotalBytes, 10))
	w.Header().Set("X-Final-Bytes", strconv.FormatInt(rep.FinalBytes, 10))
	w.Header().Set("X-Compression-Ratio", ratioHeader(rep.Ratio))
	w.Header().Set("X-Compression-Level", result.Level.String())
	w.WriteHeader(http.StatusOK)
	w.Write(result.PDF)
}

// Clear handles DELETE /sessions/{userKey}
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(chi.URLParam(r, "userKey"))
	w.WriteHeader(http.StatusNoContent)
}

// Status handles GET /sessions/{userKey}
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sessions.Status(chi.URLParam(r, "userKey")))
}

// History handles GET /users/{userKey}/history
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		h.writeMessage(w, http.StatusNotFound, common.KindInternal, "conversion history is not enabled")
		return
	}

	userKey := chi.URLParam(r, "userKey")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	summaries, err := h.history.History(userKey, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := HistoryResponse{UserKey: userKey, Conversions: make([]HistoryEntry, 0, len(summaries))}
	for _, s := range summaries {
		resp.Conversions = append(resp.Conversions, HistoryEntry{
			ImageCount:    s.ImageCount,
			Level:         s.Level,
			OriginalBytes: s.OriginalBytes,
			FinalBytes:    s.FinalBytes,
			Ratio:         report.NewRatio(s.OriginalBytes, s.FinalBytes),
			CreatedAt:     s.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Stats handles GET /stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.stats.GetStats())
}

// Formats handles GET /formats
func (h *Handler) Formats(w http.ResponseWriter, r *http.Request) {
	var resp FormatsResponse
	for _, f := range h.formats.SupportedFormats() {
		resp.Formats = append(resp.Formats, string(f))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) readImage(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
		if len(raw) == 0 {
			return nil, errors.New("request body is empty")
		}
		return raw, nil
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("missing multipart field \"image\": %w", err)
	}
	defer file.Close()

	return io.ReadAll(file)
}

// writeError maps an error kind to a status and a user-facing message.
// Internal detail is logged, never returned.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := common.KindOf(err)

	status := http.StatusInternalServerError
	switch kind {
	case common.KindUnsupportedFormat:
		status = http.StatusUnsupportedMediaType
	case common.KindCorruptData:
		status = http.StatusUnprocessableEntity
	case common.KindNoPendingImages, common.KindEmptyInput:
		status = http.StatusConflict
	case common.KindInvalidLevel:
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed",
			"request_id", chimiddleware.GetReqID(r.Context()),
			"path", r.URL.Path,
			"error", err)
	}

	lang := requestLanguage(r)
	w.Header().Set("Content-Language", string(lang))
	h.writeMessage(w, status, kind, LocalizedMessage(kind, lang))
}

func (h *Handler) writeMessage(w http.ResponseWriter, status int, kind common.ErrorKind, message string) {
	writeJSON(w, status, ErrorResponse{Error: kind, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func ratioHeader(r report.Ratio) string {
	if !r.Valid {
		return "n/a"
	}
	return strconv.FormatFloat(r.Percent, 'f', 1, 64)
}
