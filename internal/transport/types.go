package transport

import (
	"time"

	"imagepress/internal/common"
	"imagepress/internal/report"
)

// Transport layer types for the HTTP API

type SubmitResponse struct {
	UserKey string `json:"user_key"`
	Pending int    `json:"pending"`
	Format  string `json:"format"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Bytes   int    `json:"bytes"`
}

type LevelRequest struct {
	Level string `json:"level"`
}

type LevelResponse struct {
	UserKey string `json:"user_key"`
	Level   string `json:"level"`
	Title   string `json:"title"`
}

type ConvertResponse struct {
	report.Report
	UserKey string `json:"user_key"`
	Level   string `json:"level"`
	Summary string `json:"summary"`
	PDF     []byte `json:"pdf"`
}

type HistoryEntry struct {
	ImageCount    int          `json:"image_count"`
	Level         string       `json:"level"`
	OriginalBytes int64        `json:"original_bytes"`
	FinalBytes    int64        `json:"final_bytes"`
	Ratio         report.Ratio `json:"ratio_percent"`
	CreatedAt     time.Time    `json:"created_at"`
}

type HistoryResponse struct {
	UserKey     string         `json:"user_key"`
	Conversions []HistoryEntry `json:"conversions"`
}

type FormatsResponse struct {
	Formats []string `json:"formats"`
}

type ErrorResponse struct {
	Error   common.ErrorKind `json:"error"`
	Message string           `json:"message"`
}
