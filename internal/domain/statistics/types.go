package statistics

import "time"

// AppStats represents conversion statistics since process start
type AppStats struct {
	Conversions        int64     `json:"conversions"`
	ImagesConverted    int64     `json:"images_converted"`
	TotalOriginalBytes int64     `json:"total_original_bytes"`
	TotalOutputBytes   int64     `json:"total_output_bytes"`
	TotalDataSaved     int64     `json:"total_data_saved"`
	FailedConversions  int64     `json:"failed_conversions"`
	StartedAt          time.Time `json:"started_at"`
}

// ConversionSummary is what a finished conversion contributes to the stats.
type ConversionSummary struct {
	UserKey       string
	Level         string
	ImageCount    int
	OriginalBytes int64
	FinalBytes    int64
	CreatedAt     time.Time
}

// Service defines the interface for statistics operations
type Service interface {
	RecordConversion(summary ConversionSummary)
	RecordFailure()
	GetStats() AppStats
}

// HistoryRepository persists finished conversions per user
type HistoryRepository interface {
	Record(summary ConversionSummary) error
	History(userKey string, limit int) ([]ConversionSummary, error)
}
