package services

import (
	"time"

	"gorm.io/gorm"

	"imagepress/internal/models"
)

// DefaultHistoryLimit bounds History when the caller passes no limit
const DefaultHistoryLimit = 20

// HistoryService stores successful conversions
type HistoryService struct {
	db *gorm.DB
}

// NewHistoryService creates a new history service
func NewHistoryService(db *gorm.DB) *HistoryService {
	return &HistoryService{db: db}
}

// Record appends a conversion to userKey's history
func (s *HistoryService) Record(userKey, level string, imageCount int, originalBytes, finalBytes int64, at time.Time) error {
	return models.CreateConversionRecord(s.db, &models.ConversionRecord{
		UserKey:       userKey,
		ImageCount:    imageCount,
		Level:         level,
		OriginalBytes: originalBytes,
		FinalBytes:    finalBytes,
		CreatedAt:     at,
	})
}

// History lists userKey's most recent conversions, newest first
func (s *HistoryService) History(userKey string, limit int) ([]models.ConversionRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return models.ListConversionRecords(s.db, userKey, limit)
}
