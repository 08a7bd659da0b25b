package models

import (
	"time"

	"gorm.io/gorm"

	"imagepress/internal/common"
)

// ConversionRecord is one successful conversion
type ConversionRecord struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	UserKey       string    `gorm:"index;not null" json:"user_key"`
	ImageCount    int       `json:"image_count"`
	Level         string    `json:"level"`
	OriginalBytes int64     `json:"original_bytes"`
	FinalBytes    int64     `json:"final_bytes"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
}

// BeforeCreate assigns an id when the caller did not
func (r *ConversionRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = common.GenerateUUID()
	}
	return nil
}

// CreateConversionRecord stores rec
func CreateConversionRecord(db *gorm.DB, rec *ConversionRecord) error {
	return db.Create(rec).Error
}

// ListConversionRecords returns the most recent records for userKey, newest first
func ListConversionRecords(db *gorm.DB, userKey string, limit int) ([]ConversionRecord, error) {
	var records []ConversionRecord
	query := db.Where("user_key = ?", userKey).Order("created_at desc").Order("id")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
