package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserPreferences represents one user's stored defaults
type UserPreferences struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserKey         string    `gorm:"uniqueIndex;not null" json:"user_key"`
	PreferencesJSON string    `gorm:"type:text" json:"preferences_json"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// UserPreferencesData represents the structured preferences data
type UserPreferencesData struct {
	DefaultCompressionLevel string `json:"default_compression_level"`
}

// DefaultPreferences returns default preference values
func DefaultPreferences() UserPreferencesData {
	return UserPreferencesData{
		DefaultCompressionLevel: "medium", // Keep string literal here as it's part of the model
	}
}

// GetPreferences parses and returns the preferences data
func (up *UserPreferences) GetPreferences() UserPreferencesData {
	if up.PreferencesJSON == "" {
		return DefaultPreferences()
	}

	var prefs UserPreferencesData
	if err := json.Unmarshal([]byte(up.PreferencesJSON), &prefs); err != nil {
		return DefaultPreferences()
	}

	return prefs
}

// SetPreferences sets the preferences data
func (up *UserPreferences) SetPreferences(prefs UserPreferencesData) error {
	data, err := json.Marshal(prefs)
	if err != nil {
		return err
	}

	up.PreferencesJSON = string(data)
	return nil
}

// FindPreferences returns the stored row for userKey, or nil if there is none
func FindPreferences(db *gorm.DB, userKey string) (*UserPreferences, error) {
	var prefs UserPreferences
	err := db.Where("user_key = ?", userKey).First(&prefs).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &prefs, nil
}

// GetOrCreatePreferences gets or creates the preferences row for userKey
func GetOrCreatePreferences(db *gorm.DB, userKey string) (*UserPreferences, error) {
	prefs, err := FindPreferences(db, userKey)
	if err != nil {
		return nil, err
	}
	if prefs != nil {
		return prefs, nil
	}

	// Create default preferences
	prefs = &UserPreferences{UserKey: userKey}
	if err := prefs.SetPreferences(DefaultPreferences()); err != nil {
		return nil, err
	}
	// A concurrent first use may insert the same user key
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_key"}},
		DoNothing: true,
	}).Create(prefs)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected > 0 {
		return prefs, nil
	}

	prefs, err = FindPreferences(db, userKey)
	if err != nil {
		return nil, err
	}
	if prefs == nil {
		return nil, fmt.Errorf("preferences for %s vanished after insert", userKey)
	}
	return prefs, nil
}
