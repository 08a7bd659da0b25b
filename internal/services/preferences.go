package services

import (
	"fmt"

	"gorm.io/gorm"

	"imagepress/internal/common"
	"imagepress/internal/domain/compression"
	"imagepress/internal/models"
)

// PreferencesService handles per-user preferences operations
type PreferencesService struct {
	db *gorm.DB
}

// NewPreferencesService creates a new preferences service
func NewPreferencesService(db *gorm.DB) *PreferencesService {
	return &PreferencesService{db: db}
}

// GetPreferences gets the preferences for userKey, creating defaults on first use
func (s *PreferencesService) GetPreferences(userKey string) (*models.UserPreferencesData, error) {
	prefs, err := models.GetOrCreatePreferences(s.db, userKey)
	if err != nil {
		return nil, err
	}

	prefsData := prefs.GetPreferences()
	return &prefsData, nil
}

// FindPreferences returns userKey's stored preferences, or nil if none were saved
func (s *PreferencesService) FindPreferences(userKey string) (*models.UserPreferencesData, error) {
	prefs, err := models.FindPreferences(s.db, userKey)
	if err != nil || prefs == nil {
		return nil, err
	}

	prefsData := prefs.GetPreferences()
	return &prefsData, nil
}

// UpdatePreferences updates the preferences for userKey from request data
func (s *PreferencesService) UpdatePreferences(userKey string, data map[string]interface{}) error {
	prefs, err := models.GetOrCreatePreferences(s.db, userKey)
	if err != nil {
		return err
	}

	currentPrefs := prefs.GetPreferences()

	// Update fields from request data
	if val, ok := data["default_compression_level"]; ok {
		raw, ok := val.(string)
		if !ok {
			return fmt.Errorf("%w: default_compression_level must be a string", common.ErrInvalidCompressionLevel)
		}
		level, err := compression.ParseLevel(raw)
		if err != nil {
			return err
		}
		currentPrefs.DefaultCompressionLevel = level.String()
	}

	// Save updated preferences
	if err := prefs.SetPreferences(currentPrefs); err != nil {
		return err
	}

	return s.db.Save(prefs).Error
}

// SetDefaultLevel stores level as the default for userKey's future sessions
func (s *PreferencesService) SetDefaultLevel(userKey string, level compression.Level) error {
	return s.UpdatePreferences(userKey, map[string]interface{}{
		"default_compression_level": level.String(),
	})
}
