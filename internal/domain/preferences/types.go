package preferences

import "imagepress/internal/domain/compression"

// Repository persists per-user defaults across sessions.
type Repository interface {
	GetPreferences(userKey string) (*UserPreferencesData, error)
	// FindPreferences never creates a row; it returns nil for an unknown user.
	FindPreferences(userKey string) (*UserPreferencesData, error)
	UpdatePreferences(userKey string, data map[string]any) error
	SetDefaultLevel(userKey string, level compression.Level) error
}

type UserPreferencesData struct {
	DefaultCompressionLevel compression.Level `json:"default_compression_level"`
}
