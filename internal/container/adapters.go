package container

import (
	"imagepress/internal/domain/compression"
	preferencesDomain "imagepress/internal/domain/preferences"
	statisticsDomain "imagepress/internal/domain/statistics"
	"imagepress/internal/services"
)

// PreferencesRepositoryAdapter adapts services.PreferencesService to preferencesDomain.Repository
type PreferencesRepositoryAdapter struct {
	service *services.PreferencesService
}

func (a *PreferencesRepositoryAdapter) GetPreferences(userKey string) (*preferencesDomain.UserPreferencesData, error) {
	prefs, err := a.service.GetPreferences(userKey)
	if err != nil {
		return nil, err
	}

	// Convert service model to domain model
	level, err := compression.ParseLevel(prefs.DefaultCompressionLevel)
	if err != nil {
		level = compression.DefaultLevel
	}
	return &preferencesDomain.UserPreferencesData{
		DefaultCompressionLevel: level,
	}, nil
}

func (a *PreferencesRepositoryAdapter) FindPreferences(userKey string) (*preferencesDomain.UserPreferencesData, error) {
	prefs, err := a.service.FindPreferences(userKey)
	if err != nil || prefs == nil {
		return nil, err
	}

	level, err := compression.ParseLevel(prefs.DefaultCompressionLevel)
	if err != nil {
		level = compression.DefaultLevel
	}
	return &preferencesDomain.UserPreferencesData{
		DefaultCompressionLevel: level,
	}, nil
}

func (a *PreferencesRepositoryAdapter) UpdatePreferences(userKey string, data map[string]any) error {
	return a.service.UpdatePreferences(userKey, data)
}

func (a *PreferencesRepositoryAdapter) SetDefaultLevel(userKey string, level compression.Level) error {
	return a.service.SetDefaultLevel(userKey, level)
}

// HistoryRepositoryAdapter adapts services.HistoryService to statisticsDomain.HistoryRepository
type HistoryRepositoryAdapter struct {
	service *services.HistoryService
}

func (a *HistoryRepositoryAdapter) Record(summary statisticsDomain.ConversionSummary) error {
	return a.service.Record(summary.UserKey, summary.Level, summary.ImageCount, summary.OriginalBytes, summary.FinalBytes, summary.CreatedAt)
}

func (a *HistoryRepositoryAdapter) History(userKey string, limit int) ([]statisticsDomain.ConversionSummary, error) {
	records, err := a.service.History(userKey, limit)
	if err != nil {
		return nil, err
	}

	summaries := make([]statisticsDomain.ConversionSummary, 0, len(records))
	for _, r := range records {
		summaries = append(summaries, statisticsDomain.ConversionSummary{
			UserKey:       r.UserKey,
			Level:         r.Level,
			ImageCount:    r.ImageCount,
			OriginalBytes: r.OriginalBytes,
			FinalBytes:    r.FinalBytes,
			CreatedAt:     r.CreatedAt,
		})
	}
	return summaries, nil
}
