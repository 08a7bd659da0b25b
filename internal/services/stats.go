package services

import (
	"sync"
	"time"

	statisticsDomain "imagepress/internal/domain/statistics"
)

// StatsManager accumulates process-wide conversion statistics
type StatsManager struct {
	mu    sync.Mutex
	stats statisticsDomain.AppStats
}

// NewStatsManager creates a new stats manager starting now
func NewStatsManager() *StatsManager {
	return &StatsManager{
		stats: statisticsDomain.AppStats{StartedAt: time.Now().UTC()},
	}
}

// RecordConversion adds a successful conversion to the totals
func (m *StatsManager) RecordConversion(summary statisticsDomain.ConversionSummary) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.Conversions++
	m.stats.ImagesConverted += int64(summary.ImageCount)
	m.stats.TotalOriginalBytes += summary.OriginalBytes
	m.stats.TotalOutputBytes += summary.FinalBytes
	if saved := summary.OriginalBytes - summary.FinalBytes; saved > 0 {
		m.stats.TotalDataSaved += saved
	}
}

// RecordFailure counts a conversion that did not produce a PDF
func (m *StatsManager) RecordFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.FailedConversions++
}

// GetStats returns a copy of the current totals
func (m *StatsManager) GetStats() statisticsDomain.AppStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}
