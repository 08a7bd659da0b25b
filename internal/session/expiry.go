package session

import (
	"context"
	"time"

	"imagepress/internal/common"
)

// Sweep removes sessions idle since before now minus the TTL and returns how
// many were dropped. It does nothing when no TTL is configured.
func (s *Store) Sweep(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}

	s.mu.Lock()
	candidates := make(map[string]*entry, len(s.entries))
	for userKey, e := range s.entries {
		candidates[userKey] = e
	}
	s.mu.Unlock()

	expired := 0
	for userKey, e := range candidates {
		e.mu.Lock()
		if !e.removed && now.Sub(e.touched) > s.ttl {
			s.remove(userKey, e)
			expired++
			s.logger.Info("Session expired", "user", userKey, "images", len(e.images), "idle", now.Sub(e.touched))
		}
		e.mu.Unlock()
	}

	return expired
}

// Run sweeps every interval until ctx is done
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if s.ttl <= 0 {
		return
	}
	if interval <= 0 {
		interval = common.DefaultSweepInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(s.now())
		}
	}
}
