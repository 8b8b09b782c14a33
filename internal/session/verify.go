package session

import (
	"context"
	"time"

	"github.com/parley-dev/parley/internal/logger"
	"github.com/parley-dev/parley/internal/provider"
)

const (
	defaultVerifyAttempts = 5
	defaultVerifyDelay    = 2 * time.Second
)

// createVerified creates a conversation and then confirms it is visible
// through the list endpoint, which lags creation on the provider side. When
// the listing catches up, the listed record wins since it may carry fresher
// status. When it never does, the create response is returned unchanged:
// verification failure is a degraded outcome, not a creation failure.
func (m *Manager) createVerified(ctx context.Context, name string) (provider.Record, error) {
	rec, err := m.api.Create(ctx, name)
	if err != nil {
		return provider.Record{}, err
	}
	if listed, ok := m.waitForListing(ctx, rec.ID); ok {
		return listed, nil
	}
	return rec, nil
}

// waitForListing polls the repository until id shows up or the attempts run
// out. A failed poll is logged and counts as a non-match; it still consumes
// its attempt and the wait before the next one.
func (m *Manager) waitForListing(ctx context.Context, id string) (provider.Record, bool) {
	for attempt := 1; attempt <= m.VerifyAttempts; attempt++ {
		rec, found, err := m.finder.Find(ctx, id)
		if err != nil {
			logger.Warn("verify attempt failed", "id", id, "attempt", attempt, "error", err)
		} else if found {
			logger.Debug("conversation visible in listing", "id", id, "attempt", attempt)
			return rec, true
		}

		if attempt < m.VerifyAttempts {
			select {
			case <-ctx.Done():
				return provider.Record{}, false
			case <-time.After(m.VerifyDelay):
			}
		}
	}
	logger.Warn("conversation never appeared in listing, using create response", "id", id, "attempts", m.VerifyAttempts)
	return provider.Record{}, false
}
