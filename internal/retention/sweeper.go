// Package retention reaps identities that have gone quiet past a
// configurable horizon. Sweeps run off the request path; a failed sweep is
// logged and retried on the next tick, never surfaced to live traffic.
package retention

import (
	"context"
	"log/slog"
	"time"

	"identity/internal/observability/metrics"
	"identity/internal/store"
)

// DefaultHorizon is how long an identity may stay unseen before the sweep
// deletes it.
const DefaultHorizon = 30 * 24 * time.Hour

type Sweeper struct {
	store    *store.Store
	horizon  time.Duration
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time

	// onDeleted lets process-local state (session memory, rate counters)
	// drop entries for reaped identities.
	onDeleted func(deviceIDs []string)
}

func NewSweeper(st *store.Store, horizon, interval time.Duration, logger *slog.Logger, onDeleted func([]string)) *Sweeper {
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Sweeper{
		store:     st,
		horizon:   horizon,
		interval:  interval,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
		onDeleted: onDeleted,
	}
}

// SweepOnce deletes every identity whose last_seen predates the horizon
// and returns how many rows went away.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.horizon).Unix()
	ids, err := s.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if len(ids) > 0 && s.onDeleted != nil {
		s.onDeleted(ids)
	}
	return len(ids), nil
}

// Start runs SweepOnce on a ticker until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := s.SweepOnce(ctx)
				if err != nil {
					s.logger.Error("retention sweep failed", "error", err)
					continue
				}
				if n > 0 {
					metrics.RetentionDeletedTotal.WithLabelValues().Add(float64(n))
					s.logger.Info("retention sweep", "deleted", n, "horizon", s.horizon.String())
				}
			}
		}
	}()
}
