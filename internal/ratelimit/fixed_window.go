// Package ratelimit throttles per-identity request volume with a coarse
// fixed window: counters accumulate until an external reset wipes them all.
// Burst-then-quiet patterns at window boundaries are accepted; this is
// abuse deterrence, not fairness.
package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultLimit is the per-window request ceiling per identity.
const DefaultLimit = 100

// DefaultWindow is how often counters are reset.
const DefaultWindow = time.Minute

// FixedWindow counts requests per device within the current window.
// Process-scoped; created at service start and passed to the pipeline.
type FixedWindow struct {
	mu     sync.Mutex
	limit  int
	counts map[string]int
}

func NewFixedWindow(limit int) *FixedWindow {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &FixedWindow{
		limit:  limit,
		counts: make(map[string]int),
	}
}

// Allow increments the device's counter and reports whether the request is
// within the window's ceiling. Once the ceiling is hit every call returns
// false until Reset.
func (f *FixedWindow) Allow(deviceID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.counts[deviceID] >= f.limit {
		return false
	}
	f.counts[deviceID]++
	return true
}

// Reset wipes every counter, opening a fresh window.
func (f *FixedWindow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts = make(map[string]int)
}

// Forget drops the counter for a single device, used when an identity is
// reaped mid-window.
func (f *FixedWindow) Forget(deviceID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.counts, deviceID)
}

// StartResetLoop runs Reset on a ticker until ctx is cancelled. The chosen
// guarantee is at-most-once per interval from an in-process ticker; a
// missed tick merely lengthens one window, it never drops counters early.
func (f *FixedWindow) StartResetLoop(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = DefaultWindow
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				f.Reset()
				logger.Debug("rate window reset", "interval", interval.String())
			}
		}
	}()
}
