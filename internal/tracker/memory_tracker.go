package tracker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mikey/fraud-sentinel/internal/core"
	"go.uber.org/zap"
)

// MemoryTracker is an in-memory implementation of the DuplicateTracker
// interface. One mutex per identity kind linearizes the check+record
// pair for a key, so two simultaneous first-time entries cannot both
// observe "not duplicate".
type MemoryTracker struct {
	kinds       map[core.IdentityKind]*kindState
	window      time.Duration
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
}

type kindState struct {
	mu       sync.Mutex
	lastSeen map[string]time.Time
}

// NewMemoryTracker creates a new in-memory duplicate tracker with the
// given sliding window. A background sweep evicts keys whose last
// observation aged out of the window, bounding memory.
func NewMemoryTracker(window time.Duration, logger *zap.Logger, cleanupFreq time.Duration) *MemoryTracker {
	t := &MemoryTracker{
		kinds: map[core.IdentityKind]*kindState{
			core.IdentityEmail:  {lastSeen: make(map[string]time.Time)},
			core.IdentityDevice: {lastSeen: make(map[string]time.Time)},
		},
		window:      window,
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	if cleanupFreq > 0 {
		go t.startCleanupTask()
	}

	return t
}

// CheckAndRecord reports whether key was seen within the window before
// observedAt and records the observation. The window slides: every
// observation resets it, so rapid repeats keep flagging as long as each
// stays within the window of the previous one.
func (t *MemoryTracker) CheckAndRecord(ctx context.Context, kind core.IdentityKind, key string, observedAt time.Time) (bool, error) {
	state, ok := t.kinds[kind]
	if !ok {
		return false, fmt.Errorf("unknown identity kind %q", kind)
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	prev, seen := state.lastSeen[key]
	dup := seen && observedAt.Sub(prev) < t.window

	// Record every observation. Ties and out-of-order timestamps keep
	// the per-key last-seen monotonic.
	if !seen || !observedAt.Before(prev) {
		state.lastSeen[key] = observedAt
	}

	return dup, nil
}

// Cleanup evicts keys whose last observation is older than the window.
func (t *MemoryTracker) Cleanup(ctx context.Context) error {
	cutoff := time.Now().Add(-t.window)
	evicted := 0

	for _, state := range t.kinds {
		state.mu.Lock()
		for key, seen := range state.lastSeen {
			if seen.Before(cutoff) {
				delete(state.lastSeen, key)
				evicted++
			}
		}
		state.mu.Unlock()
	}

	t.logger.Debug("Evicted aged duplicate-tracker keys", zap.Int("evicted_count", evicted))
	return nil
}

// startCleanupTask starts a background task to evict aged keys.
func (t *MemoryTracker) startCleanupTask() {
	ticker := time.NewTicker(t.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := t.Cleanup(context.Background()); err != nil {
				t.logger.Error("Failed to clean up duplicate tracker", zap.Error(err))
			}
		case <-t.stopCh:
			return
		}
	}
}

// Stop stops the background cleanup task.
func (t *MemoryTracker) Stop() {
	t.stopOnce.Do(func() { close(t.stopCh) })
}
