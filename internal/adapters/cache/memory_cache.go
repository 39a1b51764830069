package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mikey/fraud-sentinel/internal/core"
	"go.uber.org/zap"
)

// ErrNotFound is returned when a cache entry is absent or expired.
var ErrNotFound = errors.New("cache entry not found")

// MemoryCache is an in-memory implementation of the ReputationCache
// interface.
type MemoryCache struct {
	records     map[string]*core.ReputationRecord
	mu          sync.RWMutex
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewMemoryCache creates a new in-memory reputation cache.
func NewMemoryCache(logger *zap.Logger, cleanupFreq time.Duration) *MemoryCache {
	cache := &MemoryCache{
		records:     make(map[string]*core.ReputationRecord),
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	if cleanupFreq > 0 {
		go cache.startCleanupTask()
	}

	return cache
}

// Get retrieves a cached record for an IP. An expired record is treated
// as absent.
func (c *MemoryCache) Get(ctx context.Context, ip string) (*core.ReputationRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	record, ok := c.records[ip]
	if !ok || time.Now().After(record.ExpiresAt) {
		return nil, ErrNotFound
	}

	return record, nil
}

// Set stores a record.
func (c *MemoryCache) Set(ctx context.Context, record *core.ReputationRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.records[record.IP] = record
	return nil
}

// Delete removes a record.
func (c *MemoryCache) Delete(ctx context.Context, ip string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.records, ip)
	return nil
}

// Cleanup removes expired records.
func (c *MemoryCache) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	expiredCount := 0

	for ip, record := range c.records {
		if now.After(record.ExpiresAt) {
			delete(c.records, ip)
			expiredCount++
		}
	}

	c.logger.Debug("Cleaned up expired reputation records", zap.Int("expired_count", expiredCount))
	return nil
}

// startCleanupTask starts a background task to clean up expired records.
func (c *MemoryCache) startCleanupTask() {
	ticker := time.NewTicker(c.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Cleanup(context.Background()); err != nil {
				c.logger.Error("Failed to clean up reputation cache", zap.Error(err))
			}
		case <-c.stopCh:
			return
		}
	}
}

// Stop stops the background cleanup task.
func (c *MemoryCache) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}
