package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikey/fraud-sentinel/internal/core"
	"go.uber.org/zap"
)

// SQLiteCache is a SQLite implementation of the ReputationCache
// interface. The reputation payload is stored as a JSON column.
type SQLiteCache struct {
	db          *sql.DB
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewSQLiteCache creates a new SQLite reputation cache.
func NewSQLiteCache(dbPath string, logger *zap.Logger, cleanupFreq time.Duration) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS reputation_cache (
			ip TEXT PRIMARY KEY,
			info TEXT NOT NULL,
			fetched_at TIMESTAMP NOT NULL,
			expires_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_reputation_expires_at ON reputation_cache(expires_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	cache := &SQLiteCache{
		db:          db,
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	if cleanupFreq > 0 {
		go cache.startCleanupTask()
	}

	return cache, nil
}

// Get retrieves a cached record for an IP.
func (c *SQLiteCache) Get(ctx context.Context, ip string) (*core.ReputationRecord, error) {
	var infoJSON string
	var fetchedAt, expiresAt string

	err := c.db.QueryRowContext(ctx, `
		SELECT info, fetched_at, expires_at
		FROM reputation_cache
		WHERE ip = ? AND expires_at > ?
	`, ip, time.Now().UTC().Format(time.RFC3339Nano)).Scan(&infoJSON, &fetchedAt, &expiresAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query reputation cache: %w", err)
	}

	record := &core.ReputationRecord{IP: ip}
	if err := json.Unmarshal([]byte(infoJSON), &record.Info); err != nil {
		return nil, fmt.Errorf("failed to decode reputation info: %w", err)
	}
	if record.FetchedAt, err = time.Parse(time.RFC3339Nano, fetchedAt); err != nil {
		return nil, fmt.Errorf("failed to parse fetched_at timestamp: %w", err)
	}
	if record.ExpiresAt, err = time.Parse(time.RFC3339Nano, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to parse expires_at timestamp: %w", err)
	}

	return record, nil
}

// Set stores a record.
func (c *SQLiteCache) Set(ctx context.Context, record *core.ReputationRecord) error {
	infoJSON, err := json.Marshal(record.Info)
	if err != nil {
		return fmt.Errorf("failed to encode reputation info: %w", err)
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO reputation_cache (ip, info, fetched_at, expires_at)
		VALUES (?, ?, ?, ?)
	`, record.IP, string(infoJSON),
		record.FetchedAt.UTC().Format(time.RFC3339Nano),
		record.ExpiresAt.UTC().Format(time.RFC3339Nano))

	if err != nil {
		return fmt.Errorf("failed to insert reputation record: %w", err)
	}
	return nil
}

// Delete removes a record.
func (c *SQLiteCache) Delete(ctx context.Context, ip string) error {
	_, err := c.db.ExecContext(ctx, `
		DELETE FROM reputation_cache WHERE ip = ?
	`, ip)
	if err != nil {
		return fmt.Errorf("failed to delete reputation record: %w", err)
	}
	return nil
}

// Cleanup removes expired records.
func (c *SQLiteCache) Cleanup(ctx context.Context) error {
	result, err := c.db.ExecContext(ctx, `
		DELETE FROM reputation_cache WHERE expires_at <= ?
	`, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to clean up expired records: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		c.logger.Warn("Failed to get rows affected during cleanup", zap.Error(err))
	} else {
		c.logger.Debug("Cleaned up expired reputation records", zap.Int64("expired_count", rowsAffected))
	}

	return nil
}

// startCleanupTask starts a background task to clean up expired records.
func (c *SQLiteCache) startCleanupTask() {
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

// Stop stops the background cleanup task and closes the database.
func (c *SQLiteCache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
		if err := c.db.Close(); err != nil {
			c.logger.Error("Failed to close SQLite database", zap.Error(err))
		}
	})
}
