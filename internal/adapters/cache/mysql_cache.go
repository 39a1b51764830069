package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/go-sql-driver/mysql"
	"github.com/mikey/fraud-sentinel/internal/core"
	"go.uber.org/zap"
)

// MySQLCache is a MySQL implementation of the ReputationCache interface
// for deployments that share one cache between engine instances.
type MySQLCache struct {
	db          *sql.DB
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewMySQLCache creates a new MySQL reputation cache.
func NewMySQLCache(dsn string, logger *zap.Logger, cleanupFreq time.Duration) (*MySQLCache, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS reputation_cache (
			ip VARCHAR(64) PRIMARY KEY,
			info TEXT NOT NULL,
			fetched_at TIMESTAMP NOT NULL,
			expires_at TIMESTAMP NOT NULL,
			INDEX idx_reputation_expires_at (expires_at)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	cache := &MySQLCache{
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
func (c *MySQLCache) Get(ctx context.Context, ip string) (*core.ReputationRecord, error) {
	query, args, err := sq.Select("info", "fetched_at", "expires_at").
		From("reputation_cache").
		Where(sq.Eq{"ip": ip}).
		Where(sq.Gt{"expires_at": time.Now().UTC()}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var infoJSON string
	var fetchedAt, expiresAt time.Time

	err = c.db.QueryRowContext(ctx, query, args...).Scan(&infoJSON, &fetchedAt, &expiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query reputation cache: %w", err)
	}

	record := &core.ReputationRecord{
		IP:        ip,
		FetchedAt: fetchedAt,
		ExpiresAt: expiresAt,
	}
	if err := json.Unmarshal([]byte(infoJSON), &record.Info); err != nil {
		return nil, fmt.Errorf("failed to decode reputation info: %w", err)
	}

	return record, nil
}

// Set stores a record.
func (c *MySQLCache) Set(ctx context.Context, record *core.ReputationRecord) error {
	infoJSON, err := json.Marshal(record.Info)
	if err != nil {
		return fmt.Errorf("failed to encode reputation info: %w", err)
	}

	query, args, err := sq.Insert("reputation_cache").
		Columns("ip", "info", "fetched_at", "expires_at").
		Values(record.IP, string(infoJSON), record.FetchedAt.UTC(), record.ExpiresAt.UTC()).
		Suffix("ON DUPLICATE KEY UPDATE info = VALUES(info), fetched_at = VALUES(fetched_at), expires_at = VALUES(expires_at)").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	if _, err := c.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert reputation record: %w", err)
	}
	return nil
}

// Delete removes a record.
func (c *MySQLCache) Delete(ctx context.Context, ip string) error {
	query, args, err := sq.Delete("reputation_cache").Where(sq.Eq{"ip": ip}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	if _, err := c.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete reputation record: %w", err)
	}
	return nil
}

// Cleanup removes expired records.
func (c *MySQLCache) Cleanup(ctx context.Context) error {
	query, args, err := sq.Delete("reputation_cache").
		Where(sq.LtOrEq{"expires_at": time.Now().UTC()}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	result, err := c.db.ExecContext(ctx, query, args...)
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
func (c *MySQLCache) startCleanupTask() {
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
func (c *MySQLCache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
		if err := c.db.Close(); err != nil {
			c.logger.Error("Failed to close MySQL database", zap.Error(err))
		}
	})
}
