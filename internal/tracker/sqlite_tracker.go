package tracker

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikey/fraud-sentinel/internal/core"
	"go.uber.org/zap"
)

// SQLiteTracker is a SQLite implementation of the DuplicateTracker
// interface for deployments that need observations to survive restarts.
type SQLiteTracker struct {
	db          *sql.DB
	window      time.Duration
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewSQLiteTracker creates a new SQLite-backed duplicate tracker.
func NewSQLiteTracker(dbPath string, window time.Duration, logger *zap.Logger, cleanupFreq time.Duration) (*SQLiteTracker, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS identity_seen (
			kind TEXT NOT NULL,
			identity_key TEXT NOT NULL,
			last_seen TIMESTAMP NOT NULL,
			PRIMARY KEY (kind, identity_key)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_identity_last_seen ON identity_seen(last_seen)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	t := &SQLiteTracker{
		db:          db,
		window:      window,
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	if cleanupFreq > 0 {
		go t.startCleanupTask()
	}

	return t, nil
}

// CheckAndRecord reports whether key was seen within the window before
// observedAt and records the observation. The read and the write run in
// one transaction so concurrent first-time entries for a key cannot
// both observe "not duplicate".
func (t *SQLiteTracker) CheckAndRecord(ctx context.Context, kind core.IdentityKind, key string, observedAt time.Time) (bool, error) {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var prevStr string
	err = tx.QueryRowContext(ctx, `
		SELECT last_seen FROM identity_seen
		WHERE kind = ? AND identity_key = ?
	`, string(kind), key).Scan(&prevStr)

	dup := false
	record := true
	if err == nil {
		prev, perr := time.Parse(time.RFC3339Nano, prevStr)
		if perr != nil {
			return false, fmt.Errorf("failed to parse last_seen timestamp: %w", perr)
		}
		dup = observedAt.Sub(prev) < t.window
		record = !observedAt.Before(prev)
	} else if err != sql.ErrNoRows {
		return false, fmt.Errorf("failed to query last_seen: %w", err)
	}

	if record {
		_, err = tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO identity_seen (kind, identity_key, last_seen)
			VALUES (?, ?, ?)
		`, string(kind), key, observedAt.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return false, fmt.Errorf("failed to record observation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit observation: %w", err)
	}

	return dup, nil
}

// Cleanup deletes observations older than the window.
func (t *SQLiteTracker) Cleanup(ctx context.Context) error {
	cutoff := time.Now().Add(-t.window).UTC().Format(time.RFC3339Nano)

	result, err := t.db.ExecContext(ctx, `
		DELETE FROM identity_seen WHERE last_seen < ?
	`, cutoff)
	if err != nil {
		return fmt.Errorf("failed to clean up aged observations: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		t.logger.Warn("Failed to get rows affected during cleanup", zap.Error(err))
	} else {
		t.logger.Debug("Evicted aged duplicate-tracker rows", zap.Int64("evicted_count", rowsAffected))
	}

	return nil
}

// startCleanupTask starts a background task to evict aged rows.
func (t *SQLiteTracker) startCleanupTask() {
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

// Stop stops the background cleanup task and closes the database.
func (t *SQLiteTracker) Stop() {
	t.stopOnce.Do(func() {
		close(t.stopCh)
		if err := t.db.Close(); err != nil {
			t.logger.Error("Failed to close SQLite database", zap.Error(err))
		}
	})
}
