package appeal

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore reads appeal statuses from the appeal workflow's
// Postgres database. The schema is owned by that workflow, not by this
// service; only a read path exists here.
type PostgresStore struct {
	db *pgxpool.Pool
}

// Ensure the concrete store satisfies the lookup contract.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a new Postgres-backed appeal store.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create Postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	return &PostgresStore{db: pool}, nil
}

// Status returns the latest appeal status for (email, ip).
func (s *PostgresStore) Status(ctx context.Context, email, ip string) (string, bool, error) {
	query := `
		SELECT status
		FROM appeals
		WHERE email = $1 AND ip = $2
		ORDER BY created_at DESC
		LIMIT 1
	`

	var status string
	err := s.db.QueryRow(ctx, query, email, ip).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to query appeal status: %w", err)
	}

	return status, true, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.db.Close()
}
