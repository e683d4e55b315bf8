package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool wraps pgxpool.Pool for dependency injection.
type Pool struct {
	*pgxpool.Pool
}

// NewPool creates a new Postgres connection pool.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// Close closes the connection pool.
func (p *Pool) Close() {
	p.Pool.Close()
}

// schema is the scan archive table, applied idempotently at startup.
const schema = `
CREATE TABLE IF NOT EXISTS scan_records (
	id                 BIGSERIAL PRIMARY KEY,
	owner              TEXT NOT NULL,
	scanned_at         TIMESTAMPTZ NOT NULL,
	risk_score         INT NOT NULL,
	total_tokens       INT NOT NULL,
	total_nfts         INT NOT NULL,
	suspicious_count   INT NOT NULL,
	malicious_count    INT NOT NULL,
	delegate_approvals INT NOT NULL,
	total_value_usd    DOUBLE PRECISION NOT NULL,
	result_json        JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scan_records_owner_scanned_at
	ON scan_records (owner, scanned_at DESC);
`

// Migrate applies the schema.
func Migrate(ctx context.Context, pool *Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// isNotFoundError checks if error indicates no rows found.
func isNotFoundError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
