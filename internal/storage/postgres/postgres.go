// Package postgres holds the PostgreSQL-backed journals.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"chain-gateway/internal/storage"
)

// Journal writes are small and rare; a handful of connections is plenty.
const (
	defaultMaxConns          = 8
	defaultHealthCheckPeriod = 30 * time.Second
)

// uniqueViolation is the SQLSTATE of a primary key conflict.
const uniqueViolation = "23505"

// Pool is the shared pgx pool of the journals.
type Pool struct {
	*pgxpool.Pool
}

// NewPool connects to dsn and verifies the server answers. pool_max_conns in
// the DSN overrides the default size.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if !strings.Contains(dsn, "pool_max_conns") && cfg.MaxConns > defaultMaxConns {
		cfg.MaxConns = defaultMaxConns
	}
	cfg.HealthCheckPeriod = defaultHealthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Pool{Pool: pool}, nil
}

// journalError maps driver errors onto the storage sentinels and wraps the
// rest with op.
func journalError(op string, err error) error {
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return storage.ErrNotFound
	case errors.As(err, &pgErr) && pgErr.Code == uniqueViolation:
		return storage.ErrDuplicateKey
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
