package counter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolConfig holds pgxpool limits.
type PoolConfig struct {
	MaxConns        int32
	MaxConnLifetime time.Duration
}

// NewPool opens a postgres connection pool.
func NewPool(ctx context.Context, dsn string, cfg PoolConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("new pool: %w", err)
	}
	return pool, nil
}

// PostgresStore keeps the count in a single-row visitor_counter table.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates the table if needed.
func NewPostgresStore(ctx context.Context, db *pgxpool.Pool) (*PostgresStore, error) {
	query := `
        CREATE TABLE IF NOT EXISTS visitor_counter (
            id         SMALLINT PRIMARY KEY,
            count      BIGINT NOT NULL DEFAULT 0,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )
    `
	if _, err := db.Exec(ctx, query); err != nil {
		return nil, fmt.Errorf("create visitor_counter: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (p *PostgresStore) Load(ctx context.Context) (int64, error) {
	var n int64
	err := p.db.QueryRow(ctx, `SELECT count FROM visitor_counter WHERE id = 1`).Scan(&n)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("load visitor count: %w", err)
	}
	return n, nil
}

func (p *PostgresStore) Save(ctx context.Context, n int64) error {
	query := `
        INSERT INTO visitor_counter (id, count, updated_at)
        VALUES (1, $1, NOW())
        ON CONFLICT (id) DO UPDATE SET count = EXCLUDED.count, updated_at = NOW()
    `
	if _, err := p.db.Exec(ctx, query, n); err != nil {
		return fmt.Errorf("save visitor count: %w", err)
	}
	return nil
}
