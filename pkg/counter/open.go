package counter

import (
	"context"
	"fmt"

	"hablago/pkg/config"
	"hablago/pkg/store"
)

// Open builds the store selected by cfg.Backend. st is required for "sqlite".
// The returned cleanup releases backend resources.
func Open(ctx context.Context, cfg *config.CounterConfig, st store.StateStore) (Store, func(), error) {
	noop := func() {}
	switch cfg.Backend {
	case "", "file":
		return NewFileStore(cfg.Path), noop, nil
	case "sqlite":
		if st == nil {
			return nil, noop, fmt.Errorf("sqlite counter requires a state store")
		}
		return NewStateStore(st), noop, nil
	case "postgres":
		if cfg.Postgres.URL == "" {
			return nil, noop, fmt.Errorf("postgres counter requires counter.postgres.url or HABLAGO_DATABASE_URL")
		}
		pool, err := NewPool(ctx, cfg.Postgres.URL, PoolConfig{
			MaxConns:        cfg.Postgres.MaxConns,
			MaxConnLifetime: cfg.Postgres.MaxConnLifetime.Std(),
		})
		if err != nil {
			return nil, noop, err
		}
		pg, err := NewPostgresStore(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, noop, err
		}
		return pg, pool.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown counter backend %q", cfg.Backend)
	}
}
