package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trinslooks/studio-api/internal/config"
)

type Pool struct {
	*pgxpool.Pool
}

// poolConfig parses the URL and applies the pool tuning, overridable through
// DB_MAX_CONNS, DB_MIN_CONNS, DB_CONN_LIFETIME_MINUTES and
// DB_CONN_IDLE_MINUTES. The defaults suit a single-instance deployment
// sharing one small Postgres.
func poolConfig(databaseURL string) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = int32(config.Int("DB_MAX_CONNS", 10))
	cfg.MinConns = int32(config.Int("DB_MIN_CONNS", 1))
	cfg.MaxConnLifetime = config.Minutes("DB_CONN_LIFETIME_MINUTES", 30*time.Minute)
	cfg.MaxConnIdleTime = config.Minutes("DB_CONN_IDLE_MINUTES", 5*time.Minute)
	if cfg.MaxConns < 1 {
		cfg.MaxConns = 1
	}
	if cfg.MinConns > cfg.MaxConns {
		cfg.MinConns = cfg.MaxConns
	}
	return cfg, nil
}

func Open(ctx context.Context, databaseURL string) (*Pool, error) {
	cfg, err := poolConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Pool{Pool: pool}, nil
}

func (p *Pool) Close() {
	if p != nil && p.Pool != nil {
		p.Pool.Close()
	}
}

func ReadyCheck(pool *Pool) func(context.Context) error {
	return func(ctx context.Context) error {
		if pool == nil || pool.Pool == nil {
			return errors.New("db not configured")
		}
		return pool.Ping(ctx)
	}
}
