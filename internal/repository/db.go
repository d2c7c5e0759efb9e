package repository

import (
	"context"
	"fmt"

	"github.com/gridclash/gridclash-server/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// DB wraps the pgx connection pool shared by all repositories.
type DB struct {
	Pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewDB creates and pings a connection pool from configuration.
func NewDB(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{Pool: pool, logger: logger}, nil
}

// Close releases the pool.
func (db *DB) Close() {
	db.Pool.Close()
}

// Stats returns pool statistics for startup logging.
func (db *DB) Stats() *pgxpool.Stat {
	return db.Pool.Stat()
}
