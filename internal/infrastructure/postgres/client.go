package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/fastygo/journal/internal/config"
)

// NewPool creates and validates a pgx connection pool for the journal database.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*pgxpool.Pool, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	pgxCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	applyPoolLimits(pgxCfg, cfg)

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("connected to postgres",
		zap.String("host", pgxCfg.ConnConfig.Host),
		zap.String("db", pgxCfg.ConnConfig.Database),
		zap.Int32("max_conns", pgxCfg.MaxConns))
	return pool, nil
}

func applyPoolLimits(pgxCfg *pgxpool.Config, cfg config.DatabaseConfig) {
	if cfg.MaxOpenConns > 0 {
		pgxCfg.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		idle := int32(cfg.MaxIdleConns)
		if idle > pgxCfg.MaxConns {
			idle = pgxCfg.MaxConns
		}
		pgxCfg.MinConns = idle
	}
	if cfg.MaxConnLifetime > 0 {
		pgxCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
}

// Close releases the pool. It is registered as a lifecycle hook.
func Close(pool *pgxpool.Pool, logger *zap.Logger) func(context.Context) error {
	return func(context.Context) error {
		if pool == nil {
			return nil
		}
		pool.Close()
		if logger != nil {
			logger.Info("postgres pool closed")
		}
		return nil
	}
}
