package store

import (
	"context"

	"github.com/redis/go-redis/v9"

	"transitplan/internal/platform/logger"
	"transitplan/internal/platform/store/ch"
	"transitplan/internal/platform/store/pg"
	"transitplan/internal/platform/store/rds"
)

// openPG returns the pool only once it answers a ping
func openPG(ctx context.Context, cfg Config, log logger.Logger) (TxRunner, error) {
	pool, err := pg.Open(ctx, pg.Config{
		URL:      cfg.PG.URL,
		MaxConns: cfg.PG.MaxConns,
		AppName:  cfg.AppName,
		LogSQL:   cfg.PG.LogSQL,
		Slow:     cfg.PG.Slow,
	}, log)
	if err != nil {
		return nil, err
	}
	retry := pg.DefaultRetry
	if cfg.PG.ConnectAttempts > 0 {
		retry.Attempts = cfg.PG.ConnectAttempts
	}
	if err := pg.WaitReady(ctx, pool, retry); err != nil {
		pool.Close()
		return nil, err
	}
	log.Info().Int32("max_conns", pool.Config().MaxConns).Msg("postgres ready")
	return newPGStore(pool), nil
}

func openCH(ctx context.Context, cfg Config) (Clickhouse, error) {
	c, err := ch.Open(ctx, ch.Config{URL: cfg.CH.URL, Role: cfg.CH.Role, Tag: cfg.AppName})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func openRDS(ctx context.Context, cfg Config) (*redis.Client, error) {
	return rds.Open(ctx, rds.Config{Addr: cfg.RDS.Addr, Password: cfg.RDS.Password, DB: cfg.RDS.DB})
}
