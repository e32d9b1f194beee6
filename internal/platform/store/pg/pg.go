// Package pg opens the postgres pool schedules are stored in
package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"transitplan/internal/platform/logger"
)

// Config configures the pool
type Config struct {
	URL      string
	MaxConns int32

	// AppName shows up in pg_stat_activity
	AppName string

	// LogSQL attaches a Tracer; Slow marks queries at or above it
	LogSQL bool
	Slow   time.Duration
}

// seam for tests
var newPool = pgxpool.NewWithConfig

// Open builds a pool without waiting for the server; pair it with WaitReady
func Open(ctx context.Context, cfg Config, log logger.Logger) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("pg: parse url: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	if cfg.AppName != "" {
		pcfg.ConnConfig.RuntimeParams["application_name"] = cfg.AppName
	}
	if cfg.LogSQL {
		pcfg.ConnConfig.Tracer = NewTracer(log, cfg.Slow)
	}
	return newPool(ctx, pcfg)
}

// Retry bounds WaitReady
type Retry struct {
	Attempts    int
	PingTimeout time.Duration
	Backoff     time.Duration
	MaxBackoff  time.Duration
}

// DefaultRetry covers a database container that is still booting, about half a minute
var DefaultRetry = Retry{Attempts: 20, PingTimeout: 3 * time.Second, Backoff: 150 * time.Millisecond, MaxBackoff: 2 * time.Second}

type pinger interface{ Ping(context.Context) error }

// WaitReady pings p until it answers, doubling the pause between attempts up to MaxBackoff
func WaitReady(ctx context.Context, p pinger, r Retry) error {
	if r.Attempts < 1 {
		r.Attempts = 1
	}
	pause := r.Backoff
	var last error
	for i := 0; i < r.Attempts; i++ {
		pctx, cancel := context.WithTimeout(ctx, r.PingTimeout)
		last = p.Ping(pctx)
		cancel()
		if last == nil {
			return nil
		}
		if i == r.Attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pause):
		}
		pause = min(pause*2, r.MaxBackoff)
	}
	return fmt.Errorf("pg: no answer after %d attempts: %w", r.Attempts, last)
}
