// Package store opens the planner backends and exposes the narrow seams repos are written against
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"transitplan/internal/platform/logger"
)

// Row is a single result row
type Row interface {
	Scan(dest ...any) error
}

// Rows is a result set; callers must Close it
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// CommandTag reports what a write did
type CommandTag interface {
	String() string
	RowsAffected() int64
}

// RowQuerier is the sql surface repos are written against
type RowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// TxRunner runs fn inside one transaction; fn returning an error rolls it back
type TxRunner interface {
	RowQuerier
	Tx(ctx context.Context, fn func(q RowQuerier) error) error
}

// Clickhouse receives append only audit rows
type Clickhouse interface {
	Insert(ctx context.Context, table string, rows [][]any) error
	Exec(ctx context.Context, sql string, args ...any) error
	Close() error
}

// Pinger reports readiness
type Pinger interface{ Ping(context.Context) error }

// Store holds the open backends; a disabled backend stays nil
type Store struct {
	Log logger.Logger
	PG  TxRunner
	CH  Clickhouse
	RDS *redis.Client
}

// Option adjusts a Store before backends are opened
type Option func(*Store)

// WithLogger sets the logger backends trace on
func WithLogger(l logger.Logger) Option { return func(s *Store) { s.Log = l } }

// Open connects every enabled backend; a failure closes whatever was already open
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{Log: *logger.Named("store")}
	for _, o := range opts {
		o(s)
	}

	var err error
	if cfg.PG.Enabled {
		if s.PG, err = openPG(ctx, cfg, s.Log); err != nil {
			return nil, err
		}
	}
	if cfg.CH.Enabled {
		if s.CH, err = openCH(ctx, cfg); err != nil {
			_ = s.Close(ctx)
			return nil, err
		}
	}
	if cfg.RDS.Enabled {
		if s.RDS, err = openRDS(ctx, cfg); err != nil {
			_ = s.Close(ctx)
			return nil, err
		}
	}
	return s, nil
}

// Guard pings every open backend and joins the failures
func (s *Store) Guard(ctx context.Context) error {
	if s == nil {
		return errors.New("store: nil")
	}
	var errs []error
	ping := func(name string, b any) {
		if p, ok := b.(Pinger); ok {
			if err := p.Ping(ctx); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
			}
		}
	}
	if s.PG != nil {
		ping("pg", s.PG)
	}
	if s.CH != nil {
		ping("ch", s.CH)
	}
	if s.RDS != nil {
		if err := s.RDS.Ping(ctx).Err(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Close closes every open backend
func (s *Store) Close(_ context.Context) error {
	var errs []error
	if s.CH != nil {
		errs = append(errs, s.CH.Close())
	}
	if s.RDS != nil {
		errs = append(errs, s.RDS.Close())
	}
	if c, ok := s.PG.(interface{ Close() error }); ok {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
