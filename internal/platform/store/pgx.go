package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgxQuerier is the part of pgxpool.Pool and pgx.Tx that repos reach
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// querier narrows pgx results to the store seams
type querier struct{ q pgxQuerier }

func (x querier) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	tag, err := x.q.Exec(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return tag, nil
}

func (x querier) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	rows, err := x.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (x querier) QueryRow(ctx context.Context, sql string, args ...any) Row {
	return x.q.QueryRow(ctx, sql, args...)
}

// pgStore is the TxRunner over a pool
type pgStore struct {
	querier
	pool *pgxpool.Pool
}

func newPGStore(pool *pgxpool.Pool) *pgStore {
	return &pgStore{querier: querier{q: pool}, pool: pool}
}

// Tx commits when fn returns nil and rolls back otherwise, panics included
func (p *pgStore) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		return fn(querier{q: tx})
	})
}

// Ping checks the pool
func (p *pgStore) Ping(ctx context.Context) error { return p.pool.Ping(ctx) }

// Close closes the pool
func (p *pgStore) Close() error {
	p.pool.Close()
	return nil
}
