// Package repokit is the seam between services and their sql repos
package repokit

import (
	"context"

	"transitplan/internal/platform/store"
)

type (
	// Queryer is what a bound repo runs statements on, a pool or an open tx
	Queryer = store.RowQuerier

	// TxRunner opens transactions
	TxRunner = store.TxRunner
)

// Binder binds a repo to a Queryer, usually the tx a service opened
type Binder[T any] interface {
	Bind(Queryer) T
}

// BindFunc adapts a func to Binder
type BindFunc[T any] func(Queryer) T

// Bind calls f
func (f BindFunc[T]) Bind(q Queryer) T { return f(q) }

// WithTx runs fn in one transaction on db
func WithTx(ctx context.Context, db TxRunner, fn func(q Queryer) error) error {
	return db.Tx(ctx, fn)
}

// InTx binds repo to a fresh transaction and hands it to fn
func InTx[T any](ctx context.Context, db TxRunner, b Binder[T], fn func(repo T) error) error {
	return db.Tx(ctx, func(q Queryer) error { return fn(b.Bind(q)) })
}
