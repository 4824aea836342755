// Package tx carries a database/sql transaction through context so a store
// can join a unit of work it did not open.
package tx

import (
	"context"
	"database/sql"
)

type ctxKey struct{}

// Executor is the subset of *sql.DB and *sql.Tx that stores write through.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// WithTx returns a context carrying the transaction. A nil tx leaves the
// context unchanged.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, tx)
}

// From extracts the transaction riding the context, if any.
func From(ctx context.Context) (*sql.Tx, bool) {
	t, ok := ctx.Value(ctxKey{}).(*sql.Tx)
	return t, ok
}

// ExecutorFor returns the context's transaction when one rides it and the
// fallback otherwise, so a write lands inside the caller's unit of work
// whenever there is one.
func ExecutorFor(ctx context.Context, fallback Executor) Executor {
	if t, ok := From(ctx); ok {
		return t
	}
	return fallback
}
