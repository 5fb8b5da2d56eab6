package tx

import (
	"context"
	"database/sql"
)

type ctxKey struct{}

var txKey = ctxKey{}

// WithTx stores a SQL transaction in context so a deduplication pass can be
// embedded in a caller-owned transaction instead of the store's own.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}

// Queryer is the subset of *sql.DB and *sql.Tx the stores need.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Executor returns the context transaction when one is present, otherwise
// the fallback (typically the store's *sql.DB or its pass transaction).
func Executor(ctx context.Context, fallback Queryer) Queryer {
	if t, ok := From(ctx); ok {
		return t
	}
	return fallback
}
