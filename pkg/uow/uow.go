// Package uow scopes cross-entity writes into a unit of work. The SQL runner
// gives all-or-nothing semantics via a context-carried transaction that
// participating stores pick up; the memory runner executes sequentially, and
// callers surface a partial_update error when a later write fails after an
// earlier one was applied.
package uow

import (
	"context"
	"database/sql"
	"fmt"
)

// Runner executes fn as one unit of work.
type Runner interface {
	Run(ctx context.Context, fn func(ctx context.Context) error) error
}

type txKey struct{}

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFrom extracts a SQL transaction from context if present.
func TxFrom(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(*sql.Tx)
	return tx, ok
}

// SQLRunner wraps fn in a database transaction. Stores that find the
// transaction in context execute against it instead of the pool.
type SQLRunner struct {
	DB *sql.DB
}

func (r SQLRunner) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin unit of work: %w", err)
	}
	if err := fn(WithTx(ctx, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit unit of work: %w", err)
	}
	return nil
}

// MemoryRunner has no transaction to offer; it simply runs fn. In-memory
// stores do not fail mid-flight outside of programming errors, and the
// workflow services report partial_update when they do.
type MemoryRunner struct{}

func (MemoryRunner) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
