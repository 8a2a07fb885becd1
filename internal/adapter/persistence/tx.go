package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/jurix/jurix/internal/domain"
)

type txKey struct{}

// dbtx is the subset of *sql.DB and *sql.Tx the repositories use
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// txFromContext returns the transaction started by RunInTransaction, if any
func txFromContext(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(*sql.Tx)
	return tx, ok
}

// conn returns the transaction carried by ctx, or db outside of one
func conn(ctx context.Context, db *sql.DB) dbtx {
	if tx, ok := txFromContext(ctx); ok {
		return tx
	}
	return db
}

// runInTransaction runs fn in a transaction. Nested calls join the outer one.
func runInTransaction(ctx context.Context, db *sql.DB, fn func(ctx context.Context) error) (err error) {
	if _, ok := txFromContext(ctx); ok {
		return fn(ctx)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return mapError(fmt.Errorf("failed to commit transaction: %w", err), "transaction conflict")
	}
	return nil
}

// Postgres error codes mapped to domain errors
const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
)

// mapError turns constraint and concurrency failures into a ConflictError
func mapError(err error, conflictMessage string) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeUniqueViolation, codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
			return domain.NewConflictError(conflictMessage, err)
		}
	}
	return err
}
