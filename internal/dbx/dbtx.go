// Package dbx holds the transaction helpers used by the SQLite state store.
package dbx

import (
	"context"
	"database/sql"
	"fmt"
)

// Execer runs a statement without reading rows.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	Execer
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxBeginner opens transactions. *sql.DB and *sql.Conn both qualify.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// InTx runs fn inside one transaction. An error or panic from fn rolls the
// transaction back; a panic is re-raised afterwards.
func InTx(ctx context.Context, db TxBeginner, fn func(tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		_ = tx.Rollback()
		if p := recover(); p != nil {
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}

// ExecEach runs query once per argument set, in order, and returns the total
// number of affected rows. It stops at the first failing set.
func ExecEach(ctx context.Context, ex Execer, query string, argSets ...[]any) (int64, error) {
	var total int64
	for i, args := range argSets {
		res, err := ex.ExecContext(ctx, query, args...)
		if err != nil {
			return total, fmt.Errorf("exec #%d: %w", i, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			total += n
		}
	}
	return total, nil
}
