package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

type txKey struct{}

// Queryer is the subset of *sqlx.DB and *sqlx.Tx the repositories use.
type Queryer interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
	Rebind(query string) string
}

// Conn returns the transaction carried by ctx, or db when there is none.
func Conn(ctx context.Context, db *sqlx.DB) Queryer {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return db
}

// InTransaction reports whether ctx carries an open transaction.
func InTransaction(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*sqlx.Tx)
	return ok
}

type Transactor struct {
	db               *sqlx.DB
	lockTimeout      time.Duration
	statementTimeout time.Duration
}

func NewTransactor(db *sqlx.DB, lockTimeout, statementTimeout time.Duration) *Transactor {
	return &Transactor{db: db, lockTimeout: lockTimeout, statementTimeout: statementTimeout}
}

// WithinTransaction runs fn in a READ COMMITTED transaction. Row locks taken
// with SELECT ... FOR UPDATE are held until fn returns; any error rolls back
// every write made through the ctx passed to fn.
func (t *Transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if InTransaction(ctx) {
		return fn(ctx)
	}

	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return TranslateError(fmt.Errorf("begin transaction: %w", err))
	}
	defer tx.Rollback()

	if t.lockTimeout > 0 {
		// SET does not take bind parameters; the value is an integer we format ourselves.
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL lock_timeout = %d", t.lockTimeout.Milliseconds())); err != nil {
			return TranslateError(fmt.Errorf("set lock_timeout: %w", err))
		}
	}
	if t.statementTimeout > 0 {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL statement_timeout = %d", t.statementTimeout.Milliseconds())); err != nil {
			return TranslateError(fmt.Errorf("set statement_timeout: %w", err))
		}
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return TranslateError(err)
	}

	if err := tx.Commit(); err != nil {
		return TranslateError(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}
