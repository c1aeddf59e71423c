package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	ErrRecordNotFound = errors.New("record not found")
)

// DBTX is a common interface for *sql.DB and *sql.Tx
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// TxBeginner is satisfied by *sql.DB. A *sql.Tx is not one, so nested calls
// run inside the caller's transaction.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// withTx runs fn in a transaction when db can start one, otherwise directly on db.
func withTx(ctx context.Context, db DBTX, fn func(DBTX) error) error {
	return runTx(ctx, db, nil, fn)
}

// snapshot is used by paged reads so the total and the page see the same rows.
var snapshot = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

func withReadTx(ctx context.Context, db DBTX, fn func(DBTX) error) error {
	return runTx(ctx, db, snapshot, fn)
}

func runTx(ctx context.Context, db DBTX, opts *sql.TxOptions, fn func(DBTX) error) error {
	b, ok := db.(TxBeginner)
	if !ok {
		return fn(db)
	}
	tx, err := b.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// IsConstraintViolation reports integrity (class 23) and serialization (40001) failures.
func IsConstraintViolation(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code.Class() == "23" || pqErr.Code == "40001"
}

// affectedOrNotFound maps a zero-row mutation to ErrRecordNotFound.
func affectedOrNotFound(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// StatusCounts holds the three status counts taken from one snapshot.
type StatusCounts struct {
	Total    int
	Active   int
	Inactive int
}

// countByStatus counts in a single statement so Active+Inactive equals Total.
// table is always a package constant.
func countByStatus(ctx context.Context, db DBTX, table string) (StatusCounts, error) {
	query := `
		SELECT count(*),
		       count(*) FILTER (WHERE status),
		       count(*) FILTER (WHERE NOT status)
		FROM ` + table

	var s StatusCounts
	err := db.QueryRowContext(ctx, query).Scan(&s.Total, &s.Active, &s.Inactive)
	return s, err
}

func setStatus(ctx context.Context, db DBTX, table string, id int64, status bool) error {
	res, err := db.ExecContext(ctx, `UPDATE `+table+` SET status = $1 WHERE id = $2`, status, id)
	return affectedOrNotFound(res, err)
}

func deleteByID(ctx context.Context, db DBTX, table string, id int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	return affectedOrNotFound(res, err)
}

func countAll(ctx context.Context, db DBTX, table string) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT count(*) FROM `+table).Scan(&n)
	return n, err
}
