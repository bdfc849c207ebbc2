package core

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type (
	// DBExecutor is satisfied by both *sqlx.DB and *sqlx.Tx.
	DBExecutor interface {
		sqlx.ExtContext

		Exec(query string, args ...interface{}) (sql.Result, error)
		Query(query string, args ...interface{}) (*sql.Rows, error)
		QueryRow(query string, args ...interface{}) *sql.Row
		QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	}

	DB interface {
		DBExecutor

		BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
	}

	DBTransactor interface {
		DBExecutor

		Commit() error
		Rollback() error
	}
)

var _ DB = (*sqlx.DB)(nil)
var _ DBTransactor = (*sqlx.Tx)(nil)

// RunInTx runs fn inside a single transaction, committing on success and rolling back on any error or panic.
func RunInTx(ctx context.Context, db DB, fn func(tx DBExecutor) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
				err = errors.Wrap(err, fmt.Sprintf("rolling back: %v", rbErr))
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

// Transactor opens the transaction scope of a business operation.
type Transactor interface {
	Transact(ctx context.Context, fn func(tx DBExecutor) error) error
}

type sqlTransactor struct {
	db DB
}

// NewTransactor returns a Transactor running every scope through RunInTx on db.
func NewTransactor(db DB) Transactor {
	return sqlTransactor{db: db}
}

func (t sqlTransactor) Transact(ctx context.Context, fn func(tx DBExecutor) error) error {
	return RunInTx(ctx, t.db, fn)
}

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// FilterOrderings keeps the orderings whose field is allowed, mapping them to their column names.
func FilterOrderings(ords []DBOrdering, allowed map[string]string) []DBOrdering {
	kept := make([]DBOrdering, 0, len(ords))
	for _, o := range ords {
		if col, ok := allowed[o.Field]; ok {
			kept = append(kept, DBOrdering{Field: col, Ascending: o.Ascending})
		}
	}
	return kept
}
