// Package sqlxrepos implements the repositories over sqlx. Queries are written with `?`
// placeholders and rebound for the driver, so they run on postgres and sqlite alike.
package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/mutabaah/mutabaah/core"
)

// timeLayout is fixed-width so stored timestamps sort lexically in chronological order.
const timeLayout = "2006-01-02T15:04:05.000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func formatNullTime(t null.Time) null.String {
	if !t.Valid {
		return null.String{}
	}
	return null.StringFrom(formatTime(t.Time))
}

func parseNullTime(s null.String) null.Time {
	if !s.Valid {
		return null.Time{}
	}
	return null.TimeFrom(parseTime(s.String))
}

// trapNoRowsErr maps "no rows" err to notFound; everything else means the store failed.
func trapNoRowsErr(err error, notFound error, op string) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	return core.NewStoreUnavailableError(err, op)
}

// trapNoRowsAffected maps a write that touched nothing to notFound.
func trapNoRowsAffected(res sql.Result, notFound error, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return core.NewStoreUnavailableError(err, op)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// orderBy builds an ORDER BY clause from the whitelisted fields, mapping them to columns.
// Unknown fields are dropped; fallback is always appended as a tie-breaker.
func orderBy(ordering []core.DBOrdering, columns map[string]string, fallback string) string {
	clauses := make([]string, 0, len(ordering)+1)
	for _, ord := range ordering {
		col, ok := columns[ord.Field]
		if !ok {
			continue
		}
		clauses = append(clauses, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
	}
	clauses = append(clauses, fallback)
	return " ORDER BY " + strings.Join(clauses, ", ")
}

// where joins conditions with AND.
func where(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

func likeArg(s string) string {
	return "%" + strings.ToLower(s) + "%"
}

type txBeginner interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// inTx runs fn in a transaction when exec can start one, and directly on exec otherwise
// (exec already being a *sqlx.Tx).
func inTx(ctx context.Context, exec core.DBExecutor, fn func(core.DBExecutor) error) error {
	db, ok := exec.(txBeginner)
	if !ok {
		return fn(exec)
	}
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return core.NewStoreUnavailableError(err, "starting transaction")
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err = tx.Commit(); err != nil {
		return core.NewStoreUnavailableError(err, "committing transaction")
	}
	return nil
}
