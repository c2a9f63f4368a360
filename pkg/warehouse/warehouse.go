// Package warehouse runs SQL against the analytical store and renders rows
// as plain text for the model.
package warehouse

import (
	"context"
	"fmt"
	"strings"

	loggerpkg "github.com/minhyannv/sql-agent-go/pkg/logger"
)

// Field is one column value of a result row.
type Field struct {
	Name  string
	Value any
}

// Row keeps column order as returned by the warehouse.
type Row []Field

// Result is either a row set or an error message, never both.
type Result struct {
	Rows []Row
	Err  string
}

// Failed reports whether the query produced an error instead of rows.
func (r Result) Failed() bool {
	return r.Err != ""
}

// Querier executes one SQL statement and returns its rows.
type Querier interface {
	Query(ctx context.Context, sql string) ([]Row, error)
}

// Run executes sql and folds any failure into Result.Err so callers always
// get a result to branch on.
func Run(ctx context.Context, q Querier, sql string, logger loggerpkg.Logger) Result {
	loggerpkg.Info(logger, "sql query started", nil)
	defer loggerpkg.Info(logger, "sql query finished", nil)

	if q == nil {
		return Result{Err: "no warehouse configured"}
	}
	rows, err := q.Query(ctx, sql)
	if err != nil {
		loggerpkg.Error(logger, "sql query failed", err)
		return Result{Err: errorMessage(err)}
	}
	loggerpkg.Info(logger, "sql query completed", loggerpkg.Fields{"rows": len(rows)})
	return Result{Rows: rows}
}

func errorMessage(err error) string {
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		return fmt.Sprintf("%T", err)
	}
	return msg
}
