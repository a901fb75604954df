package database

import "context"

// Row is one result row keyed by column name.
type Row = map[string]any

// Result is what a query hands back to the services: a row count and the
// rows in query order.
type Result interface {
	RowCount() int
	RowsOfObjects() []Row
}

// Runner executes a query with positional ($1, $2, ...) arguments.
// A nil Result with a nil error means "no result" and is treated by the
// services as zero rows.
type Runner interface {
	Query(ctx context.Context, query string, args ...any) (Result, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, query string, args ...any) (Result, error)

// Query calls f.
func (f RunnerFunc) Query(ctx context.Context, query string, args ...any) (Result, error) {
	return f(ctx, query, args...)
}

// Rows is an in-memory Result.
type Rows []Row

// RowCount returns len(r).
func (r Rows) RowCount() int {
	return len(r)
}

// RowsOfObjects returns r.
func (r Rows) RowsOfObjects() []Row {
	return r
}

// RowsOf returns the rows of result, or nil when result is nil.
func RowsOf(result Result) []Row {
	if result == nil {
		return nil
	}
	return result.RowsOfObjects()
}

// FirstRow returns the first row of result, or nil.
func FirstRow(result Result) Row {
	rows := RowsOf(result)
	if len(rows) == 0 {
		return nil
	}
	return rows[0]
}
