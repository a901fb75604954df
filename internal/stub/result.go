package stub

import (
	"fmt"
	"reflect"
)

// DatabaseResult emulates the result of a data-access call: a row count and
// the rows themselves, returned exactly as configured.
type DatabaseResult struct {
	rows []map[string]any
}

// NewDatabaseResult wraps rows without copying them.
func NewDatabaseResult(rows []map[string]any) *DatabaseResult {
	return &DatabaseResult{rows: rows}
}

// RowCount returns the number of configured rows.
func (r *DatabaseResult) RowCount() int {
	return len(r.rows)
}

// RowsOfObjects returns the configured rows in their original order.
func (r *DatabaseResult) RowsOfObjects() []map[string]any {
	return r.rows
}

// toRows converts a slice or array of string-keyed maps into rows.
// A []map[string]any is returned unchanged so callers get the same rows back.
func toRows(v any) ([]map[string]any, error) {
	if rows, ok := v.([]map[string]any); ok {
		return rows, nil
	}
	if v == nil {
		return nil, &ConfigurationError{Op: "ReturnsDatabaseResult", Reason: "rows must be a slice of maps, got nil"}
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, &ConfigurationError{Op: "ReturnsDatabaseResult", Reason: fmt.Sprintf("rows must be a slice of maps, got %T", v)}
	}

	rows := make([]map[string]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		elem := rv.Index(i).Interface()
		row, ok := stringKeyedMap(elem)
		if !ok {
			return nil, &ConfigurationError{Op: "ReturnsDatabaseResult", Reason: fmt.Sprintf("row %d must be a map with string keys, got %T", i, elem)}
		}
		rows[i] = row
	}
	return rows, nil
}
