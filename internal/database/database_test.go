package database

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wellbeing/internal/config"
)

func openMemory(t *testing.T) *DB {
	t.Helper()
	db, err := Open(config.Database{Driver: config.DriverSQLite, URL: ":memory:", PoolSize: 1}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.CreateTables(context.Background()))
	return db
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(config.Database{Driver: "mysql", URL: "x", PoolSize: 1}, nil)
	assert.Error(t, err)
}

func TestDB_CreateTablesIsIdempotent(t *testing.T) {
	db := openMemory(t)
	require.NoError(t, db.CreateTables(context.Background()))
	assert.Equal(t, SQLite, db.Dialect())
}

func TestDB_QueryReturnsRowsInOrder(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)

	_, err := db.Query(ctx, "INSERT INTO users (email, password) VALUES ($1, $2);", "a@example.com", "hash-a")
	require.NoError(t, err)
	_, err = db.Query(ctx, "INSERT INTO users (email, password) VALUES ($1, $2);", "b@example.com", "hash-b")
	require.NoError(t, err)

	result, err := db.Query(ctx, "SELECT email, password FROM users ORDER BY id;")
	require.NoError(t, err)

	assert.Equal(t, 2, result.RowCount())
	assert.Equal(t, []Row{
		{"email": "a@example.com", "password": "hash-a"},
		{"email": "b@example.com", "password": "hash-b"},
	}, result.RowsOfObjects())
}

func TestDB_QueryWithArgs(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)

	_, err := db.Query(ctx, "INSERT INTO users (email, password) VALUES ($1, $2);", "a@example.com", "hash-a")
	require.NoError(t, err)
	_, err = db.Query(ctx, "INSERT INTO user_data (sleep_time, sleep_quality, mood, date, user_id) VALUES ($1, $2, $3, $4, $5);",
		7.5, 4, 3, "2024-05-01", 1)
	require.NoError(t, err)

	result, err := db.Query(ctx, "SELECT sleep_time, mood FROM user_data WHERE user_id = $1 AND date = $2;", 1, "2024-05-01")
	require.NoError(t, err)

	row := FirstRow(result)
	require.NotNil(t, row)
	assert.Equal(t, 7.5, row["sleep_time"])
	assert.Equal(t, int64(3), row["mood"])
}

func TestDB_QueryError(t *testing.T) {
	db := openMemory(t)
	_, err := db.Query(context.Background(), "SELECT * FROM missing_table;")
	assert.Error(t, err)
}

func TestDB_UniqueEmailIgnoresCase(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)

	_, err := db.Query(ctx, "INSERT INTO users (email, password) VALUES ($1, $2);", "A@example.com", "x")
	require.NoError(t, err)
	_, err = db.Query(ctx, "INSERT INTO users (email, password) VALUES ($1, $2);", "a@EXAMPLE.com", "y")
	assert.Error(t, err)
}

func TestRowsHelpers(t *testing.T) {
	assert.Nil(t, RowsOf(nil))
	assert.Nil(t, FirstRow(nil))
	assert.Nil(t, FirstRow(Rows{}))

	rows := Rows{{"a": 1}, {"b": 2}}
	assert.Equal(t, 2, rows.RowCount())
	assert.Equal(t, Row{"a": 1}, FirstRow(rows))
}

func TestDialects(t *testing.T) {
	d, err := DialectFor(config.DriverPostgres)
	require.NoError(t, err)
	assert.Equal(t, "EXTRACT(WEEK FROM date)", d.WeekOf("date"))
	assert.Equal(t, "EXTRACT(MONTH FROM date)", d.MonthOf("date"))
	assert.Equal(t, "CURRENT_DATE - 7", d.DaysAgo(7))

	d, err = DialectFor(config.DriverSQLite)
	require.NoError(t, err)
	assert.Equal(t, "CAST(strftime('%W', date) AS INTEGER)", d.WeekOf("date"))
	assert.Equal(t, "CAST(strftime('%m', date) AS INTEGER)", d.MonthOf("date"))
	assert.Equal(t, "date('now', '-7 days')", d.DaysAgo(7))

	_, err = DialectFor("oracle")
	assert.Error(t, err)
}

func TestInstrument_RecordsDurationAndErrors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	failing := errors.New("boom")
	runner := Instrument(RunnerFunc(func(ctx context.Context, query string, args ...any) (Result, error) {
		if query == "DELETE" {
			return nil, failing
		}
		return Rows{{"n": 1}}, nil
	}), m)

	result, err := runner.Query(context.Background(), "  select 1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.RowCount())

	_, err = runner.Query(context.Background(), "DELETE")
	assert.ErrorIs(t, err, failing)

	assert.Equal(t, 2, testutil.CollectAndCount(m.Duration))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Errors.WithLabelValues("delete")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.Errors.WithLabelValues("select")))
}

func TestNewMetrics_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewMetrics(reg)
	require.NoError(t, err)
	second, err := NewMetrics(reg)
	require.NoError(t, err)
	assert.Same(t, first.Duration, second.Duration)
	assert.Same(t, first.Errors, second.Errors)
}

func TestStatementVerb(t *testing.T) {
	tests := map[string]string{
		"SELECT * FROM users":         "select",
		"\n    INSERT INTO users ...": "insert",
		"delete from x":               "delete",
		"PRAGMA user_version":         "other",
		"":                            "unknown",
	}
	for in, want := range tests {
		assert.Equal(t, want, statementVerb(in), "statementVerb(%q)", in)
	}
}
