package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/roach88/wellbeing/internal/config"
	"github.com/roach88/wellbeing/internal/observability"
)

// DB is a pooled SQL connection implementing Runner.
type DB struct {
	db      *sql.DB
	dialect Dialect
	logger  *zap.Logger
}

// Open connects with the configured driver and pool size and verifies the
// connection. For SQLite, pragmas are applied as well.
func Open(cfg config.Database, logger *zap.Logger) (*DB, error) {
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(cfg.Driver, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Driver == config.DriverSQLite {
		// SQLite allows a single writer; more connections only produce
		// SQLITE_BUSY. An in-memory database also lives per connection.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		if err := applyPragmas(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply pragmas: %w", err)
		}
	} else {
		db.SetMaxOpenConns(cfg.PoolSize)
		db.SetMaxIdleConns(cfg.PoolSize)
	}

	return &DB{db: db, dialect: dialect, logger: observability.OrNop(logger)}, nil
}

// Close closes the pool.
func (d *DB) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

// Dialect returns the dialect of the open driver.
func (d *DB) Dialect() Dialect {
	return d.dialect
}

// Query runs query and reads every row into memory.
func (d *DB) Query(ctx context.Context, query string, args ...any) (Result, error) {
	d.logger.Debug("executing query", zap.String("query", query), zap.Any("args", args))

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		d.logger.Error("query failed", zap.String("query", query), zap.Error(err))
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	result, err := scanRows(rows)
	if err != nil {
		d.logger.Error("reading rows failed", zap.String("query", query), zap.Error(err))
		return nil, err
	}

	d.logger.Debug("received rows", zap.Int("row_count", result.RowCount()))
	return result, nil
}

func scanRows(rows *sql.Rows) (Rows, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("get columns: %w", err)
	}

	result := Rows{}
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return result, nil
}

// normalizeValue turns driver byte slices into strings so rows compare and
// print naturally.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case time.Time:
		return val.UTC()
	default:
		return val
	}
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}
