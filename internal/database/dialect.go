package database

import (
	"fmt"

	"github.com/roach88/wellbeing/internal/config"
)

// Dialect renders the SQL fragments that differ between drivers.
type Dialect interface {
	Name() string
	// WeekOf returns an integer expression for the week number of col.
	WeekOf(col string) string
	// MonthOf returns an integer expression for the month (1-12) of col.
	MonthOf(col string) string
	// DaysAgo returns a date expression for today minus n days.
	DaysAgo(n int) string
}

// Postgres is the dialect of the lib/pq driver.
var Postgres Dialect = postgresDialect{}

// SQLite is the dialect of the go-sqlite3 driver.
var SQLite Dialect = sqliteDialect{}

// DialectFor returns the dialect of a configured driver.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case config.DriverPostgres:
		return Postgres, nil
	case config.DriverSQLite:
		return SQLite, nil
	default:
		return nil, fmt.Errorf("no dialect for driver %q", driver)
	}
}

type postgresDialect struct{}

func (postgresDialect) Name() string { return config.DriverPostgres }

func (postgresDialect) WeekOf(col string) string {
	return fmt.Sprintf("EXTRACT(WEEK FROM %s)", col)
}

func (postgresDialect) MonthOf(col string) string {
	return fmt.Sprintf("EXTRACT(MONTH FROM %s)", col)
}

func (postgresDialect) DaysAgo(n int) string {
	return fmt.Sprintf("CURRENT_DATE - %d", n)
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return config.DriverSQLite }

func (sqliteDialect) WeekOf(col string) string {
	return fmt.Sprintf("CAST(strftime('%%W', %s) AS INTEGER)", col)
}

func (sqliteDialect) MonthOf(col string) string {
	return fmt.Sprintf("CAST(strftime('%%m', %s) AS INTEGER)", col)
}

func (sqliteDialect) DaysAgo(n int) string {
	return fmt.Sprintf("date('now', '-%d days')", n)
}
