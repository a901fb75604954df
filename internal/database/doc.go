// Package database runs SQL for the report and user services.
//
// The services depend only on Runner and Result, so tests replace the real
// database with a stub (see internal/stub/stubdb) and production code opens
// a *DB:
//
//	db, err := database.Open(cfg.Database, logger)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//	metrics, err := database.NewMetrics(prometheus.DefaultRegisterer)
//	if err != nil {
//	    return err
//	}
//	runner := database.Instrument(db, metrics)
//
// # Drivers
//
//   - sqlite3 (github.com/mattn/go-sqlite3): WAL mode, busy timeout and
//     foreign keys are enabled on open.
//   - postgres (github.com/lib/pq).
//
// Both accept the $1, $2, ... placeholders used by the services. Date
// arithmetic differs between them and is expressed through Dialect.
package database
