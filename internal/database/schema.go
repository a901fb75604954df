package database

import (
	"context"
	"fmt"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id       SERIAL PRIMARY KEY,
		email    VARCHAR(320) NOT NULL,
		password CHAR(60) NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower ON users ((lower(email)))`,
	`CREATE TABLE IF NOT EXISTS user_data (
		id             SERIAL PRIMARY KEY,
		sleep_time     FLOAT8,
		sleep_quality  INTEGER,
		mood           INTEGER,
		sports_time    FLOAT8,
		studying_time  FLOAT8,
		eating_quality INTEGER,
		date           DATE NOT NULL,
		user_id        INTEGER REFERENCES users(id)
	)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id       INTEGER PRIMARY KEY AUTOINCREMENT,
		email    TEXT NOT NULL,
		password TEXT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower ON users (lower(email))`,
	`CREATE TABLE IF NOT EXISTS user_data (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		sleep_time     REAL,
		sleep_quality  INTEGER,
		mood           INTEGER,
		sports_time    REAL,
		studying_time  REAL,
		eating_quality INTEGER,
		date           TEXT NOT NULL,
		user_id        INTEGER REFERENCES users(id)
	)`,
}

// CreateTables creates the users and user_data tables if they are missing.
// It is idempotent.
func (d *DB) CreateTables(ctx context.Context) error {
	statements := sqliteSchema
	if d.dialect == Postgres {
		statements = postgresSchema
	}

	for _, stmt := range statements {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}
	d.logger.Info("database tables created")
	return nil
}
