// Package sqlstore implements the repository interfaces on top of sqlx.
//
// Two drivers are supported:
//   - "sqlite"   (modernc.org/sqlite, pure Go, the default; a file path or ":memory:")
//   - "postgres" (github.com/lib/pq; a connection string or postgres:// URL)
//
// Queries are written once with "?" placeholders and passed through Rebind,
// which rewrites them to "$1, $2, ..." for Postgres.
package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

func init() {
	// sqlx only knows the cgo driver name "sqlite3"; teach it that the
	// modernc driver also uses "?" placeholders.
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// DB owns the connection pool and hands out the per-table stores.
type DB struct {
	conn   *sqlx.DB
	driver string
}

// Open connects to the database, applies driver settings and creates the
// users and videos tables if they do not exist.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}

	conn, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: connecting to %s: %w", driver, err)
	}

	db := &DB{conn: conn, driver: driver}

	switch driver {
	case DriverSQLite:
		// SQLite allows one writer at a time. A single pooled connection
		// serialises access instead of surfacing SQLITE_BUSY, and keeps a
		// ":memory:" database alive for the lifetime of the pool.
		conn.SetMaxOpenConns(1)

		for _, pragma := range []string{
			"PRAGMA journal_mode=WAL",
			"PRAGMA foreign_keys=ON",
			"PRAGMA busy_timeout=5000",
		} {
			if _, err := conn.ExecContext(ctx, pragma); err != nil {
				conn.Close()
				return nil, fmt.Errorf("sqlstore: %s: %w", pragma, err)
			}
		}
	case DriverPostgres:
		conn.SetMaxOpenConns(25)
		conn.SetMaxIdleConns(10)
	}

	if err := db.migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlstore: running migrations: %w", err)
	}

	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks that the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Driver returns the driver name the pool was opened with.
func (db *DB) Driver() string {
	return db.driver
}

func (db *DB) Users() *UserStore {
	return &UserStore{db: db.conn}
}

func (db *DB) Videos() *VideoStore {
	return &VideoStore{db: db.conn}
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS makes it safe to
// run on every start.
func (db *DB) migrate(ctx context.Context) error {
	stmts := sqliteSchema
	if db.driver == DriverPostgres {
		stmts = postgresSchema
	}
	for _, stmt := range stmts {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// AUTOINCREMENT keeps SQLite from reusing the id of a deleted newest video,
// which would break "newest first" ordering by id.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		username      TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS videos (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		title       TEXT NOT NULL,
		description TEXT,
		url         TEXT NOT NULL,
		created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGSERIAL PRIMARY KEY,
		username      VARCHAR(150) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS videos (
		id          BIGSERIAL PRIMARY KEY,
		title       VARCHAR(200) NOT NULL,
		description VARCHAR(500),
		url         VARCHAR(500) NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}
