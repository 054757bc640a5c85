// Package database opens the Postgres and SQLite backends and applies the
// embedded goose migrations to either.
package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrations embed.FS

// OpenPostgres connects a pool and verifies it with a ping.
func OpenPostgres(ctx context.Context, dsn string, timeout time.Duration) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// OpenSQLite opens path (":memory:" is allowed) on a single connection so
// that writers are serialized.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	if path != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL")
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	return db, nil
}

// SQLDB exposes a pgx pool as *sql.DB for goose.
func SQLDB(pool *pgxpool.Pool) *sql.DB {
	return stdlib.OpenDBFromPool(pool)
}

// MigrationsFS returns the migration files for driver.
func MigrationsFS(driver string) (fs.FS, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
		return fs.Sub(migrations, "migrations/"+driver)
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}
}

func dialect(driver string) goose.Dialect {
	if driver == DriverSQLite {
		return goose.DialectSQLite3
	}
	return goose.DialectPostgres
}

// NewMigrator builds a goose provider over the embedded migrations.
func NewMigrator(db *sql.DB, driver string) (*goose.Provider, error) {
	fsys, err := MigrationsFS(driver)
	if err != nil {
		return nil, err
	}
	p, err := goose.NewProvider(dialect(driver), db, fsys)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return p, nil
}

// Migrate applies every pending migration.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	p, err := NewMigrator(db, driver)
	if err != nil {
		return err
	}
	if _, err := p.Up(ctx); err != nil {
		return fmt.Errorf("migrate %s: %w", driver, err)
	}
	return nil
}

// NewTestSQLite returns a migrated in-memory database. It is used by the
// repository tests of several packages.
func NewTestSQLite(ctx context.Context) (*sql.DB, error) {
	db, err := OpenSQLite(":memory:")
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, db, DriverSQLite); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
