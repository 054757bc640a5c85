package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/pressly/goose/v3"

	"bookscan/internal/config"
	"bookscan/internal/platform/database"
)

func main() {
	var (
		command = flag.String("command", "up", "Migration command: up, down, status, version, create")
		name    = flag.String("name", "", "Name for 'create' command")
		driver  = flag.String("driver", "", "postgres or sqlite, overrides DB_DRIVER")
	)
	flag.Parse()

	config.LoadEnvFiles()
	cfg, err := config.Load(os.Getenv("BOOKSCAN_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *driver != "" {
		cfg.Database.Driver = strings.ToLower(*driver)
	}

	if *command == "create" {
		if *name == "" {
			log.Fatal("Name is required for 'create' command")
		}
		goose.SetSequential(true)
		dir := migrationsDir(cfg.Database.Driver)
		if err := goose.Create(nil, dir, *name, "sql"); err != nil {
			log.Fatalf("Failed to create migration: %v", err)
		}
		fmt.Printf("Migration created in %s: %s\n", dir, *name)
		return
	}

	ctx := context.Background()
	db, closeDB, err := openDB(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB()

	p, err := database.NewMigrator(db, cfg.Database.Driver)
	if err != nil {
		log.Fatalf("Failed to load migrations: %v", err)
	}
	if err := runCommand(ctx, p, *command, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func openDB(ctx context.Context, cfg *config.Config) (*sql.DB, func(), error) {
	if cfg.Database.Driver == database.DriverSQLite {
		db, err := database.OpenSQLite(cfg.Database.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return db, func() { _ = db.Close() }, nil
	}

	pool, err := database.OpenPostgres(ctx, cfg.Database.DSN, cfg.Database.Timeout)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", config.RedactDSN(cfg.Database.DSN), err)
	}
	db := database.SQLDB(pool)
	return db, func() {
		_ = db.Close()
		pool.Close()
	}, nil
}

func runCommand(ctx context.Context, p *goose.Provider, command string, out io.Writer) error {
	switch command {
	case "up":
		results, err := p.Up(ctx)
		if err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		for _, r := range results {
			fmt.Fprintf(out, "OK   %s (%s)\n", r.Source.Path, r.Duration)
		}
		fmt.Fprintln(out, "Migrations applied successfully")
	case "down":
		r, err := p.Down(ctx)
		if err != nil {
			return fmt.Errorf("rollback migrations: %w", err)
		}
		fmt.Fprintf(out, "Rolled back %s\n", r.Source.Path)
	case "status":
		statuses, err := p.Status(ctx)
		if err != nil {
			return fmt.Errorf("migration status: %w", err)
		}
		for _, s := range statuses {
			applied := "Pending"
			if s.State == goose.StateApplied {
				applied = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(out, "%-20s %s\n", applied, s.Source.Path)
		}
	case "version":
		v, err := p.GetDBVersion(ctx)
		if err != nil {
			return fmt.Errorf("read version: %w", err)
		}
		fmt.Fprintf(out, "version %d\n", v)
	default:
		return fmt.Errorf("unknown command %q, use: up, down, status, version, create", command)
	}
	return nil
}
