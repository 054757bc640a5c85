// Package app assembles the backends shared by the server and the command
// line tools.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"bookscan/internal/acquisition"
	"bookscan/internal/book"
	"bookscan/internal/config"
	"bookscan/internal/ledger"
	"bookscan/internal/platform/booksrun"
	"bookscan/internal/platform/database"
	"bookscan/internal/platform/googlebooks"
	"bookscan/internal/platform/httpclient"
	"bookscan/internal/platform/openlibrary"
)

// Stores is the persistence backend selected by DB_DRIVER.
type Stores struct {
	Books  book.Repository
	Ledger ledger.Store
	Ping   func(ctx context.Context) error
	Close  func()
}

// OpenStores connects the configured database and applies pending migrations.
func OpenStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Stores, error) {
	timeout := cfg.Database.Timeout
	switch cfg.Database.Driver {
	case database.DriverSQLite:
		db, err := database.OpenSQLite(cfg.Database.SQLitePath)
		if err != nil {
			return Stores{}, err
		}
		if err := database.Migrate(ctx, db, database.DriverSQLite); err != nil {
			_ = db.Close()
			return Stores{}, err
		}
		logger.Info("database connection OK", zap.String("driver", "sqlite"), zap.String("path", cfg.Database.SQLitePath))
		return Stores{
			Books:  book.NewSQLiteRepo(db, timeout),
			Ledger: ledger.NewSQLiteStore(db, timeout, cfg.Ledger.StartingCredits),
			Ping:   db.PingContext,
			Close:  func() { _ = db.Close() },
		}, nil

	case database.DriverPostgres:
		pool, err := database.OpenPostgres(ctx, cfg.Database.DSN, timeout)
		if err != nil {
			return Stores{}, fmt.Errorf("%s: %w", config.RedactDSN(cfg.Database.DSN), err)
		}
		sqlDB := database.SQLDB(pool)
		if err := database.Migrate(ctx, sqlDB, database.DriverPostgres); err != nil {
			_ = sqlDB.Close()
			pool.Close()
			return Stores{}, err
		}
		logger.Info("database connection OK", zap.String("driver", "postgres"), zap.String("dsn", config.RedactDSN(cfg.Database.DSN)))
		return Stores{
			Books:  book.NewPostgresRepo(pool, timeout),
			Ledger: ledger.NewPostgresStore(pool, timeout, cfg.Ledger.StartingCredits),
			Ping:   pool.Ping,
			Close: func() {
				_ = sqlDB.Close()
				pool.Close()
			},
		}, nil
	}
	return Stores{}, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
}

// NewSources builds the bibliographic sources in lookup order and the
// pricing source. Sources without credentials are left out.
func NewSources(cfg *config.Config, logger *zap.Logger) ([]acquisition.BibliographicSource, acquisition.PricingSource) {
	client := httpclient.New(httpclient.Options{
		UserAgent:  cfg.Lookup.UserAgent,
		Timeout:    cfg.Lookup.ClientTimeout,
		RPS:        cfg.Lookup.ClientRPS,
		MaxRetries: cfg.Lookup.ClientRetries,
	}, logger.Named("httpclient"))

	var sources []acquisition.BibliographicSource
	if cfg.Lookup.GoogleBooksAPIKey != "" {
		sources = append(sources, acquisition.GoogleBooks{Client: googlebooks.NewClient(client, cfg.Lookup.GoogleBooksAPIKey)})
	} else {
		logger.Warn("GOOGLE_BOOKS_API_KEY not set, google books lookups disabled")
	}
	if cfg.Lookup.OpenLibraryEnabled {
		sources = append(sources, acquisition.OpenLibrary{Client: openlibrary.NewClient(client)})
	}

	if cfg.Pricing.BooksRunAPIKey == "" {
		logger.Warn("BOOKSRUN_API_KEY not set, books are stored without a price")
		return sources, nil
	}
	policy := booksrun.Policy{
		Fallback:       cfg.Pricing.FallbackPrice,
		MinMarketplace: cfg.Pricing.MinMarketplacePrice,
	}
	return sources, acquisition.BooksRun{Client: booksrun.NewClient(client, cfg.Pricing.BooksRunAPIKey, policy)}
}
