package main

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"bookscan/internal/acquisition"
	"bookscan/internal/app"
	"bookscan/internal/book"
	"bookscan/internal/config"
	"bookscan/internal/ledger"
	"bookscan/internal/logging"
)

// commandContext loads configuration and backends on first use, so that
// commands like normalize run without a database.
type commandContext struct {
	configFlag *string
	logLevel   *string

	mu     sync.Mutex
	cfg    *config.Config
	logger *zap.Logger
	stores *app.Stores
}

func newCommandContext(configFlag, logLevel *string) *commandContext {
	return &commandContext{configFlag: configFlag, logLevel: logLevel}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cfg != nil {
		return c.cfg, nil
	}
	config.LoadEnvFiles()
	cfg, err := config.Load(*c.configFlag)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	c.logger = logging.New(logging.Options{Level: *c.logLevel, Stderr: true, File: cfg.Log.File, MaxSizeMB: 10})
	return cfg, nil
}

func (c *commandContext) ensureStores(ctx context.Context) (*app.Stores, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stores != nil {
		return c.stores, nil
	}
	st, err := app.OpenStores(ctx, cfg, c.logger)
	if err != nil {
		return nil, err
	}
	c.stores = &st
	return c.stores, nil
}

func (c *commandContext) ledgerService(ctx context.Context) (*ledger.Service, error) {
	st, err := c.ensureStores(ctx)
	if err != nil {
		return nil, err
	}
	return ledger.NewService(st.Ledger, ledger.Config{
		EnforceCreditFloor:  c.cfg.Ledger.EnforceCreditFloor,
		CreditsPerMinorUnit: c.cfg.Ledger.CreditsPerMinorUnit,
	}, c.logger), nil
}

func (c *commandContext) bookService(ctx context.Context) (*book.Service, error) {
	st, err := c.ensureStores(ctx)
	if err != nil {
		return nil, err
	}
	return book.NewService(st.Books), nil
}

// sources must be called after ensureConfig.
func (c *commandContext) sources() ([]acquisition.BibliographicSource, acquisition.PricingSource) {
	return app.NewSources(c.cfg, c.logger)
}

func (c *commandContext) acquisitionService(ctx context.Context) (*acquisition.Service, error) {
	led, err := c.ledgerService(ctx)
	if err != nil {
		return nil, err
	}
	sources, pricing := c.sources()
	return acquisition.NewService(c.stores.Books, sources, pricing, led, c.logger), nil
}

func (c *commandContext) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stores != nil {
		c.stores.Close()
		c.stores = nil
	}
	if c.logger != nil {
		_ = c.logger.Sync()
	}
}
