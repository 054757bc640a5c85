package main

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"bookscan/internal/acquisition"
	"bookscan/internal/app"
	"bookscan/internal/book"
	"bookscan/internal/config"
	"bookscan/internal/export"
	"bookscan/internal/httpx"
	"bookscan/internal/ledger"
	"bookscan/internal/payment"
)

func newRouter(cfg *config.Config, st app.Stores, sources []acquisition.BibliographicSource, pricing acquisition.PricingSource, logger *zap.Logger) http.Handler {
	bookService := book.NewService(st.Books)
	ledgerService := ledger.NewService(st.Ledger, ledger.Config{
		EnforceCreditFloor:  cfg.Ledger.EnforceCreditFloor,
		CreditsPerMinorUnit: cfg.Ledger.CreditsPerMinorUnit,
	}, logger.Named("ledger"))
	acquisitionService := acquisition.NewService(st.Books, sources, pricing, ledgerService, logger.Named("acquisition"))
	exportService := export.NewService(ledgerService, bookService, export.Options{AffiliateTag: cfg.Export.AmazonAffiliateTag})

	bookHandler := book.NewHTTPHandler(bookService, logger)
	ledgerHandler := ledger.NewHTTPHandler(ledgerService, bookService, logger)
	acquisitionHandler := acquisition.NewHTTPHandler(acquisitionService, logger)
	exportHandler := export.NewHTTPHandler(exportService, logger)
	webhookHandler := payment.NewWebhookHandler(ledgerService, cfg.Payments.StripeWebhookSecret, logger.Named("payment"))

	protected := httpx.AuthMiddleware(cfg.Auth.JWTSecret)
	auth := func(h http.HandlerFunc) http.Handler { return protected(h) }

	router := http.NewServeMux()

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := st.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.HandleFunc("POST /v1/isbn/normalize", acquisitionHandler.Normalize)
	router.HandleFunc("GET /v1/books/{isbn}", bookHandler.Get)
	router.HandleFunc("POST /v1/payments/webhook", webhookHandler.Handle)

	router.Handle("POST /v1/scans", auth(acquisitionHandler.Scan))
	router.Handle("GET /v1/me", auth(ledgerHandler.Me))
	router.Handle("GET /v1/me/books", auth(ledgerHandler.Books))
	router.Handle("DELETE /v1/me/books/{isbn}", auth(ledgerHandler.RemoveBook))
	router.Handle("GET /v1/me/export.csv", auth(exportHandler.CSV))

	rateLimiter := httpx.NewClientRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst)
	return httpx.Chain(router,
		httpx.RecoveryMiddleware(logger),
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware(logger),
		httpx.SecurityHeadersMiddleware(cfg.HTTP.EnableHSTS),
		httpx.CORSMiddleware(cfg.HTTP.CORSAllowedOrigins),
		rateLimiter.Middleware,
		httpx.MaxBodyBytesMiddleware(cfg.HTTP.MaxBodyBytes),
	)
}
