package acquisition

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"bookscan/internal/book"
	"bookscan/internal/isbn"
)

type Service struct {
	books   BookStore
	sources []BibliographicSource
	pricing PricingSource
	ledger  Ledger
	logger  *zap.Logger

	lookups singleflight.Group
}

// NewService wires the pipeline. Sources are tried in order; pricing may be
// nil, in which case records are stored without a price.
func NewService(books BookStore, sources []BibliographicSource, pricing PricingSource, ledger Ledger, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		books:   books,
		sources: sources,
		pricing: pricing,
		ledger:  ledger,
		logger:  logger,
	}
}

// Scan normalizes a raw scanned or typed code and acquires the book.
func (s *Service) Scan(ctx context.Context, code, userID string) (Result, error) {
	normalized, err := isbn.Normalize(code)
	if err != nil {
		return Result{}, &Error{Kind: ErrInvalidIdentifier, Message: "Not a recognizable ISBN or UPC barcode.", Err: err}
	}
	return s.Acquire(ctx, normalized, userID)
}

// Acquire adds the book identified by an ISBN-10 or ISBN-13 to the user's
// inventory, fetching and caching its record on first sight.
func (s *Service) Acquire(ctx context.Context, code, userID string) (Result, error) {
	if userID == "" {
		return Result{}, ErrMissingUserID
	}
	if n := len(code); n < 10 || n > 13 {
		return Result{}, &Error{Kind: ErrInvalidIdentifier, Message: "ISBN must be 10 to 13 characters."}
	}
	key, err := isbn.ToISBN13(code)
	if err != nil {
		return Result{}, &Error{Kind: ErrInvalidIdentifier, Message: "ISBN must be 10 or 13 digits.", Err: err}
	}
	if !isbn.IsISBN13(key) {
		return Result{}, &Error{
			Kind:    ErrInvalidIdentifier,
			Message: "ISBN-13 must start with 978 or 979.",
			Err:     fmt.Errorf("%w: %q", isbn.ErrInvalidIdentifier, key),
		}
	}
	log := s.logger.With(zap.String("isbn", key), zap.String("user_id", userID))

	// Checked before any upstream call.
	if _, err := s.ledger.CanAcquire(ctx, key, userID); err != nil {
		return Result{}, err
	}

	rec, hit, err := s.record(ctx, key, log)
	if err != nil {
		return Result{}, err
	}

	receipt, err := s.ledger.AddToUser(ctx, rec.ID, userID)
	if err != nil {
		return Result{}, err
	}
	log.Info("book acquired",
		zap.Bool("cache_hit", hit),
		zap.Bool("already_owned", receipt.AlreadyOwned),
		zap.Int64("credits", receipt.Credits),
	)
	return Result{Book: rec, Receipt: receipt, CacheHit: hit}, nil
}

// record returns the cached record for key, fetching it when missing.
// Concurrent misses for the same key share one fetch.
func (s *Service) record(ctx context.Context, key string, log *zap.Logger) (book.Book, bool, error) {
	cached, err := s.books.GetByID(ctx, key)
	if err == nil {
		return cached, true, nil
	}
	if !errors.Is(err, book.ErrNotFound) {
		return book.Book{}, false, fmt.Errorf("read book cache: %w", err)
	}

	v, err, _ := s.lookups.Do(key, func() (any, error) {
		return s.fetch(context.WithoutCancel(ctx), key, log)
	})
	if err != nil {
		return book.Book{}, false, err
	}
	return v.(book.Book), false, nil
}

// fetch runs lookup, pricing and the cache upsert for a missed key.
func (s *Service) fetch(ctx context.Context, key string, log *zap.Logger) (book.Book, error) {
	bib, err := s.lookup(ctx, key, log)
	if err != nil {
		return book.Book{}, err
	}
	// The record stays keyed by key; pricing follows the source's ISBN-13.
	priceID := key
	if bib.ISBN13 != key && isbn.ValidISBN13(bib.ISBN13) {
		log.Debug("source reported another isbn-13", zap.String("source", bib.Source), zap.String("reported", bib.ISBN13))
		priceID = bib.ISBN13
	}
	rec := bib.Record(key)

	if q, err := s.price(ctx, priceID); err != nil {
		log.Warn("pricing unavailable", zap.Error(err))
	} else {
		rec.Price = decimal.NewNullDecimal(q.Price)
		rec.Tag = q.Tag
	}

	stored, err := s.books.Upsert(ctx, rec)
	if err != nil {
		return book.Book{}, fmt.Errorf("cache book: %w", err)
	}
	return stored, nil
}

func (s *Service) lookup(ctx context.Context, key string, log *zap.Logger) (Bibliographic, error) {
	var errs []error
	for _, src := range s.sources {
		bib, err := src.Lookup(ctx, key)
		if err == nil {
			log.Debug("bibliographic lookup", zap.String("source", src.Name()))
			return bib, nil
		}
		log.Info("bibliographic source failed", zap.String("source", src.Name()), zap.Error(err))
		errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
	}
	if len(errs) == 0 {
		errs = append(errs, errors.New("no bibliographic sources configured"))
	}
	return Bibliographic{}, &Error{
		Kind:    ErrLookupFailed,
		Message: "Unable to fetch book for this ISBN.",
		Err:     errors.Join(errs...),
	}
}

func (s *Service) price(ctx context.Context, key string) (Quote, error) {
	if s.pricing == nil {
		return Quote{}, &Error{Kind: ErrPricingUnavailable, Message: "Pricing is not configured."}
	}
	q, err := s.pricing.PriceFor(ctx, key)
	if err != nil {
		return Quote{}, &Error{Kind: ErrPricingUnavailable, Message: "Unable to price this ISBN.", Err: err}
	}
	return q, nil
}
