package acquisition

import (
	"context"

	"bookscan/internal/book"
	"bookscan/internal/ledger"
)

// BibliographicSource looks up an edition by ISBN.
type BibliographicSource interface {
	Name() string
	Lookup(ctx context.Context, isbn string) (Bibliographic, error)
}

// PricingSource quotes a resale price for an ISBN-13.
type PricingSource interface {
	PriceFor(ctx context.Context, isbn13 string) (Quote, error)
}

type BookStore interface {
	GetByID(ctx context.Context, id string) (book.Book, error)
	Upsert(ctx context.Context, b book.Book) (book.Book, error)
}

type Ledger interface {
	CanAcquire(ctx context.Context, isbn13, userID string) (bool, error)
	AddToUser(ctx context.Context, isbn13, userID string) (ledger.Receipt, error)
}
