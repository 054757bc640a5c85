package acquisition

import (
	"errors"

	"github.com/shopspring/decimal"

	"bookscan/internal/book"
	"bookscan/internal/isbn"
	"bookscan/internal/ledger"
)

var (
	ErrInvalidIdentifier  = isbn.ErrInvalidIdentifier
	ErrLookupFailed       = errors.New("bibliographic lookup failed")
	ErrPricingUnavailable = errors.New("pricing unavailable")
	ErrMissingUserID      = ledger.ErrMissingUserID
)

// Error pairs a failure kind with a message fit for end users. errors.Is
// matches both the kind and the underlying cause.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// UserMessage returns the human-readable message carried by err, or "".
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}

// Bibliographic is what a lookup source knows about an edition. Empty
// strings and nil slices are absent values.
type Bibliographic struct {
	Source      string
	ISBN13      string
	ISBN10      string
	Title       string
	Authors     []string
	Description string
	ImageURL    string
	ImageHint   string
	Genre       []string
	ASIN        string
	Height      string
	Width       string
	Length      string
	Weight      string
}

// Record converts b into a cache record keyed by id.
func (b Bibliographic) Record(id string) book.Book {
	return book.Book{
		ID:          id,
		ISBN10:      book.Str(b.ISBN10),
		Title:       book.Str(b.Title),
		Authors:     b.Authors,
		Description: book.Str(b.Description),
		ImageURL:    book.Str(b.ImageURL),
		ImageHint:   book.Str(b.ImageHint),
		Genre:       b.Genre,
		ASIN:        book.Str(b.ASIN),
		Height:      book.Str(b.Height),
		Width:       book.Str(b.Width),
		Length:      book.Str(b.Length),
		Weight:      book.Str(b.Weight),
	}
}

// Quote is a resale price and the condition it applies to.
type Quote struct {
	Price decimal.Decimal
	Tag   book.Condition
}

// Result is the outcome of acquiring a book for a user.
type Result struct {
	Book     book.Book      `json:"book"`
	Receipt  ledger.Receipt `json:"receipt"`
	CacheHit bool           `json:"cache_hit"`
}
