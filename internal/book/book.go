package book

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"bookscan/internal/isbn"
)

// ErrNotFound is returned when a book is not in the cache.
var ErrNotFound = errors.New("book not found")

// ErrInvalidID is returned when a record whose id is not an ISBN-13 is written.
var ErrInvalidID = errors.New("book id must be a valid ISBN-13")

// Condition is the resale condition label attached by pricing.
type Condition string

const (
	ConditionNone Condition = ""
	ConditionNew  Condition = "New"
	ConditionUsed Condition = "Used"
)

// Book is a globally cached bibliographic record keyed by ISBN-13.
// Nil pointers and nil slices mean the source did not provide the field.
type Book struct {
	ID          string              `json:"id"`
	ISBN10      *string             `json:"isbn10,omitempty"`
	Title       *string             `json:"title,omitempty"`
	Authors     []string            `json:"authors,omitempty"`
	Description *string             `json:"description,omitempty"`
	ImageURL    *string             `json:"image_url,omitempty"`
	ImageHint   *string             `json:"image_hint,omitempty"`
	Genre       []string            `json:"genre,omitempty"`
	Price       decimal.NullDecimal `json:"price"`
	Tag         Condition           `json:"tag,omitempty"`
	ASIN        *string             `json:"asin,omitempty"`
	Height      *string             `json:"height,omitempty"`
	Width       *string             `json:"width,omitempty"`
	Length      *string             `json:"length,omitempty"`
	Weight      *string             `json:"weight,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// Str returns a pointer to s, or nil when s is empty.
func Str(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// TitleOrEmpty is a convenience for sorting and display.
func (b Book) TitleOrEmpty() string {
	return Deref(b.Title)
}

// Merge overlays the fields present in next onto b. Absent fields in next
// never erase what b already knows.
func (b Book) Merge(next Book) Book {
	out := b
	if next.ID != "" {
		out.ID = next.ID
	}
	mergeStr(&out.ISBN10, next.ISBN10)
	mergeStr(&out.Title, next.Title)
	mergeStr(&out.Description, next.Description)
	mergeStr(&out.ImageURL, next.ImageURL)
	mergeStr(&out.ImageHint, next.ImageHint)
	mergeStr(&out.ASIN, next.ASIN)
	mergeStr(&out.Height, next.Height)
	mergeStr(&out.Width, next.Width)
	mergeStr(&out.Length, next.Length)
	mergeStr(&out.Weight, next.Weight)
	if len(next.Authors) > 0 {
		out.Authors = append([]string(nil), next.Authors...)
	}
	if len(next.Genre) > 0 {
		out.Genre = append([]string(nil), next.Genre...)
	}
	if next.Price.Valid {
		out.Price = next.Price
	}
	if next.Tag != ConditionNone {
		out.Tag = next.Tag
	}
	return out
}

func mergeStr(dst **string, src *string) {
	if src != nil && *src != "" {
		v := *src
		*dst = &v
	}
}

// prepare validates b for persistence and drops empty optional values so
// they read as absent.
func prepare(b Book) (Book, error) {
	if !isbn.IsISBN13(b.ID) {
		return Book{}, fmt.Errorf("%w: %q", ErrInvalidID, b.ID)
	}
	out := Book{ID: b.ID}.Merge(b)
	out.CreatedAt, out.UpdatedAt = b.CreatedAt, b.UpdatedAt
	return out, nil
}
