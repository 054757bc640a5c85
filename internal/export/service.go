package export

import (
	"context"
	"fmt"
	"slices"

	"bookscan/internal/book"
	"bookscan/internal/ledger"
)

type ProfileReader interface {
	Profile(ctx context.Context, userID string) (ledger.Profile, error)
}

// BookReader must return records in the order of ids.
type BookReader interface {
	ListByIDs(ctx context.Context, ids []string) ([]book.Book, error)
}

type Service struct {
	profiles ProfileReader
	books    BookReader
	opts     Options
}

func NewService(profiles ProfileReader, books BookReader, opts Options) *Service {
	return &Service{profiles: profiles, books: books, opts: opts}
}

// ExportForUser renders the user's inventory in acquisition order. A
// non-empty subset restricts the export to those ISBN-13s; ids the user
// does not own are ignored.
func (s *Service) ExportForUser(ctx context.Context, userID string, subset []string) (string, error) {
	p, err := s.profiles.Profile(ctx, userID)
	if err != nil {
		return "", err
	}

	ids := p.ISBNs
	if len(subset) > 0 {
		ids = slices.DeleteFunc(slices.Clone(p.ISBNs), func(id string) bool {
			return !slices.Contains(subset, id)
		})
	}

	books, err := s.books.ListByIDs(ctx, ids)
	if err != nil {
		return "", fmt.Errorf("load inventory: %w", err)
	}
	return Rows(books, s.opts), nil
}
