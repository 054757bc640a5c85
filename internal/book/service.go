package book

import (
	"context"

	"bookscan/internal/isbn"
)

// Service reads the global book cache.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns the cached record for any accepted book code.
func (s *Service) Get(ctx context.Context, code string) (Book, error) {
	id, err := CacheKey(code)
	if err != nil {
		return Book{}, err
	}
	return s.repo.GetByID(ctx, id)
}

// ListByIDs returns the cached records for ids in the order given. Ids that
// are not cached are skipped.
func (s *Service) ListByIDs(ctx context.Context, ids []string) ([]Book, error) {
	found, err := s.repo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]Book, len(found))
	for _, b := range found {
		byID[b.ID] = b
	}
	out := make([]Book, 0, len(ids))
	for _, id := range ids {
		if b, ok := byID[id]; ok {
			out = append(out, b)
			delete(byID, id)
		}
	}
	return out, nil
}

// CacheKey maps a book code to the ISBN-13 the cache is keyed by.
func CacheKey(code string) (string, error) {
	normalized, err := isbn.Normalize(code)
	if err != nil {
		return "", err
	}
	return isbn.ToISBN13(normalized)
}
