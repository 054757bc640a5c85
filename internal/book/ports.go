package book

import (
	"context"
)

//go:generate mockgen -source=ports.go -destination=mock_repository_test.go -package=book

// Repository is the global book cache.
type Repository interface {
	GetByID(ctx context.Context, id string) (Book, error)
	ListByIDs(ctx context.Context, ids []string) ([]Book, error)
	// Upsert merges b into the stored record and returns the result.
	Upsert(ctx context.Context, b Book) (Book, error)
}
