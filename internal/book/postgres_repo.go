package book

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const bookColumns = `id, isbn10, title, authors, description, image_url, image_hint, genre,
	price::text, tag, asin, height, width, length, weight, created_at, updated_at`

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (Book, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	b, err := scanPostgresBook(r.db.QueryRow(timeoutCtx, `SELECT `+bookColumns+` FROM books WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, err
	}
	return b, nil
}

func (r *PostgresRepo) ListByIDs(ctx context.Context, ids []string) ([]Book, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Query(timeoutCtx, `SELECT `+bookColumns+` FROM books WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Book
	for rows.Next() {
		b, err := scanPostgresBook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Upsert inserts b or merges it into the existing row. Present fields win,
// NULLs keep whatever is stored.
func (r *PostgresRepo) Upsert(ctx context.Context, b Book) (Book, error) {
	b, err := prepare(b)
	if err != nil {
		return Book{}, err
	}

	const sql = `
		INSERT INTO books (id, isbn10, title, authors, description, image_url, image_hint, genre,
		                   price, tag, asin, height, width, length, weight, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::text::numeric, $10, $11, $12, $13, $14, $15, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			isbn10 = COALESCE(EXCLUDED.isbn10, books.isbn10),
			title = COALESCE(EXCLUDED.title, books.title),
			authors = COALESCE(EXCLUDED.authors, books.authors),
			description = COALESCE(EXCLUDED.description, books.description),
			image_url = COALESCE(EXCLUDED.image_url, books.image_url),
			image_hint = COALESCE(EXCLUDED.image_hint, books.image_hint),
			genre = COALESCE(EXCLUDED.genre, books.genre),
			price = COALESCE(EXCLUDED.price, books.price),
			tag = CASE WHEN EXCLUDED.tag = '' THEN books.tag ELSE EXCLUDED.tag END,
			asin = COALESCE(EXCLUDED.asin, books.asin),
			height = COALESCE(EXCLUDED.height, books.height),
			width = COALESCE(EXCLUDED.width, books.width),
			length = COALESCE(EXCLUDED.length, books.length),
			weight = COALESCE(EXCLUDED.weight, books.weight),
			updated_at = NOW()
		RETURNING ` + bookColumns

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	stored, err := scanPostgresBook(r.db.QueryRow(timeoutCtx, sql,
		b.ID, b.ISBN10, b.Title, b.Authors, b.Description, b.ImageURL, b.ImageHint, b.Genre,
		priceParam(b.Price), string(b.Tag), b.ASIN, b.Height, b.Width, b.Length, b.Weight,
	))
	if err != nil {
		return Book{}, fmt.Errorf("upsert book %s: %w", b.ID, err)
	}
	return stored, nil
}

func scanPostgresBook(row pgx.Row) (Book, error) {
	var (
		b     Book
		price *string
		tag   string
	)
	if err := row.Scan(
		&b.ID, &b.ISBN10, &b.Title, &b.Authors, &b.Description, &b.ImageURL, &b.ImageHint, &b.Genre,
		&price, &tag, &b.ASIN, &b.Height, &b.Width, &b.Length, &b.Weight, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return Book{}, err
	}
	p, err := parsePrice(price)
	if err != nil {
		return Book{}, err
	}
	b.Price = p
	b.Tag = Condition(tag)
	return b, nil
}

func priceParam(p decimal.NullDecimal) *string {
	if !p.Valid {
		return nil
	}
	s := p.Decimal.StringFixed(2)
	return &s
}

func parsePrice(s *string) (decimal.NullDecimal, error) {
	if s == nil || *s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("parse price %q: %w", *s, err)
	}
	return decimal.NewNullDecimal(d), nil
}
