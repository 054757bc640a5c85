package book

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SQLiteRepo stores the cache in SQLite. Lists are JSON text, prices are
// decimal strings and timestamps are RFC 3339.
type SQLiteRepo struct {
	db      *sql.DB
	timeout time.Duration
	now     func() time.Time
}

func NewSQLiteRepo(db *sql.DB, timeout time.Duration) *SQLiteRepo {
	return &SQLiteRepo{db: db, timeout: timeout, now: time.Now}
}

func (r *SQLiteRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

const sqliteBookColumns = `id, isbn10, title, authors, description, image_url, image_hint, genre,
	price, tag, asin, height, width, length, weight, created_at, updated_at`

func (r *SQLiteRepo) GetByID(ctx context.Context, id string) (Book, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	b, err := scanSQLiteBook(r.db.QueryRowContext(timeoutCtx, `SELECT `+sqliteBookColumns+` FROM books WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, err
	}
	return b, nil
}

func (r *SQLiteRepo) ListByIDs(ctx context.Context, ids []string) ([]Book, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.QueryContext(timeoutCtx, `SELECT `+sqliteBookColumns+` FROM books WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Book
	for rows.Next() {
		b, err := scanSQLiteBook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) Upsert(ctx context.Context, b Book) (Book, error) {
	b, err := prepare(b)
	if err != nil {
		return Book{}, err
	}
	authors, err := jsonList(b.Authors)
	if err != nil {
		return Book{}, err
	}
	genre, err := jsonList(b.Genre)
	if err != nil {
		return Book{}, err
	}
	now := r.now().UTC().Format(time.RFC3339Nano)

	const query = `
		INSERT INTO books (id, isbn10, title, authors, description, image_url, image_hint, genre,
		                   price, tag, asin, height, width, length, weight, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			isbn10 = COALESCE(excluded.isbn10, books.isbn10),
			title = COALESCE(excluded.title, books.title),
			authors = COALESCE(excluded.authors, books.authors),
			description = COALESCE(excluded.description, books.description),
			image_url = COALESCE(excluded.image_url, books.image_url),
			image_hint = COALESCE(excluded.image_hint, books.image_hint),
			genre = COALESCE(excluded.genre, books.genre),
			price = COALESCE(excluded.price, books.price),
			tag = CASE WHEN excluded.tag = '' THEN books.tag ELSE excluded.tag END,
			asin = COALESCE(excluded.asin, books.asin),
			height = COALESCE(excluded.height, books.height),
			width = COALESCE(excluded.width, books.width),
			length = COALESCE(excluded.length, books.length),
			weight = COALESCE(excluded.weight, books.weight),
			updated_at = excluded.updated_at
		RETURNING ` + sqliteBookColumns

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	stored, err := scanSQLiteBook(r.db.QueryRowContext(timeoutCtx, query,
		b.ID, b.ISBN10, b.Title, authors, b.Description, b.ImageURL, b.ImageHint, genre,
		priceParam(b.Price), string(b.Tag), b.ASIN, b.Height, b.Width, b.Length, b.Weight, now, now,
	))
	if err != nil {
		return Book{}, fmt.Errorf("upsert book %s: %w", b.ID, err)
	}
	return stored, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteBook(row rowScanner) (Book, error) {
	var (
		b                    Book
		authors, genre       sql.NullString
		price                *string
		tag                  string
		createdAt, updatedAt string
	)
	if err := row.Scan(
		&b.ID, &b.ISBN10, &b.Title, &authors, &b.Description, &b.ImageURL, &b.ImageHint, &genre,
		&price, &tag, &b.ASIN, &b.Height, &b.Width, &b.Length, &b.Weight, &createdAt, &updatedAt,
	); err != nil {
		return Book{}, err
	}

	var err error
	if b.Authors, err = parseList(authors); err != nil {
		return Book{}, err
	}
	if b.Genre, err = parseList(genre); err != nil {
		return Book{}, err
	}
	if b.Price, err = parsePrice(price); err != nil {
		return Book{}, err
	}
	b.Tag = Condition(tag)
	if b.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return Book{}, fmt.Errorf("parse created_at: %w", err)
	}
	if b.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return Book{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return b, nil
}

func jsonList(list []string) (*string, error) {
	if len(list) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return nil, err
	}
	s := string(raw)
	return &s, nil
}

func parseList(s sql.NullString) ([]string, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s.String), &out); err != nil {
		return nil, fmt.Errorf("parse list %q: %w", s.String, err)
	}
	return out, nil
}
