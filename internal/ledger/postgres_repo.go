package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	db              *pgxpool.Pool
	timeout         time.Duration
	startingCredits int64
}

func NewPostgresStore(db *pgxpool.Pool, timeout time.Duration, startingCredits int64) *PostgresStore {
	return &PostgresStore{db: db, timeout: timeout, startingCredits: startingCredits}
}

func (s *PostgresStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func (s *PostgresStore) ensure(ctx context.Context, tx pgx.Tx, userID string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO profiles (user_id, credits, isbns, created_at, updated_at)
		VALUES ($1, $2, '{}', NOW(), NOW())
		ON CONFLICT (user_id) DO NOTHING`, userID, s.startingCredits)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, userID string) (Profile, error) {
	timeoutCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	var p Profile
	err := pgx.BeginFunc(timeoutCtx, s.db, func(tx pgx.Tx) error {
		if err := s.ensure(timeoutCtx, tx, userID); err != nil {
			return err
		}
		var err error
		p, err = scanProfile(tx.QueryRow(timeoutCtx, `
			SELECT user_id, credits, isbns, created_at, updated_at
			FROM profiles WHERE user_id = $1`, userID))
		return err
	})
	if err != nil {
		return Profile{}, fmt.Errorf("get profile %s: %w", userID, err)
	}
	return p, nil
}

func (s *PostgresStore) AtomicUpdate(ctx context.Context, userID string, m Mutation) (Profile, error) {
	timeoutCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	var p Profile
	err := pgx.BeginFunc(timeoutCtx, s.db, func(tx pgx.Tx) error {
		var err error
		p, err = s.mutate(timeoutCtx, tx, userID, m)
		return err
	})
	if err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (s *PostgresStore) ApplyPayment(ctx context.Context, evt PaymentEvent, m Mutation) (Profile, error) {
	timeoutCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	var p Profile
	err := pgx.BeginFunc(timeoutCtx, s.db, func(tx pgx.Tx) error {
		if err := s.ensure(timeoutCtx, tx, evt.UserID); err != nil {
			return err
		}
		tag, err := tx.Exec(timeoutCtx, `
			INSERT INTO payment_events (id, user_id, amount_minor, currency, credited, received_at)
			VALUES ($1, $2, $3, $4, $5, NOW())
			ON CONFLICT (id) DO NOTHING`,
			evt.ID, evt.UserID, evt.AmountMinor, evt.Currency, evt.Credited)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrDuplicateEvent
		}
		p, err = s.mutate(timeoutCtx, tx, evt.UserID, m)
		return err
	})
	if err != nil {
		return Profile{}, err
	}
	return p, nil
}

// mutate locks the profile row, applies m and writes the result back.
func (s *PostgresStore) mutate(ctx context.Context, tx pgx.Tx, userID string, m Mutation) (Profile, error) {
	if err := s.ensure(ctx, tx, userID); err != nil {
		return Profile{}, err
	}
	p, err := scanProfile(tx.QueryRow(ctx, `
		SELECT user_id, credits, isbns, created_at, updated_at
		FROM profiles WHERE user_id = $1
		FOR UPDATE`, userID))
	if err != nil {
		return Profile{}, fmt.Errorf("lock profile %s: %w", userID, err)
	}

	if err := m(&p); err != nil {
		return Profile{}, err
	}
	if p.ISBNs == nil {
		p.ISBNs = []string{}
	}

	err = tx.QueryRow(ctx, `
		UPDATE profiles SET credits = $2, isbns = $3, updated_at = NOW()
		WHERE user_id = $1
		RETURNING updated_at`, userID, p.Credits, p.ISBNs).Scan(&p.UpdatedAt)
	if err != nil {
		return Profile{}, fmt.Errorf("update profile %s: %w", userID, err)
	}
	return p, nil
}

func scanProfile(row pgx.Row) (Profile, error) {
	var p Profile
	if err := row.Scan(&p.UserID, &p.Credits, &p.ISBNs, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, fmt.Errorf("profile missing after insert: %w", err)
		}
		return Profile{}, err
	}
	return p, nil
}
