package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// SQLiteStore keeps profiles in SQLite. The database is expected to be
// opened on a single connection, which serializes every transaction.
type SQLiteStore struct {
	db              *sql.DB
	timeout         time.Duration
	startingCredits int64
	now             func() time.Time
}

func NewSQLiteStore(db *sql.DB, timeout time.Duration, startingCredits int64) *SQLiteStore {
	return &SQLiteStore{db: db, timeout: timeout, startingCredits: startingCredits, now: time.Now}
}

func (s *SQLiteStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) stamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

func (s *SQLiteStore) ensure(ctx context.Context, tx *sql.Tx, userID string) error {
	now := s.stamp()
	_, err := tx.ExecContext(ctx, `
		INSERT INTO profiles (user_id, credits, isbns, created_at, updated_at)
		VALUES (?, ?, '[]', ?, ?)
		ON CONFLICT (user_id) DO NOTHING`, userID, s.startingCredits, now, now)
	return err
}

func (s *SQLiteStore) load(ctx context.Context, tx *sql.Tx, userID string) (Profile, error) {
	var (
		p                    Profile
		isbns                string
		createdAt, updatedAt string
	)
	err := tx.QueryRowContext(ctx, `
		SELECT user_id, credits, isbns, created_at, updated_at
		FROM profiles WHERE user_id = ?`, userID).Scan(&p.UserID, &p.Credits, &isbns, &createdAt, &updatedAt)
	if err != nil {
		return Profile{}, fmt.Errorf("load profile %s: %w", userID, err)
	}
	if err := json.Unmarshal([]byte(isbns), &p.ISBNs); err != nil {
		return Profile{}, fmt.Errorf("decode isbns of %s: %w", userID, err)
	}
	if p.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return Profile{}, err
	}
	if p.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (s *SQLiteStore) Get(ctx context.Context, userID string) (Profile, error) {
	timeoutCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	var p Profile
	err := s.inTx(timeoutCtx, func(tx *sql.Tx) error {
		if err := s.ensure(timeoutCtx, tx, userID); err != nil {
			return err
		}
		var err error
		p, err = s.load(timeoutCtx, tx, userID)
		return err
	})
	return p, err
}

func (s *SQLiteStore) AtomicUpdate(ctx context.Context, userID string, m Mutation) (Profile, error) {
	timeoutCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	var p Profile
	err := s.inTx(timeoutCtx, func(tx *sql.Tx) error {
		var err error
		p, err = s.mutate(timeoutCtx, tx, userID, m)
		return err
	})
	if err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (s *SQLiteStore) ApplyPayment(ctx context.Context, evt PaymentEvent, m Mutation) (Profile, error) {
	timeoutCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	var p Profile
	err := s.inTx(timeoutCtx, func(tx *sql.Tx) error {
		if err := s.ensure(timeoutCtx, tx, evt.UserID); err != nil {
			return err
		}
		res, err := tx.ExecContext(timeoutCtx, `
			INSERT INTO payment_events (id, user_id, amount_minor, currency, credited, received_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO NOTHING`,
			evt.ID, evt.UserID, evt.AmountMinor, evt.Currency, evt.Credited, s.stamp())
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
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

func (s *SQLiteStore) mutate(ctx context.Context, tx *sql.Tx, userID string, m Mutation) (Profile, error) {
	if err := s.ensure(ctx, tx, userID); err != nil {
		return Profile{}, err
	}
	p, err := s.load(ctx, tx, userID)
	if err != nil {
		return Profile{}, err
	}
	if err := m(&p); err != nil {
		return Profile{}, err
	}
	if p.ISBNs == nil {
		p.ISBNs = []string{}
	}
	isbns, err := json.Marshal(p.ISBNs)
	if err != nil {
		return Profile{}, err
	}

	now := s.now().UTC()
	if _, err := tx.ExecContext(ctx, `
		UPDATE profiles SET credits = ?, isbns = ?, updated_at = ?
		WHERE user_id = ?`, p.Credits, string(isbns), now.Format(time.RFC3339Nano), userID); err != nil {
		return Profile{}, fmt.Errorf("update profile %s: %w", userID, err)
	}
	p.UpdatedAt = now
	return p, nil
}
