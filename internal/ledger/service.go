package ledger

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"
)

// CreditsPerBook is debited for every book added to an inventory.
const CreditsPerBook int64 = 1

type Config struct {
	// EnforceCreditFloor refuses debits that would take the balance below zero.
	EnforceCreditFloor  bool
	CreditsPerMinorUnit int64
}

type Service struct {
	store  Store
	cfg    Config
	logger *zap.Logger
}

func NewService(store Store, cfg Config, logger *zap.Logger) *Service {
	if cfg.CreditsPerMinorUnit <= 0 {
		cfg.CreditsPerMinorUnit = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, cfg: cfg, logger: logger}
}

// Profile loads the user's profile, creating it on first use.
func (s *Service) Profile(ctx context.Context, userID string) (Profile, error) {
	if userID == "" {
		return Profile{}, ErrMissingUserID
	}
	return s.store.Get(ctx, userID)
}

// CanAcquire is a read-only pre-check run before any external lookup. It
// reports whether the book is already owned, and fails with
// ErrInsufficientCredits when a debit would be refused.
func (s *Service) CanAcquire(ctx context.Context, isbn13, userID string) (bool, error) {
	p, err := s.Profile(ctx, userID)
	if err != nil {
		return false, err
	}
	if p.Owns(isbn13) {
		return true, nil
	}
	if s.cfg.EnforceCreditFloor && p.Credits < CreditsPerBook {
		return false, ErrInsufficientCredits
	}
	return false, nil
}

// AddToUser appends isbn13 to the inventory and debits one book's worth of
// credits. Adding an owned book is a no-op reported on the receipt.
func (s *Service) AddToUser(ctx context.Context, isbn13, userID string) (Receipt, error) {
	if userID == "" {
		return Receipt{}, ErrMissingUserID
	}
	var receipt Receipt
	p, err := s.store.AtomicUpdate(ctx, userID, func(p *Profile) error {
		if p.Owns(isbn13) {
			receipt.AlreadyOwned = true
			return nil
		}
		if s.cfg.EnforceCreditFloor && p.Credits-CreditsPerBook < 0 {
			return ErrInsufficientCredits
		}
		p.ISBNs = append(p.ISBNs, isbn13)
		p.Credits -= CreditsPerBook
		receipt.Charged = CreditsPerBook
		return nil
	})
	if err != nil {
		return Receipt{}, err
	}
	receipt.Credits = p.Credits
	return receipt, nil
}

// RemoveFromUser drops isbn13 from the inventory. Credits are not refunded.
func (s *Service) RemoveFromUser(ctx context.Context, isbn13, userID string) (Profile, error) {
	if userID == "" {
		return Profile{}, ErrMissingUserID
	}
	return s.store.AtomicUpdate(ctx, userID, func(p *Profile) error {
		i := slices.Index(p.ISBNs, isbn13)
		if i < 0 {
			return ErrNotOwned
		}
		p.ISBNs = slices.Delete(p.ISBNs, i, i+1)
		return nil
	})
}

// CreditPurchaseCompleted tops up the balance for a completed purchase. A
// redelivered event returns ErrDuplicateEvent and the current profile.
func (s *Service) CreditPurchaseCompleted(ctx context.Context, evt PaymentEvent) (Profile, error) {
	if evt.ID == "" || evt.UserID == "" || evt.AmountMinor <= 0 {
		return Profile{}, fmt.Errorf("%w: id=%q user=%q amount=%d", ErrInvalidPayment, evt.ID, evt.UserID, evt.AmountMinor)
	}
	evt.Credited = evt.AmountMinor * s.cfg.CreditsPerMinorUnit

	p, err := s.store.ApplyPayment(ctx, evt, func(p *Profile) error {
		p.Credits += evt.Credited
		return nil
	})
	if errors.Is(err, ErrDuplicateEvent) {
		s.logger.Info("payment event already applied", zap.String("event_id", evt.ID), zap.String("user_id", evt.UserID))
		current, getErr := s.store.Get(ctx, evt.UserID)
		if getErr != nil {
			return Profile{}, getErr
		}
		return current, ErrDuplicateEvent
	}
	if err != nil {
		return Profile{}, err
	}

	s.logger.Info("credits purchased",
		zap.String("event_id", evt.ID),
		zap.String("user_id", evt.UserID),
		zap.Int64("credited", evt.Credited),
		zap.Int64("balance", p.Credits),
	)
	return p, nil
}
