package ledger

import (
	"errors"
	"slices"
	"time"
)

var (
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrNotOwned            = errors.New("book not in inventory")
	// ErrDuplicateEvent marks a payment event that was already applied. It
	// is benign: the balance is unchanged.
	ErrDuplicateEvent = errors.New("payment event already applied")
	ErrInvalidPayment = errors.New("invalid payment event")
	ErrMissingUserID  = errors.New("user id is required")
)

// Profile is a user's credit balance and inventory. ISBNs keeps scan order
// and never holds duplicates.
type Profile struct {
	UserID    string    `json:"user_id"`
	Credits   int64     `json:"credits"`
	ISBNs     []string  `json:"isbns"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p Profile) Owns(isbn13 string) bool {
	return slices.Contains(p.ISBNs, isbn13)
}

// Receipt describes the outcome of adding a book to an inventory.
type Receipt struct {
	AlreadyOwned bool  `json:"already_owned"`
	Charged      int64 `json:"charged"`
	Credits      int64 `json:"credits"`
}

// PaymentEvent is a completed credit purchase reported by the payment provider.
type PaymentEvent struct {
	ID          string
	UserID      string
	AmountMinor int64
	Currency    string
	// Credited is filled in by the service before the event is stored.
	Credited int64
}

// Mutation edits a profile inside the store's transaction. Returning an
// error rolls the transaction back and is passed to the caller unchanged.
type Mutation func(p *Profile) error
