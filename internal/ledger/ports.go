package ledger

import "context"

//go:generate mockgen -source=ports.go -destination=mock_store_test.go -package=ledger

// Store persists profiles. Profiles that do not exist yet are created with
// the store's starting balance by every method.
type Store interface {
	Get(ctx context.Context, userID string) (Profile, error)
	// AtomicUpdate runs m against the current profile and saves the result
	// as one transaction.
	AtomicUpdate(ctx context.Context, userID string, m Mutation) (Profile, error)
	// ApplyPayment records evt and runs m in the same transaction. An event
	// id seen before yields ErrDuplicateEvent and changes nothing.
	ApplyPayment(ctx context.Context, evt PaymentEvent, m Mutation) (Profile, error)
}
