package interfaces

import (
	"context"
	"time"

	"fittrack/drawing-engine/domain/entities"
)

// LedgerService owns all point balance mutation. Record is atomic with respect
// to reading the balance, appending the entry and updating the cache column.
type LedgerService interface {
	// Record appends one ledger entry for the account, serialized per account.
	// Returns entities.ErrInsufficientFunds when a debit would drive the
	// balance negative.
	Record(ctx context.Context, accountID string, kind entities.EntryKind, amount int64, refID *int64, refType *entities.ReferenceType) (*entities.LedgerEntry, error)

	// Balance reads the cached balance for an account
	Balance(ctx context.Context, accountID string) (int64, error)

	// Audit re-derives the balance from the entry log and compares it with
	// the cache, returning both values
	Audit(ctx context.Context, accountID string) (cached int64, derived int64, err error)
}

// RandomSource is a cryptographically secure random generator. Implementations
// must fail with entities.ErrSecureRandomUnavailable rather than fall back to
// a weaker generator.
type RandomSource interface {
	// Pick returns a uniform random integer in [1, upper]
	Pick(upper int64) (int64, error)

	// PickExcluding returns a uniform random integer in [1, upper] that is
	// not in the used set. Sampling without replacement across calls.
	PickExcluding(upper int64, used map[int64]bool) (int64, error)

	// NewAuditToken returns an opaque high-entropy token (at least 256 bits)
	// published as evidence that a secure source was invoked. It is not a
	// replay seed.
	NewAuditToken() (string, error)
}

// EligibilityChecker is the external identity collaborator's predicate. Age,
// state of residence, tier and account-age checks are folded behind it.
type EligibilityChecker interface {
	IsEligible(ctx context.Context, account *entities.Account, drawing *entities.Drawing) (bool, error)
}

// PurchaseResult is what a successful ticket purchase returns
type PurchaseResult struct {
	Tickets     []*entities.Ticket
	LedgerEntry *entities.LedgerEntry
	TotalCost   int64
	NewBalance  int64
}

// TicketBook owns ticket issuance and the immutable numbering snapshot
type TicketBook interface {
	// Purchase buys quantity tickets for the account, debiting the ledger,
	// creating unnumbered tickets and bumping the advisory counter in one
	// transaction
	Purchase(ctx context.Context, accountID string, drawingID int64, quantity int) (*PurchaseResult, error)

	// CloseAndNumber assigns ticket numbers 1..N in creation order, freezing
	// the authoritative total. Idempotent: repeat calls return the existing
	// snapshot unchanged.
	CloseAndNumber(ctx context.Context, drawingID int64) ([]*entities.Ticket, error)
}

// DrawingLifecycle enforces legal transitions of the drawing state machine
type DrawingLifecycle interface {
	// Schedule moves a draft drawing to scheduled after validity checks
	Schedule(ctx context.Context, drawingID int64) error

	// AdvanceStates applies time-based transitions (scheduled->open,
	// open->closed) to every due drawing. Re-invocation is a no-op.
	AdvanceStates(ctx context.Context, now time.Time) error

	// Cancel cancels a pre-completed drawing and refunds non-winning,
	// un-refunded tickets. Refunds are idempotent.
	Cancel(ctx context.Context, drawingID int64, reason string) error
}

// DrawExecutor performs one-time, idempotent winner selection
type DrawExecutor interface {
	// Execute runs the draw for a closed, due drawing. Safe to invoke
	// repeatedly and concurrently; completed drawings are a no-op.
	Execute(ctx context.Context, drawingID int64) error
}

// FulfillmentTracker manages the per-winner delivery workflow
type FulfillmentTracker interface {
	// MarkNotified records successful winner notification dispatch
	MarkNotified(ctx context.Context, fulfillmentID int64) error

	// ConfirmAddress records the winner's shipping address (physical only)
	ConfirmAddress(ctx context.Context, fulfillmentID int64, address string) error

	// MarkShipped records carrier and tracking for a physical prize
	MarkShipped(ctx context.Context, fulfillmentID int64, carrier, tracking string) error

	// MarkDelivered closes out the fulfillment
	MarkDelivered(ctx context.Context, fulfillmentID int64) error

	// Decline forfeits the prize at the winner's request
	Decline(ctx context.Context, fulfillmentID int64) error

	// CheckForfeiture forfeits every fulfillment whose response deadline has
	// passed and emits reallocation events. Returns how many were forfeited.
	CheckForfeiture(ctx context.Context, now time.Time) (int, error)

	// DispatchPending publishes notification events for fulfillments still in
	// pending and advances them to winner_notified. At-least-once semantics.
	DispatchPending(ctx context.Context, limit int) (int, error)
}
