package interfaces

import (
	"context"
	"time"

	"fittrack/drawing-engine/domain/entities"
	"fittrack/drawing-engine/domain/events"
)

// AccountRepository defines the interface for account data access
type AccountRepository interface {
	// GetByID retrieves an account by its ID
	GetByID(ctx context.Context, accountID string) (*entities.Account, error)

	// GetByIDForUpdate retrieves an account with a row lock, serializing
	// all ledger mutation for the account behind the lock
	GetByIDForUpdate(ctx context.Context, accountID string) (*entities.Account, error)

	// UpdateBalance updates the denormalized point balance cache
	UpdateBalance(ctx context.Context, accountID string, newBalance int64) error
}

// LedgerRepository defines the interface for the append-only ledger
type LedgerRepository interface {
	// Append inserts a new immutable ledger entry and fills in its ID and
	// creation time
	Append(ctx context.Context, entry *entities.LedgerEntry) error

	// GetByAccount returns the most recent entries for an account
	GetByAccount(ctx context.Context, accountID string, limit int) ([]*entities.LedgerEntry, error)

	// GetLatestByAccount returns the newest entry for an account, or nil
	GetLatestByAccount(ctx context.Context, accountID string) (*entities.LedgerEntry, error)

	// SumByAccount re-derives the balance by summing all entry amounts
	SumByAccount(ctx context.Context, accountID string) (int64, error)
}

// DrawingRepository defines the interface for drawing data access
type DrawingRepository interface {
	// Create inserts a draft drawing
	Create(ctx context.Context, drawing *entities.Drawing) error

	// GetByID retrieves a drawing by its ID, nil if absent
	GetByID(ctx context.Context, id int64) (*entities.Drawing, error)

	// GetByIDForUpdate retrieves a drawing with a row lock
	GetByIDForUpdate(ctx context.Context, id int64) (*entities.Drawing, error)

	// TransitionStatus performs a conditional status update. It succeeds only
	// if the row is still in the from status, returning false when the
	// compare-and-swap lost. This is the executor's mutual exclusion.
	TransitionStatus(ctx context.Context, id int64, from, to entities.DrawingStatus) (bool, error)

	// MarkCompleted sets status, audit token and completed_at in one update,
	// guarded on the executing status
	MarkCompleted(ctx context.Context, id int64, auditToken string, completedAt time.Time) (bool, error)

	// SetTotalTickets freezes the authoritative ticket count at close
	SetTotalTickets(ctx context.Context, id int64, total int64) error

	// IncrementTotalTickets bumps the advisory sales counter
	IncrementTotalTickets(ctx context.Context, id int64, delta int64) error

	// GetByStatus returns all drawings in the given status
	GetByStatus(ctx context.Context, status entities.DrawingStatus) ([]*entities.Drawing, error)

	// GetDueForExecution returns closed drawings whose execute_at has passed
	GetDueForExecution(ctx context.Context, now time.Time) ([]*entities.Drawing, error)

	// GetStaleExecuting returns drawings stuck in executing since before the
	// cutoff, so a crashed executor cannot wedge a drawing forever
	GetStaleExecuting(ctx context.Context, cutoff time.Time) ([]*entities.Drawing, error)
}

// PrizeRepository defines the interface for prize data access
type PrizeRepository interface {
	// Create inserts a prize for a draft drawing
	Create(ctx context.Context, prize *entities.Prize) error

	// GetByDrawing returns the drawing's prizes ordered by rank ascending
	GetByDrawing(ctx context.Context, drawingID int64) ([]*entities.Prize, error)

	// GetByID retrieves a prize by its ID, nil if absent
	GetByID(ctx context.Context, id int64) (*entities.Prize, error)
}

// TicketRepository defines the interface for ticket data access
type TicketRepository interface {
	// CreateBatch inserts a batch of unnumbered tickets in one statement
	CreateBatch(ctx context.Context, tickets []*entities.Ticket) error

	// GetByID retrieves a ticket by its ID, nil if absent
	GetByID(ctx context.Context, id int64) (*entities.Ticket, error)

	// CountByDrawing returns the number of tickets sold for a drawing
	CountByDrawing(ctx context.Context, drawingID int64) (int64, error)

	// CountNumberedByDrawing returns how many tickets already carry a number.
	// Non-zero means the closing snapshot has run.
	CountNumberedByDrawing(ctx context.Context, drawingID int64) (int64, error)

	// AssignNumbers numbers every ticket of the drawing 1..N ordered by
	// (created_at, id) in a single statement, returning N
	AssignNumbers(ctx context.Context, drawingID int64) (int64, error)

	// GetByDrawing returns all tickets for a drawing in snapshot order
	GetByDrawing(ctx context.Context, drawingID int64) ([]*entities.Ticket, error)

	// GetByNumber finds the ticket holding the given number in a drawing
	GetByNumber(ctx context.Context, drawingID, ticketNumber int64) (*entities.Ticket, error)

	// GetByAccountForDrawing returns one account's tickets for a drawing
	GetByAccountForDrawing(ctx context.Context, drawingID int64, accountID string) ([]*entities.Ticket, error)

	// MarkWinner sets is_winner and prize_id, refusing tickets that already won
	MarkWinner(ctx context.Context, ticketID, prizeID int64) error

	// GetUnrefundedLosers returns non-winning tickets that have not been
	// refunded yet, for cancellation refunds
	GetUnrefundedLosers(ctx context.Context, drawingID int64) ([]*entities.Ticket, error)

	// MarkRefunded stamps refunded_at on a ticket
	MarkRefunded(ctx context.Context, ticketID int64, refundedAt time.Time) error
}

// FulfillmentRepository defines the interface for fulfillment data access
type FulfillmentRepository interface {
	// Create inserts a pending fulfillment for a winning ticket
	Create(ctx context.Context, fulfillment *entities.Fulfillment) error

	// GetByID retrieves a fulfillment by its ID, nil if absent
	GetByID(ctx context.Context, id int64) (*entities.Fulfillment, error)

	// GetByTicket retrieves the fulfillment for a ticket, nil if absent
	GetByTicket(ctx context.Context, ticketID int64) (*entities.Fulfillment, error)

	// Update persists the fulfillment's current state
	Update(ctx context.Context, fulfillment *entities.Fulfillment) error

	// GetPending returns fulfillments still awaiting notification dispatch
	GetPending(ctx context.Context, limit int) ([]*entities.Fulfillment, error)

	// GetForfeitable returns fulfillments in winner_notified or
	// address_confirmed whose deadline has passed
	GetForfeitable(ctx context.Context, now time.Time) ([]*entities.Fulfillment, error)
}

// DrawPickRepository records every randomness-source invocation. Rows are the
// compliance audit trail and are never pruned.
type DrawPickRepository interface {
	// Record appends one pick to the audit log
	Record(ctx context.Context, pick *entities.DrawPick) error

	// GetByDrawing returns the full pick sequence for a drawing in pick order
	GetByDrawing(ctx context.Context, drawingID int64) ([]*entities.DrawPick, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event) error
}
