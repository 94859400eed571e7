package entities

import "time"

// Ticket is one sweepstakes entry purchased by an account.
//
// TicketNumber stays NULL during the sales window and is assigned exactly once
// at the closing snapshot, contiguously in [1, total_tickets], ordered by
// (created_at, id). The deterministic ordering makes the numbering reproducible
// for audit even though the winner pick itself is random.
type Ticket struct {
	ID            int64      `db:"id"`
	DrawingID     int64      `db:"drawing_id"`
	AccountID     string     `db:"account_id"`
	TicketNumber  *int64     `db:"ticket_number"`
	LedgerEntryID int64      `db:"ledger_entry_id"`
	IsWinner      bool       `db:"is_winner"`
	PrizeID       *int64     `db:"prize_id"`
	RefundedAt    *time.Time `db:"refunded_at"`
	CreatedAt     time.Time  `db:"created_at"`
}

// IsNumbered returns true once the closing snapshot has assigned a number
func (t *Ticket) IsNumbered() bool {
	return t.TicketNumber != nil
}

// IsRefunded returns true if the ticket cost has been credited back
func (t *Ticket) IsRefunded() bool {
	return t.RefundedAt != nil
}

// MarkWinner assigns the prize. A ticket may win at most one prize per
// drawing; callers must check IsWinner before re-picking.
func (t *Ticket) MarkWinner(prizeID int64) {
	t.IsWinner = true
	t.PrizeID = &prizeID
}
