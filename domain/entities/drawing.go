package entities

import (
	"time"
)

// DrawingKind is the cadence bucket of a drawing
type DrawingKind string

const (
	DrawingKindDaily   DrawingKind = "daily"
	DrawingKindWeekly  DrawingKind = "weekly"
	DrawingKindMonthly DrawingKind = "monthly"
	DrawingKindAnnual  DrawingKind = "annual"
)

// DrawingStatus is the lifecycle state of a drawing
type DrawingStatus string

const (
	DrawingStatusDraft     DrawingStatus = "draft"
	DrawingStatusScheduled DrawingStatus = "scheduled"
	DrawingStatusOpen      DrawingStatus = "open"
	DrawingStatusClosed    DrawingStatus = "closed"
	// DrawingStatusExecuting is the transient state held while a single
	// executor owns the drawing. Acquired with a compare-and-swap on status
	// so concurrent executors cannot both win.
	DrawingStatusExecuting DrawingStatus = "executing"
	DrawingStatusCompleted DrawingStatus = "completed"
	DrawingStatusCancelled DrawingStatus = "cancelled"
)

// MinCloseExecuteGap is the minimum time between sales close and execution
const MinCloseExecuteGap = 5 * time.Minute

// Drawing represents one sweepstakes drawing event
type Drawing struct {
	ID              int64         `db:"id"`
	Kind            DrawingKind   `db:"kind"`
	TicketUnitCost  int64         `db:"ticket_unit_cost"` // points per ticket
	ScheduledOpenAt time.Time     `db:"scheduled_open_at"`
	SalesCloseAt    time.Time     `db:"sales_close_at"`
	ExecuteAt       time.Time     `db:"execute_at"`
	Status          DrawingStatus `db:"status"`
	TotalTickets    int64         `db:"total_tickets"` // advisory during sales, frozen at close
	AuditToken      *string       `db:"audit_token"`   // NULL until execution, written exactly once
	CompletedAt     *time.Time    `db:"completed_at"`  // NULL until execution succeeds
	ExecutingSince  *time.Time    `db:"executing_since"`
	CreatedAt       time.Time     `db:"created_at"`
}

// legalTransitions encodes the forward-only state machine. Backward moves and
// state-skipping are never legal; executing -> closed is the failure-recovery
// revert, not a backward business transition.
var legalTransitions = map[DrawingStatus][]DrawingStatus{
	DrawingStatusDraft:     {DrawingStatusScheduled, DrawingStatusCancelled},
	DrawingStatusScheduled: {DrawingStatusOpen, DrawingStatusCancelled},
	DrawingStatusOpen:      {DrawingStatusClosed, DrawingStatusCancelled},
	DrawingStatusClosed:    {DrawingStatusExecuting},
	DrawingStatusExecuting: {DrawingStatusCompleted, DrawingStatusCancelled, DrawingStatusClosed},
	DrawingStatusCompleted: {},
	DrawingStatusCancelled: {},
}

// CanTransitionTo reports whether moving from the drawing's current status to
// target is a legal state machine move
func (d *Drawing) CanTransitionTo(target DrawingStatus) bool {
	for _, s := range legalTransitions[d.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true once the drawing can never change state again
func (d *Drawing) IsTerminal() bool {
	return d.Status == DrawingStatusCompleted || d.Status == DrawingStatusCancelled
}

// IsCompleted returns true if execution has finished. This is the primary
// idempotency gate for the executor.
func (d *Drawing) IsCompleted() bool {
	return d.CompletedAt != nil
}

// IsOpenForSales reports whether a purchase at the given instant is allowed
func (d *Drawing) IsOpenForSales(now time.Time) bool {
	return d.Status == DrawingStatusOpen && now.Before(d.SalesCloseAt)
}

// IsDueForOpen reports whether a scheduled drawing should open
func (d *Drawing) IsDueForOpen(now time.Time) bool {
	return d.Status == DrawingStatusScheduled && !now.Before(d.ScheduledOpenAt)
}

// IsDueForClose reports whether an open drawing's sales window has ended
func (d *Drawing) IsDueForClose(now time.Time) bool {
	return d.Status == DrawingStatusOpen && !now.Before(d.SalesCloseAt)
}

// IsDueForExecution reports whether a closed drawing is ready to be drawn
func (d *Drawing) IsDueForExecution(now time.Time) bool {
	return d.Status == DrawingStatusClosed && !now.Before(d.ExecuteAt)
}

// ValidateSchedule checks the time invariants required before a draft drawing
// may be scheduled
func (d *Drawing) ValidateSchedule() error {
	if d.TicketUnitCost <= 0 {
		return &ValidationError{Field: "ticket_unit_cost", Reason: "must be positive"}
	}
	if !d.ScheduledOpenAt.Before(d.SalesCloseAt) {
		return &ValidationError{Field: "sales_close_at", Reason: "must be after scheduled_open_at"}
	}
	if d.ExecuteAt.Sub(d.SalesCloseAt) < MinCloseExecuteGap {
		return &ValidationError{Field: "execute_at", Reason: "must be at least 5 minutes after sales_close_at"}
	}
	return nil
}

// Complete marks the drawing completed with its audit token
func (d *Drawing) Complete(auditToken string, now time.Time) {
	d.Status = DrawingStatusCompleted
	d.AuditToken = &auditToken
	d.CompletedAt = &now
}
