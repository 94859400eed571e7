package events

import (
	"time"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChanged       EventType = "balance_changed"
	EventTypeDrawingStateChanged  EventType = "drawing_state_changed"
	EventTypeWinnerSelected       EventType = "winner_selected"
	EventTypeDrawingCompleted     EventType = "drawing_completed"
	EventTypeDrawingCancelled     EventType = "drawing_cancelled"
	EventTypeFulfillmentForfeited EventType = "fulfillment_forfeited"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangedEvent is emitted for every ledger append
type BalanceChangedEvent struct {
	AccountID    string
	EntryID      int64
	Kind         string
	ChangeAmount int64
	BalanceAfter int64
}

func (e BalanceChangedEvent) Type() EventType {
	return EventTypeBalanceChanged
}

// DrawingStateChangedEvent is emitted on every lifecycle transition
type DrawingStateChangedEvent struct {
	DrawingID int64
	OldStatus string
	NewStatus string
}

func (e DrawingStateChangedEvent) Type() EventType {
	return EventTypeDrawingStateChanged
}

// WinnerSelectedEvent drives winner notification. Delivery is fire-and-forget
// with at-least-once semantics; the fulfillment stays pending until dispatch
// succeeds.
type WinnerSelectedEvent struct {
	DrawingID     int64
	PrizeID       int64
	PrizeRank     int
	TicketID      int64
	TicketNumber  int64
	AccountID     string
	FulfillmentID int64
}

func (e WinnerSelectedEvent) Type() EventType {
	return EventTypeWinnerSelected
}

// DrawingCompletedEvent publishes the audit token once execution finishes
type DrawingCompletedEvent struct {
	DrawingID    int64
	TotalTickets int64
	WinnerCount  int
	AuditToken   string
	CompletedAt  time.Time
}

func (e DrawingCompletedEvent) Type() EventType {
	return EventTypeDrawingCompleted
}

// DrawingCancelledEvent alerts the admin collaborator, including the
// zero-ticket execution path
type DrawingCancelledEvent struct {
	DrawingID      int64
	Reason         string
	RefundedAmount int64
}

func (e DrawingCancelledEvent) Type() EventType {
	return EventTypeDrawingCancelled
}

// FulfillmentForfeitedEvent signals the admin reallocation workflow. It never
// re-runs the draw.
type FulfillmentForfeitedEvent struct {
	FulfillmentID int64
	TicketID      int64
	PrizeID       int64
	AccountID     string
	Declined      bool // true for explicit decline, false for timeout
}

func (e FulfillmentForfeitedEvent) Type() EventType {
	return EventTypeFulfillmentForfeited
}
