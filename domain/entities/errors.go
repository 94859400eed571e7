package entities

import (
	"errors"
	"fmt"
)

// Business rule violations surfaced to the caller with a specific reason.
// These are never retried automatically.
var (
	ErrInsufficientFunds = errors.New("insufficient point balance")
	ErrDrawingNotOpen    = errors.New("drawing is not open for ticket sales")
	ErrSalesClosed       = errors.New("ticket sales have closed for this drawing")
	ErrIneligible        = errors.New("account is not eligible for this drawing")
)

// Transient and fatal conditions handled by the scheduler.
var (
	// ErrResourceLocked means another executor holds the drawing. Safe to
	// retry after backoff; the idempotent design makes the retry a no-op if
	// the other executor finished.
	ErrResourceLocked = errors.New("drawing is locked by another executor")

	// ErrSecureRandomUnavailable is fatal for the attempt. The executor must
	// never substitute a weaker generator.
	ErrSecureRandomUnavailable = errors.New("secure random source unavailable")
)

// ValidationError indicates bad input shape or range. Caller's fault, not retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StateConflictError indicates an operation that is illegal in the entity's
// current state, such as shipping a fulfillment that was never address-confirmed.
type StateConflictError struct {
	Entity string
	From   string
	To     string
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("%s cannot transition from %s to %s", e.Entity, e.From, e.To)
}

// NewStateConflict builds a StateConflictError for the named entity
func NewStateConflict(entity, from, to string) *StateConflictError {
	return &StateConflictError{Entity: entity, From: from, To: to}
}
