package services

import (
	"context"
	"fmt"
	"time"

	"fittrack/drawing-engine/domain/entities"
	"fittrack/drawing-engine/domain/events"
	"fittrack/drawing-engine/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// drawingLifecycle implements the drawing state machine. Every transition is
// a guarded, idempotent conditional update, so admin-triggered and
// scheduler-triggered invocations share one code path.
type drawingLifecycle struct {
	drawingRepo    interfaces.DrawingRepository
	prizeRepo      interfaces.PrizeRepository
	ticketRepo     interfaces.TicketRepository
	ledger         interfaces.LedgerService
	eventPublisher interfaces.EventPublisher
}

// NewDrawingLifecycle creates a new drawing lifecycle service
func NewDrawingLifecycle(
	drawingRepo interfaces.DrawingRepository,
	prizeRepo interfaces.PrizeRepository,
	ticketRepo interfaces.TicketRepository,
	ledger interfaces.LedgerService,
	eventPublisher interfaces.EventPublisher,
) interfaces.DrawingLifecycle {
	return &drawingLifecycle{
		drawingRepo:    drawingRepo,
		prizeRepo:      prizeRepo,
		ticketRepo:     ticketRepo,
		ledger:         ledger,
		eventPublisher: eventPublisher,
	}
}

// Schedule moves a draft drawing to scheduled after validating the prize list
// and the close/execute gap
func (s *drawingLifecycle) Schedule(ctx context.Context, drawingID int64) error {
	drawing, err := s.drawingRepo.GetByIDForUpdate(ctx, drawingID)
	if err != nil {
		return fmt.Errorf("failed to lock drawing: %w", err)
	}
	if drawing == nil {
		return &entities.ValidationError{Field: "drawing_id", Reason: "drawing not found"}
	}
	if drawing.Status == entities.DrawingStatusScheduled {
		return nil // already scheduled, idempotent
	}
	if drawing.Status != entities.DrawingStatusDraft {
		return entities.NewStateConflict("drawing", string(drawing.Status), string(entities.DrawingStatusScheduled))
	}

	if err := drawing.ValidateSchedule(); err != nil {
		return err
	}

	prizes, err := s.prizeRepo.GetByDrawing(ctx, drawingID)
	if err != nil {
		return fmt.Errorf("failed to load prizes: %w", err)
	}
	if err := entities.ValidatePrizeRanks(prizes); err != nil {
		return err
	}

	return s.transition(ctx, drawingID, entities.DrawingStatusDraft, entities.DrawingStatusScheduled)
}

// AdvanceStates applies the time-based transitions to every due drawing.
// Conditional updates make re-application a no-op rather than an error.
func (s *drawingLifecycle) AdvanceStates(ctx context.Context, now time.Time) error {
	scheduled, err := s.drawingRepo.GetByStatus(ctx, entities.DrawingStatusScheduled)
	if err != nil {
		return fmt.Errorf("failed to list scheduled drawings: %w", err)
	}
	for _, d := range scheduled {
		if !d.IsDueForOpen(now) {
			continue
		}
		if err := s.transition(ctx, d.ID, entities.DrawingStatusScheduled, entities.DrawingStatusOpen); err != nil {
			return err
		}
	}

	open, err := s.drawingRepo.GetByStatus(ctx, entities.DrawingStatusOpen)
	if err != nil {
		return fmt.Errorf("failed to list open drawings: %w", err)
	}
	for _, d := range open {
		if !d.IsDueForClose(now) {
			continue
		}
		if err := s.transition(ctx, d.ID, entities.DrawingStatusOpen, entities.DrawingStatusClosed); err != nil {
			return err
		}
	}

	return nil
}

// Cancel cancels a pre-completed drawing and credits back every non-winning,
// un-refunded ticket. Already-refunded tickets are skipped, so the refund
// pass is safe to repeat.
func (s *drawingLifecycle) Cancel(ctx context.Context, drawingID int64, reason string) error {
	drawing, err := s.drawingRepo.GetByIDForUpdate(ctx, drawingID)
	if err != nil {
		return fmt.Errorf("failed to lock drawing: %w", err)
	}
	if drawing == nil {
		return &entities.ValidationError{Field: "drawing_id", Reason: "drawing not found"}
	}
	if drawing.Status == entities.DrawingStatusCancelled {
		return nil // idempotent
	}
	if !drawing.CanTransitionTo(entities.DrawingStatusCancelled) {
		return entities.NewStateConflict("drawing", string(drawing.Status), string(entities.DrawingStatusCancelled))
	}

	refunded, err := s.refundTickets(ctx, drawing)
	if err != nil {
		return err
	}

	ok, err := s.drawingRepo.TransitionStatus(ctx, drawingID, drawing.Status, entities.DrawingStatusCancelled)
	if err != nil {
		return fmt.Errorf("failed to cancel drawing: %w", err)
	}
	if !ok {
		return entities.ErrResourceLocked
	}

	event := events.DrawingCancelledEvent{
		DrawingID:      drawingID,
		Reason:         reason,
		RefundedAmount: refunded,
	}
	if err := s.eventPublisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish drawing cancelled event")
	}

	log.WithFields(log.Fields{
		"drawingID":      drawingID,
		"reason":         reason,
		"refundedAmount": refunded,
	}).Info("Drawing cancelled")

	return nil
}

// refundTickets issues an adjust credit for every non-winning, un-refunded
// ticket of the drawing and returns the total points credited back
func (s *drawingLifecycle) refundTickets(ctx context.Context, drawing *entities.Drawing) (int64, error) {
	tickets, err := s.ticketRepo.GetUnrefundedLosers(ctx, drawing.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to list refundable tickets: %w", err)
	}

	var total int64
	refType := entities.ReferenceTypeTicketRefund
	now := time.Now().UTC()
	for _, t := range tickets {
		ticketID := t.ID
		if _, err := s.ledger.Record(ctx, t.AccountID, entities.EntryKindAdjust, drawing.TicketUnitCost, &ticketID, &refType); err != nil {
			return total, fmt.Errorf("failed to refund ticket %d: %w", t.ID, err)
		}
		if err := s.ticketRepo.MarkRefunded(ctx, t.ID, now); err != nil {
			return total, fmt.Errorf("failed to mark ticket %d refunded: %w", t.ID, err)
		}
		total += drawing.TicketUnitCost
	}
	return total, nil
}

// transition performs one CAS status move and publishes the state change
func (s *drawingLifecycle) transition(ctx context.Context, drawingID int64, from, to entities.DrawingStatus) error {
	ok, err := s.drawingRepo.TransitionStatus(ctx, drawingID, from, to)
	if err != nil {
		return fmt.Errorf("failed to transition drawing %d from %s to %s: %w", drawingID, from, to, err)
	}
	if !ok {
		// Someone else applied the transition first. The precondition no
		// longer holds, so this is a no-op, not an error.
		return nil
	}

	event := events.DrawingStateChangedEvent{
		DrawingID: drawingID,
		OldStatus: string(from),
		NewStatus: string(to),
	}
	if err := s.eventPublisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish drawing state changed event")
	}

	log.WithFields(log.Fields{
		"drawingID": drawingID,
		"from":      from,
		"to":        to,
	}).Info("Drawing state advanced")

	return nil
}
