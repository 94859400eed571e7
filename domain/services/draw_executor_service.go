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

// drawExecutor performs winner selection for one closed drawing. Execute is
// idempotent under retries and crashes: completed drawings short-circuit, the
// executing status is a compare-and-swap lock, and every sub-step (numbering
// snapshot, winner marking) repeats safely.
type drawExecutor struct {
	drawingRepo     interfaces.DrawingRepository
	prizeRepo       interfaces.PrizeRepository
	ticketRepo      interfaces.TicketRepository
	fulfillmentRepo interfaces.FulfillmentRepository
	pickRepo        interfaces.DrawPickRepository
	ticketBook      interfaces.TicketBook
	lifecycle       interfaces.DrawingLifecycle
	random          interfaces.RandomSource
	eventPublisher  interfaces.EventPublisher
}

// NewDrawExecutor creates a new draw executor
func NewDrawExecutor(
	drawingRepo interfaces.DrawingRepository,
	prizeRepo interfaces.PrizeRepository,
	ticketRepo interfaces.TicketRepository,
	fulfillmentRepo interfaces.FulfillmentRepository,
	pickRepo interfaces.DrawPickRepository,
	ticketBook interfaces.TicketBook,
	lifecycle interfaces.DrawingLifecycle,
	random interfaces.RandomSource,
	eventPublisher interfaces.EventPublisher,
) interfaces.DrawExecutor {
	return &drawExecutor{
		drawingRepo:     drawingRepo,
		prizeRepo:       prizeRepo,
		ticketRepo:      ticketRepo,
		fulfillmentRepo: fulfillmentRepo,
		pickRepo:        pickRepo,
		ticketBook:      ticketBook,
		lifecycle:       lifecycle,
		random:          random,
		eventPublisher:  eventPublisher,
	}
}

// Execute runs the draw for a drawing. Safe to call repeatedly, including from
// concurrent workers racing on the same drawing.
func (e *drawExecutor) Execute(ctx context.Context, drawingID int64) error {
	drawing, err := e.drawingRepo.GetByID(ctx, drawingID)
	if err != nil {
		return fmt.Errorf("failed to get drawing: %w", err)
	}
	if drawing == nil {
		return &entities.ValidationError{Field: "drawing_id", Reason: "drawing not found"}
	}

	// Primary idempotency gate.
	if drawing.IsCompleted() {
		return nil
	}

	now := time.Now().UTC()
	if drawing.Status == entities.DrawingStatusExecuting {
		return entities.ErrResourceLocked
	}
	if !drawing.IsDueForExecution(now) {
		// Not closed yet, or before execute_at. Not an error, just not time.
		return nil
	}

	locked, err := e.drawingRepo.TransitionStatus(ctx, drawingID, entities.DrawingStatusClosed, entities.DrawingStatusExecuting)
	if err != nil {
		return fmt.Errorf("failed to acquire execution lock: %w", err)
	}
	if !locked {
		// A concurrent executor won the CAS, or the drawing already moved on.
		current, err := e.drawingRepo.GetByID(ctx, drawingID)
		if err == nil && current != nil && current.IsCompleted() {
			return nil
		}
		return entities.ErrResourceLocked
	}

	if err := e.run(ctx, drawing, now); err != nil {
		// Leave the drawing retryable: revert executing -> closed so a later
		// attempt re-enters from the top and repeats the idempotent work.
		if _, revertErr := e.drawingRepo.TransitionStatus(ctx, drawingID, entities.DrawingStatusExecuting, entities.DrawingStatusClosed); revertErr != nil {
			log.WithError(revertErr).WithField("drawingID", drawingID).Error("Failed to release execution lock after failure")
		}
		return err
	}
	return nil
}

// run performs the draw while the executing lock is held
func (e *drawExecutor) run(ctx context.Context, drawing *entities.Drawing, now time.Time) error {
	tickets, err := e.ticketBook.CloseAndNumber(ctx, drawing.ID)
	if err != nil {
		return fmt.Errorf("failed to snapshot tickets: %w", err)
	}

	if len(tickets) == 0 {
		// Nothing to draw. Cancel the drawing and alert the admin
		// collaborator via the cancellation event.
		if err := e.lifecycle.Cancel(ctx, drawing.ID, "no tickets sold"); err != nil {
			return fmt.Errorf("failed to cancel empty drawing: %w", err)
		}
		log.WithField("drawingID", drawing.ID).Warn("Drawing cancelled: no tickets sold")
		return nil
	}

	total := int64(len(tickets))
	byNumber := make(map[int64]*entities.Ticket, total)
	pickedNumbers := make(map[int64]bool)
	for _, t := range tickets {
		if t.TicketNumber == nil {
			return fmt.Errorf("ticket %d missing number after snapshot", t.ID)
		}
		byNumber[*t.TicketNumber] = t
		// Tickets already marked winner by an earlier, partially-failed
		// attempt stay excluded so retries cannot double-draw them.
		if t.IsWinner {
			pickedNumbers[*t.TicketNumber] = true
		}
	}

	prizes, err := e.prizeRepo.GetByDrawing(ctx, drawing.ID)
	if err != nil {
		return fmt.Errorf("failed to load prizes: %w", err)
	}

	winners := 0
	for _, prize := range prizes {
		if int64(len(pickedNumbers)) >= total {
			// More prizes than tickets: every ticket has won, the remaining
			// prizes go unawarded.
			log.WithFields(log.Fields{
				"drawingID": drawing.ID,
				"prizeRank": prize.Rank,
			}).Warn("No tickets left for prize, skipping remaining ranks")
			break
		}

		winner, err := e.awardPrize(ctx, drawing, prize, total, byNumber, pickedNumbers)
		if err != nil {
			return err
		}
		if winner {
			winners++
		}
	}

	token, err := e.random.NewAuditToken()
	if err != nil {
		return err
	}

	completed, err := e.drawingRepo.MarkCompleted(ctx, drawing.ID, token, now)
	if err != nil {
		return fmt.Errorf("failed to mark drawing completed: %w", err)
	}
	if !completed {
		return fmt.Errorf("lost executing status for drawing %d before completion", drawing.ID)
	}

	event := events.DrawingCompletedEvent{
		DrawingID:    drawing.ID,
		TotalTickets: total,
		WinnerCount:  winners,
		AuditToken:   token,
		CompletedAt:  now,
	}
	if err := e.eventPublisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish drawing completed event")
	}

	log.WithFields(log.Fields{
		"drawingID":    drawing.ID,
		"totalTickets": total,
		"winnerCount":  winners,
	}).Info("Drawing executed")

	return nil
}

// awardPrize picks one winning ticket for the prize, sampling without
// replacement across prizes so no ticket wins twice in one drawing. Returns
// false if this prize was already awarded by an earlier attempt.
func (e *drawExecutor) awardPrize(ctx context.Context, drawing *entities.Drawing, prize *entities.Prize, total int64, byNumber map[int64]*entities.Ticket, pickedNumbers map[int64]bool) (bool, error) {
	// A retry after a mid-draw crash finds some prizes already assigned.
	for _, t := range byNumber {
		if t.IsWinner && t.PrizeID != nil && *t.PrizeID == prize.ID {
			return false, nil
		}
	}

	number, err := e.random.PickExcluding(total, pickedNumbers)
	if err != nil {
		return false, err
	}

	pick := &entities.DrawPick{
		DrawingID:     drawing.ID,
		PrizeID:       prize.ID,
		UpperBound:    total,
		ExcludedCount: int64(len(pickedNumbers)),
		PickedNumber:  number,
	}
	if err := e.pickRepo.Record(ctx, pick); err != nil {
		return false, fmt.Errorf("failed to record pick audit entry: %w", err)
	}

	ticket := byNumber[number]
	if ticket == nil {
		return false, fmt.Errorf("picked number %d has no ticket in drawing %d", number, drawing.ID)
	}

	if err := e.ticketRepo.MarkWinner(ctx, ticket.ID, prize.ID); err != nil {
		return false, fmt.Errorf("failed to mark winning ticket: %w", err)
	}
	ticket.MarkWinner(prize.ID)
	pickedNumbers[number] = true

	fulfillment := &entities.Fulfillment{
		TicketID:  ticket.ID,
		PrizeID:   prize.ID,
		AccountID: ticket.AccountID,
		Status:    entities.FulfillmentStatusPending,
	}
	if err := e.fulfillmentRepo.Create(ctx, fulfillment); err != nil {
		return false, fmt.Errorf("failed to create fulfillment: %w", err)
	}

	log.WithFields(log.Fields{
		"drawingID":    drawing.ID,
		"prizeRank":    prize.Rank,
		"ticketNumber": number,
		"accountID":    ticket.AccountID,
	}).Info("Prize winner selected")

	return true, nil
}
