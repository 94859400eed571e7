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

// fulfillmentTracker implements the per-winner delivery workflow. Each
// transition is guarded on the fulfillment entity; terminal states never move
// again.
type fulfillmentTracker struct {
	fulfillmentRepo interfaces.FulfillmentRepository
	prizeRepo       interfaces.PrizeRepository
	ticketRepo      interfaces.TicketRepository
	eventPublisher  interfaces.EventPublisher
	forfeitWindow   time.Duration
}

// NewFulfillmentTracker creates a new fulfillment tracker
func NewFulfillmentTracker(
	fulfillmentRepo interfaces.FulfillmentRepository,
	prizeRepo interfaces.PrizeRepository,
	ticketRepo interfaces.TicketRepository,
	eventPublisher interfaces.EventPublisher,
	forfeitWindow time.Duration,
) interfaces.FulfillmentTracker {
	if forfeitWindow <= 0 {
		forfeitWindow = entities.DefaultForfeitWindow
	}
	return &fulfillmentTracker{
		fulfillmentRepo: fulfillmentRepo,
		prizeRepo:       prizeRepo,
		ticketRepo:      ticketRepo,
		eventPublisher:  eventPublisher,
		forfeitWindow:   forfeitWindow,
	}
}

// MarkNotified records that the winner notification was dispatched and starts
// the forfeiture clock. Idempotent: repeat delivery of the same notification
// is a no-op.
func (t *fulfillmentTracker) MarkNotified(ctx context.Context, fulfillmentID int64) error {
	f, err := t.get(ctx, fulfillmentID)
	if err != nil {
		return err
	}
	if f.Status == entities.FulfillmentStatusWinnerNotified {
		return nil
	}
	if !f.CanNotify() {
		return entities.NewStateConflict("fulfillment", string(f.Status), string(entities.FulfillmentStatusWinnerNotified))
	}

	f.Notify(time.Now().UTC(), t.forfeitWindow)
	return t.update(ctx, f)
}

// ConfirmAddress records the winner's shipping address. Digital prizes never
// take this transition.
func (t *fulfillmentTracker) ConfirmAddress(ctx context.Context, fulfillmentID int64, address string) error {
	if address == "" {
		return &entities.ValidationError{Field: "address", Reason: "must not be empty"}
	}

	f, err := t.get(ctx, fulfillmentID)
	if err != nil {
		return err
	}

	prize, err := t.prizeRepo.GetByID(ctx, f.PrizeID)
	if err != nil {
		return fmt.Errorf("failed to load prize: %w", err)
	}
	if prize == nil || !prize.RequiresShipping() {
		return entities.NewStateConflict("fulfillment", string(f.Status), string(entities.FulfillmentStatusAddressConfirmed))
	}
	if !f.CanConfirmAddress() {
		return entities.NewStateConflict("fulfillment", string(f.Status), string(entities.FulfillmentStatusAddressConfirmed))
	}

	f.ConfirmAddress(address, time.Now().UTC())
	return t.update(ctx, f)
}

// MarkShipped records carrier and tracking for a physical prize
func (t *fulfillmentTracker) MarkShipped(ctx context.Context, fulfillmentID int64, carrier, tracking string) error {
	f, err := t.get(ctx, fulfillmentID)
	if err != nil {
		return err
	}
	if !f.CanShip() {
		return entities.NewStateConflict("fulfillment", string(f.Status), string(entities.FulfillmentStatusShipped))
	}

	f.Ship(carrier, tracking, time.Now().UTC())
	return t.update(ctx, f)
}

// MarkDelivered closes out the fulfillment. Digital prizes jump straight from
// winner_notified; physical prizes must have shipped.
func (t *fulfillmentTracker) MarkDelivered(ctx context.Context, fulfillmentID int64) error {
	f, err := t.get(ctx, fulfillmentID)
	if err != nil {
		return err
	}

	prize, err := t.prizeRepo.GetByID(ctx, f.PrizeID)
	if err != nil {
		return fmt.Errorf("failed to load prize: %w", err)
	}
	if prize == nil {
		return &entities.ValidationError{Field: "prize_id", Reason: "prize not found"}
	}
	if !f.CanDeliver(prize.Kind) {
		return entities.NewStateConflict("fulfillment", string(f.Status), string(entities.FulfillmentStatusDelivered))
	}

	f.Deliver(time.Now().UTC())
	return t.update(ctx, f)
}

// Decline forfeits the prize at the winner's request
func (t *fulfillmentTracker) Decline(ctx context.Context, fulfillmentID int64) error {
	f, err := t.get(ctx, fulfillmentID)
	if err != nil {
		return err
	}
	if !f.CanDecline() {
		return entities.NewStateConflict("fulfillment", string(f.Status), string(entities.FulfillmentStatusForfeited))
	}

	f.Forfeit()
	if err := t.update(ctx, f); err != nil {
		return err
	}

	t.publishForfeit(f, true)
	return nil
}

// CheckForfeiture forfeits every fulfillment whose response deadline has
// passed. It emits reallocation events for the admin workflow and never
// re-runs the draw.
func (t *fulfillmentTracker) CheckForfeiture(ctx context.Context, now time.Time) (int, error) {
	expired, err := t.fulfillmentRepo.GetForfeitable(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list forfeitable fulfillments: %w", err)
	}

	count := 0
	for _, f := range expired {
		if !f.IsForfeitable(now) {
			continue
		}
		f.Forfeit()
		if err := t.update(ctx, f); err != nil {
			return count, err
		}
		t.publishForfeit(f, false)
		count++
	}

	if count > 0 {
		log.WithField("count", count).Info("Fulfillments forfeited on timeout")
	}
	return count, nil
}

// DispatchPending publishes winner notifications for fulfillments still in
// pending and advances them. Publish failures leave the row pending, so the
// next tick retries; delivery is at-least-once.
func (t *fulfillmentTracker) DispatchPending(ctx context.Context, limit int) (int, error) {
	pending, err := t.fulfillmentRepo.GetPending(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending fulfillments: %w", err)
	}

	count := 0
	for _, f := range pending {
		ticket, err := t.ticketRepo.GetByID(ctx, f.TicketID)
		if err != nil {
			return count, fmt.Errorf("failed to load winning ticket %d: %w", f.TicketID, err)
		}
		prize, err := t.prizeRepo.GetByID(ctx, f.PrizeID)
		if err != nil {
			return count, fmt.Errorf("failed to load prize %d: %w", f.PrizeID, err)
		}
		if ticket == nil || prize == nil || ticket.TicketNumber == nil {
			log.WithField("fulfillmentID", f.ID).Error("Fulfillment references missing ticket or prize")
			continue
		}

		event := events.WinnerSelectedEvent{
			DrawingID:     ticket.DrawingID,
			PrizeID:       prize.ID,
			PrizeRank:     prize.Rank,
			TicketID:      ticket.ID,
			TicketNumber:  *ticket.TicketNumber,
			AccountID:     f.AccountID,
			FulfillmentID: f.ID,
		}
		if err := t.eventPublisher.Publish(event); err != nil {
			// Leave pending, retried on the next tick.
			log.WithError(err).WithField("fulfillmentID", f.ID).Error("Failed to dispatch winner notification")
			continue
		}

		f.Notify(time.Now().UTC(), t.forfeitWindow)
		if err := t.update(ctx, f); err != nil {
			return count, err
		}
		count++
	}

	return count, nil
}

func (t *fulfillmentTracker) get(ctx context.Context, fulfillmentID int64) (*entities.Fulfillment, error) {
	f, err := t.fulfillmentRepo.GetByID(ctx, fulfillmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get fulfillment: %w", err)
	}
	if f == nil {
		return nil, &entities.ValidationError{Field: "fulfillment_id", Reason: "fulfillment not found"}
	}
	return f, nil
}

func (t *fulfillmentTracker) update(ctx context.Context, f *entities.Fulfillment) error {
	if err := t.fulfillmentRepo.Update(ctx, f); err != nil {
		return fmt.Errorf("failed to update fulfillment %d: %w", f.ID, err)
	}
	return nil
}

func (t *fulfillmentTracker) publishForfeit(f *entities.Fulfillment, declined bool) {
	event := events.FulfillmentForfeitedEvent{
		FulfillmentID: f.ID,
		TicketID:      f.TicketID,
		PrizeID:       f.PrizeID,
		AccountID:     f.AccountID,
		Declined:      declined,
	}
	if err := t.eventPublisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish fulfillment forfeited event")
	}
}
