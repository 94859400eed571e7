package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fittrack/drawing-engine/config"
	"fittrack/drawing-engine/domain/entities"
	"fittrack/drawing-engine/domain/interfaces"
	"fittrack/drawing-engine/domain/services"
	"fittrack/drawing-engine/infrastructure/observability"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// DrawingScheduler drives the time-based parts of the drawing lifecycle:
// opening and closing sales, executing due draws, recovering stale execution
// locks, expiring unclaimed prizes, and dispatching winner notifications.
type DrawingScheduler struct {
	uowFactory UnitOfWorkFactory
	publisher  interfaces.EventPublisher
	random     interfaces.RandomSource
	cfg        *config.Config
	cron       *cron.Cron
}

// NewDrawingScheduler creates a new drawing scheduler. The publisher must
// deliver synchronously: winner notification dispatch only advances a
// fulfillment once its event has been handed to the broker.
func NewDrawingScheduler(uowFactory UnitOfWorkFactory, publisher interfaces.EventPublisher, random interfaces.RandomSource, cfg *config.Config) *DrawingScheduler {
	return &DrawingScheduler{
		uowFactory: uowFactory,
		publisher:  publisher,
		random:     random,
		cfg:        cfg,
	}
}

// Start registers the tick job and starts the cron loop.
// The returned stop function blocks until any in-flight tick finishes.
func (s *DrawingScheduler) Start(ctx context.Context) (func(), error) {
	c := cron.New()

	_, err := c.AddFunc(s.cfg.SchedulerSpec, func() {
		s.Tick(ctx, time.Now().UTC())
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register scheduler job: %w", err)
	}

	c.Start()
	s.cron = c
	log.WithField("spec", s.cfg.SchedulerSpec).Info("Drawing scheduler started")

	return func() {
		stopCtx := c.Stop()
		<-stopCtx.Done()
		log.Info("Drawing scheduler stopped")
	}, nil
}

// Tick runs one full scheduler pass. Every step runs in its own transaction
// so one failing drawing never blocks the rest.
func (s *DrawingScheduler) Tick(ctx context.Context, now time.Time) {
	if err := s.advanceStates(ctx, now); err != nil {
		log.WithError(err).Error("Failed to advance drawing states")
	}

	if err := s.recoverStaleExecutions(ctx, now); err != nil {
		log.WithError(err).Error("Failed to recover stale executions")
	}

	if err := s.executeDueDrawings(ctx, now); err != nil {
		log.WithError(err).Error("Failed to execute due drawings")
	}

	if err := s.checkForfeitures(ctx, now); err != nil {
		log.WithError(err).Error("Failed to check forfeitures")
	}

	if err := s.dispatchNotifications(ctx); err != nil {
		log.WithError(err).Error("Failed to dispatch winner notifications")
	}
}

// advanceStates opens drawings whose sales window has started and closes
// drawings whose sales window has ended, snapshotting ticket numbers
func (s *DrawingScheduler) advanceStates(ctx context.Context, now time.Time) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	lifecycle := s.newLifecycle(uow)
	if err := lifecycle.AdvanceStates(ctx, now); err != nil {
		return err
	}

	return uow.Commit()
}

// recoverStaleExecutions reverts drawings stuck in executing back to closed.
// A drawing only stays in executing this long when the process that claimed
// it died mid-draw; reverting lets the next tick retry it.
func (s *DrawingScheduler) recoverStaleExecutions(ctx context.Context, now time.Time) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	cutoff := now.Add(-s.cfg.StaleExecutingCutoff())
	stale, err := uow.DrawingRepository().GetStaleExecuting(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to query stale executions: %w", err)
	}

	for _, drawing := range stale {
		reverted, err := uow.DrawingRepository().TransitionStatus(ctx, drawing.ID, entities.DrawingStatusExecuting, entities.DrawingStatusClosed)
		if err != nil {
			return fmt.Errorf("failed to revert stale execution for drawing %d: %w", drawing.ID, err)
		}
		if reverted {
			log.WithFields(log.Fields{
				"drawingId":      drawing.ID,
				"executingSince": drawing.ExecutingSince,
			}).Warn("Reverted stale draw execution lock")
			observability.TrackDrawingTransition(string(entities.DrawingStatusExecuting), string(entities.DrawingStatusClosed))
		}
	}

	return uow.Commit()
}

// executeDueDrawings runs the draw for every closed drawing past its execute
// time. Each drawing gets its own transaction.
func (s *DrawingScheduler) executeDueDrawings(ctx context.Context, now time.Time) error {
	due, err := s.listDueDrawings(ctx, now)
	if err != nil {
		return err
	}

	for _, drawing := range due {
		if err := s.executeDrawing(ctx, drawing.ID); err != nil {
			log.WithFields(log.Fields{
				"drawingId": drawing.ID,
				"error":     err,
			}).Error("Draw execution failed")
		}
	}

	return nil
}

func (s *DrawingScheduler) listDueDrawings(ctx context.Context, now time.Time) ([]*entities.Drawing, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	due, err := uow.DrawingRepository().GetDueForExecution(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query due drawings: %w", err)
	}
	return due, nil
}

func (s *DrawingScheduler) executeDrawing(ctx context.Context, drawingID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	started := time.Now()
	executor := s.newExecutor(uow)

	if err := executor.Execute(ctx, drawingID); err != nil {
		if errors.Is(err, entities.ErrResourceLocked) {
			// Another instance claimed this drawing first
			log.WithField("drawingId", drawingID).Debug("Drawing already being executed elsewhere")
			observability.TrackDrawExecution("lock_contended", 0)
			return nil
		}
		observability.TrackDrawExecution("failed", 0)
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit draw execution: %w", err)
	}

	observability.TrackDrawExecution("completed", time.Since(started))
	log.WithField("drawingId", drawingID).Info("Draw execution committed")
	return nil
}

// checkForfeitures forfeits fulfillments whose claim deadline has passed
func (s *DrawingScheduler) checkForfeitures(ctx context.Context, now time.Time) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	tracker := s.newTracker(uow)
	count, err := tracker.CheckForfeiture(ctx, now)
	if err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	if count > 0 {
		for i := 0; i < count; i++ {
			observability.TrackForfeiture("deadline_expired")
		}
		log.WithField("count", count).Info("Forfeited expired prize claims")
	}
	return nil
}

// dispatchNotifications publishes winner notifications for pending
// fulfillments. The tracker here publishes straight to the broker rather than
// through the transaction's buffered bus: a row must only advance past
// pending once its event is confirmed out, and a publish failure leaves the
// row pending for the next tick to retry.
func (s *DrawingScheduler) dispatchNotifications(ctx context.Context) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	tracker := s.newDispatchTracker(uow)
	count, err := tracker.DispatchPending(ctx, s.cfg.DispatchBatchSize)
	if err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	if count > 0 {
		for i := 0; i < count; i++ {
			observability.TrackNotificationDispatch("dispatched")
		}
		log.WithField("count", count).Info("Dispatched winner notifications")
	}
	return nil
}

func (s *DrawingScheduler) newLedger(uow UnitOfWork) interfaces.LedgerService {
	return services.NewLedgerService(
		uow.AccountRepository(),
		uow.LedgerRepository(),
		uow.EventBus(),
	)
}

func (s *DrawingScheduler) newLifecycle(uow UnitOfWork) interfaces.DrawingLifecycle {
	return services.NewDrawingLifecycle(
		uow.DrawingRepository(),
		uow.PrizeRepository(),
		uow.TicketRepository(),
		s.newLedger(uow),
		uow.EventBus(),
	)
}

func (s *DrawingScheduler) newTicketBook(uow UnitOfWork) interfaces.TicketBook {
	return services.NewTicketBook(
		uow.DrawingRepository(),
		uow.TicketRepository(),
		uow.AccountRepository(),
		s.newLedger(uow),
		services.NewActiveAccountChecker(s.cfg.MinAccountAge()),
		s.cfg.MaxTicketsPerPurchase,
	)
}

func (s *DrawingScheduler) newTracker(uow UnitOfWork) interfaces.FulfillmentTracker {
	return services.NewFulfillmentTracker(
		uow.FulfillmentRepository(),
		uow.PrizeRepository(),
		uow.TicketRepository(),
		uow.EventBus(),
		s.cfg.ForfeitWindow(),
	)
}

// newDispatchTracker wires the tracker to the direct broker publisher so
// DispatchPending sees real publish failures before marking rows notified
func (s *DrawingScheduler) newDispatchTracker(uow UnitOfWork) interfaces.FulfillmentTracker {
	return services.NewFulfillmentTracker(
		uow.FulfillmentRepository(),
		uow.PrizeRepository(),
		uow.TicketRepository(),
		s.publisher,
		s.cfg.ForfeitWindow(),
	)
}

func (s *DrawingScheduler) newExecutor(uow UnitOfWork) interfaces.DrawExecutor {
	return services.NewDrawExecutor(
		uow.DrawingRepository(),
		uow.PrizeRepository(),
		uow.TicketRepository(),
		uow.FulfillmentRepository(),
		uow.DrawPickRepository(),
		s.newTicketBook(uow),
		s.newLifecycle(uow),
		s.random,
		uow.EventBus(),
	)
}
