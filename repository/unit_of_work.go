package repository

import (
	"context"
	"fmt"

	"fittrack/drawing-engine/application"
	"fittrack/drawing-engine/database"
	"fittrack/drawing-engine/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the application.UnitOfWork interface
type unitOfWork struct {
	db                     *database.DB
	tx                     pgx.Tx
	ctx                    context.Context
	transactionalPublisher application.TransactionalEventPublisher
	accountRepo            interfaces.AccountRepository
	ledgerRepo             interfaces.LedgerRepository
	drawingRepo            interfaces.DrawingRepository
	prizeRepo              interfaces.PrizeRepository
	ticketRepo             interfaces.TicketRepository
	fulfillmentRepo        interfaces.FulfillmentRepository
	drawPickRepo           interfaces.DrawPickRepository
}

type unitOfWorkFactory struct {
	db *database.DB
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB) *unitOfWorkFactory {
	return &unitOfWorkFactory{
		db: db,
	}
}

// CreateWithPublisher creates a new UnitOfWork with a specific transactional publisher
func (f *unitOfWorkFactory) CreateWithPublisher(transactionalPublisher application.TransactionalEventPublisher) application.UnitOfWork {
	return &unitOfWork{
		db:                     f.db,
		transactionalPublisher: transactionalPublisher,
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	// Bind all repositories to the transaction
	u.accountRepo = NewAccountRepository(tx)
	u.ledgerRepo = NewLedgerRepository(tx)
	u.drawingRepo = NewDrawingRepository(tx)
	u.prizeRepo = NewPrizeRepository(tx)
	u.ticketRepo = NewTicketRepository(tx)
	u.fulfillmentRepo = NewFulfillmentRepository(tx)
	u.drawPickRepo = NewDrawPickRepository(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Flush pending events after successful commit
	if u.transactionalPublisher != nil {
		u.transactionalPublisher.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	// Discard pending events on rollback
	if u.transactionalPublisher != nil {
		u.transactionalPublisher.Discard()
	}

	return nil
}

func (u *unitOfWork) AccountRepository() interfaces.AccountRepository {
	if u.accountRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.accountRepo
}

func (u *unitOfWork) LedgerRepository() interfaces.LedgerRepository {
	if u.ledgerRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.ledgerRepo
}

func (u *unitOfWork) DrawingRepository() interfaces.DrawingRepository {
	if u.drawingRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.drawingRepo
}

func (u *unitOfWork) PrizeRepository() interfaces.PrizeRepository {
	if u.prizeRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.prizeRepo
}

func (u *unitOfWork) TicketRepository() interfaces.TicketRepository {
	if u.ticketRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.ticketRepo
}

func (u *unitOfWork) FulfillmentRepository() interfaces.FulfillmentRepository {
	if u.fulfillmentRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.fulfillmentRepo
}

func (u *unitOfWork) DrawPickRepository() interfaces.DrawPickRepository {
	if u.drawPickRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.drawPickRepo
}

// EventBus returns the transactional event publisher for this unit of work.
// Events published here are buffered until Commit and dropped on Rollback.
func (u *unitOfWork) EventBus() interfaces.EventPublisher {
	return u.transactionalPublisher
}
