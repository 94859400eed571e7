package application

import (
	"context"

	"fittrack/drawing-engine/domain/interfaces"
)

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	AccountRepository() interfaces.AccountRepository
	LedgerRepository() interfaces.LedgerRepository
	DrawingRepository() interfaces.DrawingRepository
	PrizeRepository() interfaces.PrizeRepository
	TicketRepository() interfaces.TicketRepository
	FulfillmentRepository() interfaces.FulfillmentRepository
	DrawPickRepository() interfaces.DrawPickRepository
	EventBus() interfaces.EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create creates a new UnitOfWork instance
	Create() UnitOfWork
}

// TransactionalEventPublisher buffers events during a transaction and
// publishes them only after the transaction commits
type TransactionalEventPublisher interface {
	interfaces.EventPublisher

	// Flush publishes all buffered events
	Flush(ctx context.Context) error

	// Discard drops all buffered events without publishing
	Discard()
}
