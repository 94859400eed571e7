package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fittrack/drawing-engine/domain/entities"
	"fittrack/drawing-engine/domain/interfaces"
	"fittrack/drawing-engine/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

// ticketBook implements TicketBook: purchase during the sales window, and the
// one-time numbering snapshot at close
type ticketBook struct {
	drawingRepo interfaces.DrawingRepository
	ticketRepo  interfaces.TicketRepository
	accountRepo interfaces.AccountRepository
	ledger      interfaces.LedgerService
	eligibility interfaces.EligibilityChecker
	maxPerOrder int
}

// NewTicketBook creates a new ticket book
func NewTicketBook(
	drawingRepo interfaces.DrawingRepository,
	ticketRepo interfaces.TicketRepository,
	accountRepo interfaces.AccountRepository,
	ledger interfaces.LedgerService,
	eligibility interfaces.EligibilityChecker,
	maxPerOrder int,
) interfaces.TicketBook {
	return &ticketBook{
		drawingRepo: drawingRepo,
		ticketRepo:  ticketRepo,
		accountRepo: accountRepo,
		ledger:      ledger,
		eligibility: eligibility,
		maxPerOrder: maxPerOrder,
	}
}

// Purchase buys tickets for an account. Runs inside the caller's unit of work:
// the sales-window guard, the ledger debit, the ticket rows and the advisory
// counter bump all commit together or not at all.
func (b *ticketBook) Purchase(ctx context.Context, accountID string, drawingID int64, quantity int) (*interfaces.PurchaseResult, error) {
	if quantity <= 0 {
		observability.TrackPurchaseRejected("invalid_quantity")
		return nil, &entities.ValidationError{Field: "quantity", Reason: "must be positive"}
	}
	if quantity > b.maxPerOrder {
		observability.TrackPurchaseRejected("invalid_quantity")
		return nil, &entities.ValidationError{Field: "quantity", Reason: fmt.Sprintf("exceeds maximum of %d per purchase", b.maxPerOrder)}
	}

	// Lock the drawing row so the status/close checks and the purchase commit
	// atomically with respect to the close transition.
	drawing, err := b.drawingRepo.GetByIDForUpdate(ctx, drawingID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock drawing: %w", err)
	}
	if drawing == nil {
		return nil, &entities.ValidationError{Field: "drawing_id", Reason: "drawing not found"}
	}

	now := time.Now().UTC()
	if drawing.Status != entities.DrawingStatusOpen {
		observability.TrackPurchaseRejected("drawing_not_open")
		return nil, entities.ErrDrawingNotOpen
	}
	if !now.Before(drawing.SalesCloseAt) {
		observability.TrackPurchaseRejected("sales_closed")
		return nil, entities.ErrSalesClosed
	}

	account, err := b.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, &entities.ValidationError{Field: "account_id", Reason: "account not found"}
	}

	eligible, err := b.eligibility.IsEligible(ctx, account, drawing)
	if err != nil {
		return nil, fmt.Errorf("failed to check eligibility: %w", err)
	}
	if !eligible {
		observability.TrackPurchaseRejected("ineligible")
		return nil, entities.ErrIneligible
	}

	totalCost := drawing.TicketUnitCost * int64(quantity)
	refType := entities.ReferenceTypeTicketPurchase
	entry, err := b.ledger.Record(ctx, accountID, entities.EntryKindSpend, -totalCost, &drawingID, &refType)
	if err != nil {
		if errors.Is(err, entities.ErrInsufficientFunds) {
			observability.TrackPurchaseRejected("insufficient_funds")
		}
		return nil, err
	}

	tickets := make([]*entities.Ticket, 0, quantity)
	for i := 0; i < quantity; i++ {
		tickets = append(tickets, &entities.Ticket{
			DrawingID:     drawingID,
			AccountID:     accountID,
			LedgerEntryID: entry.ID,
		})
	}
	if err := b.ticketRepo.CreateBatch(ctx, tickets); err != nil {
		return nil, fmt.Errorf("failed to create tickets: %w", err)
	}

	// Advisory display counter. The close-time snapshot recount is the
	// authoritative total.
	if err := b.drawingRepo.IncrementTotalTickets(ctx, drawingID, int64(quantity)); err != nil {
		return nil, fmt.Errorf("failed to increment ticket counter: %w", err)
	}

	log.WithFields(log.Fields{
		"accountID": accountID,
		"drawingID": drawingID,
		"quantity":  quantity,
		"totalCost": totalCost,
	}).Info("Tickets purchased")
	observability.TrackTicketsPurchased(quantity)

	return &interfaces.PurchaseResult{
		Tickets:     tickets,
		LedgerEntry: entry,
		TotalCost:   totalCost,
		NewBalance:  entry.BalanceAfter,
	}, nil
}

// CloseAndNumber assigns ticket numbers 1..N in (created_at, id) order and
// freezes the authoritative total. Idempotent: once any ticket carries a
// number the existing snapshot is returned untouched, which is what makes
// draw execution safe to retry.
func (b *ticketBook) CloseAndNumber(ctx context.Context, drawingID int64) ([]*entities.Ticket, error) {
	numbered, err := b.ticketRepo.CountNumberedByDrawing(ctx, drawingID)
	if err != nil {
		return nil, fmt.Errorf("failed to check numbering state: %w", err)
	}
	if numbered > 0 {
		return b.ticketRepo.GetByDrawing(ctx, drawingID)
	}

	total, err := b.ticketRepo.AssignNumbers(ctx, drawingID)
	if err != nil {
		return nil, fmt.Errorf("failed to assign ticket numbers: %w", err)
	}

	if err := b.drawingRepo.SetTotalTickets(ctx, drawingID, total); err != nil {
		return nil, fmt.Errorf("failed to freeze ticket total: %w", err)
	}

	log.WithFields(log.Fields{
		"drawingID":    drawingID,
		"totalTickets": total,
	}).Info("Ticket numbering snapshot taken")

	return b.ticketRepo.GetByDrawing(ctx, drawingID)
}
