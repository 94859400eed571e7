package services

import (
	"context"
	"testing"
	"time"

	"fittrack/drawing-engine/domain/entities"
	"fittrack/drawing-engine/domain/interfaces"
	"fittrack/drawing-engine/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

const testMaxPerOrder = 50

func createOpenDrawing(id int64, opts ...func(*entities.Drawing)) *entities.Drawing {
	now := time.Now().UTC()
	d := &entities.Drawing{
		ID:              id,
		Kind:            entities.DrawingKindWeekly,
		TicketUnitCost:  100,
		ScheduledOpenAt: now.Add(-time.Hour),
		SalesCloseAt:    now.Add(time.Hour),
		ExecuteAt:       now.Add(2 * time.Hour),
		Status:          entities.DrawingStatusOpen,
		CreatedAt:       now.Add(-2 * time.Hour),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func setupTicketBookMocks() (
	*testhelpers.MockDrawingRepository,
	*testhelpers.MockTicketRepository,
	*testhelpers.MockAccountRepository,
	*testhelpers.MockLedgerRepository,
	*testhelpers.MockEventPublisher,
) {
	return new(testhelpers.MockDrawingRepository),
		new(testhelpers.MockTicketRepository),
		new(testhelpers.MockAccountRepository),
		new(testhelpers.MockLedgerRepository),
		new(testhelpers.MockEventPublisher)
}

func newTestTicketBook(
	drawingRepo *testhelpers.MockDrawingRepository,
	ticketRepo *testhelpers.MockTicketRepository,
	accountRepo *testhelpers.MockAccountRepository,
	ledgerRepo *testhelpers.MockLedgerRepository,
	publisher *testhelpers.MockEventPublisher,
) interfaces.TicketBook {
	ledger := NewLedgerService(accountRepo, ledgerRepo, publisher)
	eligibility := NewActiveAccountChecker(0)
	return NewTicketBook(drawingRepo, ticketRepo, accountRepo, ledger, eligibility, testMaxPerOrder)
}

func TestTicketBook_Purchase_Success(t *testing.T) {
	t.Parallel()

	drawingRepo, ticketRepo, accountRepo, ledgerRepo, publisher := setupTicketBookMocks()

	account := createTestAccount(1000)
	drawingRepo.On("GetByIDForUpdate", mock.Anything, int64(1)).Return(createOpenDrawing(1), nil)
	accountRepo.On("GetByID", mock.Anything, testAccountID).Return(account, nil)
	accountRepo.On("GetByIDForUpdate", mock.Anything, testAccountID).Return(account, nil)
	ledgerRepo.On("Append", mock.Anything, mock.MatchedBy(func(e *entities.LedgerEntry) bool {
		return e.Kind == entities.EntryKindSpend && e.Amount == -500 && e.BalanceAfter == 500
	})).Return(nil)
	accountRepo.On("UpdateBalance", mock.Anything, testAccountID, int64(500)).Return(nil)
	publisher.On("Publish", mock.Anything).Return(nil)
	ticketRepo.On("CreateBatch", mock.Anything, mock.MatchedBy(func(tickets []*entities.Ticket) bool {
		return len(tickets) == 5
	})).Return(nil)
	drawingRepo.On("IncrementTotalTickets", mock.Anything, int64(1), int64(5)).Return(nil)

	book := newTestTicketBook(drawingRepo, ticketRepo, accountRepo, ledgerRepo, publisher)
	result, err := book.Purchase(context.Background(), testAccountID, 1, 5)

	assert.NoError(t, err)
	assert.Len(t, result.Tickets, 5)
	assert.Equal(t, int64(500), result.TotalCost)
	assert.Equal(t, int64(500), result.NewBalance)
	for _, ticket := range result.Tickets {
		assert.Nil(t, ticket.TicketNumber, "tickets must stay unnumbered until close")
	}
	drawingRepo.AssertExpectations(t)
	ticketRepo.AssertExpectations(t)
}

func TestTicketBook_Purchase_DrawingNotOpen(t *testing.T) {
	t.Parallel()

	drawingRepo, ticketRepo, accountRepo, ledgerRepo, publisher := setupTicketBookMocks()

	drawingRepo.On("GetByIDForUpdate", mock.Anything, int64(1)).Return(
		createOpenDrawing(1, func(d *entities.Drawing) { d.Status = entities.DrawingStatusScheduled }), nil)

	book := newTestTicketBook(drawingRepo, ticketRepo, accountRepo, ledgerRepo, publisher)
	_, err := book.Purchase(context.Background(), testAccountID, 1, 1)

	assert.ErrorIs(t, err, entities.ErrDrawingNotOpen)
	ticketRepo.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
}

func TestTicketBook_Purchase_SalesClosed(t *testing.T) {
	t.Parallel()

	drawingRepo, ticketRepo, accountRepo, ledgerRepo, publisher := setupTicketBookMocks()

	// still open by status but the close instant has passed
	drawingRepo.On("GetByIDForUpdate", mock.Anything, int64(1)).Return(
		createOpenDrawing(1, func(d *entities.Drawing) {
			d.SalesCloseAt = time.Now().UTC().Add(-time.Second)
		}), nil)

	book := newTestTicketBook(drawingRepo, ticketRepo, accountRepo, ledgerRepo, publisher)
	_, err := book.Purchase(context.Background(), testAccountID, 1, 1)

	assert.ErrorIs(t, err, entities.ErrSalesClosed)
	ledgerRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestTicketBook_Purchase_IneligibleAccount(t *testing.T) {
	t.Parallel()

	drawingRepo, ticketRepo, accountRepo, ledgerRepo, publisher := setupTicketBookMocks()

	drawingRepo.On("GetByIDForUpdate", mock.Anything, int64(1)).Return(createOpenDrawing(1), nil)
	accountRepo.On("GetByID", mock.Anything, testAccountID).Return(
		createTestAccount(1000, func(a *entities.Account) { a.Status = entities.AccountStatusSuspended }), nil)

	book := newTestTicketBook(drawingRepo, ticketRepo, accountRepo, ledgerRepo, publisher)
	_, err := book.Purchase(context.Background(), testAccountID, 1, 1)

	assert.ErrorIs(t, err, entities.ErrIneligible)
	ledgerRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestTicketBook_Purchase_InsufficientBalance(t *testing.T) {
	t.Parallel()

	drawingRepo, ticketRepo, accountRepo, ledgerRepo, publisher := setupTicketBookMocks()

	account := createTestAccount(300)
	drawingRepo.On("GetByIDForUpdate", mock.Anything, int64(1)).Return(createOpenDrawing(1), nil)
	accountRepo.On("GetByID", mock.Anything, testAccountID).Return(account, nil)
	accountRepo.On("GetByIDForUpdate", mock.Anything, testAccountID).Return(account, nil)

	book := newTestTicketBook(drawingRepo, ticketRepo, accountRepo, ledgerRepo, publisher)
	_, err := book.Purchase(context.Background(), testAccountID, 1, 5)

	assert.ErrorIs(t, err, entities.ErrInsufficientFunds)
	ticketRepo.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
}

func TestTicketBook_Purchase_QuantityValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		quantity int
	}{
		{"zero quantity", 0},
		{"negative quantity", -3},
		{"over per-order cap", testMaxPerOrder + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			drawingRepo, ticketRepo, accountRepo, ledgerRepo, publisher := setupTicketBookMocks()
			book := newTestTicketBook(drawingRepo, ticketRepo, accountRepo, ledgerRepo, publisher)

			_, err := book.Purchase(context.Background(), testAccountID, 1, tt.quantity)

			var verr *entities.ValidationError
			assert.ErrorAs(t, err, &verr)
			drawingRepo.AssertNotCalled(t, "GetByIDForUpdate", mock.Anything, mock.Anything)
		})
	}
}

func TestTicketBook_CloseAndNumber_AssignsOnce(t *testing.T) {
	t.Parallel()

	drawingRepo, ticketRepo, accountRepo, ledgerRepo, publisher := setupTicketBookMocks()

	numbered := func(n int64) *entities.Ticket {
		return &entities.Ticket{ID: n, DrawingID: 1, TicketNumber: &n}
	}
	snapshot := []*entities.Ticket{numbered(1), numbered(2), numbered(3)}

	ticketRepo.On("CountNumberedByDrawing", mock.Anything, int64(1)).Return(int64(0), nil)
	ticketRepo.On("AssignNumbers", mock.Anything, int64(1)).Return(int64(3), nil)
	drawingRepo.On("SetTotalTickets", mock.Anything, int64(1), int64(3)).Return(nil)
	ticketRepo.On("GetByDrawing", mock.Anything, int64(1)).Return(snapshot, nil)

	book := newTestTicketBook(drawingRepo, ticketRepo, accountRepo, ledgerRepo, publisher)
	tickets, err := book.CloseAndNumber(context.Background(), 1)

	assert.NoError(t, err)
	assert.Len(t, tickets, 3)
	ticketRepo.AssertExpectations(t)
	drawingRepo.AssertExpectations(t)
}

func TestTicketBook_CloseAndNumber_IdempotentOnRepeat(t *testing.T) {
	t.Parallel()

	drawingRepo, ticketRepo, accountRepo, ledgerRepo, publisher := setupTicketBookMocks()

	one := int64(1)
	snapshot := []*entities.Ticket{{ID: 1, DrawingID: 1, TicketNumber: &one}}

	ticketRepo.On("CountNumberedByDrawing", mock.Anything, int64(1)).Return(int64(1), nil)
	ticketRepo.On("GetByDrawing", mock.Anything, int64(1)).Return(snapshot, nil)

	book := newTestTicketBook(drawingRepo, ticketRepo, accountRepo, ledgerRepo, publisher)
	tickets, err := book.CloseAndNumber(context.Background(), 1)

	assert.NoError(t, err)
	assert.Len(t, tickets, 1)
	ticketRepo.AssertNotCalled(t, "AssignNumbers", mock.Anything, mock.Anything)
	drawingRepo.AssertNotCalled(t, "SetTotalTickets", mock.Anything, mock.Anything, mock.Anything)
}
