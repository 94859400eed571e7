package testhelpers

import (
	"context"
	"time"

	"fittrack/drawing-engine/domain/entities"
	"fittrack/drawing-engine/domain/events"

	"github.com/stretchr/testify/mock"
)

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) GetByID(ctx context.Context, accountID string) (*entities.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Account), args.Error(1)
}

func (m *MockAccountRepository) GetByIDForUpdate(ctx context.Context, accountID string) (*entities.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Account), args.Error(1)
}

func (m *MockAccountRepository) UpdateBalance(ctx context.Context, accountID string, newBalance int64) error {
	args := m.Called(ctx, accountID, newBalance)
	return args.Error(0)
}

// MockLedgerRepository is a mock implementation of LedgerRepository
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Append(ctx context.Context, entry *entities.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerRepository) GetByAccount(ctx context.Context, accountID string, limit int) ([]*entities.LedgerEntry, error) {
	args := m.Called(ctx, accountID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) GetLatestByAccount(ctx context.Context, accountID string) (*entities.LedgerEntry, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) SumByAccount(ctx context.Context, accountID string) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

// MockDrawingRepository is a mock implementation of DrawingRepository
type MockDrawingRepository struct {
	mock.Mock
}

func (m *MockDrawingRepository) Create(ctx context.Context, drawing *entities.Drawing) error {
	args := m.Called(ctx, drawing)
	return args.Error(0)
}

func (m *MockDrawingRepository) GetByID(ctx context.Context, id int64) (*entities.Drawing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Drawing), args.Error(1)
}

func (m *MockDrawingRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Drawing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Drawing), args.Error(1)
}

func (m *MockDrawingRepository) TransitionStatus(ctx context.Context, id int64, from, to entities.DrawingStatus) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockDrawingRepository) MarkCompleted(ctx context.Context, id int64, auditToken string, completedAt time.Time) (bool, error) {
	args := m.Called(ctx, id, auditToken, completedAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockDrawingRepository) SetTotalTickets(ctx context.Context, id int64, total int64) error {
	args := m.Called(ctx, id, total)
	return args.Error(0)
}

func (m *MockDrawingRepository) IncrementTotalTickets(ctx context.Context, id int64, delta int64) error {
	args := m.Called(ctx, id, delta)
	return args.Error(0)
}

func (m *MockDrawingRepository) GetByStatus(ctx context.Context, status entities.DrawingStatus) ([]*entities.Drawing, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Drawing), args.Error(1)
}

func (m *MockDrawingRepository) GetDueForExecution(ctx context.Context, now time.Time) ([]*entities.Drawing, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Drawing), args.Error(1)
}

func (m *MockDrawingRepository) GetStaleExecuting(ctx context.Context, cutoff time.Time) ([]*entities.Drawing, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Drawing), args.Error(1)
}

// MockPrizeRepository is a mock implementation of PrizeRepository
type MockPrizeRepository struct {
	mock.Mock
}

func (m *MockPrizeRepository) Create(ctx context.Context, prize *entities.Prize) error {
	args := m.Called(ctx, prize)
	return args.Error(0)
}

func (m *MockPrizeRepository) GetByDrawing(ctx context.Context, drawingID int64) ([]*entities.Prize, error) {
	args := m.Called(ctx, drawingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Prize), args.Error(1)
}

func (m *MockPrizeRepository) GetByID(ctx context.Context, id int64) (*entities.Prize, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Prize), args.Error(1)
}

// MockTicketRepository is a mock implementation of TicketRepository
type MockTicketRepository struct {
	mock.Mock
}

func (m *MockTicketRepository) CreateBatch(ctx context.Context, tickets []*entities.Ticket) error {
	args := m.Called(ctx, tickets)
	return args.Error(0)
}

func (m *MockTicketRepository) GetByID(ctx context.Context, id int64) (*entities.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Ticket), args.Error(1)
}

func (m *MockTicketRepository) CountByDrawing(ctx context.Context, drawingID int64) (int64, error) {
	args := m.Called(ctx, drawingID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTicketRepository) CountNumberedByDrawing(ctx context.Context, drawingID int64) (int64, error) {
	args := m.Called(ctx, drawingID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTicketRepository) AssignNumbers(ctx context.Context, drawingID int64) (int64, error) {
	args := m.Called(ctx, drawingID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTicketRepository) GetByDrawing(ctx context.Context, drawingID int64) ([]*entities.Ticket, error) {
	args := m.Called(ctx, drawingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Ticket), args.Error(1)
}

func (m *MockTicketRepository) GetByNumber(ctx context.Context, drawingID, ticketNumber int64) (*entities.Ticket, error) {
	args := m.Called(ctx, drawingID, ticketNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Ticket), args.Error(1)
}

func (m *MockTicketRepository) GetByAccountForDrawing(ctx context.Context, drawingID int64, accountID string) ([]*entities.Ticket, error) {
	args := m.Called(ctx, drawingID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Ticket), args.Error(1)
}

func (m *MockTicketRepository) MarkWinner(ctx context.Context, ticketID, prizeID int64) error {
	args := m.Called(ctx, ticketID, prizeID)
	return args.Error(0)
}

func (m *MockTicketRepository) GetUnrefundedLosers(ctx context.Context, drawingID int64) ([]*entities.Ticket, error) {
	args := m.Called(ctx, drawingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Ticket), args.Error(1)
}

func (m *MockTicketRepository) MarkRefunded(ctx context.Context, ticketID int64, refundedAt time.Time) error {
	args := m.Called(ctx, ticketID, refundedAt)
	return args.Error(0)
}

// MockFulfillmentRepository is a mock implementation of FulfillmentRepository
type MockFulfillmentRepository struct {
	mock.Mock
}

func (m *MockFulfillmentRepository) Create(ctx context.Context, fulfillment *entities.Fulfillment) error {
	args := m.Called(ctx, fulfillment)
	return args.Error(0)
}

func (m *MockFulfillmentRepository) GetByID(ctx context.Context, id int64) (*entities.Fulfillment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Fulfillment), args.Error(1)
}

func (m *MockFulfillmentRepository) GetByTicket(ctx context.Context, ticketID int64) (*entities.Fulfillment, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Fulfillment), args.Error(1)
}

func (m *MockFulfillmentRepository) Update(ctx context.Context, fulfillment *entities.Fulfillment) error {
	args := m.Called(ctx, fulfillment)
	return args.Error(0)
}

func (m *MockFulfillmentRepository) GetPending(ctx context.Context, limit int) ([]*entities.Fulfillment, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Fulfillment), args.Error(1)
}

func (m *MockFulfillmentRepository) GetForfeitable(ctx context.Context, now time.Time) ([]*entities.Fulfillment, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Fulfillment), args.Error(1)
}

// MockDrawPickRepository is a mock implementation of DrawPickRepository
type MockDrawPickRepository struct {
	mock.Mock
}

func (m *MockDrawPickRepository) Record(ctx context.Context, pick *entities.DrawPick) error {
	args := m.Called(ctx, pick)
	return args.Error(0)
}

func (m *MockDrawPickRepository) GetByDrawing(ctx context.Context, drawingID int64) ([]*entities.DrawPick, error) {
	args := m.Called(ctx, drawingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.DrawPick), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockRandomSource is a mock implementation of RandomSource for deterministic
// executor tests
type MockRandomSource struct {
	mock.Mock
}

func (m *MockRandomSource) Pick(upper int64) (int64, error) {
	args := m.Called(upper)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRandomSource) PickExcluding(upper int64, used map[int64]bool) (int64, error) {
	args := m.Called(upper, used)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRandomSource) NewAuditToken() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}
