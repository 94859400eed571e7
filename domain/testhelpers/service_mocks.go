package testhelpers

import (
	"context"
	"time"

	"fittrack/drawing-engine/domain/entities"
	"fittrack/drawing-engine/domain/interfaces"

	"github.com/stretchr/testify/mock"
)

// MockTicketBook is a mock implementation of TicketBook
type MockTicketBook struct {
	mock.Mock
}

func (m *MockTicketBook) Purchase(ctx context.Context, accountID string, drawingID int64, quantity int) (*interfaces.PurchaseResult, error) {
	args := m.Called(ctx, accountID, drawingID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.PurchaseResult), args.Error(1)
}

func (m *MockTicketBook) CloseAndNumber(ctx context.Context, drawingID int64) ([]*entities.Ticket, error) {
	args := m.Called(ctx, drawingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Ticket), args.Error(1)
}

// MockDrawingLifecycle is a mock implementation of DrawingLifecycle
type MockDrawingLifecycle struct {
	mock.Mock
}

func (m *MockDrawingLifecycle) Schedule(ctx context.Context, drawingID int64) error {
	args := m.Called(ctx, drawingID)
	return args.Error(0)
}

func (m *MockDrawingLifecycle) AdvanceStates(ctx context.Context, now time.Time) error {
	args := m.Called(ctx, now)
	return args.Error(0)
}

func (m *MockDrawingLifecycle) Cancel(ctx context.Context, drawingID int64, reason string) error {
	args := m.Called(ctx, drawingID, reason)
	return args.Error(0)
}

// MockLedgerService is a mock implementation of LedgerService
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) Record(ctx context.Context, accountID string, kind entities.EntryKind, amount int64, refID *int64, refType *entities.ReferenceType) (*entities.LedgerEntry, error) {
	args := m.Called(ctx, accountID, kind, amount, refID, refType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.LedgerEntry), args.Error(1)
}

func (m *MockLedgerService) Balance(ctx context.Context, accountID string) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerService) Audit(ctx context.Context, accountID string) (int64, int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

// MockEligibilityChecker is a mock implementation of EligibilityChecker
type MockEligibilityChecker struct {
	mock.Mock
}

func (m *MockEligibilityChecker) IsEligible(ctx context.Context, account *entities.Account, drawing *entities.Drawing) (bool, error) {
	args := m.Called(ctx, account, drawing)
	return args.Bool(0), args.Error(1)
}
