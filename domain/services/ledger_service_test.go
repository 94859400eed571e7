package services

import (
	"context"
	"testing"
	"time"

	"fittrack/drawing-engine/domain/entities"
	"fittrack/drawing-engine/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

const testAccountID = "11111111-2222-3333-4444-555555555555"

func createTestAccount(balance int64, opts ...func(*entities.Account)) *entities.Account {
	account := &entities.Account{
		ID:           testAccountID,
		Status:       entities.AccountStatusActive,
		TierCode:     "gold",
		PointBalance: balance,
		CreatedAt:    time.Now().Add(-90 * 24 * time.Hour),
	}
	for _, opt := range opts {
		opt(account)
	}
	return account
}

func TestLedgerService_Record_Credit(t *testing.T) {
	t.Parallel()

	accountRepo := new(testhelpers.MockAccountRepository)
	ledgerRepo := new(testhelpers.MockLedgerRepository)
	publisher := new(testhelpers.MockEventPublisher)

	accountRepo.On("GetByIDForUpdate", mock.Anything, testAccountID).Return(createTestAccount(100), nil)
	ledgerRepo.On("Append", mock.Anything, mock.MatchedBy(func(e *entities.LedgerEntry) bool {
		return e.Amount == 500 && e.BalanceAfter == 600
	})).Return(nil)
	accountRepo.On("UpdateBalance", mock.Anything, testAccountID, int64(600)).Return(nil)
	publisher.On("Publish", mock.Anything).Return(nil)

	service := NewLedgerService(accountRepo, ledgerRepo, publisher)
	entry, err := service.Record(context.Background(), testAccountID, entities.EntryKindEarn, 500, nil, nil)

	assert.NoError(t, err)
	assert.NotNil(t, entry)
	assert.Equal(t, int64(600), entry.BalanceAfter)
	accountRepo.AssertExpectations(t)
	ledgerRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestLedgerService_Record_InsufficientFunds(t *testing.T) {
	t.Parallel()

	accountRepo := new(testhelpers.MockAccountRepository)
	ledgerRepo := new(testhelpers.MockLedgerRepository)
	publisher := new(testhelpers.MockEventPublisher)

	accountRepo.On("GetByIDForUpdate", mock.Anything, testAccountID).Return(createTestAccount(400), nil)

	service := NewLedgerService(accountRepo, ledgerRepo, publisher)
	entry, err := service.Record(context.Background(), testAccountID, entities.EntryKindSpend, -500, nil, nil)

	assert.ErrorIs(t, err, entities.ErrInsufficientFunds)
	assert.Nil(t, entry)
	ledgerRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	accountRepo.AssertNotCalled(t, "UpdateBalance", mock.Anything, mock.Anything, mock.Anything)
}

func TestLedgerService_Record_SpendToExactlyZero(t *testing.T) {
	t.Parallel()

	accountRepo := new(testhelpers.MockAccountRepository)
	ledgerRepo := new(testhelpers.MockLedgerRepository)
	publisher := new(testhelpers.MockEventPublisher)

	accountRepo.On("GetByIDForUpdate", mock.Anything, testAccountID).Return(createTestAccount(500), nil)
	ledgerRepo.On("Append", mock.Anything, mock.MatchedBy(func(e *entities.LedgerEntry) bool {
		return e.BalanceAfter == 0
	})).Return(nil)
	accountRepo.On("UpdateBalance", mock.Anything, testAccountID, int64(0)).Return(nil)
	publisher.On("Publish", mock.Anything).Return(nil)

	service := NewLedgerService(accountRepo, ledgerRepo, publisher)
	entry, err := service.Record(context.Background(), testAccountID, entities.EntryKindSpend, -500, nil, nil)

	assert.NoError(t, err)
	assert.Equal(t, int64(0), entry.BalanceAfter)
}

func TestLedgerService_Record_UnknownAccount(t *testing.T) {
	t.Parallel()

	accountRepo := new(testhelpers.MockAccountRepository)
	ledgerRepo := new(testhelpers.MockLedgerRepository)
	publisher := new(testhelpers.MockEventPublisher)

	accountRepo.On("GetByIDForUpdate", mock.Anything, "missing").Return(nil, nil)

	service := NewLedgerService(accountRepo, ledgerRepo, publisher)
	_, err := service.Record(context.Background(), "missing", entities.EntryKindEarn, 100, nil, nil)

	var verr *entities.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestLedgerService_Audit(t *testing.T) {
	t.Parallel()

	accountRepo := new(testhelpers.MockAccountRepository)
	ledgerRepo := new(testhelpers.MockLedgerRepository)
	publisher := new(testhelpers.MockEventPublisher)

	accountRepo.On("GetByID", mock.Anything, testAccountID).Return(createTestAccount(750), nil)
	ledgerRepo.On("SumByAccount", mock.Anything, testAccountID).Return(int64(750), nil)

	service := NewLedgerService(accountRepo, ledgerRepo, publisher)
	cached, derived, err := service.Audit(context.Background(), testAccountID)

	assert.NoError(t, err)
	assert.Equal(t, int64(750), cached)
	assert.Equal(t, int64(750), derived)
}
