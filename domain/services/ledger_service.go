package services

import (
	"context"
	"fmt"

	"fittrack/drawing-engine/domain/entities"
	"fittrack/drawing-engine/domain/events"
	"fittrack/drawing-engine/domain/interfaces"
	"fittrack/drawing-engine/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

// ledgerService implements LedgerService. All balance mutation flows through
// Record: the account row lock taken by GetByIDForUpdate serializes concurrent
// writers per account, so balance_after can never drift from the amount
// sequence.
type ledgerService struct {
	accountRepo    interfaces.AccountRepository
	ledgerRepo     interfaces.LedgerRepository
	eventPublisher interfaces.EventPublisher
}

// NewLedgerService creates a new ledger service
func NewLedgerService(
	accountRepo interfaces.AccountRepository,
	ledgerRepo interfaces.LedgerRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.LedgerService {
	return &ledgerService{
		accountRepo:    accountRepo,
		ledgerRepo:     ledgerRepo,
		eventPublisher: eventPublisher,
	}
}

// Record appends one immutable ledger entry and updates the balance cache in
// the same transaction
func (s *ledgerService) Record(ctx context.Context, accountID string, kind entities.EntryKind, amount int64, refID *int64, refType *entities.ReferenceType) (*entities.LedgerEntry, error) {
	account, err := s.accountRepo.GetByIDForUpdate(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}
	if account == nil {
		return nil, &entities.ValidationError{Field: "account_id", Reason: "account not found"}
	}

	if kind == entities.EntryKindSpend && account.PointBalance+amount < 0 {
		return nil, entities.ErrInsufficientFunds
	}

	entry := &entities.LedgerEntry{
		AccountID:     accountID,
		Kind:          kind,
		Amount:        amount,
		BalanceAfter:  account.PointBalance + amount,
		ReferenceID:   refID,
		ReferenceType: refType,
	}
	if err := entry.Validate(account.PointBalance); err != nil {
		return nil, &entities.ValidationError{Field: "amount", Reason: err.Error()}
	}

	if err := s.ledgerRepo.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to append ledger entry: %w", err)
	}

	if err := s.accountRepo.UpdateBalance(ctx, accountID, entry.BalanceAfter); err != nil {
		return nil, fmt.Errorf("failed to update balance cache: %w", err)
	}

	event := events.BalanceChangedEvent{
		AccountID:    accountID,
		EntryID:      entry.ID,
		Kind:         string(kind),
		ChangeAmount: amount,
		BalanceAfter: entry.BalanceAfter,
	}
	if err := s.eventPublisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish balance changed event")
	}

	observability.TrackLedgerEntry(string(kind))
	return entry, nil
}

// Balance reads the cached balance
func (s *ledgerService) Balance(ctx context.Context, accountID string) (int64, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return 0, &entities.ValidationError{Field: "account_id", Reason: "account not found"}
	}
	return account.PointBalance, nil
}

// Audit re-derives the balance by summing the log and returns it alongside
// the cache value, for compliance checks
func (s *ledgerService) Audit(ctx context.Context, accountID string) (int64, int64, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return 0, 0, &entities.ValidationError{Field: "account_id", Reason: "account not found"}
	}

	derived, err := s.ledgerRepo.SumByAccount(ctx, accountID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to sum ledger entries: %w", err)
	}

	if account.PointBalance != derived {
		log.WithFields(log.Fields{
			"accountID": accountID,
			"cached":    account.PointBalance,
			"derived":   derived,
		}).Error("Balance cache diverged from ledger")
	}

	return account.PointBalance, derived, nil
}
