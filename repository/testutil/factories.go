package testutil

import (
	"context"
	"testing"
	"time"

	"fittrack/drawing-engine/database"
	"fittrack/drawing-engine/domain/entities"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// InsertTestAccount inserts an account row directly. Accounts belong to the
// identity service, so the engine has no create path of its own.
func InsertTestAccount(t *testing.T, db *database.DB, account *entities.Account) {
	t.Helper()
	_, err := db.Exec(context.Background(),
		`INSERT INTO accounts (id, status, tier_code, point_balance, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		account.ID, account.Status, account.TierCode, account.PointBalance, account.CreatedAt,
	)
	require.NoError(t, err)
}

// CreateTestAccount creates an active account entity with default values
func CreateTestAccount(opts ...func(*entities.Account)) *entities.Account {
	account := &entities.Account{
		ID:           uuid.New().String(),
		Status:       entities.AccountStatusActive,
		TierCode:     "standard",
		PointBalance: 0,
		CreatedAt:    time.Now().Add(-30 * 24 * time.Hour),
	}
	for _, opt := range opts {
		opt(account)
	}
	return account
}

// CreateTestDrawing creates a weekly drawing in the sales window
func CreateTestDrawing(opts ...func(*entities.Drawing)) *entities.Drawing {
	now := time.Now()
	drawing := &entities.Drawing{
		Kind:            entities.DrawingKindWeekly,
		TicketUnitCost:  100,
		ScheduledOpenAt: now.Add(-24 * time.Hour),
		SalesCloseAt:    now.Add(24 * time.Hour),
		ExecuteAt:       now.Add(25 * time.Hour),
		Status:          entities.DrawingStatusOpen,
	}
	for _, opt := range opts {
		opt(drawing)
	}
	return drawing
}

// CreateTestPrize creates a physical grand prize for a drawing
func CreateTestPrize(drawingID int64, opts ...func(*entities.Prize)) *entities.Prize {
	prize := &entities.Prize{
		DrawingID: drawingID,
		Rank:      1,
		Kind:      entities.PrizeKindPhysical,
		Name:      "Trail Running Shoes",
		Quantity:  1,
		Value:     decimal.NewFromInt(150),
	}
	for _, opt := range opts {
		opt(prize)
	}
	return prize
}

// CreateTestTicket creates an unnumbered ticket for a drawing
func CreateTestTicket(drawingID int64, accountID string, ledgerEntryID int64) *entities.Ticket {
	return &entities.Ticket{
		DrawingID:     drawingID,
		AccountID:     accountID,
		LedgerEntryID: ledgerEntryID,
	}
}

// CreateTestLedgerEntry creates an earn entry with consistent balances
func CreateTestLedgerEntry(accountID string, amount, balanceAfter int64) *entities.LedgerEntry {
	return &entities.LedgerEntry{
		AccountID:    accountID,
		Kind:         entities.EntryKindEarn,
		Amount:       amount,
		BalanceAfter: balanceAfter,
	}
}

// CreateTestFulfillment creates a pending fulfillment for a winning ticket
func CreateTestFulfillment(ticketID, prizeID int64, accountID string) *entities.Fulfillment {
	return &entities.Fulfillment{
		TicketID:  ticketID,
		PrizeID:   prizeID,
		AccountID: accountID,
		Status:    entities.FulfillmentStatusPending,
	}
}
