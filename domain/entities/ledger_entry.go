package entities

import (
	"errors"
	"time"
)

// EntryKind classifies a ledger entry.
type EntryKind string

const (
	EntryKindEarn   EntryKind = "earn"
	EntryKindSpend  EntryKind = "spend"
	EntryKindAdjust EntryKind = "adjust"
	EntryKindExpire EntryKind = "expire"
)

// IsDebit returns true for kinds that are expected to carry a negative amount
func (k EntryKind) IsDebit() bool {
	return k == EntryKindSpend || k == EntryKindExpire
}

// ReferenceType identifies what external entity a ledger entry points at
type ReferenceType string

const (
	ReferenceTypeTicketPurchase ReferenceType = "ticket_purchase"
	ReferenceTypeTicketRefund   ReferenceType = "ticket_refund"
	ReferenceTypeActivitySync   ReferenceType = "activity_sync"
)

// LedgerEntry is a single immutable point-balance change for an account.
// Entries are append-only: they are never updated or deleted, and for a given
// account the sequence (ordered by creation) must satisfy
// balance_after[i] == balance_after[i-1] + amount[i] with balance_after >= 0.
type LedgerEntry struct {
	ID            int64          `db:"id"`
	AccountID     string         `db:"account_id"`
	Kind          EntryKind      `db:"kind"`
	Amount        int64          `db:"amount"`
	BalanceAfter  int64          `db:"balance_after"`
	ReferenceID   *int64         `db:"reference_id"`
	ReferenceType *ReferenceType `db:"reference_type"`
	CreatedAt     time.Time      `db:"created_at"`
}

// IsCredit returns true if the entry increased the balance
func (e *LedgerEntry) IsCredit() bool {
	return e.Amount > 0
}

// Validate performs the internal consistency checks an entry must satisfy
// before it is appended
func (e *LedgerEntry) Validate(balanceBefore int64) error {
	if e.Amount == 0 {
		return errors.New("ledger amount cannot be zero")
	}
	if e.Kind.IsDebit() && e.Amount > 0 {
		return errors.New("debit entries must carry a negative amount")
	}
	if balanceBefore+e.Amount < 0 {
		return errors.New("entry would drive balance negative")
	}
	if e.BalanceAfter != balanceBefore+e.Amount {
		return errors.New("balance_after is inconsistent with amount")
	}
	return nil
}
