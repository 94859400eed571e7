package entities

import "time"

// AccountStatus mirrors the identity service's account lifecycle
type AccountStatus string

const (
	AccountStatusPending   AccountStatus = "pending"
	AccountStatusActive    AccountStatus = "active"
	AccountStatusSuspended AccountStatus = "suspended"
	AccountStatusBanned    AccountStatus = "banned"
)

// Account is the engine's read model of a user account. Accounts are created
// and managed by the identity service; the engine only reads them for
// eligibility checks and locks their row to serialize ledger mutation.
//
// PointBalance is a denormalized cache of the ledger: it is updated in the
// same transaction as every ledger append, and an auditor can always re-derive
// it by summing the entries.
type Account struct {
	ID           string        `db:"id"` // UUID, issued by the identity service
	Status       AccountStatus `db:"status"`
	TierCode     string        `db:"tier_code"`
	PointBalance int64         `db:"point_balance"`
	CreatedAt    time.Time     `db:"created_at"`
}

// IsActive returns true if the account may participate in drawings
func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}
