package repository

import (
	"context"
	"fmt"

	"fittrack/drawing-engine/domain/entities"
	"fittrack/drawing-engine/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// AccountRepository implements account data access
type AccountRepository struct {
	q Queryable
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(q Queryable) interfaces.AccountRepository {
	return &AccountRepository{q: q}
}

const accountColumns = `id, status, tier_code, point_balance, created_at`

func scanAccount(row pgx.Row) (*entities.Account, error) {
	var a entities.Account
	err := row.Scan(
		&a.ID,
		&a.Status,
		&a.TierCode,
		&a.PointBalance,
		&a.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByID retrieves an account by its ID
func (r *AccountRepository) GetByID(ctx context.Context, accountID string) (*entities.Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE id = $1`, accountColumns)

	account, err := scanAccount(r.q.QueryRow(ctx, query, accountID))
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", accountID, err)
	}
	return account, nil
}

// GetByIDForUpdate retrieves an account with a row lock. Every ledger append
// for the account serializes behind this lock.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, accountID string) (*entities.Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE id = $1 FOR UPDATE`, accountColumns)

	account, err := scanAccount(r.q.QueryRow(ctx, query, accountID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock account %s: %w", accountID, err)
	}
	return account, nil
}

// UpdateBalance updates the denormalized point balance cache
func (r *AccountRepository) UpdateBalance(ctx context.Context, accountID string, newBalance int64) error {
	query := `UPDATE accounts SET point_balance = $2 WHERE id = $1`

	tag, err := r.q.Exec(ctx, query, accountID, newBalance)
	if err != nil {
		return fmt.Errorf("failed to update balance for account %s: %w", accountID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account %s not found", accountID)
	}
	return nil
}
