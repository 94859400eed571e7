package repository

import (
	"context"
	"fmt"

	"fittrack/drawing-engine/domain/entities"
	"fittrack/drawing-engine/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// LedgerRepository implements the append-only ledger. There is deliberately
// no UPDATE or DELETE here: entries are immutable once written.
type LedgerRepository struct {
	q Queryable
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(q Queryable) interfaces.LedgerRepository {
	return &LedgerRepository{q: q}
}

// Append inserts a new ledger entry and fills in its ID and creation time
func (r *LedgerRepository) Append(ctx context.Context, entry *entities.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (account_id, kind, amount, balance_after, reference_id, reference_type)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		entry.AccountID,
		entry.Kind,
		entry.Amount,
		entry.BalanceAfter,
		entry.ReferenceID,
		entry.ReferenceType,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return nil
}

// GetByAccount returns the most recent entries for an account, newest first
func (r *LedgerRepository) GetByAccount(ctx context.Context, accountID string, limit int) ([]*entities.LedgerEntry, error) {
	query := `
		SELECT id, account_id, kind, amount, balance_after, reference_id, reference_type, created_at
		FROM ledger_entries
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	return scanLedgerEntries(rows)
}

// GetLatestByAccount returns the newest entry for an account, or nil
func (r *LedgerRepository) GetLatestByAccount(ctx context.Context, accountID string) (*entities.LedgerEntry, error) {
	query := `
		SELECT id, account_id, kind, amount, balance_after, reference_id, reference_type, created_at
		FROM ledger_entries
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	var e entities.LedgerEntry
	err := r.q.QueryRow(ctx, query, accountID).Scan(
		&e.ID,
		&e.AccountID,
		&e.Kind,
		&e.Amount,
		&e.BalanceAfter,
		&e.ReferenceID,
		&e.ReferenceType,
		&e.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest ledger entry: %w", err)
	}
	return &e, nil
}

// SumByAccount re-derives the balance by summing all entry amounts
func (r *LedgerRepository) SumByAccount(ctx context.Context, accountID string) (int64, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM ledger_entries WHERE account_id = $1`

	var sum int64
	if err := r.q.QueryRow(ctx, query, accountID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("failed to sum ledger entries: %w", err)
	}
	return sum, nil
}

func scanLedgerEntries(rows pgx.Rows) ([]*entities.LedgerEntry, error) {
	var entries []*entities.LedgerEntry
	for rows.Next() {
		var e entities.LedgerEntry
		err := rows.Scan(
			&e.ID,
			&e.AccountID,
			&e.Kind,
			&e.Amount,
			&e.BalanceAfter,
			&e.ReferenceID,
			&e.ReferenceType,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger entries: %w", err)
	}
	return entries, nil
}
