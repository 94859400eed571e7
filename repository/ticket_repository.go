package repository

import (
	"context"
	"fmt"
	"time"

	"fittrack/drawing-engine/domain/entities"
	"fittrack/drawing-engine/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// TicketRepository implements ticket data access
type TicketRepository struct {
	q Queryable
}

// NewTicketRepository creates a new ticket repository
func NewTicketRepository(q Queryable) interfaces.TicketRepository {
	return &TicketRepository{q: q}
}

const ticketColumns = `id, drawing_id, account_id, ticket_number, ledger_entry_id,
	is_winner, prize_id, refunded_at, created_at`

func scanTicket(row pgx.Row) (*entities.Ticket, error) {
	var t entities.Ticket
	err := row.Scan(
		&t.ID,
		&t.DrawingID,
		&t.AccountID,
		&t.TicketNumber,
		&t.LedgerEntryID,
		&t.IsWinner,
		&t.PrizeID,
		&t.RefundedAt,
		&t.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func scanTickets(rows pgx.Rows) ([]*entities.Ticket, error) {
	var tickets []*entities.Ticket
	for rows.Next() {
		var t entities.Ticket
		err := rows.Scan(
			&t.ID,
			&t.DrawingID,
			&t.AccountID,
			&t.TicketNumber,
			&t.LedgerEntryID,
			&t.IsWinner,
			&t.PrizeID,
			&t.RefundedAt,
			&t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tickets: %w", err)
	}
	return tickets, nil
}

// CreateBatch inserts a batch of unnumbered tickets in one statement
func (r *TicketRepository) CreateBatch(ctx context.Context, tickets []*entities.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}

	drawingIDs := make([]int64, len(tickets))
	accountIDs := make([]string, len(tickets))
	ledgerEntryIDs := make([]int64, len(tickets))
	for i, t := range tickets {
		drawingIDs[i] = t.DrawingID
		accountIDs[i] = t.AccountID
		ledgerEntryIDs[i] = t.LedgerEntryID
	}

	query := `
		INSERT INTO tickets (drawing_id, account_id, ledger_entry_id)
		SELECT * FROM unnest($1::bigint[], $2::uuid[], $3::bigint[])
		RETURNING id, created_at
	`

	rows, err := r.q.Query(ctx, query, drawingIDs, accountIDs, ledgerEntryIDs)
	if err != nil {
		return fmt.Errorf("failed to create tickets: %w", err)
	}
	defer rows.Close()

	i := 0
	for rows.Next() {
		if i >= len(tickets) {
			return fmt.Errorf("ticket insert returned more rows than requested")
		}
		if err := rows.Scan(&tickets[i].ID, &tickets[i].CreatedAt); err != nil {
			return fmt.Errorf("failed to scan created ticket: %w", err)
		}
		i++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating created tickets: %w", err)
	}
	if i != len(tickets) {
		return fmt.Errorf("expected %d created tickets, got %d", len(tickets), i)
	}
	return nil
}

// GetByID retrieves a ticket by its ID, nil if absent
func (r *TicketRepository) GetByID(ctx context.Context, id int64) (*entities.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id = $1`, ticketColumns)

	ticket, err := scanTicket(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket %d: %w", id, err)
	}
	return ticket, nil
}

// CountByDrawing returns the number of tickets sold for a drawing
func (r *TicketRepository) CountByDrawing(ctx context.Context, drawingID int64) (int64, error) {
	query := `SELECT COUNT(*) FROM tickets WHERE drawing_id = $1`

	var count int64
	if err := r.q.QueryRow(ctx, query, drawingID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count tickets for drawing %d: %w", drawingID, err)
	}
	return count, nil
}

// CountNumberedByDrawing returns how many tickets already carry a number
func (r *TicketRepository) CountNumberedByDrawing(ctx context.Context, drawingID int64) (int64, error) {
	query := `SELECT COUNT(*) FROM tickets WHERE drawing_id = $1 AND ticket_number IS NOT NULL`

	var count int64
	if err := r.q.QueryRow(ctx, query, drawingID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count numbered tickets for drawing %d: %w", drawingID, err)
	}
	return count, nil
}

// AssignNumbers numbers every ticket of the drawing 1..N in (created_at, id)
// order, in a single statement, and returns N. The window function makes the
// assignment deterministic and contiguous regardless of insert interleaving.
func (r *TicketRepository) AssignNumbers(ctx context.Context, drawingID int64) (int64, error) {
	query := `
		WITH ordered AS (
			SELECT id, ROW_NUMBER() OVER (ORDER BY created_at, id) AS seq
			FROM tickets
			WHERE drawing_id = $1
		)
		UPDATE tickets
		SET ticket_number = ordered.seq
		FROM ordered
		WHERE tickets.id = ordered.id
	`

	tag, err := r.q.Exec(ctx, query, drawingID)
	if err != nil {
		return 0, fmt.Errorf("failed to assign ticket numbers for drawing %d: %w", drawingID, err)
	}
	return tag.RowsAffected(), nil
}

// GetByDrawing returns all tickets for a drawing in snapshot order
func (r *TicketRepository) GetByDrawing(ctx context.Context, drawingID int64) ([]*entities.Ticket, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM tickets
		WHERE drawing_id = $1
		ORDER BY created_at, id
	`, ticketColumns)

	rows, err := r.q.Query(ctx, query, drawingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tickets for drawing %d: %w", drawingID, err)
	}
	defer rows.Close()

	return scanTickets(rows)
}

// GetByNumber finds the ticket holding the given number in a drawing
func (r *TicketRepository) GetByNumber(ctx context.Context, drawingID, ticketNumber int64) (*entities.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE drawing_id = $1 AND ticket_number = $2`, ticketColumns)

	ticket, err := scanTicket(r.q.QueryRow(ctx, query, drawingID, ticketNumber))
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket %d/%d: %w", drawingID, ticketNumber, err)
	}
	return ticket, nil
}

// GetByAccountForDrawing returns one account's tickets for a drawing
func (r *TicketRepository) GetByAccountForDrawing(ctx context.Context, drawingID int64, accountID string) ([]*entities.Ticket, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM tickets
		WHERE drawing_id = $1 AND account_id = $2
		ORDER BY created_at, id
	`, ticketColumns)

	rows, err := r.q.Query(ctx, query, drawingID, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query account tickets: %w", err)
	}
	defer rows.Close()

	return scanTickets(rows)
}

// MarkWinner sets is_winner and prize_id on a ticket. The guard on is_winner
// refuses to overwrite an already-won ticket.
func (r *TicketRepository) MarkWinner(ctx context.Context, ticketID, prizeID int64) error {
	query := `UPDATE tickets SET is_winner = TRUE, prize_id = $2 WHERE id = $1 AND is_winner = FALSE`

	tag, err := r.q.Exec(ctx, query, ticketID, prizeID)
	if err != nil {
		return fmt.Errorf("failed to mark ticket %d as winner: %w", ticketID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ticket %d not found or already a winner", ticketID)
	}
	return nil
}

// GetUnrefundedLosers returns non-winning tickets that have not been refunded
// yet, for cancellation refunds
func (r *TicketRepository) GetUnrefundedLosers(ctx context.Context, drawingID int64) ([]*entities.Ticket, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM tickets
		WHERE drawing_id = $1 AND is_winner = FALSE AND refunded_at IS NULL
		ORDER BY created_at, id
	`, ticketColumns)

	rows, err := r.q.Query(ctx, query, drawingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query refundable tickets: %w", err)
	}
	defer rows.Close()

	return scanTickets(rows)
}

// MarkRefunded stamps refunded_at on a ticket
func (r *TicketRepository) MarkRefunded(ctx context.Context, ticketID int64, refundedAt time.Time) error {
	query := `UPDATE tickets SET refunded_at = $2 WHERE id = $1 AND refunded_at IS NULL`

	tag, err := r.q.Exec(ctx, query, ticketID, refundedAt)
	if err != nil {
		return fmt.Errorf("failed to mark ticket %d refunded: %w", ticketID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ticket %d not found or already refunded", ticketID)
	}
	return nil
}
