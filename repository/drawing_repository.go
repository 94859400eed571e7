package repository

import (
	"context"
	"fmt"
	"time"

	"fittrack/drawing-engine/domain/entities"
	"fittrack/drawing-engine/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// DrawingRepository implements drawing data access
type DrawingRepository struct {
	q Queryable
}

// NewDrawingRepository creates a new drawing repository
func NewDrawingRepository(q Queryable) interfaces.DrawingRepository {
	return &DrawingRepository{q: q}
}

const drawingColumns = `id, kind, ticket_unit_cost, scheduled_open_at, sales_close_at, execute_at,
	status, total_tickets, audit_token, completed_at, executing_since, created_at`

func scanDrawing(row pgx.Row) (*entities.Drawing, error) {
	var d entities.Drawing
	err := row.Scan(
		&d.ID,
		&d.Kind,
		&d.TicketUnitCost,
		&d.ScheduledOpenAt,
		&d.SalesCloseAt,
		&d.ExecuteAt,
		&d.Status,
		&d.TotalTickets,
		&d.AuditToken,
		&d.CompletedAt,
		&d.ExecutingSince,
		&d.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func scanDrawings(rows pgx.Rows) ([]*entities.Drawing, error) {
	var drawings []*entities.Drawing
	for rows.Next() {
		var d entities.Drawing
		err := rows.Scan(
			&d.ID,
			&d.Kind,
			&d.TicketUnitCost,
			&d.ScheduledOpenAt,
			&d.SalesCloseAt,
			&d.ExecuteAt,
			&d.Status,
			&d.TotalTickets,
			&d.AuditToken,
			&d.CompletedAt,
			&d.ExecutingSince,
			&d.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan drawing: %w", err)
		}
		drawings = append(drawings, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating drawings: %w", err)
	}
	return drawings, nil
}

// Create inserts a draft drawing
func (r *DrawingRepository) Create(ctx context.Context, drawing *entities.Drawing) error {
	query := `
		INSERT INTO drawings (kind, ticket_unit_cost, scheduled_open_at, sales_close_at, execute_at, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	if drawing.Status == "" {
		drawing.Status = entities.DrawingStatusDraft
	}
	err := r.q.QueryRow(ctx, query,
		drawing.Kind,
		drawing.TicketUnitCost,
		drawing.ScheduledOpenAt,
		drawing.SalesCloseAt,
		drawing.ExecuteAt,
		drawing.Status,
	).Scan(&drawing.ID, &drawing.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create drawing: %w", err)
	}
	return nil
}

// GetByID retrieves a drawing by its ID, nil if absent
func (r *DrawingRepository) GetByID(ctx context.Context, id int64) (*entities.Drawing, error) {
	query := fmt.Sprintf(`SELECT %s FROM drawings WHERE id = $1`, drawingColumns)

	drawing, err := scanDrawing(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get drawing %d: %w", id, err)
	}
	return drawing, nil
}

// GetByIDForUpdate retrieves a drawing with a row lock
func (r *DrawingRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Drawing, error) {
	query := fmt.Sprintf(`SELECT %s FROM drawings WHERE id = $1 FOR UPDATE`, drawingColumns)

	drawing, err := scanDrawing(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to lock drawing %d: %w", id, err)
	}
	return drawing, nil
}

// TransitionStatus performs a guarded compare-and-swap on status. The WHERE
// clause is the mutual exclusion: of N concurrent movers only the one whose
// UPDATE matches a row wins.
func (r *DrawingRepository) TransitionStatus(ctx context.Context, id int64, from, to entities.DrawingStatus) (bool, error) {
	var query string
	if to == entities.DrawingStatusExecuting {
		query = `UPDATE drawings SET status = $3, executing_since = NOW() WHERE id = $1 AND status = $2`
	} else {
		query = `UPDATE drawings SET status = $3, executing_since = NULL WHERE id = $1 AND status = $2`
	}

	tag, err := r.q.Exec(ctx, query, id, from, to)
	if err != nil {
		return false, fmt.Errorf("failed to transition drawing %d: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

// MarkCompleted sets status, audit token and completed_at in one update,
// guarded on the executing status
func (r *DrawingRepository) MarkCompleted(ctx context.Context, id int64, auditToken string, completedAt time.Time) (bool, error) {
	query := `
		UPDATE drawings
		SET status = $2, audit_token = $3, completed_at = $4, executing_since = NULL
		WHERE id = $1 AND status = $5 AND audit_token IS NULL
	`

	tag, err := r.q.Exec(ctx, query, id, entities.DrawingStatusCompleted, auditToken, completedAt, entities.DrawingStatusExecuting)
	if err != nil {
		return false, fmt.Errorf("failed to mark drawing %d completed: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

// SetTotalTickets freezes the authoritative ticket count at close
func (r *DrawingRepository) SetTotalTickets(ctx context.Context, id int64, total int64) error {
	query := `UPDATE drawings SET total_tickets = $2 WHERE id = $1`

	tag, err := r.q.Exec(ctx, query, id, total)
	if err != nil {
		return fmt.Errorf("failed to set total tickets for drawing %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("drawing %d not found", id)
	}
	return nil
}

// IncrementTotalTickets bumps the advisory sales counter
func (r *DrawingRepository) IncrementTotalTickets(ctx context.Context, id int64, delta int64) error {
	query := `UPDATE drawings SET total_tickets = total_tickets + $2 WHERE id = $1`

	tag, err := r.q.Exec(ctx, query, id, delta)
	if err != nil {
		return fmt.Errorf("failed to increment ticket counter for drawing %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("drawing %d not found", id)
	}
	return nil
}

// GetByStatus returns all drawings in the given status
func (r *DrawingRepository) GetByStatus(ctx context.Context, status entities.DrawingStatus) ([]*entities.Drawing, error) {
	query := fmt.Sprintf(`SELECT %s FROM drawings WHERE status = $1 ORDER BY id`, drawingColumns)

	rows, err := r.q.Query(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to query drawings by status %s: %w", status, err)
	}
	defer rows.Close()

	return scanDrawings(rows)
}

// GetDueForExecution returns closed drawings whose execute_at has passed
func (r *DrawingRepository) GetDueForExecution(ctx context.Context, now time.Time) ([]*entities.Drawing, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM drawings
		WHERE status = $1 AND execute_at <= $2
		ORDER BY execute_at, id
	`, drawingColumns)

	rows, err := r.q.Query(ctx, query, entities.DrawingStatusClosed, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query due drawings: %w", err)
	}
	defer rows.Close()

	return scanDrawings(rows)
}

// GetStaleExecuting returns drawings stuck in executing since before the
// cutoff. These belong to a crashed executor and need their lock reverted.
func (r *DrawingRepository) GetStaleExecuting(ctx context.Context, cutoff time.Time) ([]*entities.Drawing, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM drawings
		WHERE status = $1 AND executing_since < $2
		ORDER BY id
	`, drawingColumns)

	rows, err := r.q.Query(ctx, query, entities.DrawingStatusExecuting, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query stale executing drawings: %w", err)
	}
	defer rows.Close()

	return scanDrawings(rows)
}
