package repository

import (
	"context"
	"fmt"

	"fittrack/drawing-engine/domain/entities"
	"fittrack/drawing-engine/domain/interfaces"
)

// DrawPickRepository implements the pick audit log. Append and read only.
type DrawPickRepository struct {
	q Queryable
}

// NewDrawPickRepository creates a new draw pick repository
func NewDrawPickRepository(q Queryable) interfaces.DrawPickRepository {
	return &DrawPickRepository{q: q}
}

// Record appends one pick to the audit log
func (r *DrawPickRepository) Record(ctx context.Context, pick *entities.DrawPick) error {
	query := `
		INSERT INTO draw_picks (drawing_id, prize_id, upper_bound, excluded_count, picked_number)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		pick.DrawingID,
		pick.PrizeID,
		pick.UpperBound,
		pick.ExcludedCount,
		pick.PickedNumber,
	).Scan(&pick.ID, &pick.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record draw pick: %w", err)
	}
	return nil
}

// GetByDrawing returns the full pick sequence for a drawing in pick order
func (r *DrawPickRepository) GetByDrawing(ctx context.Context, drawingID int64) ([]*entities.DrawPick, error) {
	query := `
		SELECT id, drawing_id, prize_id, upper_bound, excluded_count, picked_number, created_at
		FROM draw_picks
		WHERE drawing_id = $1
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query, drawingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query draw picks for drawing %d: %w", drawingID, err)
	}
	defer rows.Close()

	var picks []*entities.DrawPick
	for rows.Next() {
		var p entities.DrawPick
		err := rows.Scan(
			&p.ID,
			&p.DrawingID,
			&p.PrizeID,
			&p.UpperBound,
			&p.ExcludedCount,
			&p.PickedNumber,
			&p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan draw pick: %w", err)
		}
		picks = append(picks, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating draw picks: %w", err)
	}
	return picks, nil
}
