package repository

import (
	"context"
	"fmt"

	"fittrack/drawing-engine/domain/entities"
	"fittrack/drawing-engine/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// PrizeRepository implements prize data access
type PrizeRepository struct {
	q Queryable
}

// NewPrizeRepository creates a new prize repository
func NewPrizeRepository(q Queryable) interfaces.PrizeRepository {
	return &PrizeRepository{q: q}
}

// Create inserts a prize for a draft drawing
func (r *PrizeRepository) Create(ctx context.Context, prize *entities.Prize) error {
	query := `
		INSERT INTO prizes (drawing_id, rank, kind, name, quantity, value)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	if prize.Quantity == 0 {
		prize.Quantity = 1
	}
	err := r.q.QueryRow(ctx, query,
		prize.DrawingID,
		prize.Rank,
		prize.Kind,
		prize.Name,
		prize.Quantity,
		prize.Value,
	).Scan(&prize.ID, &prize.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create prize: %w", err)
	}
	return nil
}

// GetByDrawing returns the drawing's prizes ordered by rank ascending, so the
// grand prize always draws first
func (r *PrizeRepository) GetByDrawing(ctx context.Context, drawingID int64) ([]*entities.Prize, error) {
	query := `
		SELECT id, drawing_id, rank, kind, name, quantity, value, created_at
		FROM prizes
		WHERE drawing_id = $1
		ORDER BY rank
	`

	rows, err := r.q.Query(ctx, query, drawingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query prizes for drawing %d: %w", drawingID, err)
	}
	defer rows.Close()

	var prizes []*entities.Prize
	for rows.Next() {
		var p entities.Prize
		err := rows.Scan(
			&p.ID,
			&p.DrawingID,
			&p.Rank,
			&p.Kind,
			&p.Name,
			&p.Quantity,
			&p.Value,
			&p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prize: %w", err)
		}
		prizes = append(prizes, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prizes: %w", err)
	}
	return prizes, nil
}

// GetByID retrieves a prize by its ID, nil if absent
func (r *PrizeRepository) GetByID(ctx context.Context, id int64) (*entities.Prize, error) {
	query := `
		SELECT id, drawing_id, rank, kind, name, quantity, value, created_at
		FROM prizes
		WHERE id = $1
	`

	var p entities.Prize
	err := r.q.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.DrawingID,
		&p.Rank,
		&p.Kind,
		&p.Name,
		&p.Quantity,
		&p.Value,
		&p.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prize %d: %w", id, err)
	}
	return &p, nil
}
