package repository

import (
	"context"
	"fmt"
	"time"

	"fittrack/drawing-engine/domain/entities"
	"fittrack/drawing-engine/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// FulfillmentRepository implements fulfillment data access
type FulfillmentRepository struct {
	q Queryable
}

// NewFulfillmentRepository creates a new fulfillment repository
func NewFulfillmentRepository(q Queryable) interfaces.FulfillmentRepository {
	return &FulfillmentRepository{q: q}
}

const fulfillmentColumns = `id, ticket_id, prize_id, account_id, status, shipping_address,
	carrier, tracking_number, notified_at, address_confirmed_at, shipped_at, delivered_at,
	forfeit_deadline, created_at`

func scanFulfillment(row pgx.Row) (*entities.Fulfillment, error) {
	var f entities.Fulfillment
	err := row.Scan(
		&f.ID,
		&f.TicketID,
		&f.PrizeID,
		&f.AccountID,
		&f.Status,
		&f.ShippingAddress,
		&f.Carrier,
		&f.TrackingNumber,
		&f.NotifiedAt,
		&f.AddressConfirmedAt,
		&f.ShippedAt,
		&f.DeliveredAt,
		&f.ForfeitDeadline,
		&f.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func scanFulfillments(rows pgx.Rows) ([]*entities.Fulfillment, error) {
	var fulfillments []*entities.Fulfillment
	for rows.Next() {
		var f entities.Fulfillment
		err := rows.Scan(
			&f.ID,
			&f.TicketID,
			&f.PrizeID,
			&f.AccountID,
			&f.Status,
			&f.ShippingAddress,
			&f.Carrier,
			&f.TrackingNumber,
			&f.NotifiedAt,
			&f.AddressConfirmedAt,
			&f.ShippedAt,
			&f.DeliveredAt,
			&f.ForfeitDeadline,
			&f.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fulfillment: %w", err)
		}
		fulfillments = append(fulfillments, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fulfillments: %w", err)
	}
	return fulfillments, nil
}

// Create inserts a pending fulfillment for a winning ticket. The unique
// constraint on ticket_id makes a duplicate insert fail loudly rather than
// silently double-tracking a prize.
func (r *FulfillmentRepository) Create(ctx context.Context, fulfillment *entities.Fulfillment) error {
	query := `
		INSERT INTO fulfillments (ticket_id, prize_id, account_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	if fulfillment.Status == "" {
		fulfillment.Status = entities.FulfillmentStatusPending
	}
	err := r.q.QueryRow(ctx, query,
		fulfillment.TicketID,
		fulfillment.PrizeID,
		fulfillment.AccountID,
		fulfillment.Status,
	).Scan(&fulfillment.ID, &fulfillment.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create fulfillment: %w", err)
	}
	return nil
}

// GetByID retrieves a fulfillment by its ID, nil if absent
func (r *FulfillmentRepository) GetByID(ctx context.Context, id int64) (*entities.Fulfillment, error) {
	query := fmt.Sprintf(`SELECT %s FROM fulfillments WHERE id = $1`, fulfillmentColumns)

	f, err := scanFulfillment(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get fulfillment %d: %w", id, err)
	}
	return f, nil
}

// GetByTicket retrieves the fulfillment for a ticket, nil if absent
func (r *FulfillmentRepository) GetByTicket(ctx context.Context, ticketID int64) (*entities.Fulfillment, error) {
	query := fmt.Sprintf(`SELECT %s FROM fulfillments WHERE ticket_id = $1`, fulfillmentColumns)

	f, err := scanFulfillment(r.q.QueryRow(ctx, query, ticketID))
	if err != nil {
		return nil, fmt.Errorf("failed to get fulfillment for ticket %d: %w", ticketID, err)
	}
	return f, nil
}

// Update persists the fulfillment's current state
func (r *FulfillmentRepository) Update(ctx context.Context, fulfillment *entities.Fulfillment) error {
	query := `
		UPDATE fulfillments
		SET status = $2, shipping_address = $3, carrier = $4, tracking_number = $5,
		    notified_at = $6, address_confirmed_at = $7, shipped_at = $8,
		    delivered_at = $9, forfeit_deadline = $10
		WHERE id = $1
	`

	tag, err := r.q.Exec(ctx, query,
		fulfillment.ID,
		fulfillment.Status,
		fulfillment.ShippingAddress,
		fulfillment.Carrier,
		fulfillment.TrackingNumber,
		fulfillment.NotifiedAt,
		fulfillment.AddressConfirmedAt,
		fulfillment.ShippedAt,
		fulfillment.DeliveredAt,
		fulfillment.ForfeitDeadline,
	)
	if err != nil {
		return fmt.Errorf("failed to update fulfillment %d: %w", fulfillment.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("fulfillment %d not found", fulfillment.ID)
	}
	return nil
}

// GetPending returns fulfillments still awaiting notification dispatch,
// oldest first
func (r *FulfillmentRepository) GetPending(ctx context.Context, limit int) ([]*entities.Fulfillment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM fulfillments
		WHERE status = $1
		ORDER BY created_at, id
		LIMIT $2
	`, fulfillmentColumns)

	rows, err := r.q.Query(ctx, query, entities.FulfillmentStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending fulfillments: %w", err)
	}
	defer rows.Close()

	return scanFulfillments(rows)
}

// GetForfeitable returns fulfillments in winner_notified or address_confirmed
// whose deadline has passed
func (r *FulfillmentRepository) GetForfeitable(ctx context.Context, now time.Time) ([]*entities.Fulfillment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM fulfillments
		WHERE status IN ($1, $2) AND forfeit_deadline <= $3
		ORDER BY forfeit_deadline, id
	`, fulfillmentColumns)

	rows, err := r.q.Query(ctx, query,
		entities.FulfillmentStatusWinnerNotified,
		entities.FulfillmentStatusAddressConfirmed,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query forfeitable fulfillments: %w", err)
	}
	defer rows.Close()

	return scanFulfillments(rows)
}
