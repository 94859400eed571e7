package entities

import "time"

// DrawPick is the immutable audit record of one randomness-source invocation
// during draw execution. The published audit token proves a secure source was
// used; these rows are the internal evidence of each pick's inputs and output.
// They are never updated, deleted, or pruned.
type DrawPick struct {
	ID            int64     `db:"id"`
	DrawingID     int64     `db:"drawing_id"`
	PrizeID       int64     `db:"prize_id"`
	UpperBound    int64     `db:"upper_bound"`
	ExcludedCount int64     `db:"excluded_count"`
	PickedNumber  int64     `db:"picked_number"`
	CreatedAt     time.Time `db:"created_at"`
}
