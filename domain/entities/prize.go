package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// PrizeKind determines the fulfillment path a winning ticket follows
type PrizeKind string

const (
	PrizeKindPhysical PrizeKind = "physical"
	PrizeKindDigital  PrizeKind = "digital"
)

// Prize is one ranked prize attached to a drawing. Prizes are immutable once
// the drawing leaves draft.
type Prize struct {
	ID        int64           `db:"id"`
	DrawingID int64           `db:"drawing_id"`
	Rank      int             `db:"rank"` // unique within drawing, 1 = grand prize
	Kind      PrizeKind       `db:"kind"`
	Name      string          `db:"name"`
	Quantity  int             `db:"quantity"` // MVP: always 1
	Value     decimal.Decimal `db:"value"`    // retail value, display/compliance only
	CreatedAt time.Time       `db:"created_at"`
}

// RequiresShipping returns true if winners must confirm an address
func (p *Prize) RequiresShipping() bool {
	return p.Kind == PrizeKindPhysical
}

// ValidatePrizeRanks checks that a drawing's prize list is non-empty with
// unique positive ranks. Required before draft -> scheduled.
func ValidatePrizeRanks(prizes []*Prize) error {
	if len(prizes) == 0 {
		return &ValidationError{Field: "prizes", Reason: "drawing must have at least one prize"}
	}
	seen := make(map[int]bool, len(prizes))
	for _, p := range prizes {
		if p.Rank <= 0 {
			return &ValidationError{Field: "rank", Reason: "prize rank must be positive"}
		}
		if seen[p.Rank] {
			return &ValidationError{Field: "rank", Reason: "prize ranks must be unique within a drawing"}
		}
		seen[p.Rank] = true
	}
	return nil
}
