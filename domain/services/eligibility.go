package services

import (
	"context"
	"time"

	"fittrack/drawing-engine/domain/entities"
	"fittrack/drawing-engine/domain/interfaces"
)

// activeAccountChecker is the default eligibility predicate: the account must
// be active and older than a minimum age. The identity service can substitute
// a richer predicate (age, state of residence, tier) behind the same
// interface.
type activeAccountChecker struct {
	minAccountAge time.Duration
}

// NewActiveAccountChecker creates the default eligibility checker
func NewActiveAccountChecker(minAccountAge time.Duration) interfaces.EligibilityChecker {
	return &activeAccountChecker{minAccountAge: minAccountAge}
}

func (c *activeAccountChecker) IsEligible(ctx context.Context, account *entities.Account, drawing *entities.Drawing) (bool, error) {
	if !account.IsActive() {
		return false, nil
	}
	if c.minAccountAge > 0 && time.Since(account.CreatedAt) < c.minAccountAge {
		return false, nil
	}
	return true, nil
}
