package entities

import "time"

// FulfillmentStatus is the delivery workflow state for one winning ticket
type FulfillmentStatus string

const (
	FulfillmentStatusPending          FulfillmentStatus = "pending"
	FulfillmentStatusWinnerNotified   FulfillmentStatus = "winner_notified"
	FulfillmentStatusAddressConfirmed FulfillmentStatus = "address_confirmed"
	FulfillmentStatusShipped          FulfillmentStatus = "shipped"
	FulfillmentStatusDelivered        FulfillmentStatus = "delivered"
	FulfillmentStatusForfeited        FulfillmentStatus = "forfeited"
)

// DefaultForfeitWindow is how long a winner has to respond after notification
const DefaultForfeitWindow = 14 * 24 * time.Hour

// Fulfillment tracks the delivery workflow of one winning ticket. Exactly one
// row exists per winning ticket, created at draw execution.
type Fulfillment struct {
	ID                 int64             `db:"id"`
	TicketID           int64             `db:"ticket_id"` // unique
	PrizeID            int64             `db:"prize_id"`
	AccountID          string            `db:"account_id"`
	Status             FulfillmentStatus `db:"status"`
	ShippingAddress    *string           `db:"shipping_address"`
	Carrier            *string           `db:"carrier"`
	TrackingNumber     *string           `db:"tracking_number"`
	NotifiedAt         *time.Time        `db:"notified_at"`
	AddressConfirmedAt *time.Time        `db:"address_confirmed_at"`
	ShippedAt          *time.Time        `db:"shipped_at"`
	DeliveredAt        *time.Time        `db:"delivered_at"`
	ForfeitDeadline    *time.Time        `db:"forfeit_deadline"`
	CreatedAt          time.Time         `db:"created_at"`
}

// IsTerminal returns true once no further transitions are allowed
func (f *Fulfillment) IsTerminal() bool {
	return f.Status == FulfillmentStatusDelivered || f.Status == FulfillmentStatusForfeited
}

// CanNotify reports whether the winner notification transition is legal
func (f *Fulfillment) CanNotify() bool {
	return f.Status == FulfillmentStatusPending
}

// CanConfirmAddress reports whether address confirmation is legal. Digital
// prizes never pass through this state.
func (f *Fulfillment) CanConfirmAddress() bool {
	return f.Status == FulfillmentStatusWinnerNotified
}

// CanShip reports whether mark-shipped is legal
func (f *Fulfillment) CanShip() bool {
	return f.Status == FulfillmentStatusAddressConfirmed
}

// CanDeliver reports whether the delivery transition is legal for the given
// prize kind. Physical prizes must have shipped; digital prizes jump straight
// from winner_notified.
func (f *Fulfillment) CanDeliver(kind PrizeKind) bool {
	if kind == PrizeKindDigital {
		return f.Status == FulfillmentStatusWinnerNotified
	}
	return f.Status == FulfillmentStatusShipped
}

// CanDecline reports whether an explicit decline (forfeit) is legal. A winner
// may decline from any state short of delivered or forfeited, including after
// the prize has shipped.
func (f *Fulfillment) CanDecline() bool {
	return !f.IsTerminal()
}

// IsForfeitable reports whether the forfeiture timeout applies to the current
// state and has passed
func (f *Fulfillment) IsForfeitable(now time.Time) bool {
	if f.Status != FulfillmentStatusWinnerNotified && f.Status != FulfillmentStatusAddressConfirmed {
		return false
	}
	return f.ForfeitDeadline != nil && !now.Before(*f.ForfeitDeadline)
}

// Notify records the notification side effect and starts the forfeiture clock
func (f *Fulfillment) Notify(now time.Time, window time.Duration) {
	f.Status = FulfillmentStatusWinnerNotified
	f.NotifiedAt = &now
	deadline := now.Add(window)
	f.ForfeitDeadline = &deadline
}

// ConfirmAddress records the winner's shipping address
func (f *Fulfillment) ConfirmAddress(address string, now time.Time) {
	f.Status = FulfillmentStatusAddressConfirmed
	f.ShippingAddress = &address
	f.AddressConfirmedAt = &now
}

// Ship records carrier and tracking info
func (f *Fulfillment) Ship(carrier, tracking string, now time.Time) {
	f.Status = FulfillmentStatusShipped
	f.Carrier = &carrier
	f.TrackingNumber = &tracking
	f.ShippedAt = &now
}

// Deliver marks the terminal delivered state
func (f *Fulfillment) Deliver(now time.Time) {
	f.Status = FulfillmentStatusDelivered
	f.DeliveredAt = &now
}

// Forfeit marks the terminal forfeited state
func (f *Fulfillment) Forfeit() {
	f.Status = FulfillmentStatusForfeited
}
