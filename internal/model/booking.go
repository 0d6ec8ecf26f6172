package model

import "time"

// Booking statuses. PENDING is the state a fresh reservation starts in;
// a matching payment event moves it to CONFIRMED; an explicit cancel or
// refund moves either state to CANCELLED. CANCELLED is terminal.
const (
	BookingPending   = "PENDING"
	BookingConfirmed = "CONFIRMED"
	BookingCancelled = "CANCELLED"
)

// Booking records one tenant's reservation of a calendar date. At most one
// non-cancelled booking may exist per (tenant_id, date); the ledger enforces
// this with a unique index over (tenant_id, slot_key) where slot_key is set
// to NULL when the booking is cancelled, freeing the slot.
type Booking struct {
	ID          string    `json:"id"`           // bookings.id
	TenantID    string    `json:"tenant_id"`    // bookings.tenant_id
	Date        string    `json:"date"`         // bookings.slot_date
	CustomerRef string    `json:"customer_ref"` // bookings.customer_ref
	Status      string    `json:"status"`       // bookings.status
	Version     uint32    `json:"version"`      // bookings.version
	CreatedAt   time.Time `json:"created_at"`   // bookings.created_at
	UpdatedAt   time.Time `json:"updated_at"`   // bookings.updated_at
}

// Active reports whether the booking currently occupies its slot.
func (b *Booking) Active() bool { return b.Status != BookingCancelled }
