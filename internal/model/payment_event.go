package model

import "time"

// Payment event outcomes recorded after the effect phase. APPLIED means the
// referenced booking was confirmed by this event; NOOP means the booking was
// already confirmed when the event arrived; QUARANTINED means the effect
// target was missing or cancelled and the event awaits operator review.
const (
	EventApplied     = "APPLIED"
	EventNoop        = "NOOP"
	EventQuarantined = "QUARANTINED"
)

// PaymentEvent mirrors the `payment_events` table. The ID is assigned by the
// external payment provider and is globally unique; the unique index on it is
// the idempotency boundary for the whole ingestion path. A row with a NULL
// ProcessedAt has been durably recorded but its effect not yet applied; the
// reconciler picks those up. Type is persisted with the row so a deferred
// effect replays exactly what was delivered, never a guessed event type.
type PaymentEvent struct {
	ID          string     `json:"id"`           // payment_events.id
	TenantID    string     `json:"tenant_id"`    // payment_events.tenant_id
	BookingRef  string     `json:"booking_ref"`  // payment_events.booking_ref
	Type        string     `json:"type"`         // payment_events.event_type
	PayloadHash string     `json:"payload_hash"` // payment_events.payload_hash
	Outcome     string     `json:"outcome"`      // payment_events.outcome
	Error       string     `json:"error,omitempty"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"` // nullable
	CreatedAt   time.Time  `json:"created_at"`
}

// Processed reports whether the event's effect phase has completed.
func (e *PaymentEvent) Processed() bool { return e.ProcessedAt != nil }
