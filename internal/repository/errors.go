// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish between different failure
// scenarios. The distinction between ErrSlotConflict and
// ErrLockContention matters most: the former is a legitimate business
// outcome that must never be retried, while the latter is a transient
// storage condition that the reservation service retries with a small
// jittered bound before giving up.
package repository

import "errors"

// ErrSlotConflict is returned when an insert collides with an existing
// non-cancelled booking for the same (tenant, date). Handlers should
// translate this into an HTTP 409 response.
var ErrSlotConflict = errors.New("slot already booked")

// ErrLockContention is returned when the storage engine reports a lock
// wait timeout or deadlock rather than a duplicate key. Callers may
// retry a bounded number of times before surfacing HTTP 503.
var ErrLockContention = errors.New("lock contention")

// ErrDuplicateEvent is returned when a payment event with the same
// externally assigned ID has already been recorded. This is the sole
// idempotency boundary of the ingestion path; callers acknowledge the
// delivery and apply no further effect.
var ErrDuplicateEvent = errors.New("duplicate event")

// ErrBookingNotFound is returned when the referenced booking does not
// exist for the given tenant.
var ErrBookingNotFound = errors.New("booking not found")

// ErrBookingCancelled is returned when an operation targets a booking
// that has already reached the terminal CANCELLED state.
var ErrBookingCancelled = errors.New("booking cancelled")

// ErrAlreadyConfirmed is returned when a confirmation targets a booking
// that is already CONFIRMED. Ingestion treats this as a no-op rather
// than an error worth quarantining.
var ErrAlreadyConfirmed = errors.New("booking already confirmed")

// ErrTenantNotFound is returned when no tenant row matches the supplied
// identifier.
var ErrTenantNotFound = errors.New("tenant not found")

// ErrEventNotFound is returned when no payment event row matches the
// supplied identifier.
var ErrEventNotFound = errors.New("event not found")
