// Package service holds the business flows of the reservation engine:
// the reservation path with its bounded-retry lock coordination, the
// payment event ingestion gate, availability queries over the cache, and
// the background reconciler. Services accept narrow store interfaces and
// are exercised in tests against in-memory fakes; the SQL repositories
// in internal/repository are the production implementations.
package service

import (
	"context"
	"time"

	"github.com/slotwise/platform/internal/model"
)

// Ledger is the durable booking store. Insert must fail with
// repository.ErrSlotConflict when a non-cancelled booking already holds
// the (tenant, date) slot and with repository.ErrLockContention when the
// failure is storage contention rather than a business conflict.
type Ledger interface {
	Insert(ctx context.Context, b *model.Booking) error
	GetByID(ctx context.Context, tenantID, id string) (*model.Booking, error)
	Cancel(ctx context.Context, tenantID, id string) error
	Confirm(ctx context.Context, tenantID, id string) error
	ActiveDates(ctx context.Context, tenantID string, dates []string) (map[string]struct{}, error)
}

// EventStore records payment events. Record must fail with
// repository.ErrDuplicateEvent when the event ID was already seen.
type EventStore interface {
	Record(ctx context.Context, ev *model.PaymentEvent) error
	MarkProcessed(ctx context.Context, id, outcome string) error
	Quarantine(ctx context.Context, id, reason string) error
	ListQuarantined(ctx context.Context, limit int) ([]model.PaymentEvent, error)
	ListUnprocessed(ctx context.Context, olderThan time.Duration, limit int) ([]model.PaymentEvent, error)
}
