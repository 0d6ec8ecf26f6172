package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/slotwise/platform/internal/cache"
	"github.com/slotwise/platform/internal/metrics"
	"github.com/slotwise/platform/internal/model"
	"github.com/slotwise/platform/internal/repository"
	"github.com/slotwise/platform/internal/utils"
)

// IngestOutcome is the synchronous result of one delivery attempt.
// Accepted and Duplicate are both acknowledged with success to the
// sender: anything else would trigger another retry of an event we have
// already durably recorded. Rejected (bad signature or schema) surfaces
// as a client error and records nothing. Unavailable means storage
// failed before the dedupe insert committed; nothing was recorded and
// the sender must redeliver.
type IngestOutcome string

const (
	OutcomeAccepted    IngestOutcome = "accepted"
	OutcomeDuplicate   IngestOutcome = "duplicate"
	OutcomeRejected    IngestOutcome = "rejected"
	OutcomeUnavailable IngestOutcome = "unavailable"
)

// ErrBadSignature is returned when the delivery's signature does not
// verify against the tenant's webhook secret.
var ErrBadSignature = errors.New("signature verification failed")

// ErrBadPayload is returned when the event body cannot be parsed or is
// missing required fields.
var ErrBadPayload = errors.New("malformed event payload")

// eventTypeConfirmed is the only event type that carries a booking state
// transition. Other types are recorded for audit and marked NOOP.
const eventTypeConfirmed = "payment.confirmed"

// eventPayload is the wire schema of a payment provider event.
type eventPayload struct {
	EventID    string `json:"event_id"`
	Type       string `json:"type"`
	BookingRef string `json:"booking_ref"`
	Outcome    string `json:"outcome"`
}

// BookingConfirmedEvent is emitted after a payment event confirms a
// booking. It carries enough information for downstream consumers
// (notifications, audit) without querying the primary database.
type BookingConfirmedEvent struct {
	BookingID   string `json:"booking_id"`
	TenantID    string `json:"tenant_id"`
	Date        string `json:"date"`
	CustomerRef string `json:"customer_ref"`
	EventID     string `json:"event_id"`
	ConfirmedAt string `json:"confirmed_at"`
}

// ConfirmationPublisher emits booking.confirmed events after a
// successful state transition. Publishing is best effort; a broker
// outage never fails the ingestion path.
type ConfirmationPublisher interface {
	PublishBookingConfirmed(ctx context.Context, ev BookingConfirmedEvent) error
}

// IngestService is the two-phase gate for externally delivered payment
// events. Phase one authenticates the delivery and records the event row
// under the unique event ID - the sole idempotency boundary. Phase two
// applies the business effect; if it fails after the row is durable, the
// row stays unprocessed and the reconciler retries the effect, never the
// whole delivery.
type IngestService struct {
	events    EventStore
	ledger    Ledger
	cache     *cache.Store
	publisher ConfirmationPublisher
	log       zerolog.Logger
}

// NewIngestService builds an IngestService. The publisher may be nil
// when no broker is configured.
func NewIngestService(events EventStore, ledger Ledger, store *cache.Store, publisher ConfirmationPublisher, log zerolog.Logger) *IngestService {
	return &IngestService{events: events, ledger: ledger, cache: store, publisher: publisher, log: log}
}

// Ingest processes one delivery attempt for the given tenant. The
// returned outcome maps onto the HTTP contract: Accepted and Duplicate
// are 200, Rejected is 400. The error return carries the rejection
// reason and is nil for Accepted and Duplicate.
func (s *IngestService) Ingest(ctx context.Context, tenant *model.Tenant, signature string, payload []byte) (IngestOutcome, error) {
	if !utils.VerifySignature(tenant.WebhookSecret, payload, signature) {
		// Rejected deliveries are never recorded; there is nothing
		// trustworthy to record.
		s.log.Warn().Str("tenant_id", tenant.ID).Msg("payment event signature rejected")
		metrics.IngestResults.WithLabelValues("rejected").Inc()
		return OutcomeRejected, ErrBadSignature
	}
	var p eventPayload
	if err := json.Unmarshal(payload, &p); err != nil || p.EventID == "" || p.BookingRef == "" {
		metrics.IngestResults.WithLabelValues("rejected").Inc()
		return OutcomeRejected, ErrBadPayload
	}
	ev := &model.PaymentEvent{
		ID:          p.EventID,
		TenantID:    tenant.ID,
		BookingRef:  p.BookingRef,
		Type:        p.Type,
		PayloadHash: utils.HashPayload(payload),
	}
	if err := s.events.Record(ctx, ev); err != nil {
		if errors.Is(err, repository.ErrDuplicateEvent) {
			metrics.IngestResults.WithLabelValues("duplicate").Inc()
			return OutcomeDuplicate, nil
		}
		// Nothing was recorded; the delivery must be retried, not dropped.
		metrics.IngestResults.WithLabelValues("unavailable").Inc()
		return OutcomeUnavailable, err
	}
	// The row is durable from here on. Effect failures leave it
	// unprocessed for the reconciler; they never bounce the delivery.
	if err := s.ApplyEffect(ctx, *ev); err != nil {
		s.log.Error().Err(err).Str("event_id", ev.ID).Msg("effect deferred to reconciler")
	}
	metrics.IngestResults.WithLabelValues("accepted").Inc()
	return OutcomeAccepted, nil
}

// ApplyEffect runs phase two for a recorded event: confirm the
// referenced booking and stamp the row with the outcome. It is shared
// between the synchronous path and the reconciler sweep, and acts only
// on the type that was persisted with the row. Quarantined targets
// (missing or cancelled bookings) stop retrying; transient failures
// return an error and keep the row unprocessed.
func (s *IngestService) ApplyEffect(ctx context.Context, ev model.PaymentEvent) error {
	if ev.Type != eventTypeConfirmed {
		return s.events.MarkProcessed(ctx, ev.ID, model.EventNoop)
	}
	err := s.ledger.Confirm(ctx, ev.TenantID, ev.BookingRef)
	switch {
	case err == nil:
		if merr := s.events.MarkProcessed(ctx, ev.ID, model.EventApplied); merr != nil {
			return merr
		}
		s.invalidateBooking(ctx, ev.TenantID, ev.BookingRef)
		s.publishConfirmed(ctx, ev)
		return nil
	case errors.Is(err, repository.ErrAlreadyConfirmed):
		// A distinct event confirming an already confirmed booking is
		// harmless; record it as a no-op rather than dead-lettering.
		return s.events.MarkProcessed(ctx, ev.ID, model.EventNoop)
	case errors.Is(err, repository.ErrBookingNotFound), errors.Is(err, repository.ErrBookingCancelled):
		metrics.IngestResults.WithLabelValues("quarantined").Inc()
		s.log.Warn().Str("event_id", ev.ID).Str("booking_ref", ev.BookingRef).
			Err(err).Msg("payment event quarantined")
		return s.events.Quarantine(ctx, ev.ID, err.Error())
	default:
		return err
	}
}

// Quarantined lists dead-lettered events for operator review.
func (s *IngestService) Quarantined(ctx context.Context, limit int) ([]model.PaymentEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.events.ListQuarantined(ctx, limit)
}

func (s *IngestService) invalidateBooking(ctx context.Context, tenantID, bookingID string) {
	keys := make([]cache.Key, 0, 2)
	if k, err := cache.NewKey(tenantID, cache.ResourceBooking, bookingID); err == nil {
		keys = append(keys, k)
	}
	// Confirmation does not change availability, but the booking's date
	// entry is cheap to refresh and dropping it covers any derived view
	// that folds status into the value.
	if b, err := s.ledger.GetByID(ctx, tenantID, bookingID); err == nil {
		if k, kerr := cache.NewKey(tenantID, cache.ResourceAvailability, b.Date); kerr == nil {
			keys = append(keys, k)
		}
	}
	s.cache.Invalidate(ctx, keys...)
}

func (s *IngestService) publishConfirmed(ctx context.Context, ev model.PaymentEvent) {
	if s.publisher == nil {
		return
	}
	b, err := s.ledger.GetByID(ctx, ev.TenantID, ev.BookingRef)
	if err != nil {
		s.log.Warn().Err(err).Str("booking_ref", ev.BookingRef).Msg("skipping confirm publish")
		return
	}
	msg := BookingConfirmedEvent{
		BookingID:   b.ID,
		TenantID:    b.TenantID,
		Date:        b.Date,
		CustomerRef: b.CustomerRef,
		EventID:     ev.ID,
		ConfirmedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.publisher.PublishBookingConfirmed(ctx, msg); err != nil {
		s.log.Warn().Err(err).Str("booking_id", b.ID).Msg("confirm publish failed")
	}
}
