package service

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/slotwise/platform/internal/cache"
	"github.com/slotwise/platform/internal/metrics"
	"github.com/slotwise/platform/internal/model"
	"github.com/slotwise/platform/internal/repository"
)

// ErrTransientUnavailable is surfaced when the reservation path exhausts
// its contention retries without reaching a decision. Callers should
// translate it into HTTP 503 with a retry hint; it never means the slot
// is taken.
var ErrTransientUnavailable = errors.New("reservation temporarily unavailable")

// ErrInvalidDate is returned when the requested date is not a valid
// YYYY-MM-DD calendar date.
var ErrInvalidDate = errors.New("invalid date")

// RetryPolicy bounds how the reservation service behaves under lock
// contention. Attempts counts total insert attempts; the sleep between
// attempts is uniformly jittered within [MinBackoff, MaxBackoff] so
// colliding workers do not retry in lockstep.
type RetryPolicy struct {
	Attempts   int
	MinBackoff time.Duration
	MaxBackoff time.Duration
}

// DefaultRetryPolicy is three attempts with 20-100ms jitter.
var DefaultRetryPolicy = RetryPolicy{
	Attempts:   3,
	MinBackoff: 20 * time.Millisecond,
	MaxBackoff: 100 * time.Millisecond,
}

// ReservationService implements the reserve/cancel flows. The ledger's
// insert-or-fail is the only serialization point; the service adds the
// bounded jittered retry on contention and the synchronous cache
// invalidation that keeps the writer's next read fresh.
type ReservationService struct {
	ledger Ledger
	cache  *cache.Store
	retry  RetryPolicy
	log    zerolog.Logger
}

// NewReservationService builds a ReservationService. A zero RetryPolicy
// falls back to DefaultRetryPolicy.
func NewReservationService(ledger Ledger, store *cache.Store, retry RetryPolicy, log zerolog.Logger) *ReservationService {
	if retry.Attempts <= 0 {
		retry = DefaultRetryPolicy
	}
	return &ReservationService{ledger: ledger, cache: store, retry: retry, log: log}
}

// normalizeDate validates and canonicalizes a YYYY-MM-DD date string.
func normalizeDate(date string) (string, error) {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "", ErrInvalidDate
	}
	return t.Format("2006-01-02"), nil
}

// Reserve attempts to book the given date for the tenant. Of any set of
// concurrent calls for the same (tenant, date), exactly one commits a
// PENDING booking; the others observe repository.ErrSlotConflict. Lock
// contention is retried per the policy before ErrTransientUnavailable is
// surfaced. The availability cache entry for the date is invalidated
// before the booking is returned.
func (s *ReservationService) Reserve(ctx context.Context, tenantID, date, customerRef string) (*model.Booking, error) {
	normalized, err := normalizeDate(date)
	if err != nil {
		return nil, err
	}
	b := &model.Booking{
		ID:          uuid.NewString(),
		TenantID:    tenantID,
		Date:        normalized,
		CustomerRef: customerRef,
		Status:      model.BookingPending,
	}
	for attempt := 1; ; attempt++ {
		err = s.ledger.Insert(ctx, b)
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrSlotConflict) {
			// A legitimate outcome, never retried.
			metrics.ReserveResults.WithLabelValues("conflict").Inc()
			return nil, err
		}
		if !errors.Is(err, repository.ErrLockContention) {
			metrics.ReserveResults.WithLabelValues("error").Inc()
			return nil, err
		}
		if attempt >= s.retry.Attempts {
			s.log.Warn().Str("tenant_id", tenantID).Str("date", normalized).
				Int("attempts", attempt).Msg("reserve gave up under contention")
			metrics.ReserveResults.WithLabelValues("transient").Inc()
			return nil, ErrTransientUnavailable
		}
		metrics.ReserveRetries.Inc()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.jitter()):
		}
	}
	s.invalidateSlot(ctx, tenantID, normalized, b.ID)
	metrics.ReserveResults.WithLabelValues("created").Inc()
	return b, nil
}

// Cancel moves a booking to CANCELLED and frees its slot for a
// subsequent reservation. Cancelling an already cancelled booking is an
// idempotent no-op. The cache entries for both the date and the booking
// are invalidated before success is returned.
func (s *ReservationService) Cancel(ctx context.Context, tenantID, bookingID string) (*model.Booking, error) {
	err := s.ledger.Cancel(ctx, tenantID, bookingID)
	if err != nil && !errors.Is(err, repository.ErrBookingCancelled) {
		return nil, err
	}
	b, err := s.ledger.GetByID(ctx, tenantID, bookingID)
	if err != nil {
		return nil, err
	}
	s.invalidateSlot(ctx, tenantID, b.Date, b.ID)
	return b, nil
}

// Get returns a booking scoped to the owning tenant.
func (s *ReservationService) Get(ctx context.Context, tenantID, bookingID string) (*model.Booking, error) {
	return s.ledger.GetByID(ctx, tenantID, bookingID)
}

// invalidateSlot drops the availability entry for a date and the booking
// entry for an ID. Invalidation happens synchronously in the mutating
// call path; the TTL on entries covers any path that misses this.
func (s *ReservationService) invalidateSlot(ctx context.Context, tenantID, date, bookingID string) {
	keys := make([]cache.Key, 0, 2)
	if k, err := cache.NewKey(tenantID, cache.ResourceAvailability, date); err == nil {
		keys = append(keys, k)
	}
	if k, err := cache.NewKey(tenantID, cache.ResourceBooking, bookingID); err == nil {
		keys = append(keys, k)
	}
	s.cache.Invalidate(ctx, keys...)
}

func (s *ReservationService) jitter() time.Duration {
	span := s.retry.MaxBackoff - s.retry.MinBackoff
	if span <= 0 {
		return s.retry.MinBackoff
	}
	return s.retry.MinBackoff + time.Duration(rand.Int63n(int64(span)+1))
}
