package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/slotwise/platform/internal/cache"
	"github.com/slotwise/platform/internal/metrics"
)

// ErrRangeTooWide is returned when a range query spans more days than
// the engine is willing to answer in one call.
var ErrRangeTooWide = errors.New("date range too wide")

// maxRangeDays bounds range queries; a quarter is plenty for a booking
// calendar and keeps the IN clause small.
const maxRangeDays = 92

// Cached availability values. A cached byte is authoritative only until
// its TTL or until the reservation flow invalidates the key.
var (
	cachedFree  = []byte("1")
	cachedTaken = []byte("0")
)

// AvailabilityService answers point and range availability questions by
// composing the tenant-scoped cache with the ledger. The cache is purely
// an optimization: every miss or backend failure falls through to the
// ledger, so cache unavailability costs latency, never correctness.
type AvailabilityService struct {
	ledger Ledger
	cache  *cache.Store
	log    zerolog.Logger
}

// NewAvailabilityService builds an AvailabilityService.
func NewAvailabilityService(ledger Ledger, store *cache.Store, log zerolog.Logger) *AvailabilityService {
	return &AvailabilityService{ledger: ledger, cache: store, log: log}
}

// IsAvailable reports whether the tenant's slot on the given date is
// free. Reads go through the cache; a miss is answered from the ledger
// and back-filled.
func (s *AvailabilityService) IsAvailable(ctx context.Context, tenantID, date string) (bool, error) {
	normalized, err := normalizeDate(date)
	if err != nil {
		return false, err
	}
	key, err := cache.NewKey(tenantID, cache.ResourceAvailability, normalized)
	if err != nil {
		return false, err
	}
	if v, ok := s.cache.Get(ctx, key); ok {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return string(v) == string(cachedFree), nil
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()
	taken, err := s.ledger.ActiveDates(ctx, tenantID, []string{normalized})
	if err != nil {
		return false, err
	}
	_, occupied := taken[normalized]
	s.putAvailability(ctx, key, !occupied)
	return !occupied, nil
}

// RangeAvailability answers availability for every date in [from, to]
// inclusive with a single ledger read, back-filling one cache entry per
// date so subsequent point queries hit. The result maps each date to
// whether it is free.
func (s *AvailabilityService) RangeAvailability(ctx context.Context, tenantID, from, to string) (map[string]bool, error) {
	start, err := time.Parse("2006-01-02", from)
	if err != nil {
		return nil, ErrInvalidDate
	}
	end, err := time.Parse("2006-01-02", to)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if end.Before(start) {
		return nil, ErrInvalidDate
	}
	days := int(end.Sub(start).Hours()/24) + 1
	if days > maxRangeDays {
		return nil, ErrRangeTooWide
	}
	dates := make([]string, 0, days)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format("2006-01-02"))
	}
	// One ledger round-trip for the whole span.
	taken, err := s.ledger.ActiveDates(ctx, tenantID, dates)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(dates))
	for _, d := range dates {
		_, occupied := taken[d]
		out[d] = !occupied
		if key, kerr := cache.NewKey(tenantID, cache.ResourceAvailability, d); kerr == nil {
			s.putAvailability(ctx, key, !occupied)
		}
	}
	return out, nil
}

func (s *AvailabilityService) putAvailability(ctx context.Context, key cache.Key, free bool) {
	if free {
		s.cache.Put(ctx, key, cachedFree)
		return
	}
	s.cache.Put(ctx, key, cachedTaken)
}
