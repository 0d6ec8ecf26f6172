package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/slotwise/platform/internal/model"
	"github.com/slotwise/platform/internal/repository"
)

// fakeLedger is an in-memory Ledger honoring the same contract as the
// SQL repository: Insert fails with ErrSlotConflict when a non-cancelled
// booking already holds the (tenant, date) slot, and state transitions
// follow the PENDING -> CONFIRMED / -> CANCELLED machine. A mutex stands
// in for the database's unique-index serialization.
type fakeLedger struct {
	mu       sync.Mutex
	bookings map[string]*model.Booking // by booking ID
	slots    map[string]string         // tenantID+"|"+date -> booking ID holding the slot
	queries  int                       // ActiveDates invocations, for batching assertions
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		bookings: make(map[string]*model.Booking),
		slots:    make(map[string]string),
	}
}

func slotKey(tenantID, date string) string { return tenantID + "|" + date }

func (f *fakeLedger) Insert(_ context.Context, b *model.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := slotKey(b.TenantID, b.Date)
	if _, taken := f.slots[key]; taken {
		return repository.ErrSlotConflict
	}
	now := time.Now().UTC()
	stored := *b
	stored.Status = model.BookingPending
	stored.Version = 1
	stored.CreatedAt = now
	stored.UpdatedAt = now
	f.bookings[b.ID] = &stored
	f.slots[key] = b.ID
	*b = stored
	return nil
}

func (f *fakeLedger) GetByID(_ context.Context, tenantID, id string) (*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok || b.TenantID != tenantID {
		return nil, repository.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeLedger) Cancel(_ context.Context, tenantID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok || b.TenantID != tenantID {
		return repository.ErrBookingNotFound
	}
	if b.Status == model.BookingCancelled {
		return repository.ErrBookingCancelled
	}
	b.Status = model.BookingCancelled
	b.Version++
	b.UpdatedAt = time.Now().UTC()
	delete(f.slots, slotKey(tenantID, b.Date))
	return nil
}

func (f *fakeLedger) Confirm(_ context.Context, tenantID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok || b.TenantID != tenantID {
		return repository.ErrBookingNotFound
	}
	switch b.Status {
	case model.BookingConfirmed:
		return repository.ErrAlreadyConfirmed
	case model.BookingCancelled:
		return repository.ErrBookingCancelled
	}
	b.Status = model.BookingConfirmed
	b.Version++
	b.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *fakeLedger) ActiveDates(_ context.Context, tenantID string, dates []string) (map[string]struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++
	taken := make(map[string]struct{})
	for _, d := range dates {
		if _, ok := f.slots[slotKey(tenantID, d)]; ok {
			taken[d] = struct{}{}
		}
	}
	return taken, nil
}

func (f *fakeLedger) activeDateQueries() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries
}

func (f *fakeLedger) status(id string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.bookings[id]; ok {
		return b.Status
	}
	return ""
}

func (f *fakeLedger) version(id string) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.bookings[id]; ok {
		return b.Version
	}
	return 0
}

// contentionLedger wraps a Ledger and fails the first n Insert calls
// with ErrLockContention, simulating lock-wait timeouts.
type contentionLedger struct {
	*fakeLedger
	mu        sync.Mutex
	failFirst int
	attempts  int
}

func (c *contentionLedger) Insert(ctx context.Context, b *model.Booking) error {
	c.mu.Lock()
	c.attempts++
	contend := c.attempts <= c.failFirst
	c.mu.Unlock()
	if contend {
		return repository.ErrLockContention
	}
	return c.fakeLedger.Insert(ctx, b)
}

// fakeEventStore is an in-memory EventStore with the same dedupe
// contract as the SQL repository.
type fakeEventStore struct {
	mu     sync.Mutex
	events map[string]*model.PaymentEvent
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{events: make(map[string]*model.PaymentEvent)}
}

func (f *fakeEventStore) Record(_ context.Context, ev *model.PaymentEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, seen := f.events[ev.ID]; seen {
		return repository.ErrDuplicateEvent
	}
	cp := *ev
	cp.CreatedAt = time.Now().UTC()
	f.events[ev.ID] = &cp
	return nil
}

func (f *fakeEventStore) MarkProcessed(_ context.Context, id, outcome string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.events[id]
	if !ok {
		return repository.ErrEventNotFound
	}
	now := time.Now().UTC()
	ev.Outcome = outcome
	ev.Error = ""
	ev.ProcessedAt = &now
	return nil
}

func (f *fakeEventStore) Quarantine(_ context.Context, id, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.events[id]
	if !ok {
		return repository.ErrEventNotFound
	}
	now := time.Now().UTC()
	ev.Outcome = model.EventQuarantined
	ev.Error = reason
	ev.ProcessedAt = &now
	return nil
}

func (f *fakeEventStore) ListQuarantined(_ context.Context, limit int) ([]model.PaymentEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.PaymentEvent, 0)
	for _, ev := range f.events {
		if ev.Outcome == model.EventQuarantined && len(out) < limit {
			out = append(out, *ev)
		}
	}
	return out, nil
}

func (f *fakeEventStore) ListUnprocessed(_ context.Context, _ time.Duration, limit int) ([]model.PaymentEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.PaymentEvent, 0)
	for _, ev := range f.events {
		if ev.ProcessedAt == nil && len(out) < limit {
			out = append(out, *ev)
		}
	}
	return out, nil
}

func (f *fakeEventStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func (f *fakeEventStore) get(id string) (model.PaymentEvent, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.events[id]
	if !ok {
		return model.PaymentEvent{}, false
	}
	return *ev, true
}

// markUnprocessed clears the processed stamp, simulating an effect phase
// that died between the dedupe insert and the booking update.
func (f *fakeEventStore) markUnprocessed(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ev, ok := f.events[id]; ok {
		ev.Outcome = ""
		ev.ProcessedAt = nil
	}
}
