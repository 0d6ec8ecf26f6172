package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slotwise/platform/internal/cache"
	"github.com/slotwise/platform/internal/service"
)

// failingBackend errors on every operation, standing in for a Redis
// outage.
type failingBackend struct{}

func (failingBackend) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("backend down")
}
func (failingBackend) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("backend down")
}
func (failingBackend) Delete(context.Context, ...string) error {
	return errors.New("backend down")
}

func TestIsAvailable_FreeAndTaken(t *testing.T) {
	t.Parallel()

	ledger := newFakeLedger()
	store := testCache()
	avail := service.NewAvailabilityService(ledger, store, zerolog.Nop())
	reserve := service.NewReservationService(ledger, store, service.DefaultRetryPolicy, zerolog.Nop())
	ctx := context.Background()

	free, err := avail.IsAvailable(ctx, "t1", "2026-09-01")
	require.NoError(t, err)
	assert.True(t, free)

	_, err = reserve.Reserve(ctx, "t1", "2026-09-01", "cust")
	require.NoError(t, err)

	free, err = avail.IsAvailable(ctx, "t1", "2026-09-01")
	require.NoError(t, err)
	assert.False(t, free)
}

func TestIsAvailable_NoStaleReadAfterReserve(t *testing.T) {
	t.Parallel()

	ledger := newFakeLedger()
	store := testCache()
	avail := service.NewAvailabilityService(ledger, store, zerolog.Nop())
	reserve := service.NewReservationService(ledger, store, service.DefaultRetryPolicy, zerolog.Nop())
	ctx := context.Background()

	// Warm the cache with "available".
	free, err := avail.IsAvailable(ctx, "t1", "2026-09-01")
	require.NoError(t, err)
	require.True(t, free)

	// Reserve invalidates the entry synchronously, so the very next read
	// must observe the committed booking, never the warm cached value.
	_, err = reserve.Reserve(ctx, "t1", "2026-09-01", "cust")
	require.NoError(t, err)

	free, err = avail.IsAvailable(ctx, "t1", "2026-09-01")
	require.NoError(t, err)
	assert.False(t, free, "availability after a committed reservation must be false")
}

func TestIsAvailable_CancelFreesDate(t *testing.T) {
	t.Parallel()

	ledger := newFakeLedger()
	store := testCache()
	avail := service.NewAvailabilityService(ledger, store, zerolog.Nop())
	reserve := service.NewReservationService(ledger, store, service.DefaultRetryPolicy, zerolog.Nop())
	ctx := context.Background()

	b, err := reserve.Reserve(ctx, "t1", "2026-09-01", "cust")
	require.NoError(t, err)

	free, err := avail.IsAvailable(ctx, "t1", "2026-09-01")
	require.NoError(t, err)
	require.False(t, free)

	_, err = reserve.Cancel(ctx, "t1", b.ID)
	require.NoError(t, err)

	free, err = avail.IsAvailable(ctx, "t1", "2026-09-01")
	require.NoError(t, err)
	assert.True(t, free, "cancellation must free the date immediately")
}

func TestIsAvailable_TenantsAreIndependent(t *testing.T) {
	t.Parallel()

	ledger := newFakeLedger()
	store := testCache()
	avail := service.NewAvailabilityService(ledger, store, zerolog.Nop())
	reserve := service.NewReservationService(ledger, store, service.DefaultRetryPolicy, zerolog.Nop())
	ctx := context.Background()

	_, err := reserve.Reserve(ctx, "t1", "2026-09-01", "cust")
	require.NoError(t, err)

	// t1's booking must not bleed into t2's view, cached or not.
	for i := 0; i < 3; i++ {
		free, err := avail.IsAvailable(ctx, "t2", "2026-09-01")
		require.NoError(t, err)
		assert.True(t, free)
	}
}

func TestRangeAvailability_SingleLedgerRead(t *testing.T) {
	t.Parallel()

	ledger := newFakeLedger()
	store := testCache()
	avail := service.NewAvailabilityService(ledger, store, zerolog.Nop())
	reserve := service.NewReservationService(ledger, store, service.DefaultRetryPolicy, zerolog.Nop())
	ctx := context.Background()

	_, err := reserve.Reserve(ctx, "t1", "2026-09-03", "cust")
	require.NoError(t, err)

	before := ledger.activeDateQueries()
	out, err := avail.RangeAvailability(ctx, "t1", "2026-09-01", "2026-09-07")
	require.NoError(t, err)
	assert.Equal(t, before+1, ledger.activeDateQueries(), "a range query must batch into one ledger read")

	require.Len(t, out, 7)
	assert.False(t, out["2026-09-03"])
	for _, d := range []string{"2026-09-01", "2026-09-02", "2026-09-04", "2026-09-05", "2026-09-06", "2026-09-07"} {
		assert.True(t, out[d], "date %s", d)
	}
}

func TestRangeAvailability_BackfillsPointCache(t *testing.T) {
	t.Parallel()

	ledger := newFakeLedger()
	store := testCache()
	avail := service.NewAvailabilityService(ledger, store, zerolog.Nop())
	ctx := context.Background()

	_, err := avail.RangeAvailability(ctx, "t1", "2026-09-01", "2026-09-03")
	require.NoError(t, err)
	queriesAfterRange := ledger.activeDateQueries()

	// Point reads inside the range should now be cache hits.
	for _, d := range []string{"2026-09-01", "2026-09-02", "2026-09-03"} {
		free, err := avail.IsAvailable(ctx, "t1", d)
		require.NoError(t, err)
		assert.True(t, free)
	}
	assert.Equal(t, queriesAfterRange, ledger.activeDateQueries(), "point reads after a range must hit the cache")
}

func TestRangeAvailability_InputValidation(t *testing.T) {
	t.Parallel()

	avail := service.NewAvailabilityService(newFakeLedger(), testCache(), zerolog.Nop())
	ctx := context.Background()

	_, err := avail.RangeAvailability(ctx, "t1", "2026-09-07", "2026-09-01")
	assert.ErrorIs(t, err, service.ErrInvalidDate)

	_, err = avail.RangeAvailability(ctx, "t1", "bogus", "2026-09-01")
	assert.ErrorIs(t, err, service.ErrInvalidDate)

	_, err = avail.RangeAvailability(ctx, "t1", "2026-01-01", "2026-12-31")
	assert.ErrorIs(t, err, service.ErrRangeTooWide)
}

func TestAvailability_CorrectDespiteCacheOutage(t *testing.T) {
	t.Parallel()

	ledger := newFakeLedger()
	broken := cache.NewStore(failingBackend{}, time.Minute, zerolog.Nop())
	avail := service.NewAvailabilityService(ledger, broken, zerolog.Nop())
	reserve := service.NewReservationService(ledger, broken, service.DefaultRetryPolicy, zerolog.Nop())
	ctx := context.Background()

	free, err := avail.IsAvailable(ctx, "t1", "2026-09-01")
	require.NoError(t, err)
	assert.True(t, free)

	_, err = reserve.Reserve(ctx, "t1", "2026-09-01", "cust")
	require.NoError(t, err)

	free, err = avail.IsAvailable(ctx, "t1", "2026-09-01")
	require.NoError(t, err)
	assert.False(t, free, "a dead cache must cost latency, not correctness")
}
