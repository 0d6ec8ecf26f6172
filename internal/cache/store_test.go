package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slotwise/platform/internal/cache"
)

func mustKey(t *testing.T, tenantID, resourceType, resourceKey string) cache.Key {
	t.Helper()
	k, err := cache.NewKey(tenantID, resourceType, resourceKey)
	require.NoError(t, err)
	return k
}

func TestStore_PutGetInvalidate(t *testing.T) {
	t.Parallel()

	store := cache.NewStore(cache.NewMemoryBackend(), time.Minute, zerolog.Nop())
	ctx := context.Background()
	k := mustKey(t, "t1", cache.ResourceAvailability, "2026-09-01")

	_, ok := store.Get(ctx, k)
	assert.False(t, ok, "fresh store must miss")

	store.Put(ctx, k, []byte("1"))
	v, ok := store.Get(ctx, k)
	require.True(t, ok)
	assert.Equal(t, []byte("1"), v)

	store.Invalidate(ctx, k)
	_, ok = store.Get(ctx, k)
	assert.False(t, ok, "invalidated entry must miss")
}

func TestStore_InvalidateMultiple(t *testing.T) {
	t.Parallel()

	store := cache.NewStore(cache.NewMemoryBackend(), time.Minute, zerolog.Nop())
	ctx := context.Background()
	k1 := mustKey(t, "t1", cache.ResourceAvailability, "2026-09-01")
	k2 := mustKey(t, "t1", cache.ResourceBooking, "b1")

	store.Put(ctx, k1, []byte("1"))
	store.Put(ctx, k2, []byte("x"))
	store.Invalidate(ctx, k1, k2, cache.Key{}) // invalid keys are skipped

	_, ok := store.Get(ctx, k1)
	assert.False(t, ok)
	_, ok = store.Get(ctx, k2)
	assert.False(t, ok)
}

func TestStore_TTLExpiry(t *testing.T) {
	t.Parallel()

	store := cache.NewStore(cache.NewMemoryBackend(), 10*time.Millisecond, zerolog.Nop())
	ctx := context.Background()
	k := mustKey(t, "t1", cache.ResourceAvailability, "2026-09-01")

	store.Put(ctx, k, []byte("1"))
	_, ok := store.Get(ctx, k)
	require.True(t, ok)

	time.Sleep(25 * time.Millisecond)
	_, ok = store.Get(ctx, k)
	assert.False(t, ok, "entry must expire after its TTL")
}

func TestStore_TenantEntriesDoNotCollide(t *testing.T) {
	t.Parallel()

	store := cache.NewStore(cache.NewMemoryBackend(), time.Minute, zerolog.Nop())
	ctx := context.Background()
	k1 := mustKey(t, "t1", cache.ResourceAvailability, "2026-09-01")
	k2 := mustKey(t, "t2", cache.ResourceAvailability, "2026-09-01")

	store.Put(ctx, k1, []byte("taken"))

	_, ok := store.Get(ctx, k2)
	assert.False(t, ok, "t2 must not observe t1's entry for the same date")

	// Invalidating t1's entry must not disturb t2's.
	store.Put(ctx, k2, []byte("free"))
	store.Invalidate(ctx, k1)
	v, ok := store.Get(ctx, k2)
	require.True(t, ok)
	assert.Equal(t, []byte("free"), v)
}

func TestStore_NilStoreAlwaysMisses(t *testing.T) {
	t.Parallel()

	var store *cache.Store
	ctx := context.Background()
	k := mustKey(t, "t1", cache.ResourceBooking, "b1")

	// None of these may panic; reads simply miss.
	store.Put(ctx, k, []byte("x"))
	store.Invalidate(ctx, k)
	_, ok := store.Get(ctx, k)
	assert.False(t, ok)
}

func TestStore_NilBackendAlwaysMisses(t *testing.T) {
	t.Parallel()

	store := cache.NewStore(nil, time.Minute, zerolog.Nop())
	ctx := context.Background()
	k := mustKey(t, "t1", cache.ResourceBooking, "b1")

	store.Put(ctx, k, []byte("x"))
	_, ok := store.Get(ctx, k)
	assert.False(t, ok)
}

func TestStore_InvalidKeyNeverStored(t *testing.T) {
	t.Parallel()

	store := cache.NewStore(cache.NewMemoryBackend(), time.Minute, zerolog.Nop())
	ctx := context.Background()

	var zero cache.Key
	store.Put(ctx, zero, []byte("x"))
	_, ok := store.Get(ctx, zero)
	assert.False(t, ok, "the zero key is not constructible and must never round-trip")
}
