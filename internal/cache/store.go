package cache

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Backend is the minimal storage contract the cache needs. The Redis
// implementation is used in production; the in-memory implementation
// serves single-process deployments and tests. A Backend error is never
// fatal to the caller: the Store swallows it and reports a miss, so a
// cache outage degrades latency but never correctness.
type Backend interface {
	// Get returns the stored value and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores the value with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}

// Store is the tenant-scoped cache used by the availability engine and
// the reservation flow. All entries carry a TTL as defense in depth
// against a missed invalidation. A nil *Store is usable and behaves as
// an always-miss cache.
type Store struct {
	backend Backend
	ttl     time.Duration
	log     zerolog.Logger
}

// NewStore builds a Store over the given backend. A nil backend yields a
// store that misses on every read, matching how the rest of the system
// degrades when Redis is unreachable at startup.
func NewStore(backend Backend, ttl time.Duration, log zerolog.Logger) *Store {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Store{backend: backend, ttl: ttl, log: log}
}

// Get returns the cached value for the key, or ok=false on a miss, an
// invalid key, or any backend failure.
func (s *Store) Get(ctx context.Context, k Key) ([]byte, bool) {
	if s == nil || s.backend == nil || !k.Valid() {
		return nil, false
	}
	v, ok, err := s.backend.Get(ctx, k.String())
	if err != nil {
		s.log.Warn().Err(err).Str("key", k.String()).Msg("cache get failed, treating as miss")
		return nil, false
	}
	return v, ok
}

// Put stores the value under the key with the store's TTL. Failures are
// logged and dropped; the next read falls through to the ledger.
func (s *Store) Put(ctx context.Context, k Key, value []byte) {
	if s == nil || s.backend == nil || !k.Valid() {
		return
	}
	if err := s.backend.Set(ctx, k.String(), value, s.ttl); err != nil {
		s.log.Warn().Err(err).Str("key", k.String()).Msg("cache put failed")
	}
}

// Invalidate removes the given keys. Mutating flows call this before
// returning success so the writer's own next read is never stale.
// Invalid keys in the argument list are skipped.
func (s *Store) Invalidate(ctx context.Context, keys ...Key) {
	if s == nil || s.backend == nil {
		return
	}
	raw := make([]string, 0, len(keys))
	for _, k := range keys {
		if k.Valid() {
			raw = append(raw, k.String())
		}
	}
	if len(raw) == 0 {
		return
	}
	if err := s.backend.Delete(ctx, raw...); err != nil {
		s.log.Warn().Err(err).Strs("keys", raw).Msg("cache invalidate failed")
	}
}
