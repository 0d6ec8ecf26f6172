package config

import (
	"time"
)

// CacheConfig defines settings for the tenant-scoped data cache. When
// Enabled is false or no Redis client is configured, the cache degrades
// to an always-miss store and every read falls through to the ledger.
// TTL is the defense-in-depth lifetime of entries on top of synchronous
// invalidation. ReconcileInterval and ReconcileGrace tune the payment
// event reconciliation sweep that shares this config block because both
// knobs are operational rather than business settings.
type CacheConfig struct {
	Enabled           bool
	TTL               time.Duration
	ReconcileInterval time.Duration
	ReconcileGrace    time.Duration
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
// Defaults are used when variables are not set.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:           envBool("CACHE_ENABLED", true),
		TTL:               envDur("CACHE_TTL", 30*time.Second),
		ReconcileInterval: envDur("RECONCILE_INTERVAL", 30*time.Second),
		ReconcileGrace:    envDur("RECONCILE_GRACE", time.Minute),
	}
}
