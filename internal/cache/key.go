// Package cache implements the tenant-scoped read-through cache. Every
// key is produced by NewKey, which takes the tenant ID as a mandatory
// first argument and fails construction when it is missing. Call sites
// therefore cannot build a key that lacks the tenant component, which
// removes the cross-tenant leakage bug class at the type level instead
// of relying on reviewer vigilance.
package cache

import (
	"errors"
	"fmt"
	"strings"
)

// Resource types used as the middle key component.
const (
	ResourceAvailability = "availability"
	ResourceBooking      = "booking"
	ResourceTenant       = "tenant"
)

// Construction errors returned by NewKey.
var (
	ErrEmptyTenant   = errors.New("cache key requires a tenant id")
	ErrEmptyResource = errors.New("cache key requires a resource type and key")
	ErrInvalidPart   = errors.New("cache key parts must not contain ':'")
)

// Key is an opaque, fully qualified cache key. The zero value is invalid
// and rejected by Store operations; the only way to obtain a valid Key
// is NewKey.
type Key struct {
	s string
}

// NewKey builds a key of the form tenant:<tenant_id>:<resource_type>:<resource_key>.
// The tenant ID is non-defaultable: an empty value is a construction-time
// error, never a silently unscoped key. Parts may not contain the ':'
// separator so the encoded form stays unambiguous.
func NewKey(tenantID, resourceType, resourceKey string) (Key, error) {
	if strings.TrimSpace(tenantID) == "" {
		return Key{}, ErrEmptyTenant
	}
	if strings.TrimSpace(resourceType) == "" || strings.TrimSpace(resourceKey) == "" {
		return Key{}, ErrEmptyResource
	}
	for _, p := range []string{tenantID, resourceType, resourceKey} {
		if strings.Contains(p, ":") {
			return Key{}, ErrInvalidPart
		}
	}
	return Key{s: fmt.Sprintf("tenant:%s:%s:%s", tenantID, resourceType, resourceKey)}, nil
}

// String returns the encoded key. An invalid (zero) Key encodes as "".
func (k Key) String() string { return k.s }

// Valid reports whether the key was produced by NewKey.
func (k Key) Valid() bool { return k.s != "" }
