package model

import "time"

// Tenant statuses. A suspended tenant keeps its data but every API
// credential resolves to a rejection until the status flips back.
const (
	TenantActive    = "ACTIVE"
	TenantSuspended = "SUSPENDED"
)

// Tenant represents an isolated customer organization as stored in the
// `tenants` table. The CredentialHash field holds a bcrypt hash of the
// tenant's API secret; the plain secret is never persisted. The
// WebhookSecret is the shared HMAC key used to verify inbound payment
// events for this tenant.
type Tenant struct {
	ID             string    // tenants.id
	Name           string    // tenants.name
	CredentialHash string    // tenants.credential_hash
	WebhookSecret  string    // tenants.webhook_secret
	Status         string    // tenants.status
	CreatedAt      time.Time // tenants.created_at
	UpdatedAt      time.Time // tenants.updated_at
}

// IsActive reports whether the tenant may call the API.
func (t *Tenant) IsActive() bool { return t.Status == TenantActive }
