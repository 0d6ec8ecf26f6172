package service

import (
	"context"
	"errors"

	"github.com/slotwise/platform/internal/model"
	"github.com/slotwise/platform/internal/utils"
)

// Credential resolution failures. Both map to HTTP 401/403 at the edge;
// handlers must not leak which of the two occurred for unknown tenants.
var (
	ErrBadCredential   = errors.New("invalid api credential")
	ErrTenantSuspended = errors.New("tenant suspended")
)

// TenantDirectory is the read side of the tenants table the registry
// needs.
type TenantDirectory interface {
	GetByID(ctx context.Context, id string) (*model.Tenant, error)
}

// Registry resolves API credentials to tenant identities. It owns no
// booking state; it only answers "who is calling and may they call".
type Registry struct {
	tenants TenantDirectory
}

// NewRegistry builds a Registry over the given directory.
func NewRegistry(tenants TenantDirectory) *Registry { return &Registry{tenants: tenants} }

// Authenticate resolves a (tenant ID, secret) pair to a tenant. The
// secret is compared against the stored bcrypt hash; an unknown tenant
// and a wrong secret both return ErrBadCredential so probing for valid
// tenant IDs learns nothing. Suspended tenants authenticate but are
// refused with ErrTenantSuspended.
func (r *Registry) Authenticate(ctx context.Context, tenantID, secret string) (*model.Tenant, error) {
	t, err := r.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, ErrBadCredential
	}
	if !utils.VerifyCredential(t.CredentialHash, secret) {
		return nil, ErrBadCredential
	}
	if !t.IsActive() {
		return nil, ErrTenantSuspended
	}
	return t, nil
}
