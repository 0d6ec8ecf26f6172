package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slotwise/platform/internal/model"
	"github.com/slotwise/platform/internal/repository"
	"github.com/slotwise/platform/internal/service"
	"github.com/slotwise/platform/internal/utils"
)

type fakeDirectory struct {
	tenants map[string]*model.Tenant
}

func (d *fakeDirectory) GetByID(_ context.Context, id string) (*model.Tenant, error) {
	t, ok := d.tenants[id]
	if !ok {
		return nil, repository.ErrTenantNotFound
	}
	return t, nil
}

func directoryWith(t *testing.T, tenants ...*model.Tenant) *fakeDirectory {
	t.Helper()
	d := &fakeDirectory{tenants: make(map[string]*model.Tenant)}
	for _, tn := range tenants {
		d.tenants[tn.ID] = tn
	}
	return d
}

func registryTenant(t *testing.T, id, secret, status string) *model.Tenant {
	t.Helper()
	hash, err := utils.HashCredential(secret, 4)
	require.NoError(t, err)
	return &model.Tenant{ID: id, Name: id, CredentialHash: hash, Status: status}
}

func TestAuthenticate_Success(t *testing.T) {
	t.Parallel()

	reg := service.NewRegistry(directoryWith(t,
		registryTenant(t, "t1", "s3cret", model.TenantActive)))

	got, err := reg.Authenticate(context.Background(), "t1", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "t1", got.ID)
}

func TestAuthenticate_UnknownAndWrongSecretIndistinguishable(t *testing.T) {
	t.Parallel()

	reg := service.NewRegistry(directoryWith(t,
		registryTenant(t, "t1", "s3cret", model.TenantActive)))
	ctx := context.Background()

	_, errUnknown := reg.Authenticate(ctx, "nope", "s3cret")
	_, errWrong := reg.Authenticate(ctx, "t1", "wrong")

	assert.ErrorIs(t, errUnknown, service.ErrBadCredential)
	assert.ErrorIs(t, errWrong, service.ErrBadCredential)
	assert.Equal(t, errUnknown, errWrong, "unknown tenant and bad secret must be the same error")
}

func TestAuthenticate_SuspendedTenantRefused(t *testing.T) {
	t.Parallel()

	reg := service.NewRegistry(directoryWith(t,
		registryTenant(t, "t1", "s3cret", model.TenantSuspended)))

	_, err := reg.Authenticate(context.Background(), "t1", "s3cret")
	assert.ErrorIs(t, err, service.ErrTenantSuspended)
}
