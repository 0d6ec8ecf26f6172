package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/slotwise/platform/internal/model"
)

// TenantRepo provides read access to the tenants table. Tenant rows are
// read-mostly: they change only when a tenant is provisioned or its
// status flips, so no transactional helpers are needed here.
type TenantRepo struct {
	db *sql.DB
}

// NewTenantRepo returns a new TenantRepo bound to the given database.
func NewTenantRepo(db *sql.DB) *TenantRepo { return &TenantRepo{db: db} }

// GetByID loads a tenant by its identifier. It returns ErrTenantNotFound
// when no row matches.
func (r *TenantRepo) GetByID(ctx context.Context, id string) (*model.Tenant, error) {
	const q = `SELECT id, name, credential_hash, webhook_secret, status, created_at, updated_at
	           FROM tenants WHERE id = ?`
	var t model.Tenant
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&t.ID, &t.Name, &t.CredentialHash, &t.WebhookSecret, &t.Status,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTenantNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// SetStatus updates a tenant's status (ACTIVE or SUSPENDED). It returns
// ErrTenantNotFound when no row matches.
func (r *TenantRepo) SetStatus(ctx context.Context, id, status string) error {
	const q = `UPDATE tenants SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, status, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTenantNotFound
	}
	return nil
}
