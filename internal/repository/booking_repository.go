package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/slotwise/platform/internal/model"
)

// MySQL server error numbers the ledger needs to tell apart. A duplicate
// key on the (tenant_id, slot_key) index is a business conflict; a lock
// wait timeout or deadlock is contention that the caller may retry.
const (
	mysqlErrDuplicateEntry  = 1062
	mysqlErrLockWaitTimeout = 1205
	mysqlErrDeadlock        = 1213
)

// BookingRepo is the durable ledger of bookings. It owns the exclusivity
// invariant: at most one non-cancelled booking per (tenant_id, slot_date).
// MySQL has no partial unique indexes, so the schema carries a nullable
// slot_key column that mirrors slot_date while the booking is active and
// is set to NULL on cancellation; UNIQUE(tenant_id, slot_key) then only
// constrains active rows. Every write here goes through a transaction so
// that a commit is the single serialization point for a slot.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// classifyMySQLError maps driver errors onto the repository sentinels.
// Anything that is neither a duplicate key nor recognizable contention is
// passed through untouched.
func classifyMySQLError(err error) error {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return err
	}
	switch me.Number {
	case mysqlErrDuplicateEntry:
		return ErrSlotConflict
	case mysqlErrLockWaitTimeout, mysqlErrDeadlock:
		return ErrLockContention
	}
	return err
}

// Insert attempts to commit a new PENDING booking. The insert is governed
// by the unique (tenant_id, slot_key) index: if an active booking already
// occupies the slot the statement fails with a duplicate key error and
// ErrSlotConflict is returned; lock wait timeouts and deadlocks surface as
// ErrLockContention so the service layer can retry. On success the row is
// read back inside the same transaction to populate generated columns.
func (r *BookingRepo) Insert(ctx context.Context, b *model.Booking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	const q = `INSERT INTO bookings (id, tenant_id, slot_date, slot_key, customer_ref, status, version)
	           VALUES (?, ?, ?, ?, ?, ?, 1)`
	if _, err := tx.ExecContext(ctx, q, b.ID, b.TenantID, b.Date, b.Date, b.CustomerRef, model.BookingPending); err != nil {
		return classifyMySQLError(err)
	}
	const sel = `SELECT status, version, created_at, updated_at FROM bookings WHERE id = ?`
	if err := tx.QueryRowContext(ctx, sel, b.ID).Scan(&b.Status, &b.Version, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return classifyMySQLError(err)
	}
	committed = true
	return nil
}

// GetByID loads a booking scoped to its owning tenant. Scoping by tenant
// in the WHERE clause means a foreign tenant's booking ID behaves exactly
// like a missing one.
func (r *BookingRepo) GetByID(ctx context.Context, tenantID, id string) (*model.Booking, error) {
	const q = `SELECT id, tenant_id, slot_date, customer_ref, status, version, created_at, updated_at
	           FROM bookings WHERE id = ? AND tenant_id = ?`
	var b model.Booking
	err := r.db.QueryRowContext(ctx, q, id, tenantID).Scan(
		&b.ID, &b.TenantID, &b.Date, &b.CustomerRef, &b.Status, &b.Version,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Cancel transitions a booking to CANCELLED and NULLs its slot_key so the
// slot is immediately reusable by a subsequent reservation. Cancelling an
// already cancelled booking returns ErrBookingCancelled; the caller
// decides whether that counts as an error or an idempotent no-op.
func (r *BookingRepo) Cancel(ctx context.Context, tenantID, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	const sel = `SELECT status FROM bookings WHERE id = ? AND tenant_id = ? FOR UPDATE`
	var status string
	err = tx.QueryRowContext(ctx, sel, id, tenantID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrBookingNotFound
	}
	if err != nil {
		return classifyMySQLError(err)
	}
	if status == model.BookingCancelled {
		return ErrBookingCancelled
	}
	const upd = `UPDATE bookings
	             SET status = ?, slot_key = NULL, version = version + 1, updated_at = UTC_TIMESTAMP()
	             WHERE id = ? AND tenant_id = ?`
	if _, err := tx.ExecContext(ctx, upd, model.BookingCancelled, id, tenantID); err != nil {
		return classifyMySQLError(err)
	}
	if err := tx.Commit(); err != nil {
		return classifyMySQLError(err)
	}
	committed = true
	return nil
}

// Confirm applies the PENDING -> CONFIRMED transition for a booking. The
// current status is read under FOR UPDATE so two concurrent confirmations
// serialize on the row. ErrAlreadyConfirmed and ErrBookingCancelled let
// the ingestion gate distinguish a harmless replayed effect from a dead
// target that must be quarantined.
func (r *BookingRepo) Confirm(ctx context.Context, tenantID, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	const sel = `SELECT status FROM bookings WHERE id = ? AND tenant_id = ? FOR UPDATE`
	var status string
	err = tx.QueryRowContext(ctx, sel, id, tenantID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrBookingNotFound
	}
	if err != nil {
		return classifyMySQLError(err)
	}
	switch status {
	case model.BookingConfirmed:
		return ErrAlreadyConfirmed
	case model.BookingCancelled:
		return ErrBookingCancelled
	}
	const upd = `UPDATE bookings
	             SET status = ?, version = version + 1, updated_at = UTC_TIMESTAMP()
	             WHERE id = ? AND tenant_id = ?`
	if _, err := tx.ExecContext(ctx, upd, model.BookingConfirmed, id, tenantID); err != nil {
		return classifyMySQLError(err)
	}
	if err := tx.Commit(); err != nil {
		return classifyMySQLError(err)
	}
	committed = true
	return nil
}

// ActiveDates returns, for the given set of dates, the subset that is
// currently occupied by a non-cancelled booking of the tenant. The whole
// range is answered with a single query so range availability costs one
// round-trip regardless of span. Passing an empty slice returns an empty
// set and performs no query.
func (r *BookingRepo) ActiveDates(ctx context.Context, tenantID string, dates []string) (map[string]struct{}, error) {
	taken := make(map[string]struct{})
	if len(dates) == 0 {
		return taken, nil
	}
	placeholders := make([]string, 0, len(dates))
	args := make([]interface{}, 0, len(dates)+1)
	args = append(args, tenantID)
	for _, d := range dates {
		placeholders = append(placeholders, "?")
		args = append(args, d)
	}
	query := `SELECT slot_date FROM bookings
	          WHERE tenant_id = ? AND slot_key IS NOT NULL
	          AND slot_date IN (` + strings.Join(placeholders, ",") + `)`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		taken[d] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return taken, nil
}
