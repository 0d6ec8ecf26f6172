package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/slotwise/platform/internal/model"
)

// PaymentEventRepo persists inbound payment events. The table's primary
// key is the externally assigned event ID; the insert in Record is the
// one and only idempotency boundary for event ingestion. Rows are never
// deleted: processed_at plus outcome record what happened to each
// delivery, and NULL processed_at marks work the reconciler still owes.
type PaymentEventRepo struct {
	db *sql.DB
}

// NewPaymentEventRepo returns a new PaymentEventRepo bound to the given database.
func NewPaymentEventRepo(db *sql.DB) *PaymentEventRepo { return &PaymentEventRepo{db: db} }

// Record inserts the event row. A duplicate key on the primary key means
// this delivery is a replay of an event already seen; ErrDuplicateEvent
// is returned and the caller must apply no further effect. The insert is
// deliberately its own transaction: once it commits, the event is durable
// regardless of whether the effect phase later succeeds.
func (r *PaymentEventRepo) Record(ctx context.Context, ev *model.PaymentEvent) error {
	const q = `INSERT INTO payment_events (id, tenant_id, booking_ref, event_type, payload_hash)
	           VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, ev.ID, ev.TenantID, ev.BookingRef, ev.Type, ev.PayloadHash)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlErrDuplicateEntry {
			return ErrDuplicateEvent
		}
		return err
	}
	return nil
}

// MarkProcessed stamps the event with its effect outcome (APPLIED or
// NOOP) and the processing time. It returns ErrEventNotFound when no row
// matches.
func (r *PaymentEventRepo) MarkProcessed(ctx context.Context, id, outcome string) error {
	const q = `UPDATE payment_events
	           SET outcome = ?, error = '', processed_at = UTC_TIMESTAMP()
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, outcome, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrEventNotFound
	}
	return nil
}

// Quarantine moves the event to the dead-letter state. Quarantined events
// are considered processed so the reconciler stops retrying them; they
// stay visible to operators via ListQuarantined until handled manually.
func (r *PaymentEventRepo) Quarantine(ctx context.Context, id, reason string) error {
	const q = `UPDATE payment_events
	           SET outcome = ?, error = ?, processed_at = UTC_TIMESTAMP()
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, model.EventQuarantined, reason, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrEventNotFound
	}
	return nil
}

// ListQuarantined returns up to limit dead-lettered events, oldest first,
// for operator review.
func (r *PaymentEventRepo) ListQuarantined(ctx context.Context, limit int) ([]model.PaymentEvent, error) {
	const q = `SELECT id, tenant_id, booking_ref, event_type, payload_hash, outcome, error, processed_at, created_at
	           FROM payment_events WHERE outcome = ? ORDER BY created_at ASC LIMIT ?`
	return r.list(ctx, q, model.EventQuarantined, limit)
}

// ListUnprocessed returns events that were durably recorded but whose
// effect has not been applied yet, restricted to rows older than the
// given grace period so the sweep never races a delivery that is still
// in flight.
func (r *PaymentEventRepo) ListUnprocessed(ctx context.Context, olderThan time.Duration, limit int) ([]model.PaymentEvent, error) {
	cutoff := time.Now().UTC().Add(-olderThan).Format("2006-01-02 15:04:05")
	const q = `SELECT id, tenant_id, booking_ref, event_type, payload_hash, outcome, error, processed_at, created_at
	           FROM payment_events
	           WHERE processed_at IS NULL AND created_at <= ?
	           ORDER BY created_at ASC LIMIT ?`
	return r.list(ctx, q, cutoff, limit)
}

func (r *PaymentEventRepo) list(ctx context.Context, query string, args ...interface{}) ([]model.PaymentEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]model.PaymentEvent, 0)
	for rows.Next() {
		var ev model.PaymentEvent
		var outcome, errMsg sql.NullString
		var processedAt sql.NullTime
		if err := rows.Scan(&ev.ID, &ev.TenantID, &ev.BookingRef, &ev.Type, &ev.PayloadHash,
			&outcome, &errMsg, &processedAt, &ev.CreatedAt); err != nil {
			return nil, err
		}
		if outcome.Valid {
			ev.Outcome = outcome.String
		}
		if errMsg.Valid {
			ev.Error = errMsg.String
		}
		if processedAt.Valid {
			t := processedAt.Time
			ev.ProcessedAt = &t
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
