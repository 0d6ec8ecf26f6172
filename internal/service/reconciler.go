package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Reconciler periodically retries the effect phase for payment events
// that were durably recorded but never processed - the window where a
// crash or a ledger hiccup separated phase one from phase two. It never
// re-runs the dedupe insert, so a sweep can only move a row forward.
type Reconciler struct {
	events   EventStore
	ingest   *IngestService
	interval time.Duration
	grace    time.Duration
	batch    int
	log      zerolog.Logger
}

// NewReconciler builds a Reconciler. Zero values get sane defaults: a
// 30s interval, a 1m grace period so in-flight deliveries are never
// raced, and batches of 100.
func NewReconciler(events EventStore, ingest *IngestService, interval, grace time.Duration, log zerolog.Logger) *Reconciler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if grace <= 0 {
		grace = time.Minute
	}
	return &Reconciler{
		events:   events,
		ingest:   ingest,
		interval: interval,
		grace:    grace,
		batch:    100,
		log:      log,
	}
}

// Run sweeps on a ticker until the context is cancelled. Intended to be
// started as a goroutine from main.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := r.Sweep(ctx); err != nil {
				r.log.Error().Err(err).Msg("reconcile sweep failed")
			} else if n > 0 {
				r.log.Info().Int("events", n).Msg("reconcile sweep applied effects")
			}
		}
	}
}

// Sweep retries the effect phase for one batch of unprocessed events and
// returns how many rows it attempted. Per-event failures are logged and
// left for the next sweep rather than aborting the batch.
func (r *Reconciler) Sweep(ctx context.Context) (int, error) {
	pending, err := r.events.ListUnprocessed(ctx, r.grace, r.batch)
	if err != nil {
		return 0, err
	}
	for _, ev := range pending {
		if err := r.ingest.ApplyEffect(ctx, ev); err != nil {
			r.log.Warn().Err(err).Str("event_id", ev.ID).Msg("effect retry failed, will re-sweep")
		}
	}
	return len(pending), nil
}
