// Package metrics registers the Prometheus collectors exposed on
// /metrics. Counters are labelled by outcome so a conflict spike or a
// retry storm is visible without log diving.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReserveResults counts reservation attempts by terminal outcome:
	// created, conflict, transient, error.
	ReserveResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "slotwise",
		Subsystem: "reservation",
		Name:      "reserve_results_total",
		Help:      "Reservation outcomes by result.",
	}, []string{"result"})

	// ReserveRetries counts individual retry sleeps caused by lock contention.
	ReserveRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "slotwise",
		Subsystem: "reservation",
		Name:      "reserve_retries_total",
		Help:      "Retries performed while contending for a slot.",
	})

	// IngestResults counts payment event deliveries by outcome:
	// accepted, duplicate, rejected, quarantined.
	IngestResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "slotwise",
		Subsystem: "ingest",
		Name:      "event_results_total",
		Help:      "Payment event deliveries by outcome.",
	}, []string{"result"})

	// CacheLookups counts tenant-scoped cache reads by hit/miss.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "slotwise",
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Cache lookups by result.",
	}, []string{"result"})
)
