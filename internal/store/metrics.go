// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package store

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	opDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "guestlink_store_operation_duration_seconds",
		Help:    "Duration of store operations in seconds",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
	}, []string{"operation"})

	conflictRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guestlink_store_conflict_retries_total",
		Help: "Transactions re-run after a badger write conflict",
	}, []string{"operation"})

	conditionalMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "guestlink_store_conditional_write_misses_total",
		Help: "PutIfAbsent calls that found an existing record",
	})

	gcRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guestlink_store_gc_runs_total",
		Help: "Value log GC runs by result",
	}, []string{"result"})
)

func observe(op string, start time.Time) {
	opDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
