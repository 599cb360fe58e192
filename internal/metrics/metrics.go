// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics shared by more than one package. Package-private metrics live next
// to the code that records them (store, guest, eventprocessor).

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guestlink_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "guestlink_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "guestlink_api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	WebhooksReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guestlink_webhooks_received_total",
			Help: "Webhook deliveries by outcome (accepted, bad_signature, too_large, publish_failed)",
		},
		[]string{"result"},
	)

	// Upstream (Hospitable) Metrics
	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "guestlink_upstream_request_duration_seconds",
			Help:    "Duration of upstream API requests, including 429 retries",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint", "status_code"},
	)

	UpstreamRateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guestlink_upstream_rate_limited_total",
			Help: "HTTP 429 responses received from the upstream API",
		},
		[]string{"endpoint"},
	)

	// Sync Operation Metrics
	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "guestlink_sync_duration_seconds",
			Help:    "Duration of sync operations in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"operation"},
	)

	SyncRecordsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guestlink_sync_records_total",
			Help: "Records handled by sync and backfill, by outcome (upserted, skipped, enqueued)",
		},
		[]string{"operation", "outcome"},
	)

	SyncErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guestlink_sync_errors_total",
			Help: "Total number of failed sync operations",
		},
		[]string{"operation", "error_type"},
	)

	SyncLastSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "guestlink_sync_last_success_timestamp",
			Help: "Unix time of the last successful sync operation",
		},
		[]string{"operation"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "guestlink_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guestlink_circuit_breaker_requests_total",
			Help: "Requests through a circuit breaker by result (success, failure, rejected)",
		},
		[]string{"name", "result"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guestlink_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordAPIRequest records an API request metric. route is the chi route
// pattern, never the raw path, so ids do not explode label cardinality.
func RecordAPIRequest(method, route, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordSyncOperation records the outcome of one sync or backfill run.
func RecordSyncOperation(operation string, duration time.Duration, err error) {
	SyncDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		SyncErrors.WithLabelValues(operation, syncErrorType(err)).Inc()
		return
	}
	SyncLastSuccess.WithLabelValues(operation).Set(float64(time.Now().Unix()))
}

func syncErrorType(err error) string {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "hospitable"), strings.Contains(msg, "upstream"):
		return "upstream"
	case strings.Contains(msg, "publish"):
		return "queue"
	case strings.Contains(msg, "store"), strings.Contains(msg, "badger"):
		return "store"
	case strings.Contains(msg, "context canceled"), strings.Contains(msg, "deadline"):
		return "canceled"
	default:
		return "other"
	}
}

// RecordCircuitBreakerTransition updates the state gauge and transition
// counter. States are gobreaker.State strings.
func RecordCircuitBreakerTransition(name, from, to string) {
	CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
}

// RecordCircuitBreakerResult counts one call through a breaker.
func RecordCircuitBreakerResult(name, result string) {
	CircuitBreakerRequests.WithLabelValues(name, result).Inc()
}

func breakerStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}
