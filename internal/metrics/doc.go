// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

/*
Package metrics holds the Prometheus metrics shared across packages and the
HTTP instrumentation middleware.

Metrics owned by a single package are declared in that package's metrics.go
(guestlink_store_*, guestlink_links_total, guestlink_queue_*). Everything is
registered with promauto on the default registry and served by promhttp at
/metrics.

# Shared Metrics

API:
  - guestlink_api_requests_total{method, route, status_code}
  - guestlink_api_request_duration_seconds{method, route}
  - guestlink_api_active_requests
  - guestlink_webhooks_received_total{result}

Upstream:
  - guestlink_upstream_request_duration_seconds{endpoint, status_code}
  - guestlink_upstream_rate_limited_total{endpoint}

Sync and backfill:
  - guestlink_sync_duration_seconds{operation}
  - guestlink_sync_records_total{operation, outcome}
  - guestlink_sync_errors_total{operation, error_type}
  - guestlink_sync_last_success_timestamp{operation}

Circuit breakers (NATS publisher, Hospitable client):
  - guestlink_circuit_breaker_state{name}
  - guestlink_circuit_breaker_requests_total{name, result}
  - guestlink_circuit_breaker_state_transitions_total{name, from_state, to_state}

# Usage

	r := chi.NewRouter()
	r.Use(metrics.Middleware)
	r.Handle("/metrics", promhttp.Handler())
*/
package metrics
