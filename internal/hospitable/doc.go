// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

// Package hospitable is the client for the Hospitable public API (v2) and the
// mapping from its reservation, property and webhook shapes onto the
// normalized records in internal/models.
//
// Every request carries the configured bearer token, waits on a
// golang.org/x/time/rate limiter, retries HTTP 429 (honoring Retry-After) and
// runs through a sony/gobreaker circuit breaker named "hospitable-api".
package hospitable
