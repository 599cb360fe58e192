// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package guest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	linksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guestlink_links_total",
		Help: "Reservations linked, by identity path (email, phone, replay, orphan)",
	}, []string{"path"})

	linkErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guestlink_link_errors_total",
		Help: "Link attempts that failed, by step",
	}, []string{"step"})

	linkDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "guestlink_link_duration_seconds",
		Help:    "End to end duration of one reservation link",
		Buckets: prometheus.DefBuckets,
	})

	claimsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guestlink_identity_claims_total",
		Help: "Identity claim attempts by kind and outcome (won, resolved, not_visible)",
	}, []string{"kind", "result"})

	mergeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "guestlink_guest_merge_duration_seconds",
		Help:    "Duration of guest profile merges including conflict retries",
		Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5},
	})
)
