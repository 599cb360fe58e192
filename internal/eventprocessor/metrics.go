// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package eventprocessor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guestlink_queue_messages_published_total",
		Help: "Link messages published, by message type",
	}, []string{"type"})

	messagesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guestlink_queue_messages_processed_total",
		Help: "Messages handled successfully, by handler",
	}, []string{"handler"})

	messagesFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guestlink_queue_messages_failed_total",
		Help: "Handler attempts that returned a retryable error, by handler and category",
	}, []string{"handler", "category"})

	messagesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guestlink_queue_messages_dropped_total",
		Help: "Messages acknowledged without processing because they can never succeed",
	}, []string{"handler", "category"})

	webhooksDuplicate = promauto.NewCounter(prometheus.CounterOpts{
		Name: "guestlink_queue_webhooks_duplicate_total",
		Help: "Webhook events skipped because their id was already processed",
	})

	handlerDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "guestlink_queue_handler_duration_seconds",
		Help:    "Duration of one handler attempt",
		Buckets: prometheus.DefBuckets,
	}, []string{"handler"})
)
