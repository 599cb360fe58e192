// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package eventprocessor

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/goccy/go-json"

	"github.com/tomtom215/guestlink/internal/cache"
	"github.com/tomtom215/guestlink/internal/hospitable"
	"github.com/tomtom215/guestlink/internal/logging"
	"github.com/tomtom215/guestlink/internal/models"
	"github.com/tomtom215/guestlink/internal/validation"
)

// MetadataRequestID carries the HTTP request id of a webhook delivery.
const MetadataRequestID = "request_id"

// NewWebhookMessage wraps a verified webhook body for the webhook topic.
func NewWebhookMessage(ctx context.Context, body []byte) *message.Message {
	msg := message.NewMessage(watermill.NewUUID(), body)
	if id := logging.RequestIDFromContext(ctx); id != "" {
		msg.Metadata.Set(MetadataRequestID, id)
		middleware.SetCorrelationID(id, msg)
	}
	return msg
}

// ReservationWriter is the storage the webhook handler writes through.
// internal/reservation.Repository implements it.
type ReservationWriter interface {
	Upsert(ctx context.Context, res *models.Reservation) (*models.Reservation, error)
	EnsureConversationIndex(ctx context.Context, res *models.Reservation) (bool, error)
	PutProperty(ctx context.Context, p *models.Property) error
}

// WebhookHandler processes raw webhook deliveries. reservation.* actions
// store the reservation and enqueue it for linking; property.* actions store
// the property; every other action is ignored.
type WebhookHandler struct {
	store    ReservationWriter
	enqueuer *Enqueuer
	recent   *cache.RecentSet
}

// NewWebhookHandler creates a webhook handler.
func NewWebhookHandler(store ReservationWriter, enqueuer *Enqueuer) *WebhookHandler {
	return &WebhookHandler{store: store, enqueuer: enqueuer}
}

// WithDeduplication skips events whose id is in recent and marks every
// event once it is processed. A nil set disables deduplication.
func (h *WebhookHandler) WithDeduplication(recent *cache.RecentSet) *WebhookHandler {
	h.recent = recent
	return h
}

// Handle processes one webhook message.
func (h *WebhookHandler) Handle(msg *message.Message) error {
	start := time.Now()
	defer func() { handlerDuration.WithLabelValues(HandlerWebhook).Observe(time.Since(start).Seconds()) }()

	ctx := messageContext(msg)

	ev, err := hospitable.ParseWebhookEvent(msg.Payload)
	if err != nil {
		return drop(ctx, HandlerWebhook, msg, NewPermanentError("malformed webhook payload", err))
	}
	log := logging.Ctx(ctx).With().Str("event_id", ev.ID).Str("action", ev.Action).Logger()

	if h.recent != nil && ev.ID != "" && h.recent.Seen(ev.ID) {
		log.Debug().Msg("Skipping duplicate webhook event")
		webhooksDuplicate.Inc()
		return nil
	}

	switch ev.Family() {
	case hospitable.ActionFamilyReservation:
		err = h.handleReservation(ctx, ev)
	case hospitable.ActionFamilyProperty:
		err = h.handleProperty(ctx, ev)
	default:
		log.Info().Msg("Ignoring webhook action")
		messagesProcessed.WithLabelValues(HandlerWebhook).Inc()
		return nil
	}

	if err != nil {
		if IsPermanentError(err) {
			return drop(ctx, HandlerWebhook, msg, err)
		}
		messagesFailed.WithLabelValues(HandlerWebhook, CategoryOf(err).String()).Inc()
		log.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Webhook processing failed, message will be redelivered")
		return err
	}

	if h.recent != nil && ev.ID != "" {
		h.recent.Mark(ev.ID)
	}
	messagesProcessed.WithLabelValues(HandlerWebhook).Inc()
	log.Debug().Msg("Webhook processed")
	return nil
}

func (h *WebhookHandler) handleReservation(ctx context.Context, ev *hospitable.WebhookEvent) error {
	var up hospitable.Reservation
	if err := json.Unmarshal(ev.Data, &up); err != nil {
		return NewPermanentError("malformed reservation in webhook", err)
	}
	res := hospitable.MapReservation(&up)
	if err := validation.Struct(res); err != nil {
		return NewPermanentError("invalid reservation in webhook", err)
	}

	stored, err := h.store.Upsert(ctx, res)
	if err != nil {
		return NewRetryableError("store webhook reservation", err)
	}
	if _, err := h.store.EnsureConversationIndex(ctx, stored); err != nil {
		return NewRetryableError("index webhook conversation", err)
	}
	if _, err := h.enqueuer.Enqueue(ctx, MessageTypeReservation, []*models.Reservation{stored}); err != nil {
		return NewRetryableError(fmt.Sprintf("enqueue reservation %s", stored.ID), err)
	}
	return nil
}

func (h *WebhookHandler) handleProperty(ctx context.Context, ev *hospitable.WebhookEvent) error {
	var up hospitable.Property
	if err := json.Unmarshal(ev.Data, &up); err != nil {
		return NewPermanentError("malformed property in webhook", err)
	}
	prop := hospitable.MapProperty(&up)
	if err := validation.Struct(prop); err != nil {
		return NewPermanentError("invalid property in webhook", err)
	}
	if err := h.store.PutProperty(ctx, prop); err != nil {
		return NewRetryableError("store webhook property", err)
	}
	return nil
}
