// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/tomtom215/guestlink/internal/guest"
	"github.com/tomtom215/guestlink/internal/logging"
	"github.com/tomtom215/guestlink/internal/models"
)

// Handler names used for router registration, logs and metrics.
const (
	HandlerLink    = "guest-linker"
	HandlerWebhook = "webhook-processor"
)

// Linker is the part of guest.Linker the link handler needs.
type Linker interface {
	Link(ctx context.Context, res *models.Reservation) (*guest.LinkResult, error)
}

// LinkHandler consumes link messages and runs them through the linker.
type LinkHandler struct {
	linker Linker
}

// NewLinkHandler creates a link handler.
func NewLinkHandler(linker Linker) *LinkHandler {
	return &LinkHandler{linker: linker}
}

// Handle processes one link message.
//
// A payload that is not JSON, names an unknown type, or carries a reservation
// without id or property id returns a *PermanentError; the router acknowledges
// it without retry. A linker failure returns a *RetryableError so the message
// is redelivered.
func (h *LinkHandler) Handle(msg *message.Message) error {
	start := time.Now()
	defer func() { handlerDuration.WithLabelValues(HandlerLink).Observe(time.Since(start).Seconds()) }()

	ctx := messageContext(msg)

	lm, err := DecodeLinkMessage(msg.Payload)
	if err != nil {
		return drop(ctx, HandlerLink, msg, err)
	}

	result, err := h.linker.Link(ctx, lm.Reservation)
	if err != nil {
		if errors.Is(err, guest.ErrIncompleteReservation) {
			return drop(ctx, HandlerLink, msg, NewPermanentError("incomplete reservation", err))
		}
		rerr := NewRetryableError(fmt.Sprintf("link reservation %s", lm.Reservation.ID), err)
		messagesFailed.WithLabelValues(HandlerLink, rerr.Category.String()).Inc()
		logging.Ctx(ctx).Warn().Err(err).
			Str("message_uuid", msg.UUID).
			Str("reservation_id", lm.Reservation.ID).
			Str("category", rerr.Category.String()).
			Msg("Link failed, message will be redelivered")
		return rerr
	}

	messagesProcessed.WithLabelValues(HandlerLink).Inc()
	logging.Ctx(ctx).Debug().
		Str("message_uuid", msg.UUID).
		Str("type", string(lm.Type)).
		Str("reservation_id", lm.Reservation.ID).
		Str("guest_id", result.GuestID).
		Str("path", result.Path).
		Msg("Link message processed")
	return nil
}

// drop logs a message that can never succeed and returns err unchanged.
func drop(ctx context.Context, handler string, msg *message.Message, err error) error {
	category := CategoryOf(err)
	messagesDropped.WithLabelValues(handler, category.String()).Inc()
	logging.Ctx(ctx).Warn().Err(err).
		Str("handler", handler).
		Str("message_uuid", msg.UUID).
		Str("category", category.String()).
		Int("payload_bytes", len(msg.Payload)).
		Msg("Dropping message without retry")
	return err
}

// messageContext returns the message context carrying its correlation id.
func messageContext(msg *message.Message) context.Context {
	ctx := msg.Context()
	if id := middleware.MessageCorrelationID(msg); id != "" {
		ctx = logging.ContextWithCorrelationID(ctx, id)
	}
	return ctx
}

// Driver feeds a batch of messages through a handler one message at a time.
// A failing or panicking message never affects its neighbours.
type Driver struct {
	name   string
	handle message.NoPublishHandlerFunc
}

// NewDriver wraps handle. name labels logs.
func NewDriver(name string, handle message.NoPublishHandlerFunc) *Driver {
	return &Driver{name: name, handle: handle}
}

// ProcessBatch handles every message in msgs and returns the UUIDs of the
// messages that failed and should be redelivered. Messages rejected with a
// *PermanentError count as handled. Once ctx is done the remaining messages
// are reported as failed without being attempted.
func (d *Driver) ProcessBatch(ctx context.Context, msgs []*message.Message) []string {
	var failed []string
	for _, msg := range msgs {
		if ctx.Err() != nil {
			failed = append(failed, msg.UUID)
			continue
		}
		msg.SetContext(ctx)

		err := d.safeHandle(msg)
		switch {
		case err == nil:
			msg.Ack()
		case IsPermanentError(err):
			msg.Ack()
		default:
			msg.Nack()
			failed = append(failed, msg.UUID)
		}
	}
	if len(failed) > 0 {
		logging.Ctx(ctx).Warn().
			Str("handler", d.name).
			Int("batch_size", len(msgs)).
			Int("failed", len(failed)).
			Msg("Batch finished with failures")
	}
	return failed
}

func (d *Driver) safeHandle(msg *message.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s handler: %v", d.name, r)
			logging.Error().Str("message_uuid", msg.UUID).Interface("panic", r).Msg("Recovered handler panic")
		}
	}()
	return d.handle(msg)
}
