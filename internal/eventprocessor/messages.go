// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package eventprocessor

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/goccy/go-json"

	"github.com/tomtom215/guestlink/internal/logging"
	"github.com/tomtom215/guestlink/internal/models"
	"github.com/tomtom215/guestlink/internal/validation"
)

// MessageType is the "type" field of a link message.
type MessageType string

const (
	// MessageTypeReservation is produced by the webhook path.
	MessageTypeReservation MessageType = "reservation"
	// MessageTypeBackfillReservation is produced by sync and backfill.
	MessageTypeBackfillReservation MessageType = "backfill-reservation"
)

// Valid reports whether t is a known message type.
func (t MessageType) Valid() bool {
	return t == MessageTypeReservation || t == MessageTypeBackfillReservation
}

// Metadata keys set on outgoing link messages.
const (
	MetadataType          = "type"
	MetadataReservationID = "reservation_id"
	MetadataPropertyID    = "property_id"
)

// LinkMessage is the body of a message on the link topic.
type LinkMessage struct {
	Type        MessageType         `json:"type"`
	Reservation *models.Reservation `json:"reservation"`
}

// NewLinkMessage encodes res as a link message. The correlation id found on
// ctx, if any, travels with the message.
func NewLinkMessage(ctx context.Context, t MessageType, res *models.Reservation) (*message.Message, error) {
	payload, err := json.Marshal(LinkMessage{Type: t, Reservation: res})
	if err != nil {
		return nil, fmt.Errorf("encode link message for %s: %w", res.ID, err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(MetadataType, string(t))
	msg.Metadata.Set(MetadataReservationID, res.ID)
	msg.Metadata.Set(MetadataPropertyID, res.PropertyID)
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		middleware.SetCorrelationID(id, msg)
	}
	return msg, nil
}

// DecodeLinkMessage parses and validates a link message payload. Every error
// it returns is a *PermanentError: a payload that fails here fails forever.
func DecodeLinkMessage(payload []byte) (*LinkMessage, error) {
	var lm LinkMessage
	if err := json.Unmarshal(payload, &lm); err != nil {
		return nil, NewPermanentError("malformed link message", err)
	}
	if !lm.Type.Valid() {
		return nil, NewPermanentError(fmt.Sprintf("unknown message type %q", lm.Type), nil)
	}
	if lm.Reservation == nil {
		return nil, NewPermanentError("link message missing reservation", nil)
	}
	if err := validation.Struct(lm.Reservation); err != nil {
		return nil, NewPermanentError("invalid reservation", err)
	}
	return &lm, nil
}

// EnqueueResult counts what an Enqueue call published.
type EnqueueResult struct {
	Published int
	Batches   int
}

// Enqueuer publishes link messages in fixed-size batches.
type Enqueuer struct {
	publisher message.Publisher
	topic     string
	batchSize int
}

// NewEnqueuer builds an enqueuer for topic. batchSize <= 0 selects 10.
func NewEnqueuer(publisher message.Publisher, topic string, batchSize int) (*Enqueuer, error) {
	if publisher == nil {
		return nil, ErrNilPublisher
	}
	if topic == "" {
		return nil, fmt.Errorf("%w: link topic is required", ErrInvalidConfig)
	}
	if batchSize <= 0 {
		batchSize = 10
	}
	return &Enqueuer{publisher: publisher, topic: topic, batchSize: batchSize}, nil
}

// Enqueue publishes one message of type t per reservation. It stops at the
// first failed batch; earlier batches stay published.
func (e *Enqueuer) Enqueue(ctx context.Context, t MessageType, reservations []*models.Reservation) (EnqueueResult, error) {
	var result EnqueueResult
	for start := 0; start < len(reservations); start += e.batchSize {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		end := min(start+e.batchSize, len(reservations))

		batch := make([]*message.Message, 0, end-start)
		for _, res := range reservations[start:end] {
			msg, err := NewLinkMessage(ctx, t, res)
			if err != nil {
				return result, err
			}
			msg.SetContext(ctx)
			batch = append(batch, msg)
		}
		if err := e.publisher.Publish(e.topic, batch...); err != nil {
			return result, fmt.Errorf("publish batch %d: %w", result.Batches+1, err)
		}
		result.Published += len(batch)
		result.Batches++
		messagesPublished.WithLabelValues(string(t)).Add(float64(len(batch)))
	}
	return result, nil
}

