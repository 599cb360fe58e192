// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/guestlink/internal/config"
	"github.com/tomtom215/guestlink/internal/eventprocessor"
	"github.com/tomtom215/guestlink/internal/logging"
	"github.com/tomtom215/guestlink/internal/supervisor/services"
)

// embeddedReadyTimeout bounds how long startup waits for the embedded NATS
// server to accept connections.
const embeddedReadyTimeout = 30 * time.Second

// QueueComponents holds the NATS side of the application.
type QueueComponents struct {
	settings  eventprocessor.Settings
	server    *eventprocessor.EmbeddedServer
	publisher *eventprocessor.Publisher
	logger    watermill.LoggerAdapter
}

// InitQueue starts the embedded NATS server when configured, provisions the
// JetStream stream and connects the publisher. Partially started components
// are shut down when a later step fails.
func InitQueue(ctx context.Context, cfg *config.Config, logger watermill.LoggerAdapter) (*QueueComponents, error) {
	q := &QueueComponents{
		settings: eventprocessor.SettingsFromConfig(cfg),
		logger:   logger,
	}

	if cfg.NATS.EmbeddedServer {
		srv, err := eventprocessor.NewEmbeddedServer(&q.settings.Server, embeddedReadyTimeout)
		if err != nil {
			return nil, fmt.Errorf("start embedded NATS server: %w", err)
		}
		q.server = srv
		q.settings = q.settings.WithURL(srv.ClientURL())
		logging.Info().
			Str("url", srv.ClientURL()).
			Str("store_dir", q.settings.Server.StoreDir).
			Msg("Embedded NATS server started")
	}

	if err := eventprocessor.InitStream(ctx, q.settings.Publisher.URL, &q.settings.Stream); err != nil {
		q.Shutdown(ctx)
		return nil, fmt.Errorf("initialize stream: %w", err)
	}

	pub, err := eventprocessor.NewPublisher(q.settings.Publisher, logger)
	if err != nil {
		q.Shutdown(ctx)
		return nil, fmt.Errorf("create publisher: %w", err)
	}
	q.publisher = pub

	logging.Info().
		Str("url", q.settings.Publisher.URL).
		Str("stream", q.settings.Stream.Name).
		Str("link_topic", q.settings.Topics.Link).
		Str("webhook_topic", q.settings.Topics.Webhook).
		Msg("Queue initialized")
	return q, nil
}

// Publisher returns the circuit-breaker guarded publisher.
func (q *QueueComponents) Publisher() *eventprocessor.Publisher {
	return q.publisher
}

// Topics returns the configured topic names.
func (q *QueueComponents) Topics() eventprocessor.Topics {
	return q.settings.Topics
}

// NewEnqueuer builds the link-message enqueuer on the shared publisher.
func (q *QueueComponents) NewEnqueuer() (*eventprocessor.Enqueuer, error) {
	return eventprocessor.NewEnqueuer(q.publisher, q.settings.Topics.Link, q.settings.BatchSize)
}

// RouterFactory returns a builder for the queue router. Each call creates a
// fresh subscriber, since the Watermill router closes its subscribers when it
// stops.
func (q *QueueComponents) RouterFactory(link, webhook message.NoPublishHandlerFunc) func() (services.MessageRouter, error) {
	return func() (services.MessageRouter, error) {
		sub, err := eventprocessor.NewSubscriber(&q.settings.Subscriber, q.logger)
		if err != nil {
			return nil, fmt.Errorf("create subscriber: %w", err)
		}

		r, err := eventprocessor.NewRouter(&q.settings.Router, q.publisher, q.logger)
		if err != nil {
			return nil, errors.Join(err, sub.Close())
		}
		r.AddConsumerHandler(eventprocessor.HandlerLink, q.settings.Topics.Link, sub, link)
		r.AddConsumerHandler(eventprocessor.HandlerWebhook, q.settings.Topics.Webhook, sub, webhook)
		return r, nil
	}
}

// Shutdown closes the publisher and stops the embedded server. It is safe to
// call on partially initialized components.
func (q *QueueComponents) Shutdown(ctx context.Context) {
	if q.publisher != nil {
		if err := q.publisher.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing queue publisher")
		}
	}
	if q.server != nil {
		if err := q.server.Shutdown(ctx); err != nil {
			logging.Error().Err(err).Msg("Error shutting down embedded NATS server")
		} else {
			logging.Info().Msg("Embedded NATS server stopped")
		}
	}
}
