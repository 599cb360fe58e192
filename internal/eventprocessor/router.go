// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package eventprocessor

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

// RouterConfig holds configuration for the Watermill Router.
type RouterConfig struct {
	// CloseTimeout is how long to wait for handlers to finish when closing.
	CloseTimeout time.Duration

	// Retry configuration
	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64

	// Throttle configuration (messages per second, 0 = disabled)
	ThrottlePerSecond int64

	// PoisonQueueTopic receives messages whose retries are exhausted.
	PoisonQueueTopic string
}

// DefaultRouterConfig returns production defaults for the Router.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CloseTimeout:         30 * time.Second,
		RetryMaxRetries:      5,
		RetryInitialInterval: 500 * time.Millisecond,
		RetryMaxInterval:     30 * time.Second,
		RetryMultiplier:      2.0,
		PoisonQueueTopic:     "guest.poison",
	}
}

// Router wraps the Watermill Router with the queue's middleware stack.
//
// Middleware, outermost first:
//  1. CorrelationID copies the correlation id onto produced messages
//  2. PoisonQueue publishes a message once Retry gives up on it
//  3. Retry re-runs the handler with exponential backoff
//  4. Throttle (optional) caps messages per second
//  5. Recoverer turns handler panics into errors
//  6. DropPermanentErrors acknowledges messages that can never succeed
//
// A handler error that reaches the subscriber nacks the message, so JetStream
// redelivers it; everything else is acknowledged.
type Router struct {
	router  *message.Router
	config  RouterConfig
	logger  watermill.LoggerAdapter
	running atomic.Bool
}

// NewRouter creates a router. poisonPublisher may be nil to disable the
// poison queue.
func NewRouter(cfg *RouterConfig, poisonPublisher message.Publisher, logger watermill.LoggerAdapter) (*Router, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	if cfg == nil {
		defaultCfg := DefaultRouterConfig()
		cfg = &defaultCfg
	}

	wmRouter, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.CloseTimeout}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	wmRouter.AddMiddleware(middleware.CorrelationID)

	if poisonPublisher != nil && cfg.PoisonQueueTopic != "" {
		poisonQueue, err := middleware.PoisonQueue(poisonPublisher, cfg.PoisonQueueTopic)
		if err != nil {
			return nil, fmt.Errorf("create poison queue middleware: %w", err)
		}
		wmRouter.AddMiddleware(poisonQueue)
	}

	retry := middleware.Retry{
		MaxRetries:      cfg.RetryMaxRetries,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     cfg.RetryMaxInterval,
		Multiplier:      cfg.RetryMultiplier,
		Logger:          logger,
	}
	wmRouter.AddMiddleware(retry.Middleware)

	if cfg.ThrottlePerSecond > 0 {
		throttle := middleware.NewThrottle(cfg.ThrottlePerSecond, time.Second)
		wmRouter.AddMiddleware(throttle.Middleware)
	}

	wmRouter.AddMiddleware(middleware.Recoverer)
	wmRouter.AddMiddleware(DropPermanentErrors)

	return &Router{
		router: wmRouter,
		config: *cfg,
		logger: logger,
	}, nil
}

// DropPermanentErrors swallows *PermanentError so the message is acknowledged
// instead of retried. The handler has already logged it.
func DropPermanentErrors(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		produced, err := h(msg)
		if err != nil && IsPermanentError(err) {
			return nil, nil
		}
		return produced, err
	}
}

// AddConsumerHandler registers a handler that produces no messages.
func (r *Router) AddConsumerHandler(name, topic string, subscriber message.Subscriber, handler message.NoPublishHandlerFunc) *message.Handler {
	return r.router.AddConsumerHandler(name, topic, subscriber, handler)
}

// Run starts the router and blocks until ctx is done or Close is called.
func (r *Router) Run(ctx context.Context) error {
	r.running.Store(true)
	defer r.running.Store(false)
	r.logger.Info("Starting message router", watermill.LogFields{
		"poison_topic": r.config.PoisonQueueTopic,
		"max_retries":  r.config.RetryMaxRetries,
	})
	return r.router.Run(ctx)
}

// Running returns a channel that closes once every handler is subscribed.
func (r *Router) Running() <-chan struct{} {
	return r.router.Running()
}

// Close stops the router, waiting up to CloseTimeout for in-flight messages.
func (r *Router) Close() error {
	return r.router.Close()
}

// IsRunning reports whether Run is active.
func (r *Router) IsRunning() bool {
	return r.running.Load()
}

