// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package eventprocessor

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/guestlink/internal/metrics"
)

// Publisher is a message.Publisher guarded by a circuit breaker. It wraps the
// JetStream publisher in production and any message.Publisher in tests.
type Publisher struct {
	publisher      message.Publisher
	circuitBreaker *gobreaker.CircuitBreaker[any]
	mu             sync.RWMutex
	closed         bool
}

var _ message.Publisher = (*Publisher)(nil)

// NewPublisher creates a JetStream publisher. The stream must already exist;
// see StreamInitializer.
func NewPublisher(cfg PublisherConfig, logger watermill.LoggerAdapter) (*Publisher, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	natsOpts := []natsgo.Option{
		natsgo.Name("guestlink-publisher"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.ReconnectBufSize(cfg.ReconnectBuffer),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS publisher disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS publisher reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: false,
			TrackMsgId:    cfg.EnableTrackMsgID,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}
	return WrapPublisher(pub, NewCircuitBreaker(DefaultCircuitBreakerConfig("nats-publisher"))), nil
}

// WrapPublisher guards pub with cb. cb may be nil.
func WrapPublisher(pub message.Publisher, cb *gobreaker.CircuitBreaker[any]) *Publisher {
	return &Publisher{publisher: pub, circuitBreaker: cb}
}

// Publish sends msgs to topic. Each message's UUID becomes its Nats-Msg-Id
// unless one is set, so JetStream drops duplicates inside the stream's
// duplicate window.
func (p *Publisher) Publish(topic string, msgs ...*message.Message) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	for _, msg := range msgs {
		if msg.Metadata.Get(natsgo.MsgIdHdr) == "" {
			msg.Metadata.Set(natsgo.MsgIdHdr, msg.UUID)
		}
	}

	if p.circuitBreaker == nil {
		return p.publisher.Publish(topic, msgs...)
	}
	_, err := p.circuitBreaker.Execute(func() (any, error) {
		return nil, p.publisher.Publish(topic, msgs...)
	})
	switch {
	case err == nil:
		metrics.RecordCircuitBreakerResult(p.circuitBreaker.Name(), "success")
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordCircuitBreakerResult(p.circuitBreaker.Name(), "rejected")
	default:
		metrics.RecordCircuitBreakerResult(p.circuitBreaker.Name(), "failure")
	}
	return err
}

// Close shuts the underlying publisher down. Further Publish calls fail.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.publisher.Close()
}

// BreakerState reports the circuit breaker state, "none" without one.
func (p *Publisher) BreakerState() string {
	if p.circuitBreaker == nil {
		return "none"
	}
	return CircuitBreakerState(p.circuitBreaker)
}
