// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package eventprocessor

import (
	"fmt"
	"time"

	"github.com/tomtom215/guestlink/internal/config"
)

// Topics names the subjects the queue layer publishes and consumes.
type Topics struct {
	// Link carries {type, reservation} link messages.
	Link string
	// Webhook carries raw upstream webhook payloads.
	Webhook string
	// Poison receives messages that exhausted their retries.
	Poison string
}

// Subjects returns the stream subjects covering every topic.
func (t Topics) Subjects() []string {
	subjects := make([]string, 0, 3)
	for _, s := range []string{t.Link, t.Webhook, t.Poison} {
		if s != "" {
			subjects = append(subjects, s)
		}
	}
	return subjects
}

// DefaultTopics returns the topic names used when nothing is configured.
func DefaultTopics() Topics {
	return Topics{
		Link:    "guest.link",
		Webhook: "webhook.events",
		Poison:  "guest.poison",
	}
}

// ServerConfig holds embedded NATS server configuration.
type ServerConfig struct {
	Name              string
	Host              string
	Port              int
	StoreDir          string
	JetStreamMaxMem   int64
	JetStreamMaxStore int64
	MaxPayload        int32
}

// DefaultServerConfig returns defaults for a single-node embedded server.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Name:              "guestlink",
		Host:              "127.0.0.1",
		Port:              4222,
		StoreDir:          "/data/nats/jetstream",
		JetStreamMaxMem:   256 << 20,
		JetStreamMaxStore: 4 << 30,
		MaxPayload:        4 << 20,
	}
}

// PublisherConfig holds publisher configuration.
type PublisherConfig struct {
	URL              string
	MaxReconnects    int
	ReconnectWait    time.Duration
	ReconnectBuffer  int
	EnableTrackMsgID bool //nolint:revive // matches the Nats-Msg-Id header name
}

// DefaultPublisherConfig returns production defaults for publisher.
func DefaultPublisherConfig(url string) PublisherConfig {
	return PublisherConfig{
		URL:              url,
		MaxReconnects:    -1,
		ReconnectWait:    2 * time.Second,
		ReconnectBuffer:  4 << 20,
		EnableTrackMsgID: true,
	}
}

// SubscriberConfig holds durable JetStream consumer configuration.
type SubscriberConfig struct {
	URL              string
	DurableName      string
	QueueGroup       string
	SubscribersCount int
	AckWaitTimeout   time.Duration
	MaxDeliver       int
	MaxAckPending    int
	CloseTimeout     time.Duration
	MaxReconnects    int
	ReconnectWait    time.Duration
	// StreamName binds the consumer to an existing stream and disables
	// auto-provisioning.
	StreamName string
}

// DefaultSubscriberConfig returns production defaults for subscriber.
func DefaultSubscriberConfig(url string) SubscriberConfig {
	return SubscriberConfig{
		URL:              url,
		DurableName:      "guest-linker",
		QueueGroup:       "linkers",
		SubscribersCount: 4,
		AckWaitTimeout:   30 * time.Second,
		MaxDeliver:       10,
		MaxAckPending:    500,
		CloseTimeout:     30 * time.Second,
		MaxReconnects:    -1,
		ReconnectWait:    2 * time.Second,
	}
}

// StreamConfig defines the JetStream stream backing every topic.
type StreamConfig struct {
	Name            string
	Subjects        []string
	MaxAge          time.Duration
	MaxBytes        int64
	MaxMsgs         int64
	DuplicateWindow time.Duration
	Replicas        int
}

// DefaultStreamConfig returns the stream configuration for the given topics.
func DefaultStreamConfig(topics Topics) StreamConfig {
	return StreamConfig{
		Name:            "GUESTLINK",
		Subjects:        topics.Subjects(),
		MaxAge:          72 * time.Hour,
		MaxBytes:        1 << 30,
		MaxMsgs:         -1,
		DuplicateWindow: 2 * time.Minute,
		Replicas:        1,
	}
}

// Validate reports whether the stream configuration is usable.
func (c *StreamConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: stream name is required", ErrInvalidConfig)
	}
	if len(c.Subjects) == 0 {
		return fmt.Errorf("%w: stream %s has no subjects", ErrInvalidConfig, c.Name)
	}
	return nil
}

// CircuitBreakerConfig holds circuit breaker settings.
type CircuitBreakerConfig struct {
	Name             string
	MaxRequests      uint32        // allowed while half-open
	Interval         time.Duration // closed-state count reset
	Timeout          time.Duration // open-state duration
	FailureThreshold uint32        // consecutive failures before opening
}

// DefaultCircuitBreakerConfig returns production defaults.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxRequests:      3,
		Interval:         time.Minute,
		Timeout:          15 * time.Second,
		FailureThreshold: 5,
	}
}

// Settings bundles everything the queue layer needs, derived from the
// service configuration.
type Settings struct {
	Topics     Topics
	Server     ServerConfig
	Publisher  PublisherConfig
	Subscriber SubscriberConfig
	Stream     StreamConfig
	Router     RouterConfig
	BatchSize  int
}

// SettingsFromConfig maps the service configuration onto queue settings.
func SettingsFromConfig(cfg *config.Config) Settings {
	topics := Topics{
		Link:    cfg.Queue.LinkTopic,
		Webhook: cfg.Queue.WebhookTopic,
		Poison:  cfg.Queue.PoisonTopic,
	}

	server := DefaultServerConfig()
	if cfg.NATS.StoreDir != "" {
		server.StoreDir = cfg.NATS.StoreDir
	}
	if cfg.NATS.MaxMemory > 0 {
		server.JetStreamMaxMem = cfg.NATS.MaxMemory
	}
	if cfg.NATS.MaxStore > 0 {
		server.JetStreamMaxStore = cfg.NATS.MaxStore
	}

	sub := DefaultSubscriberConfig(cfg.NATS.URL)
	sub.DurableName = cfg.NATS.DurableName
	sub.QueueGroup = cfg.NATS.QueueGroup
	sub.SubscribersCount = cfg.NATS.SubscribersCount
	sub.AckWaitTimeout = cfg.NATS.AckWaitTimeout
	sub.CloseTimeout = cfg.Queue.CloseTimeout
	sub.StreamName = cfg.NATS.StreamName

	stream := DefaultStreamConfig(topics)
	stream.Name = cfg.NATS.StreamName
	if cfg.NATS.StreamRetention > 0 {
		stream.MaxAge = cfg.NATS.StreamRetention
	}

	router := DefaultRouterConfig()
	router.CloseTimeout = cfg.Queue.CloseTimeout
	router.RetryMaxRetries = cfg.Queue.RetryCount
	router.RetryInitialInterval = cfg.Queue.RetryInitialInterval
	router.RetryMaxInterval = cfg.Queue.RetryMaxInterval
	router.ThrottlePerSecond = cfg.Queue.ThrottlePerSecond
	router.PoisonQueueTopic = cfg.Queue.PoisonTopic

	return Settings{
		Topics:     topics,
		Server:     server,
		Publisher:  DefaultPublisherConfig(cfg.NATS.URL),
		Subscriber: sub,
		Stream:     stream,
		Router:     router,
		BatchSize:  cfg.Queue.PublishBatchSize,
	}
}

// WithURL points publisher and subscriber at url, used once an embedded
// server has reported its client URL.
func (s Settings) WithURL(url string) Settings {
	s.Publisher.URL = url
	s.Subscriber.URL = url
	return s
}
