// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package config

import (
	"net"
	"strconv"
	"time"

	"github.com/tomtom215/guestlink/internal/logging"
)

// Config is the root configuration, loaded by Load.
type Config struct {
	Store      StoreConfig      `koanf:"store"`
	NATS       NATSConfig       `koanf:"nats"`
	Queue      QueueConfig      `koanf:"queue"`
	Hospitable HospitableConfig `koanf:"hospitable"`
	Sync       SyncConfig       `koanf:"sync"`
	Webhook    WebhookConfig    `koanf:"webhook"`
	Server     ServerConfig     `koanf:"server"`
	Security   SecurityConfig   `koanf:"security"`
	Logging    LoggingConfig    `koanf:"logging"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// StoreConfig configures the badger-backed single-table store.
type StoreConfig struct {
	Path           string        `koanf:"path"`
	InMemory       bool          `koanf:"in_memory"`
	SyncWrites     bool          `koanf:"sync_writes"`
	GCInterval     time.Duration `koanf:"gc_interval"`
	GCDiscardRatio float64       `koanf:"gc_discard_ratio"`
	CloseTimeout   time.Duration `koanf:"close_timeout"`
}

// NATSConfig configures the JetStream transport behind the work queue.
type NATSConfig struct {
	URL              string        `koanf:"url"`
	EmbeddedServer   bool          `koanf:"embedded_server"`
	StoreDir         string        `koanf:"store_dir"`
	MaxMemory        int64         `koanf:"max_memory"`
	MaxStore         int64         `koanf:"max_store"`
	StreamName       string        `koanf:"stream_name"`
	StreamRetention  time.Duration `koanf:"stream_retention"`
	DurableName      string        `koanf:"durable_name"`
	QueueGroup       string        `koanf:"queue_group"`
	SubscribersCount int           `koanf:"subscribers_count"`
	AckWaitTimeout   time.Duration `koanf:"ack_wait_timeout"`
}

// QueueConfig configures topics and the Watermill router.
type QueueConfig struct {
	LinkTopic            string        `koanf:"link_topic"`
	WebhookTopic         string        `koanf:"webhook_topic"`
	PoisonTopic          string        `koanf:"poison_topic"`
	RetryCount           int           `koanf:"retry_count"`
	RetryInitialInterval time.Duration `koanf:"retry_initial_interval"`
	RetryMaxInterval     time.Duration `koanf:"retry_max_interval"`
	ThrottlePerSecond    int64         `koanf:"throttle_per_second"`
	CloseTimeout         time.Duration `koanf:"close_timeout"`
	PublishBatchSize     int           `koanf:"publish_batch_size"`
}

// HospitableConfig configures the upstream reservation API client.
type HospitableConfig struct {
	BaseURL           string        `koanf:"base_url"`
	Token             string        `koanf:"token"`
	Timeout           time.Duration `koanf:"timeout"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Burst             int           `koanf:"burst"`
	PerPage           int           `koanf:"per_page"`
}

// SyncConfig configures scheduled reservation sync.
type SyncConfig struct {
	Enabled           bool          `koanf:"enabled"`
	Interval          time.Duration `koanf:"interval"`
	StartDate         string        `koanf:"start_date"`
	EndDate           string        `koanf:"end_date"`
	PropertyIDs       []string      `koanf:"property_ids"`
	PropertyChunkSize int           `koanf:"property_chunk_size"`
}

// WebhookConfig configures the inbound webhook receiver.
type WebhookConfig struct {
	Enabled       bool          `koanf:"enabled"`
	Secret        string        `koanf:"secret"`
	MaxBodyBytes  int64         `koanf:"max_body_bytes"`
	DedupCapacity int64         `koanf:"dedup_capacity"`
	DedupTTL      time.Duration `koanf:"dedup_ttl"` // 0 disables duplicate detection
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// SecurityConfig holds HTTP hardening settings.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig mirrors logging.Config for file/env loading.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// SupervisorConfig tunes the suture tree.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}

// LogConfig converts to the logging package's Config.
func (c *Config) LogConfig() logging.Config {
	lc := logging.DefaultConfig()
	lc.Level = c.Logging.Level
	lc.Format = c.Logging.Format
	lc.Caller = c.Logging.Caller
	return lc
}

// ListenAddr returns host:port for the HTTP server.
func (s ServerConfig) ListenAddr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}
