// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is not set.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/guestlink/config.yaml",
	"/etc/guestlink/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Path:           "/data/guestlink",
			InMemory:       false,
			SyncWrites:     true,
			GCInterval:     10 * time.Minute,
			GCDiscardRatio: 0.5,
			CloseTimeout:   30 * time.Second,
		},
		NATS: NATSConfig{
			URL:              "nats://127.0.0.1:4222",
			EmbeddedServer:   true,
			StoreDir:         "/data/nats/jetstream",
			MaxMemory:        256 << 20, // 256MB
			MaxStore:         4 << 30,   // 4GB
			StreamName:       "GUESTLINK",
			StreamRetention:  7 * 24 * time.Hour,
			DurableName:      "guest-linker",
			QueueGroup:       "linkers",
			SubscribersCount: 4,
			AckWaitTimeout:   30 * time.Second,
		},
		Queue: QueueConfig{
			LinkTopic:            "guest.link",
			WebhookTopic:         "webhook.events",
			PoisonTopic:          "guest.poison",
			RetryCount:           5,
			RetryInitialInterval: 500 * time.Millisecond,
			RetryMaxInterval:     30 * time.Second,
			ThrottlePerSecond:    0, // unlimited
			CloseTimeout:         30 * time.Second,
			PublishBatchSize:     10,
		},
		Hospitable: HospitableConfig{
			BaseURL:           "https://public.api.hospitable.com",
			Token:             "",
			Timeout:           30 * time.Second,
			RequestsPerSecond: 5,
			Burst:             5,
			PerPage:           100,
		},
		Sync: SyncConfig{
			Enabled:           false,
			Interval:          6 * time.Hour,
			StartDate:         "LAST_30_DAYS",
			EndDate:           "PLUS_2_YEARS",
			PropertyIDs:       []string{},
			PropertyChunkSize: 10,
		},
		Webhook: WebhookConfig{
			Enabled:       false,
			Secret:        "",
			MaxBodyBytes:  1 << 20, // 1MB
			DedupCapacity: 10000,
			DedupTTL:      time.Hour,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Security: SecurityConfig{
			RateLimitReqs:     300,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths accept comma-separated strings from the environment.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"sync.property_ids",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		raw, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := strings.Split(raw, ",")
		values := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				values = append(values, p)
			}
		}
		if err := k.Set(path, values); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Anything not listed is ignored.
var envMappings = map[string]string{
	"store_path":             "store.path",
	"store_in_memory":        "store.in_memory",
	"store_sync_writes":      "store.sync_writes",
	"store_gc_interval":      "store.gc_interval",
	"store_gc_discard_ratio": "store.gc_discard_ratio",

	"nats_url":              "nats.url",
	"nats_embedded":         "nats.embedded_server",
	"nats_store_dir":        "nats.store_dir",
	"nats_max_memory":       "nats.max_memory",
	"nats_max_store":        "nats.max_store",
	"nats_stream_name":      "nats.stream_name",
	"nats_stream_retention": "nats.stream_retention",
	"nats_durable_name":     "nats.durable_name",
	"nats_queue_group":      "nats.queue_group",
	"nats_subscribers":      "nats.subscribers_count",
	"nats_ack_wait":         "nats.ack_wait_timeout",

	"queue_link_topic":      "queue.link_topic",
	"queue_webhook_topic":   "queue.webhook_topic",
	"queue_poison_topic":    "queue.poison_topic",
	"queue_retry_count":     "queue.retry_count",
	"queue_retry_interval":  "queue.retry_initial_interval",
	"queue_retry_max":       "queue.retry_max_interval",
	"queue_throttle":        "queue.throttle_per_second",
	"queue_close_timeout":   "queue.close_timeout",
	"queue_publish_batch":   "queue.publish_batch_size",

	"hospitable_api_base":   "hospitable.base_url",
	"hospitable_token":      "hospitable.token",
	"hospitable_timeout":    "hospitable.timeout",
	"hospitable_rps":        "hospitable.requests_per_second",
	"hospitable_burst":      "hospitable.burst",
	"hospitable_per_page":   "hospitable.per_page",

	"sync_enabled":        "sync.enabled",
	"sync_interval":       "sync.interval",
	"sync_start_date":     "sync.start_date",
	"sync_end_date":       "sync.end_date",
	"sync_property_ids":   "sync.property_ids",
	"sync_property_chunk": "sync.property_chunk_size",

	"webhook_enabled":        "webhook.enabled",
	"webhook_secret":         "webhook.secret",
	"webhook_max_body_bytes": "webhook.max_body_bytes",
	"webhook_dedup_capacity": "webhook.dedup_capacity",
	"webhook_dedup_ttl":      "webhook.dedup_ttl",

	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",

	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_decay":     "supervisor.failure_decay",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",
}

func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
