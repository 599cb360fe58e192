// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ConfigError reports an invalid configuration field.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error: " + e.Field + ": " + e.Message
}

var isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Validate checks that every section is internally consistent.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateStore,
		c.validateNATS,
		c.validateQueue,
		c.validateHospitable,
		c.validateSync,
		c.validateWebhook,
		c.validateServer,
		c.validateLogging,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateStore() error {
	if !c.Store.InMemory && strings.TrimSpace(c.Store.Path) == "" {
		return &ConfigError{Field: "STORE_PATH", Message: "required unless STORE_IN_MEMORY=true"}
	}
	if c.Store.GCDiscardRatio <= 0 || c.Store.GCDiscardRatio >= 1 {
		return &ConfigError{Field: "STORE_GC_DISCARD_RATIO", Message: "must be between 0 and 1 (exclusive)"}
	}
	return nil
}

func (c *Config) validateNATS() error {
	if !c.NATS.EmbeddedServer && c.NATS.URL == "" {
		return &ConfigError{Field: "NATS_URL", Message: "required when NATS_EMBEDDED=false"}
	}
	if c.NATS.EmbeddedServer && c.NATS.StoreDir == "" {
		return &ConfigError{Field: "NATS_STORE_DIR", Message: "required when NATS_EMBEDDED=true"}
	}
	if c.NATS.StreamName == "" {
		return &ConfigError{Field: "NATS_STREAM_NAME", Message: "must not be empty"}
	}
	if c.NATS.SubscribersCount < 1 {
		return &ConfigError{Field: "NATS_SUBSCRIBERS", Message: "must be at least 1"}
	}
	return nil
}

func (c *Config) validateQueue() error {
	topics := map[string]string{
		"QUEUE_LINK_TOPIC":    c.Queue.LinkTopic,
		"QUEUE_WEBHOOK_TOPIC": c.Queue.WebhookTopic,
		"QUEUE_POISON_TOPIC":  c.Queue.PoisonTopic,
	}
	seen := make(map[string]string, len(topics))
	for field, topic := range topics {
		if topic == "" {
			return &ConfigError{Field: field, Message: "must not be empty"}
		}
		if other, dup := seen[topic]; dup {
			return &ConfigError{Field: field, Message: fmt.Sprintf("duplicates %s (%s)", other, topic)}
		}
		seen[topic] = field
	}
	if c.Queue.RetryCount < 0 {
		return &ConfigError{Field: "QUEUE_RETRY_COUNT", Message: "must not be negative"}
	}
	if c.Queue.PublishBatchSize < 1 {
		return &ConfigError{Field: "QUEUE_PUBLISH_BATCH", Message: "must be at least 1"}
	}
	return nil
}

func (c *Config) validateHospitable() error {
	if err := validateHTTPURL(c.Hospitable.BaseURL); err != nil {
		return &ConfigError{Field: "HOSPITABLE_API_BASE", Message: err.Error()}
	}
	if c.Hospitable.RequestsPerSecond <= 0 {
		return &ConfigError{Field: "HOSPITABLE_RPS", Message: "must be positive"}
	}
	if c.Hospitable.PerPage < 1 || c.Hospitable.PerPage > 100 {
		return &ConfigError{Field: "HOSPITABLE_PER_PAGE", Message: "must be between 1 and 100"}
	}
	return nil
}

func (c *Config) validateSync() error {
	if !c.Sync.Enabled {
		return nil
	}
	if c.Hospitable.Token == "" {
		return &ConfigError{Field: "HOSPITABLE_TOKEN", Message: "required when SYNC_ENABLED=true"}
	}
	if c.Sync.Interval <= 0 {
		return &ConfigError{Field: "SYNC_INTERVAL", Message: "must be positive"}
	}
	if s := c.Sync.StartDate; s != "" && s != "LAST_30_DAYS" && !isoDate.MatchString(s) {
		return &ConfigError{Field: "SYNC_START_DATE", Message: "must be LAST_30_DAYS or YYYY-MM-DD"}
	}
	if e := c.Sync.EndDate; e != "" && e != "PLUS_2_YEARS" && !isoDate.MatchString(e) {
		return &ConfigError{Field: "SYNC_END_DATE", Message: "must be PLUS_2_YEARS or YYYY-MM-DD"}
	}
	if c.Sync.PropertyChunkSize < 1 {
		return &ConfigError{Field: "SYNC_PROPERTY_CHUNK", Message: "must be at least 1"}
	}
	return nil
}

func (c *Config) validateWebhook() error {
	if !c.Webhook.Enabled {
		return nil
	}
	if len(c.Webhook.Secret) < 16 {
		return &ConfigError{Field: "WEBHOOK_SECRET", Message: "at least 16 characters required when WEBHOOK_ENABLED=true"}
	}
	if c.Webhook.MaxBodyBytes <= 0 {
		return &ConfigError{Field: "WEBHOOK_MAX_BODY_BYTES", Message: "must be positive"}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return &ConfigError{Field: "HTTP_PORT", Message: fmt.Sprintf("must be between 1 and 65535, got %d", c.Server.Port)}
	}
	if !c.Security.RateLimitDisabled && (c.Security.RateLimitReqs < 1 || c.Security.RateLimitWindow <= 0) {
		return &ConfigError{Field: "RATE_LIMIT_REQUESTS", Message: "rate limit requires positive requests and window"}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "disabled":
	default:
		return &ConfigError{Field: "LOG_LEVEL", Message: fmt.Sprintf("unknown level %q", c.Logging.Level)}
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return &ConfigError{Field: "LOG_FORMAT", Message: fmt.Sprintf("unknown format %q", c.Logging.Format)}
	}
	return nil
}

// validateHTTPURL accepts a bare http(s) base URL without query.
func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("host is required")
	}
	if u.RawQuery != "" {
		return fmt.Errorf("must not contain query parameters")
	}
	return nil
}
