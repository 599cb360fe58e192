// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package store

import "time"

// Config holds store configuration.
type Config struct {
	// Path is the badger directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps all data in memory. Used by tests and dry runs.
	InMemory bool

	// SyncWrites fsyncs every commit.
	SyncWrites bool

	// Compression enables Snappy block compression.
	Compression bool

	// GCInterval is how often the value log GC loop runs.
	GCInterval time.Duration

	// GCDiscardRatio is passed to badger's RunValueLogGC.
	GCDiscardRatio float64

	// CloseTimeout bounds how long Close waits for badger.
	CloseTimeout time.Duration

	// MaxConflictRetries bounds how often a transaction aborted with
	// badger.ErrConflict is re-run before giving up.
	MaxConflictRetries int

	// MemTableSize and ValueLogFileSize tune badger; zero keeps badger defaults.
	MemTableSize     int64
	ValueLogFileSize int64
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Path:               "/data/guestlink",
		SyncWrites:         true,
		Compression:        true,
		GCInterval:         10 * time.Minute,
		GCDiscardRatio:     0.5,
		CloseTimeout:       30 * time.Second,
		MaxConflictRetries: 32,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if !c.InMemory && c.Path == "" {
		return &ConfigError{Field: "Path", Message: "required unless InMemory is set"}
	}
	if c.GCDiscardRatio <= 0 || c.GCDiscardRatio >= 1 {
		return &ConfigError{Field: "GCDiscardRatio", Message: "must be between 0 and 1"}
	}
	if c.MaxConflictRetries < 1 {
		return &ConfigError{Field: "MaxConflictRetries", Message: "must be at least 1"}
	}
	return nil
}

// ConfigError reports an invalid store configuration field.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "store config error: " + e.Field + ": " + e.Message
}
