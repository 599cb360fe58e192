// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package main

import (
	"testing"
	"time"

	"github.com/tomtom215/guestlink/internal/config"
	"github.com/tomtom215/guestlink/internal/store"
)

func TestStoreConfig(t *testing.T) {
	t.Run("copies configured values", func(t *testing.T) {
		got := storeConfig(config.StoreConfig{
			Path:           "/var/lib/guestlink",
			SyncWrites:     false,
			GCInterval:     time.Minute,
			GCDiscardRatio: 0.7,
			CloseTimeout:   5 * time.Second,
		})
		if got.Path != "/var/lib/guestlink" {
			t.Errorf("Path = %q", got.Path)
		}
		if got.SyncWrites {
			t.Error("SyncWrites = true, want false")
		}
		if got.GCInterval != time.Minute || got.GCDiscardRatio != 0.7 || got.CloseTimeout != 5*time.Second {
			t.Errorf("GC/close settings not copied: %+v", got)
		}
		if err := got.Validate(); err != nil {
			t.Errorf("Validate() = %v", err)
		}
	})

	t.Run("keeps store defaults for zero values", func(t *testing.T) {
		def := store.DefaultConfig()
		got := storeConfig(config.StoreConfig{InMemory: true})
		if !got.InMemory {
			t.Error("InMemory not copied")
		}
		if got.Path != def.Path || got.GCDiscardRatio != def.GCDiscardRatio || got.MaxConflictRetries != def.MaxConflictRetries {
			t.Errorf("defaults lost: %+v", got)
		}
		if err := got.Validate(); err != nil {
			t.Errorf("Validate() = %v", err)
		}
	})
}
