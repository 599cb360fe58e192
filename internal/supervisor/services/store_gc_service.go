// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package services

import (
	"context"
	"time"

	"github.com/tomtom215/guestlink/internal/logging"
)

// GarbageCollector matches store.Store's value log GC.
type GarbageCollector interface {
	RunGC() error
}

// StoreGCService runs value log GC on a fixed interval. GC failures are
// logged and retried on the next tick; they never restart the service.
type StoreGCService struct {
	store    GarbageCollector
	interval time.Duration
	name     string
}

// NewStoreGCService creates a GC loop. A non-positive interval defaults to
// ten minutes.
func NewStoreGCService(store GarbageCollector, interval time.Duration) *StoreGCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &StoreGCService{store: store, interval: interval, name: "store-gc"}
}

// Serve implements suture.Service.
func (s *StoreGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.store.RunGC(); err != nil {
				logging.Warn().Err(err).Msg("Store GC failed")
			}
		}
	}
}

// String implements fmt.Stringer for logging.
func (s *StoreGCService) String() string {
	return s.name
}
