// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package services

import (
	"context"
	"fmt"
)

// StartStopManager matches the Start/Stop lifecycle of sync.Scheduler.
type StartStopManager interface {
	Start(ctx context.Context) error
	Stop() error
}

// SyncService wraps the sync scheduler as a supervised service.
//
// It adapts the Start/Stop lifecycle to suture's Serve pattern:
//  1. Calls Start(ctx) to begin the periodic sync loop
//  2. Waits for context cancellation
//  3. Calls Stop(), which waits for a sync in flight
type SyncService struct {
	manager StartStopManager
	name    string
}

// NewSyncService creates a new sync service wrapper.
func NewSyncService(manager StartStopManager) *SyncService {
	return &SyncService{
		manager: manager,
		name:    "sync-scheduler",
	}
}

// Serve implements suture.Service. A failed Start is returned so suture
// restarts the service with backoff.
func (s *SyncService) Serve(ctx context.Context) error {
	if err := s.manager.Start(ctx); err != nil {
		return fmt.Errorf("sync scheduler start failed: %w", err)
	}

	<-ctx.Done()

	if err := s.manager.Stop(); err != nil {
		return fmt.Errorf("sync scheduler stop failed: %w", err)
	}
	return ctx.Err()
}

// String implements fmt.Stringer for logging.
func (s *SyncService) String() string {
	return s.name
}
