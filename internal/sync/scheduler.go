// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/guestlink/internal/config"
	"github.com/tomtom215/guestlink/internal/logging"
	"github.com/tomtom215/guestlink/internal/models"
)

// Syncer is the part of Manager the scheduler drives.
type Syncer interface {
	SyncProperties(ctx context.Context) (int, error)
	SyncReservations(ctx context.Context, req models.SyncRequest) (*models.SyncResult, error)
}

// Scheduler runs a property sync followed by a reservation sync on a fixed
// interval, starting immediately.
type Scheduler struct {
	syncer   Syncer
	interval time.Duration
	request  models.SyncRequest

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewScheduler creates a scheduler from the sync configuration. Scheduled
// runs use the configured window, LAST_30_DAYS by default.
func NewScheduler(syncer Syncer, cfg *config.SyncConfig) *Scheduler {
	req := models.SyncRequest{
		PropertyIDs: cfg.PropertyIDs,
		StartDate:   cfg.StartDate,
		EndDate:     cfg.EndDate,
	}
	if req.StartDate == "" {
		req.StartDate = StartLast30Days
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &Scheduler{syncer: syncer, interval: interval, request: req}
}

// Start begins the periodic sync loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("sync scheduler is already running")
	}
	s.running = true
	s.stopChan = make(chan struct{})

	s.wg.Add(1)
	go s.loop(ctx, s.stopChan)

	log := logging.WithComponent("sync-scheduler")
	log.Info().Dur("interval", s.interval).Str("start_date", s.request.StartDate).Msg("Sync scheduler started")
	return nil
}

// Stop ends the loop and waits for a sync in flight to return.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return fmt.Errorf("sync scheduler is not running")
	}
	s.running = false
	close(s.stopChan)
	s.mu.Unlock()

	s.wg.Wait()
	log := logging.WithComponent("sync-scheduler")
	log.Info().Msg("Sync scheduler stopped")
	return nil
}

func (s *Scheduler) loop(ctx context.Context, stop <-chan struct{}) {
	defer s.wg.Done()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-runCtx.Done():
		}
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.RunOnce(runCtx)
		select {
		case <-runCtx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce performs one scheduled sync. Failures are logged; the next tick
// tries again.
func (s *Scheduler) RunOnce(ctx context.Context) {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	log := logging.Ctx(ctx)

	if _, err := s.syncer.SyncProperties(ctx); err != nil && !errors.Is(err, ErrSyncInProgress) {
		log.Warn().Err(err).Msg("Scheduled property sync failed")
	}

	_, err := s.syncer.SyncReservations(ctx, s.request)
	switch {
	case err == nil:
	case errors.Is(err, ErrSyncInProgress):
		log.Debug().Msg("Skipping scheduled reservation sync, another sync is running")
	case errors.Is(err, context.Canceled):
	default:
		log.Warn().Err(err).Msg("Scheduled reservation sync failed")
	}
}
