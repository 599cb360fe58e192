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
	"github.com/tomtom215/guestlink/internal/eventprocessor"
	"github.com/tomtom215/guestlink/internal/hospitable"
	"github.com/tomtom215/guestlink/internal/logging"
	"github.com/tomtom215/guestlink/internal/metrics"
	"github.com/tomtom215/guestlink/internal/models"
	"github.com/tomtom215/guestlink/internal/validation"
)

// Operation labels for sync metrics.
const (
	OperationProperties   = "properties"
	OperationReservations = "reservations"
	OperationBackfill     = "backfill"
)

var (
	// ErrNoProperties is returned when neither the request nor the store
	// names a property to sync.
	ErrNoProperties = errors.New("no properties found")

	// ErrSyncInProgress is returned when a sync of the same kind is running.
	ErrSyncInProgress = errors.New("sync already in progress")
)

// Source is the upstream API. *hospitable.Client implements it.
type Source interface {
	ListProperties(ctx context.Context) ([]hospitable.Property, error)
	ForEachReservationPage(ctx context.Context, q hospitable.ReservationsQuery, fn func(page int, rows []hospitable.Reservation) error) error
}

// Repository is the reservation storage sync writes through.
// *reservation.Repository implements it.
type Repository interface {
	Upsert(ctx context.Context, res *models.Reservation) (*models.Reservation, error)
	EnsureConversationIndex(ctx context.Context, res *models.Reservation) (bool, error)
	PutProperty(ctx context.Context, p *models.Property) error
	ListPropertyIDs(ctx context.Context) ([]string, error)
	Scan(ctx context.Context, fn func(*models.Reservation) error) error
	ScanUnlinked(ctx context.Context, fn func(*models.Reservation) error) error
}

// GuestIndex maintains the guest to reservation index. *guest.Store
// implements it.
type GuestIndex interface {
	EnsureGuestReservation(ctx context.Context, guestID string, res *models.Reservation) (bool, error)
}

// LinkEnqueuer publishes link messages. *eventprocessor.Enqueuer
// implements it.
type LinkEnqueuer interface {
	Enqueue(ctx context.Context, t eventprocessor.MessageType, reservations []*models.Reservation) (eventprocessor.EnqueueResult, error)
}

// Manager runs property and reservation syncs.
type Manager struct {
	source   Source
	repo     Repository
	guests   GuestIndex
	enqueuer LinkEnqueuer
	cfg      config.SyncConfig
	now      func() time.Time

	syncMu sync.Mutex // one reservation sync at a time
	propMu sync.Mutex // one property sync at a time

	mu         sync.RWMutex
	lastSync   time.Time
	lastResult *models.SyncResult
}

// NewManager creates a sync manager.
func NewManager(source Source, repo Repository, guests GuestIndex, enqueuer LinkEnqueuer, cfg *config.SyncConfig) *Manager {
	c := *cfg
	if c.PropertyChunkSize <= 0 {
		c.PropertyChunkSize = 10
	}
	return &Manager{
		source:   source,
		repo:     repo,
		guests:   guests,
		enqueuer: enqueuer,
		cfg:      c,
		now:      time.Now,
	}
}

// SyncProperties fetches every property and stores it. It returns the number
// of properties stored.
func (m *Manager) SyncProperties(ctx context.Context) (n int, err error) {
	if !m.propMu.TryLock() {
		return 0, ErrSyncInProgress
	}
	defer m.propMu.Unlock()

	start := time.Now()
	defer func() { metrics.RecordSyncOperation(OperationProperties, time.Since(start), err) }()

	props, err := m.source.ListProperties(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch hospitable properties: %w", err)
	}

	for i := range props {
		p := hospitable.MapProperty(&props[i])
		if verr := validation.Struct(p); verr != nil {
			metrics.SyncRecordsProcessed.WithLabelValues(OperationProperties, "skipped").Inc()
			logging.Ctx(ctx).Warn().Err(verr).Str("property_id", p.ID).Msg("Skipping invalid property")
			continue
		}
		if err := m.repo.PutProperty(ctx, p); err != nil {
			return n, err
		}
		metrics.SyncRecordsProcessed.WithLabelValues(OperationProperties, "stored").Inc()
		n++
	}

	logging.Ctx(ctx).Info().Int("properties", n).Dur("duration", time.Since(start)).Msg("Property sync completed")
	return n, nil
}

// SyncReservations pulls reservations for the requested properties, or the
// configured ones, or every stored property, in chunks, and enqueues the
// unlinked ones for linking. An empty start date means DefaultStartDate.
func (m *Manager) SyncReservations(ctx context.Context, req models.SyncRequest) (result *models.SyncResult, err error) {
	if !m.syncMu.TryLock() {
		return nil, ErrSyncInProgress
	}
	defer m.syncMu.Unlock()

	start := time.Now()
	defer func() { metrics.RecordSyncOperation(OperationReservations, time.Since(start), err) }()

	window, err := ResolveWindow(m.now(), req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	propertyIDs, err := m.propertyIDs(ctx, req.PropertyIDs)
	if err != nil {
		return nil, err
	}

	result = &models.SyncResult{Properties: len(propertyIDs)}
	log := logging.Ctx(ctx).With().
		Str("start_date", window.Start).
		Str("end_date", window.End).
		Int("properties", len(propertyIDs)).
		Logger()
	log.Info().Msg("Reservation sync started")

	for i := 0; i < len(propertyIDs); i += m.cfg.PropertyChunkSize {
		chunk := propertyIDs[i:min(i+m.cfg.PropertyChunkSize, len(propertyIDs))]
		q := hospitable.ReservationsQuery{
			PropertyIDs: chunk,
			StartDate:   window.Start,
			EndDate:     window.End,
		}
		err := m.source.ForEachReservationPage(ctx, q, func(_ int, rows []hospitable.Reservation) error {
			result.Pages++
			return m.processPage(ctx, rows, result)
		})
		if err != nil {
			return result, fmt.Errorf("sync reservations for properties %d-%d: %w", i, i+len(chunk)-1, err)
		}
	}

	m.mu.Lock()
	m.lastSync = m.now()
	m.lastResult = result
	m.mu.Unlock()

	log.Info().
		Int("pages", result.Pages).
		Int("upserted", result.Upserted).
		Int("skipped", result.Skipped).
		Int("enqueued", result.Enqueued).
		Int("already_linked", result.AlreadyLinked).
		Dur("duration", time.Since(start)).
		Msg("Reservation sync completed")
	return result, nil
}

func (m *Manager) propertyIDs(ctx context.Context, requested []string) ([]string, error) {
	ids := make([]string, 0, len(requested))
	for _, id := range requested {
		if id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		ids = append(ids, m.cfg.PropertyIDs...)
	}
	if len(ids) == 0 {
		stored, err := m.repo.ListPropertyIDs(ctx)
		if err != nil {
			return nil, err
		}
		ids = stored
	}
	if len(ids) == 0 {
		return nil, ErrNoProperties
	}
	return ids, nil
}

// processPage stores one page and enqueues what still lacks a guest.
func (m *Manager) processPage(ctx context.Context, rows []hospitable.Reservation, result *models.SyncResult) error {
	toLink := make([]*models.Reservation, 0, len(rows))

	for i := range rows {
		res := hospitable.MapReservation(&rows[i])
		if err := validation.Struct(res); err != nil {
			result.Skipped++
			metrics.SyncRecordsProcessed.WithLabelValues(OperationReservations, "skipped").Inc()
			logging.Ctx(ctx).Warn().Err(err).Str("reservation_id", res.ID).Msg("Skipping invalid reservation")
			continue
		}

		stored, err := m.repo.Upsert(ctx, res)
		if err != nil {
			return err
		}
		result.Upserted++
		metrics.SyncRecordsProcessed.WithLabelValues(OperationReservations, "upserted").Inc()

		if _, err := m.repo.EnsureConversationIndex(ctx, stored); err != nil {
			return err
		}

		if stored.GuestID != "" {
			if _, err := m.guests.EnsureGuestReservation(ctx, stored.GuestID, stored); err != nil {
				return err
			}
			result.AlreadyLinked++
			continue
		}
		toLink = append(toLink, stored)
	}

	if len(toLink) == 0 {
		return nil
	}
	enq, err := m.enqueuer.Enqueue(ctx, eventprocessor.MessageTypeBackfillReservation, toLink)
	result.Enqueued += enq.Published
	if err != nil {
		return fmt.Errorf("publish link messages: %w", err)
	}
	return nil
}

// LastSync returns the completion time and counts of the last successful
// reservation sync. The result is nil before the first one.
func (m *Manager) LastSync() (time.Time, *models.SyncResult) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastSync, m.lastResult
}
