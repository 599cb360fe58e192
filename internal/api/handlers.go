// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package api

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/guestlink/internal/config"
	"github.com/tomtom215/guestlink/internal/models"
)

// GuestStore is the guest data the API reads and edits. *guest.Store
// implements it.
type GuestStore interface {
	Get(ctx context.Context, guestID string) (*models.GuestProfile, error)
	List(ctx context.Context) ([]*models.GuestProfile, error)
	UpdateHostNotes(ctx context.Context, guestID, notes string) (*models.GuestProfile, error)
	Reservations(ctx context.Context, guestID string) ([]models.GuestReservation, error)
}

// ReservationStore is the reservation data the API reads.
// *reservation.Repository implements it.
type ReservationStore interface {
	List(ctx context.Context) ([]*models.Reservation, error)
	FindByID(ctx context.Context, reservationID string) (*models.Reservation, error)
	ByConversation(ctx context.Context, conversationID string) ([]*models.Reservation, error)
	ForGuest(ctx context.Context, rows []models.GuestReservation) ([]*models.Reservation, error)
	DeletePartition(ctx context.Context, propertyID string) (int, error)
}

// SyncManager runs on-demand syncs. *sync.Manager implements it.
type SyncManager interface {
	SyncProperties(ctx context.Context) (int, error)
	SyncReservations(ctx context.Context, req models.SyncRequest) (*models.SyncResult, error)
	LastSync() (time.Time, *models.SyncResult)
}

// BackfillRunner re-enqueues stored reservations. *sync.Backfill implements it.
type BackfillRunner interface {
	Run(ctx context.Context, req models.BackfillRequest) (*models.BackfillResult, error)
}

// BatchProcessor links a batch of queue messages and returns the UUIDs of
// the ones that failed. *eventprocessor.Driver implements it.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, msgs []*message.Message) []string
}

// BreakerReporter exposes the queue publisher's circuit breaker state.
// *eventprocessor.Publisher implements it.
type BreakerReporter interface {
	BreakerState() string
}

// Dependencies wires the handler to the rest of the application. Sync,
// Backfill, Batch and Publisher may be nil; their endpoints then answer 503.
type Dependencies struct {
	Guests       GuestStore
	Reservations ReservationStore
	Sync         SyncManager
	Backfill     BackfillRunner
	Batch        BatchProcessor
	Publisher    message.Publisher
	WebhookTopic string
	Config       *config.Config
}

// Handler contains dependencies for API handlers
//
// Handler methods are split across multiple files:
//   - handlers.go: Handler struct and constructor (this file)
//   - handlers_helpers.go: response and decoding helpers
//   - handlers_guests.go: guest and conversation endpoints
//   - handlers_reservations.go: reservation endpoints
//   - handlers_admin.go: sync, backfill, batch link and cleanup endpoints
//   - handlers_webhook.go: signed webhook receiver
//   - handlers_health.go: health endpoint
type Handler struct {
	guests       GuestStore
	reservations ReservationStore
	sync         SyncManager
	backfill     BackfillRunner
	batch        BatchProcessor
	publisher    message.Publisher
	webhookTopic string
	config       *config.Config
	startTime    time.Time
}

// NewHandler creates a new API handler.
func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		guests:       deps.Guests,
		reservations: deps.Reservations,
		sync:         deps.Sync,
		backfill:     deps.Backfill,
		batch:        deps.Batch,
		publisher:    deps.Publisher,
		webhookTopic: deps.WebhookTopic,
		config:       deps.Config,
		startTime:    time.Now(),
	}
}
