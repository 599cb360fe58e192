// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package sync

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/guestlink/internal/config"
	"github.com/tomtom215/guestlink/internal/eventprocessor"
	"github.com/tomtom215/guestlink/internal/guest"
	"github.com/tomtom215/guestlink/internal/hospitable"
	"github.com/tomtom215/guestlink/internal/reservation"
	"github.com/tomtom215/guestlink/internal/store"
)

// fixedNow is the clock used by tests that resolve date windows.
var fixedNow = time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC)

type recordingPublisher struct {
	mu    sync.Mutex
	msgs  []*message.Message
	calls int
	err   error
}

func (p *recordingPublisher) Publish(_ string, msgs ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msgs...)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

// reservationIDs decodes every published link message.
func (p *recordingPublisher) reservationIDs(t *testing.T) []string {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]string, 0, len(p.msgs))
	for _, m := range p.msgs {
		lm, err := eventprocessor.DecodeLinkMessage(m.Payload)
		if err != nil {
			t.Fatalf("published message does not decode: %v", err)
		}
		if lm.Type != eventprocessor.MessageTypeBackfillReservation {
			t.Errorf("message type = %s", lm.Type)
		}
		ids = append(ids, lm.Reservation.ID)
	}
	return ids
}

// fakeSource serves canned upstream data. Each chunk yields one page holding
// the reservations of its properties.
type fakeSource struct {
	mu           sync.Mutex
	props        []hospitable.Property
	reservations map[string][]hospitable.Reservation
	queries      []hospitable.ReservationsQuery
	err          error
	block        chan struct{}
}

func (f *fakeSource) ListProperties(context.Context) ([]hospitable.Property, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.props, nil
}

func (f *fakeSource) ForEachReservationPage(ctx context.Context, q hospitable.ReservationsQuery, fn func(int, []hospitable.Reservation) error) error {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.err != nil {
		return f.err
	}

	var rows []hospitable.Reservation
	for _, id := range q.PropertyIDs {
		rows = append(rows, f.reservations[id]...)
	}
	if len(rows) == 0 {
		return nil
	}
	return fn(1, rows)
}

func upstreamReservation(id, propertyID, email string) hospitable.Reservation {
	return hospitable.Reservation{
		ID:             id,
		ConversationID: "conv-" + id,
		ArrivalDate:    "2026-04-01 15:00:00",
		Guest:          &hospitable.Guest{FirstName: "Ada", LastName: "Lovelace", Email: email},
		Properties:     []hospitable.PropertyRef{{ID: propertyID, Name: "Cottage " + propertyID}},
	}
}

type syncEnv struct {
	db     *store.Store
	repo   *reservation.Repository
	guests *guest.Store
	pub    *recordingPublisher
	source *fakeSource
	mgr    *Manager
}

func newSyncEnv(t *testing.T, cfg config.SyncConfig) *syncEnv {
	t.Helper()
	db, err := store.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	pub := &recordingPublisher{}
	enq, err := eventprocessor.NewEnqueuer(pub, "guest.link", 10)
	if err != nil {
		t.Fatal(err)
	}

	env := &syncEnv{
		db:     db,
		repo:   reservation.NewRepository(db),
		guests: guest.NewStore(db),
		pub:    pub,
		source: &fakeSource{reservations: map[string][]hospitable.Reservation{}},
	}
	env.mgr = NewManager(env.source, env.repo, env.guests, enq, &cfg)
	env.mgr.now = func() time.Time { return fixedNow }
	return env
}
