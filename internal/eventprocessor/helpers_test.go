// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package eventprocessor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/tomtom215/guestlink/internal/guest"
	"github.com/tomtom215/guestlink/internal/models"
	"github.com/tomtom215/guestlink/internal/reservation"
	"github.com/tomtom215/guestlink/internal/store"
)

// recordingPublisher keeps published messages in memory.
type recordingPublisher struct {
	mu        sync.Mutex
	published map[string][]*message.Message
	calls     int
	err       error
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{published: make(map[string][]*message.Message)}
}

func (p *recordingPublisher) Publish(topic string, msgs ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return p.err
	}
	p.published[topic] = append(p.published[topic], msgs...)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) messages(topic string) []*message.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*message.Message(nil), p.published[topic]...)
}

// linkEnv is a real linker over an in-memory store.
type linkEnv struct {
	db     *store.Store
	repo   *reservation.Repository
	guests *guest.Store
	linker *guest.Linker
}

func newLinkEnv(t *testing.T) *linkEnv {
	t.Helper()
	db, err := store.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := reservation.NewRepository(db)
	guests := guest.NewStore(db)
	return &linkEnv{
		db:     db,
		repo:   repo,
		guests: guests,
		linker: guest.NewLinker(guest.NewIdentityIndex(db), guests, repo),
	}
}

func testReservation(id, email string) *models.Reservation {
	return &models.Reservation{
		ID:          id,
		PropertyID:  "prop-1",
		ArrivalDate: "2024-08-01",
		Guest: models.ReservationGuest{
			FirstName: "Grace",
			LastName:  "Hopper",
			Email:     email,
		},
	}
}

func linkPayload(t *testing.T, typ MessageType, res *models.Reservation) []byte {
	t.Helper()
	b, err := json.Marshal(LinkMessage{Type: typ, Reservation: res})
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// fakeLinker returns canned results per reservation id.
type fakeLinker struct {
	mu    sync.Mutex
	calls map[string]int
	errs  map[string]error
	panic map[string]bool
}

func newFakeLinker() *fakeLinker {
	return &fakeLinker{calls: map[string]int{}, errs: map[string]error{}, panic: map[string]bool{}}
}

func (f *fakeLinker) Link(_ context.Context, res *models.Reservation) (*guest.LinkResult, error) {
	f.mu.Lock()
	f.calls[res.ID]++
	err, shouldPanic := f.errs[res.ID], f.panic[res.ID]
	f.mu.Unlock()
	if shouldPanic {
		panic("linker exploded")
	}
	if err != nil {
		return nil, err
	}
	return &guest.LinkResult{GuestID: "g-" + res.ID, Path: guest.PathEmail, Pointer: "g-" + res.ID}, nil
}

func (f *fakeLinker) callCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}
