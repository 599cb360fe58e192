// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package guest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/guestlink/internal/models"
	"github.com/tomtom215/guestlink/internal/store"
)

type testEnv struct {
	db         *store.Store
	identities *IdentityIndex
	guests     *Store
	pointers   *memPointers
	linker     *Linker
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := store.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	env := &testEnv{
		db:         db,
		identities: NewIdentityIndex(db),
		guests:     NewStore(db),
		pointers:   &memPointers{rows: make(map[string]*models.Reservation)},
	}
	env.linker = NewLinker(env.identities, env.guests, env.pointers)
	return env
}

// memPointers is a ReservationPointer over a map.
type memPointers struct {
	mu   sync.Mutex
	rows map[string]*models.Reservation
}

func (m *memPointers) GuestIDFor(_ context.Context, propertyID, reservationID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rows[propertyID+"/"+reservationID]; ok {
		return r.GuestID, nil
	}
	return "", nil
}

func (m *memPointers) SetGuestIfAbsent(_ context.Context, res *models.Reservation, guestID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := res.PropertyID + "/" + res.ID
	r, ok := m.rows[key]
	if !ok {
		cp := *res
		r = &cp
		m.rows[key] = r
	}
	if r.GuestID == "" {
		r.GuestID = guestID
	}
	return r.GuestID, nil
}

func (m *memPointers) pointer(propertyID, reservationID string) string {
	id, _ := m.GuestIDFor(context.Background(), propertyID, reservationID)
	return id
}

// fixedClock returns a clock that advances by step on every call.
func fixedClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	cur := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := cur
		cur = cur.Add(step)
		return t
	}
}

func reservation(id string, g models.ReservationGuest) *models.Reservation {
	return &models.Reservation{ID: id, PropertyID: "prop-1", Guest: g}
}
