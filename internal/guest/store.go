// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package guest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/guestlink/internal/models"
	"github.com/tomtom215/guestlink/internal/store"
)

// ErrGuestNotFound is returned by operations that require an existing profile.
var ErrGuestNotFound = errors.New("guest not found")

const (
	guestPKPrefix = "GUEST#"
	profileSK     = "PROFILE"
)

// Store reads and writes guest profiles and the guest to reservation index.
// Profiles are never replaced wholesale: Create is write-if-absent and
// MergeInto is a transactional accumulate.
type Store struct {
	db  *store.Store
	now func() time.Time
}

// NewStore returns a guest store backed by db.
func NewStore(db *store.Store) *Store {
	return &Store{db: db, now: time.Now}
}

func profileKey(guestID string) store.Key {
	return store.K(guestPKPrefix+guestID, profileSK)
}

// Create inserts p if no profile with its id exists. It reports whether the
// profile was written; an existing profile is left untouched.
func (s *Store) Create(ctx context.Context, p *models.GuestProfile) (bool, error) {
	if p.GuestID == "" {
		return false, errors.New("create guest: empty guest id")
	}
	now := s.now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	p.Emails = dedup(p.Emails)
	p.PhoneNumbers = dedup(p.PhoneNumbers)
	p.ReservationIDs = dedup(p.ReservationIDs)

	created, err := s.db.PutIfAbsent(ctx, profileKey(p.GuestID), p)
	if err != nil {
		return false, fmt.Errorf("create guest %s: %w", p.GuestID, err)
	}
	return created, nil
}

// MergeInto folds patch into the guest's profile and returns the result.
//
// Scalars are fill-if-missing. Sets are unioned and deduplicated, which also
// clears any duplicates left by earlier writers. UpdatedAt moves forward on
// every call and HostNotes is never touched. A missing profile is created
// first, so merges that overtake the creator's insert are not lost.
func (s *Store) MergeInto(ctx context.Context, guestID string, patch models.GuestPatch) (*models.GuestProfile, error) {
	start := time.Now()
	var merged *models.GuestProfile

	err := store.UpdateJSON(ctx, s.db, profileKey(guestID), func(cur *models.GuestProfile) (*models.GuestProfile, error) {
		now := s.now().UTC()
		if cur == nil {
			cur = &models.GuestProfile{GuestID: guestID, CreatedAt: now}
		}

		cur.FirstName = fillIfMissing(cur.FirstName, patch.FirstName)
		cur.LastName = fillIfMissing(cur.LastName, patch.LastName)
		cur.Location = fillIfMissing(cur.Location, patch.Location)
		cur.Emails = union(cur.Emails, patch.Emails)
		cur.PhoneNumbers = union(cur.PhoneNumbers, patch.PhoneNumbers)
		cur.ReservationIDs = union(cur.ReservationIDs, patch.ReservationIDs)
		if patch.ArrivalDate > cur.LastArrivalDate {
			cur.LastArrivalDate = patch.ArrivalDate
		}
		cur.UpdatedAt = later(cur.UpdatedAt, now)

		merged = cur
		return cur, nil
	})
	mergeDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("merge into guest %s: %w", guestID, err)
	}
	return merged, nil
}

// Get returns the profile, or nil when it does not exist.
func (s *Store) Get(ctx context.Context, guestID string) (*models.GuestProfile, error) {
	var p models.GuestProfile
	found, err := s.db.Get(ctx, profileKey(guestID), &p)
	if err != nil {
		return nil, fmt.Errorf("get guest %s: %w", guestID, err)
	}
	if !found {
		return nil, nil
	}
	return &p, nil
}

// List returns every profile, most recently updated first.
func (s *Store) List(ctx context.Context) ([]*models.GuestProfile, error) {
	var out []*models.GuestProfile
	err := s.db.Scan(ctx, store.PKPrefix(guestPKPrefix), func(k store.Key, v []byte) error {
		if k.SK != profileSK {
			return nil
		}
		var p models.GuestProfile
		if err := json.Unmarshal(v, &p); err != nil {
			return fmt.Errorf("decode %s: %w", k, err)
		}
		out = append(out, &p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list guests: %w", err)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// UpdateHostNotes replaces the host's notes. It is the only writer of HostNotes.
func (s *Store) UpdateHostNotes(ctx context.Context, guestID, notes string) (*models.GuestProfile, error) {
	var updated *models.GuestProfile
	err := store.UpdateJSON(ctx, s.db, profileKey(guestID), func(cur *models.GuestProfile) (*models.GuestProfile, error) {
		if cur == nil {
			return nil, ErrGuestNotFound
		}
		cur.HostNotes = notes
		cur.UpdatedAt = later(cur.UpdatedAt, s.now().UTC())
		updated = cur
		return cur, nil
	})
	if err != nil {
		return nil, fmt.Errorf("update host notes for %s: %w", guestID, err)
	}
	return updated, nil
}

func fillIfMissing(cur, v string) string {
	if cur != "" {
		return cur
	}
	return v
}

func later(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}

// union appends the values of add missing from cur and deduplicates the
// result. The result is never nil.
func union(cur, add []string) []string {
	out := make([]string, 0, len(cur)+len(add))
	seen := make(map[string]struct{}, len(cur)+len(add))
	for _, list := range [][]string{cur, add} {
		for _, v := range list {
			if v == "" {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

func dedup(vs []string) []string {
	return union(vs, nil)
}
