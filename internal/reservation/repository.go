// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/guestlink/internal/models"
	"github.com/tomtom215/guestlink/internal/store"
)

// ErrNotFound is returned by Get for unknown reservations.
var ErrNotFound = errors.New("reservation not found")

const reservationPKPrefix = "RES#"

func reservationKey(propertyID, reservationID string) store.Key {
	return store.K(reservationPKPrefix+propertyID, reservationID)
}

// Repository stores reservations partitioned by property, together with the
// conversation index and property rows.
type Repository struct {
	db  *store.Store
	now func() time.Time
}

// NewRepository returns a repository backed by db.
func NewRepository(db *store.Store) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Upsert replaces the stored attributes of res. An existing guest back-pointer
// and the original CreatedAt survive the replace.
func (r *Repository) Upsert(ctx context.Context, res *models.Reservation) (*models.Reservation, error) {
	var saved *models.Reservation
	err := store.UpdateJSON(ctx, r.db, reservationKey(res.PropertyID, res.ID), func(cur *models.Reservation) (*models.Reservation, error) {
		now := r.now().UTC()
		next := *res
		next.CreatedAt = now
		if cur != nil {
			if !cur.CreatedAt.IsZero() {
				next.CreatedAt = cur.CreatedAt
			}
			if cur.GuestID != "" {
				next.GuestID = cur.GuestID
			}
		}
		next.UpdatedAt = now
		saved = &next
		return &next, nil
	})
	if err != nil {
		return nil, fmt.Errorf("upsert reservation %s: %w", res.ID, err)
	}
	return saved, nil
}

// Get returns the stored reservation or ErrNotFound.
func (r *Repository) Get(ctx context.Context, propertyID, reservationID string) (*models.Reservation, error) {
	var res models.Reservation
	found, err := r.db.Get(ctx, reservationKey(propertyID, reservationID), &res)
	if err != nil {
		return nil, fmt.Errorf("get reservation %s: %w", reservationID, err)
	}
	if !found {
		return nil, ErrNotFound
	}
	return &res, nil
}

// GuestIDFor returns the back-pointer of a stored reservation, or "" when the
// reservation is unknown or not linked yet.
func (r *Repository) GuestIDFor(ctx context.Context, propertyID, reservationID string) (string, error) {
	res, err := r.Get(ctx, propertyID, reservationID)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return res.GuestID, nil
}

// SetGuestIfAbsent writes guestID as the back-pointer unless one is already
// set, and returns the pointer that is stored afterwards. A reservation that
// has not been stored yet is inserted from res.
func (r *Repository) SetGuestIfAbsent(ctx context.Context, res *models.Reservation, guestID string) (string, error) {
	pointer := guestID
	err := store.UpdateJSON(ctx, r.db, reservationKey(res.PropertyID, res.ID), func(cur *models.Reservation) (*models.Reservation, error) {
		now := r.now().UTC()
		if cur == nil {
			next := *res
			next.CreatedAt, next.UpdatedAt = now, now
			if next.GuestID == "" {
				next.GuestID = guestID
			}
			pointer = next.GuestID
			return &next, nil
		}
		if cur.GuestID != "" {
			pointer = cur.GuestID
			return nil, nil
		}
		cur.GuestID = guestID
		cur.UpdatedAt = now
		pointer = guestID
		return cur, nil
	})
	if err != nil {
		return "", fmt.Errorf("set guest on reservation %s: %w", res.ID, err)
	}
	return pointer, nil
}

// Scan calls fn for every stored reservation.
func (r *Repository) Scan(ctx context.Context, fn func(*models.Reservation) error) error {
	return r.db.Scan(ctx, store.PKPrefix(reservationPKPrefix), func(k store.Key, v []byte) error {
		var res models.Reservation
		if err := json.Unmarshal(v, &res); err != nil {
			return fmt.Errorf("decode %s: %w", k, err)
		}
		return fn(&res)
	})
}

// List returns every stored reservation ordered by property and id.
func (r *Repository) List(ctx context.Context) ([]*models.Reservation, error) {
	var out []*models.Reservation
	if err := r.Scan(ctx, func(res *models.Reservation) error {
		out = append(out, res)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	r.fillPropertyNames(ctx, out)
	return out, nil
}

var errStopScan = errors.New("stop scan")

// FindByID returns the first reservation with the given id in any property
// partition. Ids are only unique per property; callers that know the
// property use Get.
func (r *Repository) FindByID(ctx context.Context, reservationID string) (*models.Reservation, error) {
	var found *models.Reservation
	err := r.Scan(ctx, func(res *models.Reservation) error {
		if res.ID != reservationID {
			return nil
		}
		found = res
		return errStopScan
	})
	if err != nil && !errors.Is(err, errStopScan) {
		return nil, fmt.Errorf("find reservation %s: %w", reservationID, err)
	}
	if found == nil {
		return nil, ErrNotFound
	}
	r.fillPropertyNames(ctx, []*models.Reservation{found})
	return found, nil
}

// ScanUnlinked calls fn for every stored reservation without a guest.
func (r *Repository) ScanUnlinked(ctx context.Context, fn func(*models.Reservation) error) error {
	return r.Scan(ctx, func(res *models.Reservation) error {
		if res.GuestID != "" {
			return nil
		}
		return fn(res)
	})
}

// ForGuest loads the reservations referenced by a guest's index rows.
// Rows whose reservation has since been deleted are skipped.
func (r *Repository) ForGuest(ctx context.Context, rows []models.GuestReservation) ([]*models.Reservation, error) {
	out := make([]*models.Reservation, 0, len(rows))
	for _, row := range rows {
		res, err := r.Get(ctx, row.PropertyID, row.ReservationID)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

// DeletePartition removes every reservation of one property. It exists to
// clear the legacy UNKNOWN partition.
func (r *Repository) DeletePartition(ctx context.Context, propertyID string) (int, error) {
	n, err := r.db.DeletePrefix(ctx, store.Partition(reservationPKPrefix+propertyID))
	if err != nil {
		return 0, fmt.Errorf("delete reservations of %s: %w", propertyID, err)
	}
	return n, nil
}
