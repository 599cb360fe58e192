// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package guest

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/guestlink/internal/models"
	"github.com/tomtom215/guestlink/internal/store"
)

const reservationSKPrefix = "RES#"

func guestReservationKey(guestID, reservationID string) store.Key {
	return store.K(guestPKPrefix+guestID, reservationSKPrefix+reservationID)
}

// EnsureGuestReservation writes the (guest, reservation) index row if it is
// not there yet and reports whether it was written.
func (s *Store) EnsureGuestReservation(ctx context.Context, guestID string, res *models.Reservation) (bool, error) {
	created, err := s.db.PutIfAbsent(ctx, guestReservationKey(guestID, res.ID), models.GuestReservation{
		GuestID:       guestID,
		ReservationID: res.ID,
		PropertyID:    res.PropertyID,
		ArrivalDate:   res.ArrivalDate,
		CreatedAt:     s.now().UTC(),
	})
	if err != nil {
		return false, fmt.Errorf("index reservation %s for guest %s: %w", res.ID, guestID, err)
	}
	return created, nil
}

// Reservations lists the index rows of one guest, newest arrival first.
func (s *Store) Reservations(ctx context.Context, guestID string) ([]models.GuestReservation, error) {
	var out []models.GuestReservation
	err := s.db.Scan(ctx, store.Partition(guestPKPrefix+guestID), func(k store.Key, v []byte) error {
		if !strings.HasPrefix(k.SK, reservationSKPrefix) {
			return nil
		}
		var row models.GuestReservation
		if err := json.Unmarshal(v, &row); err != nil {
			return fmt.Errorf("decode %s: %w", k, err)
		}
		out = append(out, row)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list reservations of guest %s: %w", guestID, err)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ArrivalDate > out[j].ArrivalDate
	})
	return out, nil
}
