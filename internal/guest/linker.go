// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package guest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/guestlink/internal/logging"
	"github.com/tomtom215/guestlink/internal/models"
)

// ErrIncompleteReservation is returned by Link for a reservation without an
// id or property id. Retrying cannot fix it.
var ErrIncompleteReservation = errors.New("link: reservation id and property id are required")

// Identity paths reported in LinkResult.Path and the links metric.
const (
	PathEmail  = "email"
	PathPhone  = "phone"
	PathReplay = "replay"
	PathOrphan = "orphan"
)

// ReservationPointer reads and writes the guest back-pointer on stored
// reservations. internal/reservation.Repository implements it.
type ReservationPointer interface {
	// GuestIDFor returns the stored back-pointer, or "" if the reservation is
	// unknown or unlinked.
	GuestIDFor(ctx context.Context, propertyID, reservationID string) (string, error)

	// SetGuestIfAbsent sets the back-pointer unless one exists and returns the
	// pointer now stored. A reservation that is not stored yet is inserted.
	SetGuestIfAbsent(ctx context.Context, res *models.Reservation, guestID string) (string, error)
}

// LinkResult describes one completed link.
type LinkResult struct {
	GuestID string
	Path    string

	// Created is true when this call claimed the identity (or minted the
	// orphan) and therefore owns the profile it created.
	Created bool

	// Pointer is the reservation's back-pointer after the link. It differs
	// from GuestID only when the reservation was linked earlier through a
	// different identity; GuestID then receives the contact data but not the
	// reservation itself.
	Pointer string
}

// Linker assigns reservations to guests. It holds no per-reservation state;
// any number of Linkers may run concurrently against one store, coordinating
// only through identity claims.
type Linker struct {
	identities   *IdentityIndex
	guests       *Store
	reservations ReservationPointer
	newID        func() string
}

// NewLinker wires a linker.
func NewLinker(identities *IdentityIndex, guests *Store, reservations ReservationPointer) *Linker {
	return &Linker{
		identities:   identities,
		guests:       guests,
		reservations: reservations,
		newID:        uuid.NewString,
	}
}

// Link resolves the guest that owns res, merges res's contact data into that
// guest and records the association. Calling Link again with the same
// reservation converges on the same guest and writes nothing new.
func (l *Linker) Link(ctx context.Context, res *models.Reservation) (*LinkResult, error) {
	if res == nil || res.ID == "" || res.PropertyID == "" {
		return nil, ErrIncompleteReservation
	}
	start := time.Now()
	defer func() { linkDuration.Observe(time.Since(start).Seconds()) }()

	email := NormalizeEmail(res.Guest.Email)
	phones := NormalizePhones(res.Guest.PhoneNumbers)

	result, err := l.resolve(ctx, res, email, phones)
	if err != nil {
		linkErrors.WithLabelValues("resolve").Inc()
		return nil, err
	}

	// The back-pointer is settled before any profile write so that only its
	// owner ever lists the reservation. MergeInto upserts, so a redelivery
	// after a crash between these steps still creates the profile.
	pointer, err := l.reservations.SetGuestIfAbsent(ctx, res, result.GuestID)
	if err != nil {
		linkErrors.WithLabelValues("back_pointer").Inc()
		return nil, fmt.Errorf("set back-pointer on %s: %w", res.ID, err)
	}
	result.Pointer = pointer
	owner := pointer == result.GuestID
	if !owner {
		logging.Ctx(ctx).Warn().
			Str("reservation_id", res.ID).
			Str("guest_id", result.GuestID).
			Str("existing_guest_id", pointer).
			Msg("Reservation already points at another guest; merging contact data only")
	}

	if result.Created {
		if _, err := l.guests.Create(ctx, &models.GuestProfile{GuestID: result.GuestID}); err != nil {
			linkErrors.WithLabelValues("create").Inc()
			return nil, err
		}
	}

	patch := models.GuestPatch{
		FirstName:    res.Guest.FirstName,
		LastName:     res.Guest.LastName,
		Location:     res.Guest.Location,
		PhoneNumbers: phones,
	}
	if email != "" {
		patch.Emails = []string{email}
	}
	if owner {
		patch.ReservationIDs = []string{res.ID}
		patch.ArrivalDate = res.ArrivalDate
	}
	if _, err := l.guests.MergeInto(ctx, result.GuestID, patch); err != nil {
		linkErrors.WithLabelValues("merge").Inc()
		return nil, err
	}

	if err := l.ensureIndexes(ctx, res, result.GuestID, owner, email, phones); err != nil {
		linkErrors.WithLabelValues("index").Inc()
		return nil, err
	}

	linksTotal.WithLabelValues(result.Path).Inc()
	logging.Ctx(ctx).Debug().
		Str("reservation_id", res.ID).
		Str("property_id", res.PropertyID).
		Str("guest_id", result.GuestID).
		Str("path", result.Path).
		Bool("created", result.Created).
		Msg("Reservation linked")
	return result, nil
}

// resolve picks the owning guest: email claim, else first phone claim, else
// an existing back-pointer, else a new orphan guest.
func (l *Linker) resolve(ctx context.Context, res *models.Reservation, email string, phones []string) (*LinkResult, error) {
	candidate := l.newID()

	switch {
	case email != "":
		id, won, err := l.identities.ClaimOrResolve(ctx, models.IdentityEmail, email, candidate)
		if err != nil {
			return nil, err
		}
		return &LinkResult{GuestID: id, Path: PathEmail, Created: won}, nil

	case len(phones) > 0:
		id, won, err := l.identities.ClaimOrResolve(ctx, models.IdentityPhone, phones[0], candidate)
		if err != nil {
			return nil, err
		}
		return &LinkResult{GuestID: id, Path: PathPhone, Created: won}, nil
	}

	if res.GuestID != "" {
		return &LinkResult{GuestID: res.GuestID, Path: PathReplay}, nil
	}
	stored, err := l.reservations.GuestIDFor(ctx, res.PropertyID, res.ID)
	if err != nil {
		return nil, fmt.Errorf("read back-pointer of %s: %w", res.ID, err)
	}
	if stored != "" {
		return &LinkResult{GuestID: stored, Path: PathReplay}, nil
	}

	// Concurrent deliveries of the same reservation race on the back-pointer;
	// only the winner mints an orphan.
	pointer, err := l.reservations.SetGuestIfAbsent(ctx, res, candidate)
	if err != nil {
		return nil, fmt.Errorf("claim orphan back-pointer of %s: %w", res.ID, err)
	}
	if pointer != candidate {
		return &LinkResult{GuestID: pointer, Path: PathReplay}, nil
	}
	return &LinkResult{GuestID: candidate, Path: PathOrphan, Created: true}, nil
}

// ensureIndexes writes any claims not yet persisted for this guest and, when
// the guest owns the reservation, the reverse index row. Claims owned by
// other guests are left alone.
func (l *Linker) ensureIndexes(ctx context.Context, res *models.Reservation, guestID string, owner bool, email string, phones []string) error {
	if owner {
		if _, err := l.guests.EnsureGuestReservation(ctx, guestID, res); err != nil {
			return err
		}
	}
	if email != "" {
		if _, err := l.identities.EnsureClaim(ctx, models.IdentityEmail, email, guestID); err != nil {
			return err
		}
	}
	for _, p := range phones {
		if _, err := l.identities.EnsureClaim(ctx, models.IdentityPhone, p, guestID); err != nil {
			return err
		}
	}
	return nil
}
