// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package models

import "time"

// IdentityKind names the contact attribute an identity value was derived from.
type IdentityKind string

const (
	IdentityEmail IdentityKind = "email"
	IdentityPhone IdentityKind = "phone"
)

// GuestProfile is the canonical record for one physical guest.
//
// Scalar contact fields are fill-if-missing: the first non-empty value
// written wins. Emails, PhoneNumbers and ReservationIDs only ever grow.
// HostNotes is owned by the host and never written by the linker.
type GuestProfile struct {
	GuestID         string    `json:"guestId"`
	FirstName       string    `json:"firstName,omitempty"`
	LastName        string    `json:"lastName,omitempty"`
	Emails          []string  `json:"emails"`
	PhoneNumbers    []string  `json:"phoneNumbers"`
	Location        string    `json:"location,omitempty"`
	ReservationIDs  []string  `json:"reservationIds"`
	LastArrivalDate string    `json:"lastArrivalDate,omitempty"` // YYYY-MM-DD, max over linked reservations
	HostNotes       string    `json:"hostNotes"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// GuestPatch carries the contact data one reservation contributes to a guest.
// Empty strings and nil slices contribute nothing.
type GuestPatch struct {
	FirstName      string
	LastName       string
	Location       string
	Emails         []string
	PhoneNumbers   []string
	ReservationIDs []string
	ArrivalDate    string
}

// IdentityClaim records which guest owns a normalized identity value.
// Claims are write-once.
type IdentityClaim struct {
	Kind      IdentityKind `json:"kind"`
	Value     string       `json:"value"`
	GuestID   string       `json:"guestId"`
	ClaimedAt time.Time    `json:"claimedAt"`
}

// GuestReservation is one row of the guest to reservation reverse index.
type GuestReservation struct {
	GuestID       string    `json:"guestId"`
	ReservationID string    `json:"reservationId"`
	PropertyID    string    `json:"propertyId"`
	ArrivalDate   string    `json:"arrivalDate,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}
