// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package models

import (
	"time"

	"github.com/goccy/go-json"
)

// UnknownPropertyID is the partition legacy imports used when a reservation
// arrived without a property. Those rows are cleaned up by an admin endpoint.
const UnknownPropertyID = "UNKNOWN"

// Reservation is the normalized reservation record. Every ingestion path
// (webhook, sync, queue message) maps into this one shape and validates it
// before anything is stored or linked.
type Reservation struct {
	ID             string           `json:"id" validate:"required,keysafe,max=128"`
	PropertyID     string           `json:"propertyId" validate:"required,keysafe,max=128"`
	PropertyName   string           `json:"propertyName,omitempty"`
	Guest          ReservationGuest `json:"guest"`
	ArrivalDate    string           `json:"arrival_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DepartureDate  string           `json:"departure_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ConversationID string           `json:"conversation_id,omitempty" validate:"omitempty,keysafe,max=128"`
	LastMessageAt  *time.Time       `json:"last_message_at,omitempty"`
	Platform       string           `json:"platform,omitempty"`
	Nights         int              `json:"nights,omitempty" validate:"min=0"`
	Financials     json.RawMessage  `json:"financials,omitempty"`
	Review         json.RawMessage  `json:"review,omitempty"`

	// GuestID is the back-pointer written once by the linker.
	GuestID string `json:"guestId,omitempty" validate:"omitempty,keysafe"`

	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// ReservationGuest is the contact block embedded in a reservation, exactly as
// the channel reported it. Values are raw; see guest.NormalizeEmail and
// guest.NormalizePhone.
type ReservationGuest struct {
	FirstName    string   `json:"first_name,omitempty"`
	LastName     string   `json:"last_name,omitempty"`
	Email        string   `json:"email,omitempty"`
	PhoneNumbers []string `json:"phone_numbers,omitempty"`
	Location     string   `json:"location,omitempty"`
}

// ConversationRef maps a messaging conversation to the reservation it belongs to.
type ConversationRef struct {
	ConversationID string `json:"conversationId"`
	ReservationID  string `json:"reservationId"`
	PropertyID     string `json:"propertyId"`
}

// Property is a rental listing.
type Property struct {
	ID         string          `json:"id" validate:"required,keysafe,max=128"`
	Name       string          `json:"name"`
	PublicName string          `json:"public_name,omitempty"`
	Timezone   string          `json:"timezone,omitempty"`
	Listed     bool            `json:"listed"`
	Address    json.RawMessage `json:"address,omitempty"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}
