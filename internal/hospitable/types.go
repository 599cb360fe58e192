// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package hospitable

import (
	"strings"

	"github.com/goccy/go-json"
)

// Page is one page of a paged list endpoint.
type Page[T any] struct {
	Data  []T       `json:"data"`
	Meta  PageMeta  `json:"meta"`
	Links PageLinks `json:"links"`
}

// PageMeta carries page counters. Some endpoints report total_pages, others
// last_page.
type PageMeta struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	TotalPages  int `json:"total_pages"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
}

// Pages returns the number of pages, or fallback when neither counter is set.
func (m PageMeta) Pages(fallback int) int {
	switch {
	case m.TotalPages > 0:
		return m.TotalPages
	case m.LastPage > 0:
		return m.LastPage
	default:
		return fallback
	}
}

// PageLinks holds navigation links; Next is empty on the last page.
type PageLinks struct {
	First string `json:"first"`
	Last  string `json:"last"`
	Prev  string `json:"prev"`
	Next  string `json:"next"`
}

// Reservation is a reservation as returned by GET /v2/reservations with
// include=guest,review,financials,properties. The deprecated status and
// status_history fields are not decoded.
type Reservation struct {
	ID             string          `json:"id"`
	ConversationID string          `json:"conversation_id"`
	Platform       string          `json:"platform"`
	PlatformID     string          `json:"platform_id"`
	ArrivalDate    string          `json:"arrival_date"`
	DepartureDate  string          `json:"departure_date"`
	Nights         int             `json:"nights"`
	LastMessageAt  string          `json:"last_message_at"`
	Guest          *Guest          `json:"guest"`
	Properties     []PropertyRef   `json:"properties"`
	Financials     json.RawMessage `json:"financials"`
	Review         json.RawMessage `json:"review"`
}

// Guest is the guest block of a reservation.
type Guest struct {
	FirstName    string   `json:"first_name"`
	LastName     string   `json:"last_name"`
	Email        string   `json:"email"`
	PhoneNumbers []string `json:"phone_numbers"`
	Location     string   `json:"location"`
}

// PropertyRef is the abbreviated property included with a reservation.
type PropertyRef struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PublicName string `json:"public_name"`
}

// Property is a listing as returned by GET /v2/properties.
type Property struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	PublicName string          `json:"public_name"`
	Timezone   string          `json:"timezone"`
	Listed     bool            `json:"listed"`
	Address    json.RawMessage `json:"address"`
}

// WebhookEvent is the envelope of every webhook delivery. Data holds a
// Reservation for reservation.* actions and a Property for property.* actions.
type WebhookEvent struct {
	ID      string          `json:"id"`
	Action  string          `json:"action"`
	Data    json.RawMessage `json:"data"`
	Created string          `json:"created"`
	Version string          `json:"version"`
}

// Webhook action families.
const (
	ActionFamilyReservation = "reservation"
	ActionFamilyProperty    = "property"
)

// Family returns the part of Action before the first dot, e.g. "reservation"
// for "reservation.changed".
func (e *WebhookEvent) Family() string {
	family, _, _ := strings.Cut(e.Action, ".")
	return family
}

// ParseWebhookEvent decodes a webhook body. A body without an action is an
// error.
func ParseWebhookEvent(body []byte) (*WebhookEvent, error) {
	var ev WebhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, err
	}
	if ev.Action == "" {
		return nil, errMissingAction
	}
	return &ev, nil
}
