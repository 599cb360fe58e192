// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package hospitable

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
)

const sampleReservation = `{
	"id": " R-100 ",
	"conversation_id": "C-9",
	"platform": "airbnb",
	"arrival_date": "2024-07-04T16:00:00-04:00",
	"departure_date": "2024-07-08T11:00:00-04:00",
	"nights": 4,
	"last_message_at": "2024-06-30T12:00:00Z",
	"status": "accepted",
	"status_history": [{"status": "request"}],
	"guest": {
		"first_name": "Ada ",
		"last_name": "Lovelace",
		"email": "Ada@Example.com",
		"phone_numbers": ["+1 (555) 010-2000"],
		"location": "London"
	},
	"properties": [{"id": "P-1", "name": "Harbor Loft"}],
	"financials": {"currency": "USD"}
}`

func TestMapReservation(t *testing.T) {
	t.Parallel()

	var up Reservation
	if err := json.Unmarshal([]byte(sampleReservation), &up); err != nil {
		t.Fatal(err)
	}
	res := MapReservation(&up)

	if res.ID != "R-100" || res.PropertyID != "P-1" || res.PropertyName != "Harbor Loft" {
		t.Errorf("identity fields = %q %q %q", res.ID, res.PropertyID, res.PropertyName)
	}
	if res.ArrivalDate != "2024-07-04" || res.DepartureDate != "2024-07-08" {
		t.Errorf("dates = %s..%s", res.ArrivalDate, res.DepartureDate)
	}
	if res.ConversationID != "C-9" || res.Nights != 4 {
		t.Errorf("conversation %q nights %d", res.ConversationID, res.Nights)
	}
	want := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
	if res.LastMessageAt == nil || !res.LastMessageAt.Equal(want) {
		t.Errorf("last_message_at = %v", res.LastMessageAt)
	}
	if res.Guest.FirstName != "Ada" || res.Guest.Email != "Ada@Example.com" {
		t.Errorf("guest = %+v", res.Guest)
	}
	if len(res.Financials) == 0 {
		t.Error("financials dropped")
	}

	encoded, err := json.Marshal(res)
	if err != nil {
		t.Fatal(err)
	}
	var generic map[string]any
	if err := json.Unmarshal(encoded, &generic); err != nil {
		t.Fatal(err)
	}
	for _, field := range []string{"status", "status_history"} {
		if _, ok := generic[field]; ok {
			t.Errorf("deprecated field %q carried into the normalized record", field)
		}
	}
}

func TestMapReservation_NoPropertyOrGuest(t *testing.T) {
	t.Parallel()
	res := MapReservation(&Reservation{ID: "R1", LastMessageAt: "yesterday"})
	if res.PropertyID != "" {
		t.Errorf("property id = %q", res.PropertyID)
	}
	if res.LastMessageAt != nil {
		t.Errorf("unparseable timestamp kept: %v", res.LastMessageAt)
	}
	if res.Guest.Email != "" || len(res.Guest.PhoneNumbers) != 0 {
		t.Errorf("guest = %+v", res.Guest)
	}
}

func TestParseWebhookEvent(t *testing.T) {
	t.Parallel()

	ev, err := ParseWebhookEvent([]byte(`{"id":"e1","action":"reservation.changed","data":{"id":"R1"}}`))
	if err != nil {
		t.Fatal(err)
	}
	if ev.Family() != ActionFamilyReservation {
		t.Errorf("family = %q", ev.Family())
	}

	if _, err := ParseWebhookEvent([]byte(`{"id":"e2"}`)); err == nil {
		t.Error("expected error for missing action")
	}
	if _, err := ParseWebhookEvent([]byte(`not json`)); err == nil {
		t.Error("expected error for malformed body")
	}
}
