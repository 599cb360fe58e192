// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package hospitable

import (
	"strings"
	"time"

	"github.com/tomtom215/guestlink/internal/models"
)

// MapReservation converts an upstream reservation into the normalized record.
// The property comes from properties[0]; dates are cut to YYYY-MM-DD. The
// result is not validated here.
func MapReservation(r *Reservation) *models.Reservation {
	res := &models.Reservation{
		ID:             strings.TrimSpace(r.ID),
		ConversationID: strings.TrimSpace(r.ConversationID),
		Platform:       r.Platform,
		ArrivalDate:    dateOnly(r.ArrivalDate),
		DepartureDate:  dateOnly(r.DepartureDate),
		Nights:         r.Nights,
		LastMessageAt:  parseTimestamp(r.LastMessageAt),
		Financials:     r.Financials,
		Review:         r.Review,
	}
	if len(r.Properties) > 0 {
		p := r.Properties[0]
		res.PropertyID = strings.TrimSpace(p.ID)
		res.PropertyName = firstNonEmpty(p.Name, p.PublicName)
	}
	if r.Guest != nil {
		res.Guest = models.ReservationGuest{
			FirstName:    strings.TrimSpace(r.Guest.FirstName),
			LastName:     strings.TrimSpace(r.Guest.LastName),
			Email:        r.Guest.Email,
			PhoneNumbers: r.Guest.PhoneNumbers,
			Location:     strings.TrimSpace(r.Guest.Location),
		}
	}
	return res
}

// MapProperty converts an upstream property.
func MapProperty(p *Property) *models.Property {
	return &models.Property{
		ID:         strings.TrimSpace(p.ID),
		Name:       firstNonEmpty(p.Name, p.PublicName),
		PublicName: p.PublicName,
		Timezone:   p.Timezone,
		Listed:     p.Listed,
		Address:    p.Address,
	}
}

func dateOnly(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 10 {
		return s[:10]
	}
	return s
}

func parseTimestamp(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
