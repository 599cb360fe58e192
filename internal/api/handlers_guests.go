// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/guestlink/internal/guest"
	"github.com/tomtom215/guestlink/internal/logging"
	"github.com/tomtom215/guestlink/internal/models"
	"github.com/tomtom215/guestlink/internal/reservation"
)

// ListGuests returns every guest profile.
func (h *Handler) ListGuests(w http.ResponseWriter, r *http.Request) {
	guests, err := h.guests.List(r.Context())
	if err != nil {
		respondDomainError(w, "Failed to list guests", err)
		return
	}
	n := len(guests)
	respondSuccess(w, r, http.StatusOK, guests, &n)
}

// GetGuest returns one guest profile.
func (h *Handler) GetGuest(w http.ResponseWriter, r *http.Request) {
	guestID, ok := pathID(w, "guestID", chi.URLParam(r, "guestID"))
	if !ok {
		return
	}

	profile, err := h.guests.Get(r.Context(), guestID)
	if err != nil {
		respondDomainError(w, "Failed to read guest", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, profile, nil)
}

// GuestReservations returns the reservations linked to a guest.
func (h *Handler) GuestReservations(w http.ResponseWriter, r *http.Request) {
	guestID, ok := pathID(w, "guestID", chi.URLParam(r, "guestID"))
	if !ok {
		return
	}

	if _, err := h.guests.Get(r.Context(), guestID); err != nil {
		respondDomainError(w, "Failed to read guest", err)
		return
	}
	list, err := h.reservationsOf(r, guestID)
	if err != nil {
		respondDomainError(w, "Failed to read guest reservations", err)
		return
	}
	n := len(list)
	respondSuccess(w, r, http.StatusOK, list, &n)
}

// UpdateGuestNotes replaces the host notes of a guest. It is the only write
// path for host notes.
func (h *Handler) UpdateGuestNotes(w http.ResponseWriter, r *http.Request) {
	guestID, ok := pathID(w, "guestID", chi.URLParam(r, "guestID"))
	if !ok {
		return
	}

	var req models.GuestNotesRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	profile, err := h.guests.UpdateHostNotes(r.Context(), guestID, req.HostNotes)
	if err != nil {
		respondDomainError(w, "Failed to update host notes", err)
		return
	}
	logging.Ctx(r.Context()).Info().Str("guest_id", guestID).Int("length", len(req.HostNotes)).Msg("Host notes updated")
	respondSuccess(w, r, http.StatusOK, profile, nil)
}

// Conversation resolves a conversation to its reservation, the owning guest
// and all of that guest's reservations. The reservationId query parameter
// selects one reservation of the conversation; otherwise the one with the
// most recent message wins.
func (h *Handler) Conversation(w http.ResponseWriter, r *http.Request) {
	conversationID, ok := pathID(w, "conversationID", chi.URLParam(r, "conversationID"))
	if !ok {
		return
	}

	list, err := h.reservations.ByConversation(r.Context(), conversationID)
	if err != nil {
		respondDomainError(w, "Failed to read conversation", err)
		return
	}
	if len(list) == 0 {
		respondError(w, http.StatusNotFound, CodeNotFound, "conversation not found", nil)
		return
	}

	selected := pickReservation(list, r.URL.Query().Get("reservationId"))
	view := &models.ConversationView{
		Reservation:  selected,
		Reservations: []*models.Reservation{selected},
	}

	if selected.GuestID != "" {
		profile, err := h.guests.Get(r.Context(), selected.GuestID)
		switch {
		case errors.Is(err, guest.ErrGuestNotFound):
			logging.Ctx(r.Context()).Warn().Str("guest_id", selected.GuestID).Msg("Reservation points at a missing guest")
		case err != nil:
			respondDomainError(w, "Failed to read guest", err)
			return
		default:
			view.Guest = profile
			all, err := h.reservationsOf(r, profile.GuestID)
			if err != nil {
				respondDomainError(w, "Failed to read guest reservations", err)
				return
			}
			if len(all) > 0 {
				view.Reservations = all
			}
		}
	}

	respondSuccess(w, r, http.StatusOK, view, nil)
}

func (h *Handler) reservationsOf(r *http.Request, guestID string) ([]*models.Reservation, error) {
	rows, err := h.guests.Reservations(r.Context(), guestID)
	if err != nil {
		return nil, err
	}
	return h.reservations.ForGuest(r.Context(), rows)
}

func pickReservation(list []*models.Reservation, reservationID string) *models.Reservation {
	if reservationID != "" {
		for _, res := range list {
			if res.ID == reservationID {
				return res
			}
		}
	}
	return reservation.PickMostRecent(list)
}
