// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ListReservations returns every stored reservation.
func (h *Handler) ListReservations(w http.ResponseWriter, r *http.Request) {
	list, err := h.reservations.List(r.Context())
	if err != nil {
		respondDomainError(w, "Failed to list reservations", err)
		return
	}
	n := len(list)
	respondSuccess(w, r, http.StatusOK, list, &n)
}

// GetReservation returns one reservation by id, whatever its property.
func (h *Handler) GetReservation(w http.ResponseWriter, r *http.Request) {
	reservationID, ok := pathID(w, "reservationID", chi.URLParam(r, "reservationID"))
	if !ok {
		return
	}

	res, err := h.reservations.FindByID(r.Context(), reservationID)
	if err != nil {
		respondDomainError(w, "Failed to read reservation", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, res, nil)
}
