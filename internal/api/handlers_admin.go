// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package api

import (
	"net/http"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/guestlink/internal/logging"
	"github.com/tomtom215/guestlink/internal/models"
)

// TriggerSync runs a reservation sync and returns its counts. The request
// body is optional; an empty one syncs every stored property from the
// default start date.
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	if h.sync == nil {
		respondError(w, http.StatusServiceUnavailable, CodeNotEnabled, "Sync is not configured", nil)
		return
	}

	var req models.SyncRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.sync.SyncReservations(r.Context(), req)
	if err != nil {
		respondDomainError(w, "Reservation sync failed", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, result, nil)
}

// TriggerPropertySync fetches and stores every upstream property.
func (h *Handler) TriggerPropertySync(w http.ResponseWriter, r *http.Request) {
	if h.sync == nil {
		respondError(w, http.StatusServiceUnavailable, CodeNotEnabled, "Sync is not configured", nil)
		return
	}

	n, err := h.sync.SyncProperties(r.Context())
	if err != nil {
		respondDomainError(w, "Property sync failed", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, map[string]int{"properties": n}, nil)
}

// TriggerBackfill re-enqueues stored reservations for linking.
func (h *Handler) TriggerBackfill(w http.ResponseWriter, r *http.Request) {
	if h.backfill == nil {
		respondError(w, http.StatusServiceUnavailable, CodeNotEnabled, "Backfill is not configured", nil)
		return
	}

	var req models.BackfillRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.backfill.Run(r.Context(), req)
	if err != nil {
		respondDomainError(w, "Backfill failed", err)
		return
	}
	respondSuccess(w, r, http.StatusAccepted, result, nil)
}

// LinkBatch runs a batch of link messages through the linker before
// responding. Each message is handled on its own; the response lists only
// the messages that failed and can be resubmitted.
func (h *Handler) LinkBatch(w http.ResponseWriter, r *http.Request) {
	if h.batch == nil {
		respondError(w, http.StatusServiceUnavailable, CodeNotEnabled, "Batch linking is not configured", nil)
		return
	}

	var req models.LinkBatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	msgs := make([]*message.Message, len(req.Messages))
	for i, item := range req.Messages {
		msgs[i] = message.NewMessage(item.MessageID, []byte(item.Body))
	}

	failed := h.batch.ProcessBatch(r.Context(), msgs)
	result := models.LinkBatchResult{
		Processed:         len(msgs) - len(failed),
		BatchItemFailures: make([]models.BatchItemFailure, 0, len(failed)),
	}
	for _, id := range failed {
		result.BatchItemFailures = append(result.BatchItemFailures, models.BatchItemFailure{ItemIdentifier: id})
	}
	respondSuccess(w, r, http.StatusOK, result, nil)
}

// DeleteUnknownReservations clears reservations stored under the UNKNOWN
// property partition.
func (h *Handler) DeleteUnknownReservations(w http.ResponseWriter, r *http.Request) {
	n, err := h.reservations.DeletePartition(r.Context(), models.UnknownPropertyID)
	if err != nil {
		respondDomainError(w, "Failed to delete reservations", err)
		return
	}
	logging.Ctx(r.Context()).Info().Int("deleted", n).Msg("Deleted UNKNOWN reservations")
	respondSuccess(w, r, http.StatusOK, map[string]int{"deleted": n}, nil)
}
