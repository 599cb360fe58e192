// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/guestlink/internal/models"
)

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status         string             `json:"status"`
	Uptime         float64            `json:"uptime"`
	QueueBreaker   string             `json:"queueBreaker,omitempty"`
	LastSyncTime   *time.Time         `json:"lastSyncTime,omitempty"`
	LastSyncResult *models.SyncResult `json:"lastSyncResult,omitempty"`
}

// Health reports liveness, the queue publisher's breaker state and the last
// successful reservation sync. An open breaker reports "degraded".
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	health := HealthStatus{
		Status: "healthy",
		Uptime: time.Since(h.startTime).Seconds(),
	}

	if br, ok := h.publisher.(BreakerReporter); ok {
		health.QueueBreaker = br.BreakerState()
		if health.QueueBreaker == "open" {
			health.Status = "degraded"
		}
	}

	if h.sync != nil {
		if at, result := h.sync.LastSync(); !at.IsZero() {
			health.LastSyncTime = &at
			health.LastSyncResult = result
		}
	}

	respondSuccess(w, r, http.StatusOK, health, nil)
}
