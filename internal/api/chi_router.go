// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/guestlink/internal/metrics"
)

// Router binds handlers to routes.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router. A nil middleware uses the defaults.
func NewRouter(handler *Handler, mw *ChiMiddleware) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, chiMiddleware: mw}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // global so OPTIONS preflight is answered

	r.Group(func(r chi.Router) {
		r.Use(metrics.Middleware)
		r.Get("/health", router.handler.Health)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/webhooks", func(r chi.Router) {
		r.Use(metrics.Middleware)
		r.Post("/hospitable", router.handler.HospitableWebhook)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(metrics.Middleware)
		r.Use(chimiddleware.Compress(5, "application/json"))

		r.Route("/guests", func(r chi.Router) {
			r.Get("/", router.handler.ListGuests)
			r.Get("/{guestID}", router.handler.GetGuest)
			r.Get("/{guestID}/reservations", router.handler.GuestReservations)
			r.Put("/{guestID}/notes", router.handler.UpdateGuestNotes)
		})

		r.Route("/reservations", func(r chi.Router) {
			r.Get("/", router.handler.ListReservations)
			r.Get("/{reservationID}", router.handler.GetReservation)
		})

		r.Get("/conversations/{conversationID}", router.handler.Conversation)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/sync", router.handler.TriggerSync)
			r.Post("/sync/properties", router.handler.TriggerPropertySync)
			r.Post("/backfill", router.handler.TriggerBackfill)
			r.Post("/link", router.handler.LinkBatch)
			r.Delete("/reservations/unknown", router.handler.DeleteUnknownReservations)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusNotFound, CodeNotFound, "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	return r
}
