// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

// Package api provides the HTTP surface of Guestlink.
//
// The API is built on Chi with production-hardened middleware from the Chi
// ecosystem (go-chi/cors, go-chi/httprate). Every JSON response uses the
// models.APIResponse envelope.
//
// # Routes
//
//	POST   /webhooks/hospitable                    signed webhook receiver
//	GET    /api/v1/guests                          list guest profiles
//	GET    /api/v1/guests/{guestID}                one guest profile
//	GET    /api/v1/guests/{guestID}/reservations   reservations linked to a guest
//	PUT    /api/v1/guests/{guestID}/notes          edit host notes
//	GET    /api/v1/reservations                    list reservations
//	GET    /api/v1/reservations/{reservationID}    one reservation
//	GET    /api/v1/conversations/{conversationID}  guest context of a conversation
//	POST   /api/v1/admin/sync                      reservation sync
//	POST   /api/v1/admin/sync/properties           property sync
//	POST   /api/v1/admin/backfill                  re-enqueue stored reservations
//	POST   /api/v1/admin/link                      link a batch of messages now
//	DELETE /api/v1/admin/reservations/unknown      clear the UNKNOWN partition
//	GET    /health                                 liveness and last sync
//	GET    /metrics                                Prometheus metrics
//
// # Webhooks
//
// Deliveries are authenticated with a hex HMAC-SHA256 of the raw body in the
// X-Hospitable-Signature header. Verified bodies are published unchanged to
// the webhook topic and acknowledged with 202; processing happens on the
// queue, so a slow store never delays the upstream sender.
package api
