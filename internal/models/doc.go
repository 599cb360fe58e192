// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

// Package models defines the records shared across Guestlink: guest profiles,
// identity claims, reservations, properties and the API envelope.
//
// Reservation is the single normalized schema for reservation data. Upstream
// payloads are mapped into it by internal/sync and validated with
// internal/validation before they are stored, linked or queued.
package models
