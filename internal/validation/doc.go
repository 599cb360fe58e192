// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

// Package validation wraps go-playground/validator v10 with a shared,
// lazily built validator and messages keyed by JSON field name.
//
// It is the ingestion boundary check for models.Reservation and the input
// check for API request bodies:
//
//	if err := validation.Struct(&res); err != nil {
//	    // reject: err is *validation.Error
//	}
//
// The custom "keysafe" tag guards ids that end up inside store keys.
package validation
