// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

// Package reservation persists reservations, properties and the
// conversation index.
//
//	RES#<propertyId>        <reservationId>   Reservation
//	CONV#<conversationId>   RES#<resId>       ConversationRef
//	PROP                    <propertyId>      Property
//
// The guest back-pointer on a reservation is write-once: Upsert keeps it and
// SetGuestIfAbsent only fills it. Repository satisfies guest.ReservationPointer.
package reservation
