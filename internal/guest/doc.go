// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

// Package guest resolves reservations to canonical guests.
//
// A reservation's contact block is normalized (NormalizeEmail,
// NormalizePhones) into identity values. The IdentityIndex holds one
// write-once claim per value; whichever linker inserts the claim first
// decides the owning guest and every other linker reads and adopts it.
// Email outranks phone, and among phones the first listed wins. Reservations
// without any usable identity reuse their existing back-pointer or get a new
// orphan guest of their own.
//
// Once the guest is known, the reservation receives a write-once
// back-pointer, Store.MergeInto folds the contact data into the profile
// (fill-if-missing scalars, union sets) and the reverse index rows are
// ensured. A guest that resolves from an identity but lost the back-pointer
// to another guest gets the contact data only, never the reservation. Orphan
// guests are minted only by the delivery that sets the back-pointer. Every
// step is idempotent, so redelivered queue messages are harmless.
//
// Store layout:
//
//	GUEST#<guestId>      PROFILE       GuestProfile
//	GUEST#<guestId>      RES#<resId>   GuestReservation
//	IDX#EMAIL#<email>    CLAIM         IdentityClaim
//	IDX#PHONE#<phone>    CLAIM         IdentityClaim
package guest
