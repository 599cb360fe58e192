// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

// Package store is Guestlink's single-table key-value store, built on badger v4.
//
// Records are JSON documents addressed by a (PK, SK) Key. The table holds
// guests, identity claims, reservations and the secondary indexes between
// them; see the key helpers in internal/guest and internal/reservation.
//
// Concurrency model:
//
//   - PutIfAbsent is the conditional insert used for every write-once record.
//     Two callers racing on one key both run a read-then-set transaction;
//     badger aborts the later commit with ErrConflict, the transaction is
//     re-run, sees the winner's record and reports false.
//   - Update is a transactional read-modify-write used for merges, retried on
//     conflict the same way, so concurrent merges never lose values.
//   - Put is unconditional and reserved for records that are safe to replace.
//
// Example:
//
//	s, err := store.Open(&cfg)
//	created, err := s.PutIfAbsent(ctx, store.K("IDX#EMAIL#a@example.com", "CLAIM"), claim)
package store
