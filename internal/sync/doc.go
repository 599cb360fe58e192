// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

/*
Package sync pulls properties and reservations from the Hospitable API into the
store and feeds reservations without a guest into the link queue.

Key Components:

  - Manager: SyncProperties and SyncReservations, one run at a time
  - Backfill: re-enqueues stored reservations for linking
  - Scheduler: periodic sync under the supervisor tree

Sync flow for one page of reservations:

 1. Map each upstream record and validate it; invalid records are skipped
 2. Upsert the reservation (an existing guest back-pointer survives)
 3. Ensure the conversation index row
 4. Linked reservations get their guest-reservation index row ensured
 5. Unlinked reservations are published as backfill-reservation link messages

The date window accepts LAST_30_DAYS for the start and PLUS_2_YEARS for the
end. The end is never later than two years from today.
*/
package sync
