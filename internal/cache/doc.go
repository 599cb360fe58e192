// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

// Package cache provides in-process caches for deduplication.
//
// RecentSet is a TTL-bounded key set on top of ristretto. The webhook
// handler marks every successfully processed event id and skips an event
// whose id it has already seen, since Hospitable retries deliveries that
// time out on its side even when they were accepted:
//
//	recent, err := cache.NewRecentSet(10000, time.Hour)
//	if err != nil {
//	    return err
//	}
//	defer recent.Close()
//
//	if recent.Seen(ev.ID) {
//	    return nil
//	}
//	// process ...
//	recent.Mark(ev.ID)
//
// Marks are only recorded after processing succeeds, so a delivery that
// failed and is redelivered by JetStream is never mistaken for a duplicate.
package cache
