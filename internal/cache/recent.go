// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package cache

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// RecentSet remembers keys for a bounded time. It backs duplicate detection
// for redelivered webhook events.
//
// Membership is best effort: under memory pressure ristretto may refuse or
// evict an entry, so Seen can report false for a key that was marked. Callers
// must stay correct when a duplicate slips through.
type RecentSet struct {
	cache *ristretto.Cache[string, struct{}]
	ttl   time.Duration
}

// NewRecentSet creates a set holding up to capacity keys, each for ttl.
// Non-positive values select 10000 keys and one hour.
func NewRecentSet(capacity int64, ttl time.Duration) (*RecentSet, error) {
	if capacity <= 0 {
		capacity = 10000
	}
	if ttl <= 0 {
		ttl = time.Hour
	}

	c, err := ristretto.NewCache(&ristretto.Config[string, struct{}]{
		NumCounters:        capacity * 10,
		MaxCost:            capacity,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create recent set: %w", err)
	}
	return &RecentSet{cache: c, ttl: ttl}, nil
}

// Seen reports whether key was marked and has not expired.
func (s *RecentSet) Seen(key string) bool {
	_, ok := s.cache.Get(key)
	return ok
}

// Mark records key. The write is applied asynchronously; Wait blocks until
// pending writes are visible.
func (s *RecentSet) Mark(key string) {
	s.cache.SetWithTTL(key, struct{}{}, 1, s.ttl)
}

// Wait blocks until every earlier Mark is visible to Seen.
func (s *RecentSet) Wait() {
	s.cache.Wait()
}

// Close stops ristretto's background goroutines.
func (s *RecentSet) Close() {
	s.cache.Close()
}
