// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package reservation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/guestlink/internal/models"
	"github.com/tomtom215/guestlink/internal/store"
)

const conversationPKPrefix = "CONV#"

func conversationKey(conversationID, reservationID string) store.Key {
	return store.K(conversationPKPrefix+conversationID, reservationPKPrefix+reservationID)
}

// EnsureConversationIndex records that res belongs to its conversation. It is
// a no-op for reservations without a conversation id.
func (r *Repository) EnsureConversationIndex(ctx context.Context, res *models.Reservation) (bool, error) {
	convID := strings.TrimSpace(res.ConversationID)
	if convID == "" || res.ID == "" || res.PropertyID == "" {
		return false, nil
	}
	created, err := r.db.PutIfAbsent(ctx, conversationKey(convID, res.ID), models.ConversationRef{
		ConversationID: convID,
		ReservationID:  res.ID,
		PropertyID:     res.PropertyID,
	})
	if err != nil {
		return false, fmt.Errorf("index conversation %s: %w", convID, err)
	}
	return created, nil
}

// ByConversation returns the reservations of a conversation. When the index
// has no rows yet it falls back to a full scan.
func (r *Repository) ByConversation(ctx context.Context, conversationID string) ([]*models.Reservation, error) {
	var refs []models.ConversationRef
	err := r.db.Scan(ctx, store.Partition(conversationPKPrefix+conversationID), func(k store.Key, v []byte) error {
		var ref models.ConversationRef
		if err := json.Unmarshal(v, &ref); err != nil {
			return fmt.Errorf("decode %s: %w", k, err)
		}
		refs = append(refs, ref)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read conversation %s: %w", conversationID, err)
	}

	if len(refs) == 0 {
		var out []*models.Reservation
		err := r.Scan(ctx, func(res *models.Reservation) error {
			if res.ConversationID == conversationID {
				out = append(out, res)
			}
			return nil
		})
		return out, err
	}

	out := make([]*models.Reservation, 0, len(refs))
	for _, ref := range refs {
		res, err := r.Get(ctx, ref.PropertyID, ref.ReservationID)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

// PickMostRecent returns the reservation with the latest last message, then
// the latest arrival. It returns nil for an empty list.
func PickMostRecent(list []*models.Reservation) *models.Reservation {
	if len(list) == 0 {
		return nil
	}
	sorted := make([]*models.Reservation, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		am, bm := lastMessageUnix(a), lastMessageUnix(b)
		if am != bm {
			return am > bm
		}
		return a.ArrivalDate > b.ArrivalDate
	})
	return sorted[0]
}

func lastMessageUnix(r *models.Reservation) int64 {
	if r.LastMessageAt == nil {
		return 0
	}
	return r.LastMessageAt.Unix()
}
