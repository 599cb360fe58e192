// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package guest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/guestlink/internal/models"
	"github.com/tomtom215/guestlink/internal/store"
)

// ErrClaimNotVisible is returned when a claim insert lost to an existing row
// but that row could not be read back, even after one retry. It is transient;
// the caller's message is redelivered.
var ErrClaimNotVisible = errors.New("identity claim exists but is not readable")

// IdentityIndex maps normalized identity values to the guest that owns them.
// Each value is claimed at most once.
type IdentityIndex struct {
	db  *store.Store
	now func() time.Time
}

// NewIdentityIndex returns an index backed by db.
func NewIdentityIndex(db *store.Store) *IdentityIndex {
	return &IdentityIndex{db: db, now: time.Now}
}

func claimKey(kind models.IdentityKind, value string) store.Key {
	switch kind {
	case models.IdentityPhone:
		return store.K("IDX#PHONE#"+value, "CLAIM")
	default:
		return store.K("IDX#EMAIL#"+value, "CLAIM")
	}
}

// ClaimOrResolve claims value for candidate, or returns the guest that already
// owns it. won is true only for the caller whose claim was written.
func (x *IdentityIndex) ClaimOrResolve(ctx context.Context, kind models.IdentityKind, value, candidate string) (guestID string, won bool, err error) {
	key := claimKey(kind, value)

	for attempt := 0; attempt < 2; attempt++ {
		created, err := x.db.PutIfAbsent(ctx, key, models.IdentityClaim{
			Kind:      kind,
			Value:     value,
			GuestID:   candidate,
			ClaimedAt: x.now().UTC(),
		})
		if err != nil {
			return "", false, fmt.Errorf("claim %s identity: %w", kind, err)
		}
		if created {
			claimsTotal.WithLabelValues(string(kind), "won").Inc()
			return candidate, true, nil
		}

		owner, found, err := x.Resolve(ctx, kind, value)
		if err != nil {
			return "", false, err
		}
		if found {
			claimsTotal.WithLabelValues(string(kind), "resolved").Inc()
			return owner, false, nil
		}
	}

	claimsTotal.WithLabelValues(string(kind), "not_visible").Inc()
	return "", false, fmt.Errorf("%s identity: %w", kind, ErrClaimNotVisible)
}

// Resolve returns the owner of value without claiming it.
func (x *IdentityIndex) Resolve(ctx context.Context, kind models.IdentityKind, value string) (string, bool, error) {
	var claim models.IdentityClaim
	found, err := x.db.Get(ctx, claimKey(kind, value), &claim)
	if err != nil {
		return "", false, fmt.Errorf("read %s claim: %w", kind, err)
	}
	if !found || claim.GuestID == "" {
		return "", false, nil
	}
	return claim.GuestID, true, nil
}

// EnsureClaim writes a claim for guestID if value is unclaimed. A value that
// already belongs to any guest is left alone and reported as false.
func (x *IdentityIndex) EnsureClaim(ctx context.Context, kind models.IdentityKind, value, guestID string) (bool, error) {
	created, err := x.db.PutIfAbsent(ctx, claimKey(kind, value), models.IdentityClaim{
		Kind:      kind,
		Value:     value,
		GuestID:   guestID,
		ClaimedAt: x.now().UTC(),
	})
	if err != nil {
		return false, fmt.Errorf("ensure %s claim: %w", kind, err)
	}
	return created, nil
}
