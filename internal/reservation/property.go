// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package reservation

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/guestlink/internal/logging"
	"github.com/tomtom215/guestlink/internal/models"
	"github.com/tomtom215/guestlink/internal/store"
)

const propertyPK = "PROP"

// PutProperty stores p, replacing any previous row.
func (r *Repository) PutProperty(ctx context.Context, p *models.Property) error {
	p.UpdatedAt = r.now().UTC()
	if err := r.db.Put(ctx, store.K(propertyPK, p.ID), p); err != nil {
		return fmt.Errorf("put property %s: %w", p.ID, err)
	}
	return nil
}

// ListProperties returns every stored property ordered by id.
func (r *Repository) ListProperties(ctx context.Context) ([]*models.Property, error) {
	var out []*models.Property
	err := r.db.Scan(ctx, store.Partition(propertyPK), func(k store.Key, v []byte) error {
		var p models.Property
		if err := json.Unmarshal(v, &p); err != nil {
			return fmt.Errorf("decode %s: %w", k, err)
		}
		out = append(out, &p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	return out, nil
}

// ListPropertyIDs returns the ids of every stored property.
func (r *Repository) ListPropertyIDs(ctx context.Context) ([]string, error) {
	props, err := r.ListProperties(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(props))
	for i, p := range props {
		ids[i] = p.ID
	}
	return ids, nil
}

// fillPropertyNames sets PropertyName from the stored properties on every
// reservation that lacks one. A failed lookup leaves the names empty.
func (r *Repository) fillPropertyNames(ctx context.Context, list []*models.Reservation) {
	props, err := r.ListProperties(ctx)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Property names unavailable")
		return
	}
	names := make(map[string]string, len(props))
	for _, p := range props {
		name := p.Name
		if name == "" {
			name = p.PublicName
		}
		names[p.ID] = name
	}
	for _, res := range list {
		if res.PropertyName == "" {
			res.PropertyName = names[res.PropertyID]
		}
	}
}
