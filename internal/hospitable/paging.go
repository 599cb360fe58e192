// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package hospitable

import (
	"context"
	"net/url"
	"strconv"
	"strings"
)

const (
	propertiesPath   = "/v2/properties"
	reservationsPath = "/v2/reservations"
)

// DefaultInclude lists the reservation relations requested by default.
// "properties" is always added.
var DefaultInclude = []string{"guest", "review", "financials"}

// ReservationsQuery selects reservations for a set of properties and a date
// window (YYYY-MM-DD).
type ReservationsQuery struct {
	PropertyIDs []string
	StartDate   string
	EndDate     string
	Include     []string
	PerPage     int
}

func (q *ReservationsQuery) values(perPage, page int) url.Values {
	include := q.Include
	if len(include) == 0 {
		include = DefaultInclude
	}
	seen := make(map[string]bool, len(include)+1)
	relations := make([]string, 0, len(include)+1)
	for _, rel := range append(append([]string{}, include...), "properties") {
		if !seen[rel] {
			seen[rel] = true
			relations = append(relations, rel)
		}
	}
	if q.PerPage > 0 {
		perPage = q.PerPage
	}

	v := url.Values{}
	v.Set("start_date", q.StartDate)
	v.Set("end_date", q.EndDate)
	v.Set("include", strings.Join(relations, ","))
	v.Set("per_page", strconv.Itoa(perPage))
	v.Set("page", strconv.Itoa(page))
	for _, id := range q.PropertyIDs {
		v.Add("properties[]", id)
	}
	return v
}

// ForEachReservationPage calls fn with every non-empty page of reservations.
// Paging stops at the last page, on an empty page, or when the response has
// no next link.
func (c *Client) ForEachReservationPage(ctx context.Context, q ReservationsQuery, fn func(page int, rows []Reservation) error) error {
	for page := 1; ; page++ {
		var res Page[Reservation]
		if err := c.get(ctx, reservationsPath, q.values(c.perPage, page), &res); err != nil {
			return err
		}
		if len(res.Data) == 0 {
			return nil
		}
		if err := fn(page, res.Data); err != nil {
			return err
		}
		if page >= res.Meta.Pages(page) || res.Links.Next == "" {
			return nil
		}
	}
}

// ForEachPropertyPage calls fn with every non-empty page of properties.
func (c *Client) ForEachPropertyPage(ctx context.Context, fn func(page int, rows []Property) error) error {
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("per_page", strconv.Itoa(c.perPage))
		q.Set("page", strconv.Itoa(page))

		var res Page[Property]
		if err := c.get(ctx, propertiesPath, q, &res); err != nil {
			return err
		}
		if len(res.Data) == 0 {
			return nil
		}
		if err := fn(page, res.Data); err != nil {
			return err
		}
		if page >= res.Meta.Pages(page) {
			return nil
		}
	}
}

// ListProperties returns every property.
func (c *Client) ListProperties(ctx context.Context) ([]Property, error) {
	var all []Property
	err := c.ForEachPropertyPage(ctx, func(_ int, rows []Property) error {
		all = append(all, rows...)
		return nil
	})
	return all, err
}
