// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package sync

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Date window keywords.
const (
	StartLast30Days = "LAST_30_DAYS"
	EndPlus2Years   = "PLUS_2_YEARS"

	// DefaultStartDate is used when no start date is given.
	DefaultStartDate = "2010-01-01"

	dateLayout = "2006-01-02"
)

// ErrInvalidWindow is returned for unparseable or inverted date windows.
var ErrInvalidWindow = errors.New("invalid sync date window")

// Window is an inclusive YYYY-MM-DD date range.
type Window struct {
	Start string
	End   string
}

// ResolveWindow turns request values into concrete dates relative to now.
// Dates may carry a time part; only the first ten characters are used.
func ResolveWindow(now time.Time, start, end string) (Window, error) {
	today := now.UTC().Truncate(24 * time.Hour)
	limit := today.AddDate(2, 0, 0)

	var from time.Time
	switch s := strings.TrimSpace(start); {
	case s == "":
		from, _ = time.Parse(dateLayout, DefaultStartDate)
	case strings.EqualFold(s, StartLast30Days):
		from = today.AddDate(0, 0, -30)
	default:
		d, err := parseDate(s)
		if err != nil {
			return Window{}, fmt.Errorf("%w: start %q", ErrInvalidWindow, start)
		}
		from = d
	}

	to := limit
	if e := strings.TrimSpace(end); e != "" && !strings.EqualFold(e, EndPlus2Years) {
		d, err := parseDate(e)
		if err != nil {
			return Window{}, fmt.Errorf("%w: end %q", ErrInvalidWindow, end)
		}
		if d.Before(limit) {
			to = d
		}
	}

	if to.Before(from) {
		return Window{}, fmt.Errorf("%w: %s is after %s", ErrInvalidWindow, from.Format(dateLayout), to.Format(dateLayout))
	}
	return Window{Start: from.Format(dateLayout), End: to.Format(dateLayout)}, nil
}

func parseDate(s string) (time.Time, error) {
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	return time.Parse(dateLayout, s)
}
