// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package sync

import (
	"errors"
	"testing"
)

func TestResolveWindow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		start, end string
		want       Window
		wantErr    bool
	}{
		{"defaults", "", "", Window{"2010-01-01", "2028-03-15"}, false},
		{"last 30 days", "LAST_30_DAYS", "PLUS_2_YEARS", Window{"2026-02-13", "2028-03-15"}, false},
		{"keyword case", "last_30_days", "", Window{"2026-02-13", "2028-03-15"}, false},
		{"explicit dates", "2024-06-01T00:00:00Z", "2025-01-01", Window{"2024-06-01", "2025-01-01"}, false},
		{"end capped", "2026-01-01", "2031-12-31", Window{"2026-01-01", "2028-03-15"}, false},
		{"bad start", "yesterday", "", Window{}, true},
		{"bad end", "", "2025-13-01", Window{}, true},
		{"inverted", "2027-01-01", "2026-01-01", Window{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ResolveWindow(fixedNow, tt.start, tt.end)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidWindow) {
					t.Fatalf("got %v, want ErrInvalidWindow", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("ResolveWindow = %+v, want %+v", got, tt.want)
			}
		})
	}
}
