// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/tomtom215/guestlink/internal/models"
)

func TestGet_Singleton(t *testing.T) {
	if Get() != Get() {
		t.Error("Get() should return the same instance")
	}
}

func TestStruct_Reservation(t *testing.T) {
	tests := []struct {
		name      string
		res       models.Reservation
		wantField string
	}{
		{
			name: "valid",
			res:  models.Reservation{ID: "r1", PropertyID: "p1", ArrivalDate: "2026-03-01"},
		},
		{
			name:      "missing id",
			res:       models.Reservation{PropertyID: "p1"},
			wantField: "id",
		},
		{
			name:      "missing property",
			res:       models.Reservation{ID: "r1"},
			wantField: "propertyId",
		},
		{
			name:      "control character in id",
			res:       models.Reservation{ID: "r\x1f1", PropertyID: "p1"},
			wantField: "id",
		},
		{
			name:      "padded property id",
			res:       models.Reservation{ID: "r1", PropertyID: " p1"},
			wantField: "propertyId",
		},
		{
			name:      "bad arrival date",
			res:       models.Reservation{ID: "r1", PropertyID: "p1", ArrivalDate: "03/01/2026"},
			wantField: "arrival_date",
		},
		{
			name:      "negative nights",
			res:       models.Reservation{ID: "r1", PropertyID: "p1", Nights: -1},
			wantField: "nights",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(&tt.res)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Struct() = %v, want nil", err)
				}
				return
			}

			var verr *Error
			if !errors.As(err, &verr) {
				t.Fatalf("Struct() = %v, want *Error", err)
			}
			if verr.Fields[0].Field != tt.wantField {
				t.Errorf("field = %q, want %q", verr.Fields[0].Field, tt.wantField)
			}
		})
	}
}

func TestError_Details(t *testing.T) {
	err := Struct(&models.Reservation{})
	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if len(verr.Fields) != 2 {
		t.Fatalf("len(Fields) = %d, want 2", len(verr.Fields))
	}
	if _, ok := verr.Details()["fields"]; !ok {
		t.Error("multi-field Details() should list fields")
	}
	if !strings.Contains(verr.Error(), "id is required") {
		t.Errorf("Error() = %q, want it to mention id", verr.Error())
	}
}

func TestIsKeySafe(t *testing.T) {
	tests := map[string]bool{
		"12345":        true,
		"abc-def_ghi":  true,
		"with space":   true,
		" leading":     false,
		"trailing\t":   false,
		"sep\x1fvalue": false,
		"newline\nx":   false,
	}
	for in, want := range tests {
		if got := IsKeySafe(in); got != want {
			t.Errorf("IsKeySafe(%q) = %v, want %v", in, got, want)
		}
	}
}
