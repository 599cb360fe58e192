// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package logging

import "testing"

func TestMaskEmail(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":                     "",
		"jane.doe@example.com": "ja***@example.com",
		"ab@example.com":       "***@example.com",
		"not-an-email":         "***",
	}
	for in, want := range tests {
		if got := MaskEmail(in); got != want {
			t.Errorf("MaskEmail(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMaskPhone(t *testing.T) {
	t.Parallel()

	if got := MaskPhone("5551234567"); got != "******4567" {
		t.Errorf("MaskPhone = %q", got)
	}
	if got := MaskPhone("123"); got != "***" {
		t.Errorf("MaskPhone short = %q", got)
	}
}

func TestMaskSecret(t *testing.T) {
	t.Parallel()

	if got := MaskSecret("short"); got != "***" {
		t.Errorf("MaskSecret short = %q", got)
	}
	if got := MaskSecret("abcdefghijklmnop"); got != "abcd...mnop" {
		t.Errorf("MaskSecret = %q", got)
	}
}
