// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package guest

import (
	"regexp"
	"strings"
)

// placeholderEmails are values channels put in the email field when the real
// address is withheld. They are matched against the whole value and against
// the local part.
var placeholderEmails = map[string]struct{}{
	"(no email alias available)": {},
	"no email alias available":   {},
	"no-email":                   {},
	"no email":                   {},
	"n/a":                        {},
	"na":                         {},
	"none":                       {},
	"null":                       {},
	"unknown":                    {},
	"redacted":                   {},
	"hidden":                     {},
	"not provided":               {},
	"do-not-reply":               {},
	"donotreply":                 {},
	"no-reply":                   {},
	"noreply":                    {},
}

var tldPattern = regexp.MustCompile(`^[a-z]{2,63}$`)

// NormalizeEmail returns the canonical form of raw, or "" when raw is not a
// usable identity. It never fails: junk simply yields "".
func NormalizeEmail(raw string) string {
	e := strings.ToLower(strings.TrimSpace(raw))
	if e == "" || isPlaceholderEmail(e) {
		return ""
	}
	if strings.ContainsAny(e, " \t\r\n") {
		return ""
	}

	local, domain, ok := strings.Cut(e, "@")
	if !ok || local == "" || strings.Contains(domain, "@") {
		return ""
	}
	if _, junk := placeholderEmails[local]; junk {
		return ""
	}

	dot := strings.LastIndexByte(domain, '.')
	if dot <= 0 {
		return ""
	}
	if !tldPattern.MatchString(domain[dot+1:]) {
		return ""
	}
	return e
}

func isPlaceholderEmail(e string) bool {
	if _, ok := placeholderEmails[e]; ok {
		return true
	}
	return strings.Contains(e, "no email alias available")
}

// NormalizePhone reduces raw to a 10-digit NANP number, or "" when it cannot.
// An 11-digit number with a leading country code 1 loses that digit.
func NormalizePhone(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case len(digits) == 11 && digits[0] == '1':
		return digits[1:]
	case len(digits) == 10:
		return digits
	default:
		return ""
	}
}

// NormalizePhones normalizes every entry, drops unusable ones and removes
// duplicates. The order of first appearance is kept; the first entry is the
// authoritative phone identity.
func NormalizePhones(raw []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(raw))
	for _, r := range raw {
		p := NormalizePhone(r)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
