// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package store

import "strings"

// keySep separates partition and sort key. It cannot appear in ids produced
// by the upstream API or by uuid.
const keySep = "\x1f"

// Key addresses one record in the single table.
type Key struct {
	PK string
	SK string
}

// K is shorthand for Key{PK: pk, SK: sk}.
func K(pk, sk string) Key {
	return Key{PK: pk, SK: sk}
}

// Bytes encodes the key for badger.
func (k Key) Bytes() []byte {
	return []byte(k.PK + keySep + k.SK)
}

func (k Key) String() string {
	return k.PK + "/" + k.SK
}

// ParseKey decodes a badger key produced by Key.Bytes.
func ParseKey(b []byte) Key {
	s := string(b)
	i := strings.Index(s, keySep)
	if i < 0 {
		return Key{PK: s}
	}
	return Key{PK: s[:i], SK: s[i+len(keySep):]}
}

// Partition returns the prefix matching every record with exactly this PK.
func Partition(pk string) []byte {
	return []byte(pk + keySep)
}

// PKPrefix returns the prefix matching every record whose PK starts with p,
// across partitions. Use it for entity scans such as all "RES#" rows.
func PKPrefix(p string) []byte {
	return []byte(p)
}
