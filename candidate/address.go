// Copyright 2025 The JalanKu Authors
// SPDX-License-Identifier: Apache-2.0

package candidate

import (
	"strings"
	"unicode/utf8"

	"github.com/jalanku/jalanku/spatial"
)

// MaxAddressLength is the longest address text accepted, in bytes.
const MaxAddressLength = 500

// SanitizeAddress trims the text, collapses internal runs of whitespace and
// caps its length without splitting a UTF-8 sequence.
func SanitizeAddress(s string) string {
	s = strings.Join(strings.Fields(s), " ")

	if len(s) <= MaxAddressLength {
		return s
	}

	cut := MaxAddressLength
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}

	return strings.TrimSpace(s[:cut])
}

// ManualAddress builds the candidate for text typed by the user.
func ManualAddress(text string) (Candidate, error) {
	c := New(SourceManualAddress, nil, text)

	return c, c.Validate()
}

// ManualCoordinates builds the candidate for a coordinate pair typed by the
// user. Typed coordinates carry the same precedence as a device fix.
func ManualCoordinates(p spatial.Point) (Candidate, error) {
	c := New(SourceDevice, &p, "")

	return c, c.Validate()
}
