// Copyright 2025 The JalanKu Authors
// SPDX-License-Identifier: Apache-2.0

package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// LowerASCIIFolding removes accents, lowercases and trims spaces.
func LowerASCIIFolding(s string) string {
	s, _, _ = transform.String(
		transform.Chain(
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			norm.NFC,
		),
		strings.TrimSpace(strings.ToLower(s)),
	)

	return s
}

// Normalize folds s and turns every run of punctuation or whitespace into a
// single space.
func Normalize(s string) string {
	return strings.Join(Tokens(s), " ")
}

// Tokens returns the words of the folded text.
func Tokens(s string) []string {
	return strings.FieldsFunc(LowerASCIIFolding(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// adminPrefixes are the designators that may precede an administrative name
// in free text ("Kota Surabaya", "Kec. Genteng", "Provinsi Jawa Timur").
var adminPrefixes = map[string]bool{
	"kota":         true,
	"kabupaten":    true,
	"kab":          true,
	"kecamatan":    true,
	"kec":          true,
	"provinsi":     true,
	"prov":         true,
	"adm":          true,
	"administrasi": true,
}

// abbreviations expand the leading acronym of special-region names.
var abbreviations = map[string][]string{
	"dki": {"daerah", "khusus", "ibukota"},
	"diy": {"daerah", "istimewa", "yogyakarta"},
}

// variants returns the token sequences that identify name in free text: the
// full name, the name without designator prefixes and, for special regions,
// the spelled-out form.
func variants(name string) [][]string {
	full := Tokens(name)
	if len(full) == 0 {
		return nil
	}

	out := [][]string{full}

	stripped := full
	for len(stripped) > 1 && adminPrefixes[stripped[0]] {
		stripped = stripped[1:]
	}

	if len(stripped) != len(full) {
		out = append(out, stripped)
	}

	if exp, ok := abbreviations[stripped[0]]; ok {
		out = append(out, append(append([]string(nil), exp...), stripped[1:]...))
	}

	return out
}
