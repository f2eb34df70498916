// Copyright 2025 The JalanKu Authors
// SPDX-License-Identifier: Apache-2.0

// Package match maps free-text addresses and coordinates onto the
// administrative hierarchy with a coarse confidence grade.
package match

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/jalanku/jalanku/region"
)

// MatchThreshold is the minimum similarity for a name to count as found.
const MatchThreshold = 0.85

// ExactScore is the similarity of a verbatim occurrence.
const ExactScore = 1.0

// Confidence is the coarse quality grade of a match.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
	ConfidenceNone   Confidence = "none"
)

// ConfidenceFor maps the number of levels matched top-down to a grade.
func ConfidenceFor(matchedLevels int) Confidence {
	switch {
	case matchedLevels >= 3:
		return ConfidenceHigh
	case matchedLevels == 2:
		return ConfidenceMedium
	case matchedLevels == 1:
		return ConfidenceLow
	default:
		return ConfidenceNone
	}
}

// AutoApplicable reports whether c is good enough to fill the selector
// without asking.
func (c Confidence) AutoApplicable() bool {
	return c == ConfidenceHigh || c == ConfidenceMedium
}

// LevelMatch is the best node found at one level.
type LevelMatch struct {
	Level region.Level `json:"level"`
	Code  string       `json:"code"`
	Name  string       `json:"name"`
	Score float64      `json:"score"`
}

// Result is the outcome of matching one input.
type Result struct {
	Selection     region.Selection `json:"selection"`
	Confidence    Confidence       `json:"confidence"`
	MatchedLevels int              `json:"matched_levels"`
	Matches       []LevelMatch     `json:"matches,omitempty"`
	AddressText   string           `json:"address_text,omitempty"` // text that was matched
	Via           string           `json:"via,omitempty"`          // text, reverse-geocode, boundary
}

// NoMatch is the empty result.
func NoMatch() Result {
	return Result{Confidence: ConfidenceNone}
}

type hit struct {
	node  region.Node
	score float64
	start int
	width int
}

func (h hit) better(o hit) bool {
	if h.score != o.score {
		return h.score > o.score
	}

	if len(h.node.Name) != len(o.node.Name) {
		return len(h.node.Name) > len(o.node.Name)
	}

	return h.node.Code < o.node.Code
}

// similarity compares two normalized strings: 1 for equality, otherwise one
// minus the edit distance relative to the longer string.
func similarity(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 0
	}

	if a == b {
		return ExactScore
	}

	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

// score finds the best window of tokens matching any variant of n's name.
// Windows touching a consumed token are skipped.
func score(n region.Node, tokens []string, consumed []bool) (hit, bool) {
	best := hit{node: n}
	found := false

	for _, v := range variants(n.Name) {
		want := strings.Join(v, " ")

		for start := 0; start+len(v) <= len(tokens); start++ {
			free := true

			for i := start; i < start+len(v); i++ {
				if consumed[i] {
					free = false

					break
				}
			}

			if !free {
				continue
			}

			s := similarity(want, strings.Join(tokens[start:start+len(v)], " "))
			if s >= MatchThreshold && (!found || s > best.score) {
				best.score, best.start, best.width = s, start, len(v)
				found = true
			}
		}
	}

	return best, found
}

func bestOf(nodes []region.Node, tokens []string, consumed []bool) (hit, bool) {
	var (
		best  hit
		found bool
	)

	for _, n := range nodes {
		h, ok := score(n, tokens, consumed)
		if ok && (!found || h.better(best)) {
			best, found = h, true
		}
	}

	return best, found
}

// Match scores text against the catalog top-down. It is a pure function of
// its inputs.
func Match(catalog *region.Catalog, text string) Result {
	tokens := Tokens(text)
	res := Result{Confidence: ConfidenceNone, AddressText: text, Via: "text"}

	if len(tokens) == 0 || catalog == nil {
		return res
	}

	consumed := make([]bool, len(tokens))
	take := func(h hit) {
		for i := h.start; i < h.start+h.width; i++ {
			consumed[i] = true
		}

		res.Matches = append(res.Matches, LevelMatch{Level: h.node.Level, Code: h.node.Code, Name: h.node.Name, Score: h.score})
	}

	var (
		province, regency, district hit
		hasProvince, hasRegency     bool
		hasDistrict                 bool
	)

	province, hasProvince = bestOf(catalog.Provinces(), tokens, consumed)
	if hasProvince {
		take(province)
	}

	regencies := catalog.All(region.LevelRegency)
	if hasProvince {
		regencies = catalog.Regencies(province.node.Code)
	}

	regency, hasRegency = bestOf(regencies, tokens, consumed)
	if hasRegency {
		take(regency)
	}

	var districts []region.Node

	switch {
	case hasRegency:
		districts = catalog.Districts(regency.node.Code)
	case !hasProvince:
		districts = catalog.All(region.LevelDistrict)
	}

	district, hasDistrict = bestOf(districts, tokens, consumed)
	if hasDistrict {
		take(district)
	}

	switch {
	case hasProvince && hasRegency && hasDistrict:
		res.MatchedLevels = 3
	case hasProvince && hasRegency:
		res.MatchedLevels = 2
	case hasProvince:
		res.MatchedLevels = 1
	}

	res.Confidence = ConfidenceFor(res.MatchedLevels)

	// The selection follows what matched top-down. When the province was not
	// named, the deepest hit still proposes a consistent path for manual
	// confirmation.
	switch {
	case res.MatchedLevels > 0:
		res.Selection.ProvinceCode = province.node.Code
		if res.MatchedLevels >= 2 {
			res.Selection.RegencyCode = regency.node.Code
		}

		if res.MatchedLevels == 3 {
			res.Selection.DistrictCode = district.node.Code
		}
	case hasDistrict:
		res.Selection, _ = catalog.PathTo(region.LevelDistrict, district.node.Code)
	case hasRegency:
		res.Selection, _ = catalog.PathTo(region.LevelRegency, regency.node.Code)
	}

	return res
}
