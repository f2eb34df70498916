// Copyright 2025 The JalanKu Authors
// SPDX-License-Identifier: Apache-2.0

// Package candidate holds the provisional location readings produced by the
// photo, device and typed-address sources, and the precedence between them.
package candidate

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jalanku/jalanku/spatial"
)

// Source identifies the adapter that produced a candidate.
type Source string

const (
	SourceNone           Source = ""
	SourceEXIF           Source = "exif"
	SourceDevice         Source = "device"
	SourceManualAddress  Source = "manual-address"
	SourceGeocodeReverse Source = "geocode-reverse"
	SourceGeocodeForward Source = "geocode-forward"
)

// Precedence ranks. Higher wins.
const (
	rankDerived  = 1
	rankPhoto    = 2
	rankExplicit = 3
)

var ranks = map[Source]int{
	SourceManualAddress:  rankExplicit,
	SourceDevice:         rankExplicit,
	SourceEXIF:           rankPhoto,
	SourceGeocodeReverse: rankDerived,
	SourceGeocodeForward: rankDerived,
}

// ParseSource validates the textual form of a source tag.
func ParseSource(s string) (Source, error) {
	src := Source(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := ranks[src]; !ok {
		return SourceNone, fmt.Errorf("unknown candidate source %q", s)
	}

	return src, nil
}

// Rank returns the precedence of s; unknown sources rank zero.
func (s Source) Rank() int {
	return ranks[s]
}

// Explicit reports whether s is a direct user action.
func (s Source) Explicit() bool {
	return s.Rank() == rankExplicit
}

// Derived reports whether s is the output of a geocoding call.
func (s Source) Derived() bool {
	return s.Rank() == rankDerived
}

// Outranks reports whether s strictly beats other.
func (s Source) Outranks(other Source) bool {
	return s.Rank() > other.Rank()
}

// ErrEmptyCandidate is returned for a candidate with neither coordinates nor text.
var ErrEmptyCandidate = errors.New("candidate has neither coordinates nor address text")

// Candidate is one provisional location reading.
type Candidate struct {
	Source      Source         `json:"source"`
	Coordinates *spatial.Point `json:"coordinates,omitempty"`
	AddressText string         `json:"address_text,omitempty"`
	CapturedAt  time.Time      `json:"captured_at"`
	Generation  uint64         `json:"generation"`
}

// New builds a candidate stamped with the current time.
func New(src Source, coords *spatial.Point, address string) Candidate {
	return Candidate{
		Source:      src,
		Coordinates: coords,
		AddressText: SanitizeAddress(address),
		CapturedAt:  time.Now(),
	}
}

// HasCoordinates reports whether the candidate carries a coordinate pair.
func (c Candidate) HasCoordinates() bool {
	return c.Coordinates != nil
}

// HasAddress reports whether the candidate carries address text.
func (c Candidate) HasAddress() bool {
	return strings.TrimSpace(c.AddressText) != ""
}

// Validate checks the candidate invariants.
func (c Candidate) Validate() error {
	if c.Source.Rank() == 0 {
		return fmt.Errorf("unknown candidate source %q", c.Source)
	}

	if !c.HasCoordinates() && !c.HasAddress() {
		return ErrEmptyCandidate
	}

	if c.HasCoordinates() {
		if err := c.Coordinates.Validate(); err != nil {
			return fmt.Errorf("%s candidate: %w", c.Source, err)
		}
	}

	if len(c.AddressText) > MaxAddressLength {
		return fmt.Errorf("%s candidate: address too long (max %d characters)", c.Source, MaxAddressLength)
	}

	return nil
}

func (c Candidate) String() string {
	switch {
	case c.HasCoordinates() && c.HasAddress():
		return fmt.Sprintf("%s#%d(%s, %q)", c.Source, c.Generation, c.Coordinates, c.AddressText)
	case c.HasCoordinates():
		return fmt.Sprintf("%s#%d(%s)", c.Source, c.Generation, c.Coordinates)
	default:
		return fmt.Sprintf("%s#%d(%q)", c.Source, c.Generation, c.AddressText)
	}
}
