// Copyright 2025 The JalanKu Authors
// SPDX-License-Identifier: Apache-2.0

// Package region is the read-only administrative reference store: provinces,
// regencies/cities and districts, plus the selection type that names a path
// through them.
package region

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jalanku/jalanku/spatial"
)

var (
	// ErrReferenceDataUnavailable is returned when the administrative catalog
	// can't be read. Callers degrade to free-text entry.
	ErrReferenceDataUnavailable = errors.New("reference data unavailable")

	// ErrInvalidSelectionPath flags an attempt to set a child level without a
	// valid parent. It is a caller bug, not an environmental condition.
	ErrInvalidSelectionPath = errors.New("invalid selection path")
)

// AllCode is the sentinel used by the form controls for "no filter".
const AllCode = "all"

// Level identifies a tier of the administrative hierarchy.
type Level int

const (
	LevelProvince Level = iota + 1
	LevelRegency
	LevelDistrict
)

// Levels lists the hierarchy top-down.
var Levels = []Level{LevelProvince, LevelRegency, LevelDistrict}

func (l Level) String() string {
	switch l {
	case LevelProvince:
		return "province"
	case LevelRegency:
		return "regency"
	case LevelDistrict:
		return "district"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// Valid reports whether l is one of the three known levels.
func (l Level) Valid() bool {
	return l >= LevelProvince && l <= LevelDistrict
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("invalid level %d", int(l))
	}

	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}

	*l = parsed

	return nil
}

// ParseLevel parses the textual form of a level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "province", "provinsi":
		return LevelProvince, nil
	case "regency", "city", "kabupaten", "kota":
		return LevelRegency, nil
	case "district", "kecamatan":
		return LevelDistrict, nil
	}

	return 0, fmt.Errorf("unknown level %q", s)
}

// Node is one entry of the administrative hierarchy.
type Node struct {
	Level      Level          `json:"level"`
	Code       string         `json:"code"`
	Name       string         `json:"name"`
	ParentCode string         `json:"parent_code,omitempty"`
	Centroid   *spatial.Point `json:"centroid,omitempty"`
}

// Validate checks the node in isolation; parent existence is checked by the catalog.
func (n Node) Validate() error {
	if !n.Level.Valid() {
		return fmt.Errorf("node %q: invalid level %d", n.Code, int(n.Level))
	}

	if strings.TrimSpace(n.Code) == "" {
		return fmt.Errorf("%s node: code must not be empty", n.Level)
	}

	if strings.TrimSpace(n.Name) == "" {
		return fmt.Errorf("%s %s: name must not be empty", n.Level, n.Code)
	}

	if n.Level == LevelProvince && n.ParentCode != "" {
		return fmt.Errorf("province %s: must not have a parent", n.Code)
	}

	if n.Level != LevelProvince && n.ParentCode == "" {
		return fmt.Errorf("%s %s: parent code is required", n.Level, n.Code)
	}

	if n.Centroid != nil {
		if err := n.Centroid.Validate(); err != nil {
			return fmt.Errorf("%s %s: %w", n.Level, n.Code, err)
		}
	}

	return nil
}

// IsEmptyCode reports whether code means "nothing selected".
func IsEmptyCode(code string) bool {
	code = strings.TrimSpace(code)

	return code == "" || strings.EqualFold(code, AllCode)
}

// Selection is the state of the three-level selector. Empty strings mean unset.
type Selection struct {
	ProvinceCode string `json:"province_code,omitempty"`
	RegencyCode  string `json:"regency_code,omitempty"`
	DistrictCode string `json:"district_code,omitempty"`
}

// IsEmpty reports whether no level is selected.
func (s Selection) IsEmpty() bool {
	return s == Selection{}
}

// Depth is the number of selected levels, counted top-down.
func (s Selection) Depth() int {
	switch {
	case s.ProvinceCode == "":
		return 0
	case s.RegencyCode == "":
		return 1
	case s.DistrictCode == "":
		return 2
	default:
		return 3
	}
}

// Code returns the code selected at the given level.
func (s Selection) Code(level Level) string {
	switch level {
	case LevelProvince:
		return s.ProvinceCode
	case LevelRegency:
		return s.RegencyCode
	case LevelDistrict:
		return s.DistrictCode
	}

	return ""
}

// CheckShape verifies the structural invariant: a child level is only set when
// its parent level is set. Parentage against real data is Catalog.ValidateSelection.
func (s Selection) CheckShape() error {
	if s.DistrictCode != "" && s.RegencyCode == "" {
		return fmt.Errorf("%w: district %s without regency", ErrInvalidSelectionPath, s.DistrictCode)
	}

	if s.RegencyCode != "" && s.ProvinceCode == "" {
		return fmt.Errorf("%w: regency %s without province", ErrInvalidSelectionPath, s.RegencyCode)
	}

	return nil
}

func (s Selection) String() string {
	parts := make([]string, 0, 3)

	for _, level := range Levels {
		if code := s.Code(level); code != "" {
			parts = append(parts, code)
		}
	}

	if len(parts) == 0 {
		return "<empty>"
	}

	return strings.Join(parts, " > ")
}
