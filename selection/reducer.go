// Copyright 2025 The JalanKu Authors
// SPDX-License-Identifier: Apache-2.0

// Package selection drives the three-level province, regency and district
// selector.
package selection

import (
	"fmt"
	"strings"

	"github.com/jalanku/jalanku/region"
)

// Kind enumerates the reducer actions.
type Kind int

const (
	SetProvince Kind = iota + 1
	SetRegency
	SetDistrict
	ApplyMatch
	Clear
)

func (k Kind) String() string {
	switch k {
	case SetProvince:
		return "set-province"
	case SetRegency:
		return "set-regency"
	case SetDistrict:
		return "set-district"
	case ApplyMatch:
		return "apply-match"
	case Clear:
		return "clear"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Action is one input to Reduce. Code is used by the Set* kinds, Selection
// by ApplyMatch.
type Action struct {
	Kind      Kind
	Code      string
	Selection region.Selection
}

// SetAction builds the Set* action for a level.
func SetAction(level region.Level, code string) Action {
	switch level {
	case region.LevelProvince:
		return Action{Kind: SetProvince, Code: code}
	case region.LevelRegency:
		return Action{Kind: SetRegency, Code: code}
	case region.LevelDistrict:
		return Action{Kind: SetDistrict, Code: code}
	}

	return Action{}
}

// Reduce applies a to cur. Setting a level clears every level below it; an
// empty or "all" code clears the level too. Setting a child without its
// parent fails with region.ErrInvalidSelectionPath and leaves cur untouched.
func Reduce(cur region.Selection, a Action) (region.Selection, error) {
	code := strings.TrimSpace(a.Code)
	empty := region.IsEmptyCode(code)

	switch a.Kind {
	case SetProvince:
		if empty {
			return region.Selection{}, nil
		}

		return region.Selection{ProvinceCode: code}, nil

	case SetRegency:
		if empty {
			cur.RegencyCode, cur.DistrictCode = "", ""

			return cur, nil
		}

		if cur.ProvinceCode == "" {
			return cur, fmt.Errorf("%w: regency %s without province", region.ErrInvalidSelectionPath, code)
		}

		if code != cur.RegencyCode {
			cur.DistrictCode = ""
		}

		cur.RegencyCode = code

		return cur, nil

	case SetDistrict:
		if empty {
			cur.DistrictCode = ""

			return cur, nil
		}

		if cur.RegencyCode == "" {
			return cur, fmt.Errorf("%w: district %s without regency", region.ErrInvalidSelectionPath, code)
		}

		cur.DistrictCode = code

		return cur, nil

	case ApplyMatch:
		if err := a.Selection.CheckShape(); err != nil {
			return cur, err
		}

		return a.Selection, nil

	case Clear:
		return region.Selection{}, nil
	}

	return cur, fmt.Errorf("unknown selection action %v", a.Kind)
}
