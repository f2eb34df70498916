// Copyright 2025 The JalanKu Authors
// SPDX-License-Identifier: Apache-2.0

package selection

import (
	"math/rand/v2"
	"testing"

	"github.com/jalanku/jalanku/region"
	"github.com/jalanku/jalanku/region/regiontest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReduce(t *testing.T) {
	full := regiontest.Genteng

	tests := []struct {
		name    string
		cur     region.Selection
		action  Action
		want    region.Selection
		wantErr bool
	}{
		{
			name:   "province clears descendants",
			cur:    full,
			action: SetAction(region.LevelProvince, "31"),
			want:   region.Selection{ProvinceCode: "31"},
		},
		{
			name:   "same province still clears descendants",
			cur:    full,
			action: SetAction(region.LevelProvince, "35"),
			want:   region.Selection{ProvinceCode: "35"},
		},
		{
			name:   "province all clears everything",
			cur:    full,
			action: SetAction(region.LevelProvince, "all"),
			want:   region.Selection{},
		},
		{
			name:   "regency change clears district",
			cur:    full,
			action: SetAction(region.LevelRegency, "35.15"),
			want:   region.Selection{ProvinceCode: "35", RegencyCode: "35.15"},
		},
		{
			name:   "same regency keeps district",
			cur:    full,
			action: SetAction(region.LevelRegency, "35.78"),
			want:   full,
		},
		{
			name:   "empty regency clears below",
			cur:    full,
			action: SetAction(region.LevelRegency, ""),
			want:   region.Selection{ProvinceCode: "35"},
		},
		{
			name:    "regency without province",
			cur:     region.Selection{},
			action:  SetAction(region.LevelRegency, "35.78"),
			want:    region.Selection{},
			wantErr: true,
		},
		{
			name:   "district",
			cur:    region.Selection{ProvinceCode: "35", RegencyCode: "35.78"},
			action: SetAction(region.LevelDistrict, "35.78.10"),
			want:   region.Selection{ProvinceCode: "35", RegencyCode: "35.78", DistrictCode: "35.78.10"},
		},
		{
			name:    "district without regency",
			cur:     region.Selection{ProvinceCode: "35"},
			action:  SetAction(region.LevelDistrict, "35.78.10"),
			want:    region.Selection{ProvinceCode: "35"},
			wantErr: true,
		},
		{
			name:   "apply match replaces all levels at once",
			cur:    regiontest.Menteng,
			action: Action{Kind: ApplyMatch, Selection: full},
			want:   full,
		},
		{
			name:    "apply match rejects a broken shape",
			cur:     regiontest.Menteng,
			action:  Action{Kind: ApplyMatch, Selection: region.Selection{DistrictCode: "35.78.09"}},
			want:    regiontest.Menteng,
			wantErr: true,
		},
		{
			name:   "clear",
			cur:    full,
			action: Action{Kind: Clear},
			want:   region.Selection{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Reduce(tt.cur, tt.action)
			if tt.wantErr {
				assert.ErrorIs(t, err, region.ErrInvalidSelectionPath)
			} else {
				assert.NoError(t, err)
			}

			assert.Equal(t, tt.want, got)
		})
	}
}

// randomAction picks a set action with a code drawn from the catalog, or a
// sentinel, at a random level.
func randomAction(r *rand.Rand, nodes []region.Node) Action {
	level := region.Levels[r.IntN(len(region.Levels))]

	if r.IntN(8) == 0 {
		return SetAction(level, region.AllCode)
	}

	var codes []string

	for _, n := range nodes {
		if n.Level == level {
			codes = append(codes, n.Code)
		}
	}

	return SetAction(level, codes[r.IntN(len(codes))])
}

func TestReduceKeepsPathShape(t *testing.T) {
	nodes := regiontest.Nodes()
	r := rand.New(rand.NewPCG(1, 2))

	for run := range 200 {
		sel := region.Selection{}

		for step := range 30 {
			a := randomAction(r, nodes)

			next, err := Reduce(sel, a)
			if err != nil {
				require.ErrorIs(t, err, region.ErrInvalidSelectionPath)
				require.Equal(t, sel, next, "run %d step %d: rejected action must not change state", run, step)

				continue
			}

			require.NoError(t, next.CheckShape(), "run %d step %d: %v -> %v", run, step, a, next)

			if a.Kind == SetProvince {
				require.Empty(t, next.RegencyCode)
				require.Empty(t, next.DistrictCode)
			}

			sel = next
		}
	}
}
