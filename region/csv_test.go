// Copyright 2025 The JalanKu Authors
// SPDX-License-Identifier: Apache-2.0

package region_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jalanku/jalanku/region"
	"github.com/jalanku/jalanku/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCode(t *testing.T) {
	tests := []struct {
		code       string
		wantLevel  region.Level
		wantParent string
		wantErr    bool
	}{
		{"35", region.LevelProvince, "", false},
		{"35.78", region.LevelRegency, "35", false},
		{" 35.78.09 ", region.LevelDistrict, "35.78", false},
		{"35.78.09.1001", 0, "", true},
		{"3578", 0, "", true},
		{"3", 0, "", true},
		{"", 0, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			level, parent, err := region.ParseCode(tt.code)
			if tt.wantErr {
				assert.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantLevel, level)
			assert.Equal(t, tt.wantParent, parent)
		})
	}
}

func TestReadCSV(t *testing.T) {
	input := `kode,nama,lat,lng
35,Jawa Timur
35.78,Kota Surabaya
35.78.09,Genteng,-7.2575,112.7465
35.78.10, Tegalsari,,
`

	nodes, err := region.ReadCSV(strings.NewReader(input), "")
	require.NoError(t, err)

	want := []region.Node{
		{Level: region.LevelProvince, Code: "35", Name: "Jawa Timur"},
		{Level: region.LevelRegency, Code: "35.78", Name: "Kota Surabaya", ParentCode: "35"},
		{Level: region.LevelDistrict, Code: "35.78.09", Name: "Genteng", ParentCode: "35.78", Centroid: &spatial.Point{Lat: -7.2575, Lng: 112.7465}},
		{Level: region.LevelDistrict, Code: "35.78.10", Name: "Tegalsari", ParentCode: "35.78"},
	}

	if diff := cmp.Diff(want, nodes); diff != "" {
		t.Errorf("ReadCSV() mismatch (-want +got):\n%s", diff)
	}
}

func TestReadCSVCharset(t *testing.T) {
	// "Pémalang" encoded in windows-1252: é is 0xE9.
	input := []byte("33.27,P\xe9malang\n")

	nodes, err := region.ReadCSV(bytes.NewReader(input), "windows-1252")
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "Pémalang", nodes[0].Name)
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"bad code", "35-78,Surabaya\n"},
		{"missing name", "35.78\n"},
		{"bad latitude", "35.78.09,Genteng,north,112.7\n"},
		{"out of range", "35.78.09,Genteng,-97.2,112.7\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := region.ReadCSV(strings.NewReader(tt.input), "")
			assert.Error(t, err)
		})
	}
}
