// Copyright 2025 The JalanKu Authors
// SPDX-License-Identifier: Apache-2.0

package candidate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jalanku/jalanku/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourcePrecedence(t *testing.T) {
	tests := []struct {
		a, b Source
		want bool
	}{
		{SourceManualAddress, SourceEXIF, true},
		{SourceDevice, SourceGeocodeReverse, true},
		{SourceEXIF, SourceGeocodeReverse, true},
		{SourceEXIF, SourceGeocodeForward, true},
		{SourceGeocodeReverse, SourceEXIF, false},
		{SourceDevice, SourceManualAddress, false},
		{SourceManualAddress, SourceDevice, false},
		{SourceEXIF, SourceNone, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.a)+">"+string(tt.b), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Outranks(tt.b))
		})
	}

	assert.True(t, SourceDevice.Explicit())
	assert.True(t, SourceManualAddress.Explicit())
	assert.False(t, SourceEXIF.Explicit())
	assert.True(t, SourceGeocodeForward.Derived())
	assert.False(t, SourceEXIF.Derived())
}

func TestParseSource(t *testing.T) {
	src, err := ParseSource(" EXIF ")
	require.NoError(t, err)
	assert.Equal(t, SourceEXIF, src)

	_, err = ParseSource("carrier-pigeon")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		c       Candidate
		wantErr error
	}{
		{
			name: "coordinates only",
			c:    Candidate{Source: SourceEXIF, Coordinates: &spatial.Point{Lat: -7.25, Lng: 112.75}},
		},
		{
			name: "address only",
			c:    Candidate{Source: SourceManualAddress, AddressText: "Jl. Tunjungan, Surabaya"},
		},
		{
			name:    "empty",
			c:       Candidate{Source: SourceManualAddress, AddressText: "   "},
			wantErr: ErrEmptyCandidate,
		},
		{
			name:    "out of bounds",
			c:       Candidate{Source: SourceDevice, Coordinates: &spatial.Point{Lat: -97, Lng: 112.75}},
			wantErr: spatial.ErrOutOfBounds,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	assert.Error(t, Candidate{Source: "pigeon", AddressText: "x"}.Validate())
}

func TestSanitizeAddress(t *testing.T) {
	assert.Equal(t, "Jl. Tunjungan, Genteng", SanitizeAddress("  Jl.  Tunjungan,\n Genteng \t"))

	long := strings.Repeat("é", 300) // 600 bytes
	got := SanitizeAddress(long)
	assert.LessOrEqual(t, len(got), MaxAddressLength)
	assert.True(t, strings.HasPrefix(long, got))
	assert.Equal(t, 250, len([]rune(got)))
}

func TestManualConstructors(t *testing.T) {
	c, err := ManualAddress("  Menteng, Jakarta Pusat ")
	require.NoError(t, err)
	assert.Equal(t, SourceManualAddress, c.Source)
	assert.Equal(t, "Menteng, Jakarta Pusat", c.AddressText)
	assert.False(t, c.CapturedAt.IsZero())

	_, err = ManualAddress("")
	assert.ErrorIs(t, err, ErrEmptyCandidate)

	c, err = ManualCoordinates(spatial.Point{Lat: -6.2, Lng: 106.8})
	require.NoError(t, err)
	assert.Equal(t, SourceDevice, c.Source)

	_, err = ManualCoordinates(spatial.Point{Lat: 0, Lng: 200})
	assert.Error(t, err)
}

func TestFromDevice(t *testing.T) {
	ctx := context.Background()
	p := spatial.Point{Lat: -6.1963, Lng: 106.8320}

	c, err := FromDevice(ctx, StaticLocator{Position: &p})
	require.NoError(t, err)
	assert.Equal(t, SourceDevice, c.Source)
	assert.Equal(t, p, *c.Coordinates)

	_, err = FromDevice(ctx, StaticLocator{})
	assert.ErrorIs(t, err, ErrPositionUnavailable)

	denied := DeviceLocatorFunc(func(context.Context) (spatial.Point, error) {
		return spatial.Point{}, errors.New("permission denied")
	})

	_, err = FromDevice(ctx, denied)
	assert.ErrorIs(t, err, ErrPositionUnavailable)
	assert.Contains(t, err.Error(), "permission denied")
}
