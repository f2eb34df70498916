// Copyright 2025 The JalanKu Authors
// SPDX-License-Identifier: Apache-2.0

package match

import (
	"context"
	"errors"
	"testing"

	"github.com/jalanku/jalanku/geocode"
	"github.com/jalanku/jalanku/geocode/geocodetest"
	"github.com/jalanku/jalanku/region"
	"github.com/jalanku/jalanku/region/regiontest"
	"github.com/jalanku/jalanku/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tunjungan = spatial.Point{Lat: -7.257472, Lng: 112.752088}

func TestMatcherReverseGeocodes(t *testing.T) {
	fake := geocodetest.New().AddReverse(tunjungan, "Jl. Tunjungan, Genteng, Surabaya, Jawa Timur")
	m := NewMatcher(StaticCatalog(regiontest.Catalog()), fake, nil)

	res, err := m.Match(context.Background(), Input{Coordinates: &tunjungan})
	require.NoError(t, err)

	assert.Equal(t, regiontest.Genteng, res.Selection)
	assert.Equal(t, ConfidenceHigh, res.Confidence)
	assert.Equal(t, 3, res.MatchedLevels)
	assert.Equal(t, "reverse-geocode", res.Via)
	assert.Equal(t, "Jl. Tunjungan, Genteng, Surabaya, Jawa Timur", res.AddressText)
}

func TestMatcherPrefersText(t *testing.T) {
	fake := geocodetest.New()
	m := NewMatcher(StaticCatalog(regiontest.Catalog()), fake, nil)

	res, err := m.Match(context.Background(), Input{AddressText: "Menteng, Jakarta Pusat, DKI Jakarta", Coordinates: &tunjungan})
	require.NoError(t, err)
	assert.Equal(t, regiontest.Menteng, res.Selection)
	assert.Zero(t, fake.Calls())
}

func TestMatcherGatewayFailure(t *testing.T) {
	fake := geocodetest.New()
	fake.FailWith(&geocode.GeocodingError{Type: geocode.ErrorTypeNetworkError, Message: "no route to host"})

	t.Run("without locator", func(t *testing.T) {
		m := NewMatcher(StaticCatalog(regiontest.Catalog()), fake, nil)

		res, err := m.Match(context.Background(), Input{Coordinates: &tunjungan})
		require.ErrorIs(t, err, geocode.ErrUnavailable)
		assert.Equal(t, ConfidenceNone, res.Confidence)
		assert.True(t, res.Selection.IsEmpty())
	})

	t.Run("with boundary locator", func(t *testing.T) {
		locator, err := region.NewLocator(regiontest.Catalog(), 15)
		require.NoError(t, err)

		m := NewMatcher(StaticCatalog(regiontest.Catalog()), fake, locator)

		res, err := m.Match(context.Background(), Input{Coordinates: &tunjungan})
		require.NoError(t, err)
		assert.Equal(t, regiontest.Genteng, res.Selection)
		assert.Equal(t, BoundaryConfidence, res.Confidence)
		assert.Equal(t, "boundary", res.Via)
		assert.Equal(t, "Genteng, Surabaya, Jawa Timur", res.AddressText)
	})
}

func TestMatcherReferenceDataUnavailable(t *testing.T) {
	broken := func(context.Context) (*region.Catalog, error) {
		return nil, errors.New("disk on fire")
	}

	m := NewMatcher(broken, geocodetest.New(), nil)

	res, err := m.Match(context.Background(), Input{AddressText: "Surabaya"})
	require.ErrorIs(t, err, region.ErrReferenceDataUnavailable)
	assert.Equal(t, NoMatch(), res)

	_, err = NewMatcher(StaticCatalog(nil), nil, nil).Match(context.Background(), Input{AddressText: "Surabaya"})
	assert.ErrorIs(t, err, region.ErrReferenceDataUnavailable)
}

func TestMatcherEmptyInput(t *testing.T) {
	m := NewMatcher(StaticCatalog(regiontest.Catalog()), nil, nil)

	res, err := m.Match(context.Background(), Input{})
	require.NoError(t, err)
	assert.Equal(t, ConfidenceNone, res.Confidence)
}

// Forward then reverse geocoding lands on the same administrative path as
// matching the typed address directly.
func TestMatcherSemanticRoundTrip(t *testing.T) {
	const typed = "Jl. Tunjungan, Genteng, Surabaya, Jawa Timur"

	fake := geocodetest.New().
		AddForward(typed, tunjungan, "Jl. Tunjungan No.1, Genteng, Kec. Genteng, Surabaya, Jawa Timur 60275, Indonesia").
		AddReverse(tunjungan, "Jl. Tunjungan No.1, Genteng, Kec. Genteng, Surabaya, Jawa Timur 60275, Indonesia")

	m := NewMatcher(StaticCatalog(regiontest.Catalog()), fake, nil)
	ctx := context.Background()

	direct, err := m.Match(ctx, Input{AddressText: typed})
	require.NoError(t, err)

	fwd, err := fake.Forward(ctx, typed)
	require.NoError(t, err)

	viaCoords, err := m.Match(ctx, Input{Coordinates: &fwd.Point})
	require.NoError(t, err)

	assert.Equal(t, direct.Selection, viaCoords.Selection)
	assert.Equal(t, direct.Confidence, viaCoords.Confidence)
}
