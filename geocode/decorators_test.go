// Copyright 2025 The JalanKu Authors
// SPDX-License-Identifier: Apache-2.0

package geocode_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jalanku/jalanku/geocode"
	"github.com/jalanku/jalanku/geocode/geocodetest"
	"github.com/jalanku/jalanku/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

var tunjungan = spatial.Point{Lat: -7.257472, Lng: 112.752088}

// stubborn ignores its context and answers after delay.
type stubborn struct {
	delay time.Duration
}

func (s stubborn) Forward(context.Context, string) (*geocode.Result, error) {
	time.Sleep(s.delay)

	return &geocode.Result{Provider: "stubborn"}, nil
}

func (s stubborn) Reverse(context.Context, spatial.Point) (*geocode.Result, error) {
	time.Sleep(s.delay)

	return &geocode.Result{Provider: "stubborn"}, nil
}

func TestWithTimeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	gw := geocode.WithTimeout(stubborn{delay: 200 * time.Millisecond}, 20*time.Millisecond)

	_, err := gw.Reverse(context.Background(), tunjungan)
	require.Error(t, err)
	assert.True(t, geocode.IsTimeoutError(err))
	assert.ErrorIs(t, err, geocode.ErrUnavailable)

	// Let the abandoned call finish so goleak sees a clean slate.
	time.Sleep(250 * time.Millisecond)
}

func TestWithTimeoutPassesThrough(t *testing.T) {
	fake := geocodetest.New().AddReverse(tunjungan, "Jl. Tunjungan, Genteng, Surabaya, Jawa Timur")
	gw := geocode.WithTimeout(fake, time.Second)

	res, err := gw.Reverse(context.Background(), tunjungan)
	require.NoError(t, err)
	assert.Equal(t, "Jl. Tunjungan, Genteng, Surabaya, Jawa Timur", res.DisplayName)

	_, err = gw.Forward(context.Background(), "nowhere")
	assert.Equal(t, geocode.ErrorTypeNotFound, geocode.TypeOf(err))
}

func TestCached(t *testing.T) {
	fake := geocodetest.New().
		AddReverse(tunjungan, "Jl. Tunjungan, Surabaya").
		AddForward("Jl. Tunjungan, Surabaya", tunjungan, "Jl. Tunjungan, Surabaya")

	cached := geocode.NewCached(fake, time.Minute)
	ctx := context.Background()

	for range 3 {
		_, err := cached.Reverse(ctx, spatial.Point{Lat: -7.2574721, Lng: 112.7520879})
		require.NoError(t, err)
	}

	assert.Equal(t, 1, fake.Calls())

	_, err := cached.Forward(ctx, "Jl. Tunjungan, Surabaya")
	require.NoError(t, err)

	_, err = cached.Forward(ctx, "  jl.  tunjungan,   SURABAYA ")
	require.NoError(t, err)

	assert.Equal(t, 2, fake.Calls())
	assert.Equal(t, 2, cached.Len())
}

func TestCachedSkipsErrors(t *testing.T) {
	fake := geocodetest.New()
	fake.FailWith(&geocode.GeocodingError{Type: geocode.ErrorTypeNetworkError, Message: "down"})

	cached := geocode.NewCached(fake, time.Minute)

	_, err := cached.Reverse(context.Background(), tunjungan)
	require.Error(t, err)
	assert.Zero(t, cached.Len())
}

type recordingObserver struct {
	mu   sync.Mutex
	seen []string
}

func (r *recordingObserver) ObserveGeocode(direction string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	outcome := "ok"
	if err != nil {
		outcome = geocode.TypeOf(err).String()
	}

	r.seen = append(r.seen, direction+":"+outcome)
}

func TestWithObserver(t *testing.T) {
	obs := &recordingObserver{}
	fake := geocodetest.New().AddReverse(tunjungan, "Surabaya")
	gw := geocode.WithObserver(fake, obs)

	_, _ = gw.Reverse(context.Background(), tunjungan)
	_, _ = gw.Forward(context.Background(), "Atlantis")

	assert.Equal(t, []string{"reverse:ok", "forward:not_found"}, obs.seen)
}

func TestDisabled(t *testing.T) {
	_, err := geocode.Disabled{}.Forward(context.Background(), "Surabaya")
	assert.ErrorIs(t, err, geocode.ErrUnavailable)

	_, err = geocode.Disabled{}.Reverse(context.Background(), tunjungan)
	assert.True(t, errors.Is(err, geocode.ErrUnavailable))
}
