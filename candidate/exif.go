// Copyright 2025 The JalanKu Authors
// SPDX-License-Identifier: Apache-2.0

package candidate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jalanku/jalanku/spatial"
	"github.com/rwcarlsen/goexif/exif"
)

// ErrNoGPSData means the photo carries no usable location. It is the common
// case and is reported as information, not failure.
var ErrNoGPSData = errors.New("photo has no GPS data")

// EXIFExtractor reads the GPS position embedded in a JPEG or TIFF photo.
type EXIFExtractor struct{}

// Extract decodes the photo metadata and returns an exif candidate. Photos
// without EXIF, without GPS tags or with a (0, 0) fix yield ErrNoGPSData.
func (EXIFExtractor) Extract(ctx context.Context, photo io.Reader) (Candidate, error) {
	type result struct {
		c   Candidate
		err error
	}

	done := make(chan result, 1)

	go func() {
		c, err := extract(photo)
		done <- result{c, err}
	}()

	select {
	case r := <-done:
		return r.c, r.err
	case <-ctx.Done():
		return Candidate{}, ctx.Err()
	}
}

func extract(photo io.Reader) (Candidate, error) {
	x, err := exif.Decode(photo)
	if err != nil {
		if exif.IsCriticalError(err) {
			return Candidate{}, fmt.Errorf("%w: %w", ErrNoGPSData, err)
		}
	}

	if x == nil {
		return Candidate{}, ErrNoGPSData
	}

	lat, lng, err := x.LatLong()
	if err != nil {
		return Candidate{}, fmt.Errorf("%w: %w", ErrNoGPSData, err)
	}

	p := spatial.Point{Lat: lat, Lng: lng}
	if p.IsZero() {
		return Candidate{}, ErrNoGPSData
	}

	if err := p.Validate(); err != nil {
		return Candidate{}, fmt.Errorf("%w: %w", ErrNoGPSData, err)
	}

	c := New(SourceEXIF, &p, "")
	if taken, err := x.DateTime(); err == nil {
		c.CapturedAt = taken
	} else {
		c.CapturedAt = time.Now()
	}

	return c, nil
}
