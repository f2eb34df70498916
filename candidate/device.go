// Copyright 2025 The JalanKu Authors
// SPDX-License-Identifier: Apache-2.0

package candidate

import (
	"context"
	"errors"
	"fmt"

	"github.com/jalanku/jalanku/spatial"
)

// ErrPositionUnavailable is returned when the device can't produce a fix
// (permission denied, no signal).
var ErrPositionUnavailable = errors.New("device position unavailable")

// DeviceLocator is the device geolocation collaborator.
type DeviceLocator interface {
	CurrentPosition(ctx context.Context) (spatial.Point, error)
}

// DeviceLocatorFunc adapts a function to DeviceLocator.
type DeviceLocatorFunc func(ctx context.Context) (spatial.Point, error)

// CurrentPosition implements DeviceLocator.
func (f DeviceLocatorFunc) CurrentPosition(ctx context.Context) (spatial.Point, error) {
	return f(ctx)
}

// StaticLocator reports a fixed position, or ErrPositionUnavailable when nil.
// The HTTP adapter uses it to turn a browser-reported fix into a candidate.
type StaticLocator struct {
	Position *spatial.Point
}

// CurrentPosition implements DeviceLocator.
func (s StaticLocator) CurrentPosition(_ context.Context) (spatial.Point, error) {
	if s.Position == nil {
		return spatial.Point{}, ErrPositionUnavailable
	}

	return *s.Position, nil
}

// FromDevice asks the locator for a fix and wraps it as a device candidate.
func FromDevice(ctx context.Context, locator DeviceLocator) (Candidate, error) {
	p, err := locator.CurrentPosition(ctx)
	if err != nil {
		if errors.Is(err, ErrPositionUnavailable) {
			return Candidate{}, err
		}

		return Candidate{}, fmt.Errorf("%w: %w", ErrPositionUnavailable, err)
	}

	c := New(SourceDevice, &p, "")

	return c, c.Validate()
}
