// Copyright 2025 The JalanKu Authors
// SPDX-License-Identifier: Apache-2.0

// Package geocode is the gateway to the external geocoding provider: forward
// (address to coordinates) and reverse (coordinates to address) lookups.
package geocode

import (
	"context"

	"github.com/jalanku/jalanku/spatial"
)

// Result represents a geocoding result from any provider.
type Result struct {
	Point       spatial.Point
	Confidence  string // high, medium, low
	Provider    string
	DisplayName string // formatted address
}

// Gateway is implemented by every geocoding provider and decorator.
type Gateway interface {
	Forward(ctx context.Context, address string) (*Result, error)
	Reverse(ctx context.Context, p spatial.Point) (*Result, error)
}

// Disabled is the gateway used when no provider is configured. Every lookup
// fails with ErrUnavailable so callers degrade to manual entry.
type Disabled struct{}

// Forward implements Gateway.
func (Disabled) Forward(context.Context, string) (*Result, error) {
	return nil, &GeocodingError{Type: ErrorTypeUnavailable, Message: "geocoding disabled"}
}

// Reverse implements Gateway.
func (Disabled) Reverse(context.Context, spatial.Point) (*Result, error) {
	return nil, &GeocodingError{Type: ErrorTypeUnavailable, Message: "geocoding disabled"}
}
