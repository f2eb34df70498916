// Copyright 2025 The JalanKu Authors
// SPDX-License-Identifier: Apache-2.0

package match

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/jalanku/jalanku/geocode"
	"github.com/jalanku/jalanku/region"
	"github.com/jalanku/jalanku/spatial"
)

// Input is what the matcher is asked to place.
type Input struct {
	AddressText string
	Coordinates *spatial.Point
}

// CatalogFunc returns the current reference catalog.
type CatalogFunc func(ctx context.Context) (*region.Catalog, error)

// StaticCatalog serves a catalog loaded up front.
func StaticCatalog(c *region.Catalog) CatalogFunc {
	return func(context.Context) (*region.Catalog, error) {
		if c == nil {
			return nil, region.ErrReferenceDataUnavailable
		}

		return c, nil
	}
}

// BoundaryLocator resolves coordinates without the geocoding gateway.
type BoundaryLocator interface {
	Locate(p spatial.Point) (region.Selection, bool)
}

// BoundaryConfidence is the grade given to a nearest-centroid lookup. It is
// an approximation of the true boundary, so it never reaches high.
const BoundaryConfidence = ConfidenceMedium

// Matcher adds coordinate handling to Match: coordinates are reverse
// geocoded into text first, and fall back to the boundary locator when the
// gateway fails.
type Matcher struct {
	catalog CatalogFunc
	gateway geocode.Gateway
	locator BoundaryLocator // may be nil
}

// NewMatcher builds a matcher. locator may be nil.
func NewMatcher(catalog CatalogFunc, gateway geocode.Gateway, locator BoundaryLocator) *Matcher {
	if gateway == nil {
		gateway = geocode.Disabled{}
	}

	return &Matcher{catalog: catalog, gateway: gateway, locator: locator}
}

// Match places in on the hierarchy. The returned error is recoverable
// (wrapping geocode.ErrUnavailable or region.ErrReferenceDataUnavailable);
// the result is then NoMatch or a partial answer.
func (m *Matcher) Match(ctx context.Context, in Input) (Result, error) {
	catalog, err := m.catalog(ctx)
	if err != nil {
		if !errors.Is(err, region.ErrReferenceDataUnavailable) {
			err = fmt.Errorf("%w: %w", region.ErrReferenceDataUnavailable, err)
		}

		return NoMatch(), err
	}

	text := strings.TrimSpace(in.AddressText)
	via := "text"

	var geoErr error

	if text == "" && in.Coordinates != nil {
		res, err := m.gateway.Reverse(ctx, *in.Coordinates)
		if err == nil && strings.TrimSpace(res.DisplayName) != "" {
			text, via = res.DisplayName, "reverse-geocode"
		} else {
			if err == nil {
				err = &geocode.GeocodingError{Type: geocode.ErrorTypeNotFound, Message: "reverse geocoding returned no address"}
			}

			geoErr = fmt.Errorf("reverse geocoding %s: %w", in.Coordinates, err)
		}
	}

	if text != "" {
		res := Match(catalog, text)
		res.Via = via

		return res, nil
	}

	if in.Coordinates != nil && m.locator != nil {
		if sel, ok := m.locator.Locate(*in.Coordinates); ok {
			if geoErr != nil {
				log.Printf("Geocoding failed, using boundary lookup for %s: %v", in.Coordinates, geoErr)
			}

			return m.fromBoundary(catalog, sel), nil
		}
	}

	if geoErr != nil {
		return NoMatch(), geoErr
	}

	return NoMatch(), nil
}

func (m *Matcher) fromBoundary(catalog *region.Catalog, sel region.Selection) Result {
	res := Result{
		Selection:     sel,
		Confidence:    BoundaryConfidence,
		MatchedLevels: sel.Depth(),
		Via:           "boundary",
	}

	names := make([]string, 0, 3)

	for _, level := range region.Levels {
		n, ok := catalog.Node(level, sel.Code(level))
		if !ok {
			continue
		}

		res.Matches = append(res.Matches, LevelMatch{Level: level, Code: n.Code, Name: n.Name})
		names = append([]string{n.Name}, names...)
	}

	res.AddressText = strings.Join(names, ", ")

	return res
}
