// Copyright 2025 The JalanKu Authors
// SPDX-License-Identifier: Apache-2.0

package region

import (
	"fmt"
	"math"

	"github.com/jalanku/jalanku/spatial"
	"github.com/uber/h3-go/v4"
)

const (
	// LocatorResolution is the H3 resolution of the district index. Cells at
	// res 5 are roughly 250 km², about the size of a kecamatan.
	LocatorResolution = 5

	// cellSpacing is the approximate center-to-center distance of res 5 cells.
	cellSpacing = 14_000.0 // meters
)

// Locator resolves coordinates to the nearest district centroid without a
// network round-trip. Only districts that carry a centroid are indexed.
type Locator struct {
	catalog *Catalog
	cells   map[h3.Cell][]Node
	radius  float64 // meters
	ring    int
}

// NewLocator indexes the districts of catalog. Lookups farther than radiusKm
// from any centroid find nothing.
func NewLocator(catalog *Catalog, radiusKm float64) (*Locator, error) {
	if radiusKm <= 0 {
		return nil, fmt.Errorf("locator radius must be positive, got %f", radiusKm)
	}

	l := &Locator{
		catalog: catalog,
		cells:   make(map[h3.Cell][]Node),
		radius:  radiusKm * 1000,
		ring:    1 + int(math.Ceil(radiusKm*1000/cellSpacing)),
	}

	for _, d := range catalog.All(LevelDistrict) {
		if d.Centroid == nil {
			continue
		}

		cell, err := d.Centroid.Cell(LocatorResolution)
		if err != nil {
			return nil, fmt.Errorf("indexing district %s: %w", d.Code, err)
		}

		l.cells[cell] = append(l.cells[cell], d)
	}

	return l, nil
}

// Size returns the number of indexed districts.
func (l *Locator) Size() int {
	n := 0
	for _, nodes := range l.cells {
		n += len(nodes)
	}

	return n
}

// Locate returns the full path to the district whose centroid is nearest to p.
func (l *Locator) Locate(p spatial.Point) (Selection, bool) {
	if len(l.cells) == 0 || p.Validate() != nil {
		return Selection{}, false
	}

	origin, err := p.Cell(LocatorResolution)
	if err != nil {
		return Selection{}, false
	}

	disk, err := h3.GridDisk(origin, l.ring)
	if err != nil {
		return Selection{}, false
	}

	var (
		best     Node
		bestDist = math.Inf(1)
	)

	for _, cell := range disk {
		for _, d := range l.cells[cell] {
			dist := p.HaversineDistance(d.Centroid)
			if dist < bestDist || (dist == bestDist && d.Code < best.Code) {
				best, bestDist = d, dist
			}
		}
	}

	if bestDist > l.radius {
		return Selection{}, false
	}

	return l.catalog.PathTo(LevelDistrict, best.Code)
}
