// Copyright 2025 The JalanKu Authors
// SPDX-License-Identifier: Apache-2.0

// Package regiontest provides a small administrative hierarchy for tests.
package regiontest

import (
	"context"
	"sync"

	"github.com/jalanku/jalanku/region"
	"github.com/jalanku/jalanku/spatial"
)

func pt(lat, lng float64) *spatial.Point {
	return &spatial.Point{Lat: lat, Lng: lng}
}

// Nodes returns a fresh copy of the fixture hierarchy.
func Nodes() []region.Node {
	return []region.Node{
		{Level: region.LevelProvince, Code: "31", Name: "DKI Jakarta"},
		{Level: region.LevelProvince, Code: "32", Name: "Jawa Barat"},
		{Level: region.LevelProvince, Code: "35", Name: "Jawa Timur"},

		{Level: region.LevelRegency, Code: "31.71", Name: "Jakarta Pusat", ParentCode: "31"},
		{Level: region.LevelRegency, Code: "31.74", Name: "Jakarta Selatan", ParentCode: "31"},
		{Level: region.LevelRegency, Code: "32.73", Name: "Kota Bandung", ParentCode: "32"},
		{Level: region.LevelRegency, Code: "32.76", Name: "Kota Depok", ParentCode: "32"},
		{Level: region.LevelRegency, Code: "35.15", Name: "Sidoarjo", ParentCode: "35"},
		{Level: region.LevelRegency, Code: "35.78", Name: "Surabaya", ParentCode: "35"},

		{Level: region.LevelDistrict, Code: "31.71.01", Name: "Gambir", ParentCode: "31.71", Centroid: pt(-6.1766, 106.8194)},
		{Level: region.LevelDistrict, Code: "31.71.06", Name: "Menteng", ParentCode: "31.71", Centroid: pt(-6.1963, 106.8320)},
		{Level: region.LevelDistrict, Code: "31.74.01", Name: "Tebet", ParentCode: "31.74", Centroid: pt(-6.2263, 106.8530)},
		{Level: region.LevelDistrict, Code: "31.74.02", Name: "Setiabudi", ParentCode: "31.74", Centroid: pt(-6.2180, 106.8300)},
		{Level: region.LevelDistrict, Code: "32.73.20", Name: "Coblong", ParentCode: "32.73", Centroid: pt(-6.8874, 107.6130)},
		{Level: region.LevelDistrict, Code: "32.76.01", Name: "Pancoran Mas", ParentCode: "32.76", Centroid: pt(-6.3930, 106.8030)},
		{Level: region.LevelDistrict, Code: "35.15.01", Name: "Sidoarjo", ParentCode: "35.15", Centroid: pt(-7.4478, 112.7183)},
		{Level: region.LevelDistrict, Code: "35.78.09", Name: "Genteng", ParentCode: "35.78", Centroid: pt(-7.2575, 112.7465)},
		{Level: region.LevelDistrict, Code: "35.78.10", Name: "Tegalsari", ParentCode: "35.78", Centroid: pt(-7.2710, 112.7380)},
		{Level: region.LevelDistrict, Code: "35.78.11", Name: "Bubutan", ParentCode: "35.78", Centroid: pt(-7.2490, 112.7340)},
	}
}

// Catalog builds the fixture catalog, panicking on error.
func Catalog() *region.Catalog {
	c, err := region.NewCatalog(Nodes())
	if err != nil {
		panic(err)
	}

	return c
}

// Well-known selections of the fixture.
var (
	Menteng = region.Selection{ProvinceCode: "31", RegencyCode: "31.71", DistrictCode: "31.71.06"}
	Genteng = region.Selection{ProvinceCode: "35", RegencyCode: "35.78", DistrictCode: "35.78.09"}
	Coblong = region.Selection{ProvinceCode: "32", RegencyCode: "32.73", DistrictCode: "32.73.20"}
)

// GatedStore is a Store whose child-level lookups block until released, so
// tests can choose the order in which responses arrive.
type GatedStore struct {
	Catalog *region.Catalog

	mu    sync.Mutex
	gates map[string]chan struct{}
	calls []string
	fail  map[string]error
}

// NewGatedStore wraps the fixture catalog. Nothing blocks until Hold is called.
func NewGatedStore() *GatedStore {
	return &GatedStore{
		Catalog: Catalog(),
		gates:   make(map[string]chan struct{}),
		fail:    make(map[string]error),
	}
}

// Hold makes lookups for key ("provinces", "regencies:<code>", "districts:<code>")
// block until Release(key).
func (s *GatedStore) Hold(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gates[key] = make(chan struct{})
}

// Release unblocks lookups for key.
func (s *GatedStore) Release(key string) {
	s.mu.Lock()
	gate, ok := s.gates[key]
	delete(s.gates, key)
	s.mu.Unlock()

	if ok {
		close(gate)
	}
}

// Fail makes lookups for key return err.
func (s *GatedStore) Fail(key string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fail[key] = err
}

// Calls returns the keys requested so far, in order.
func (s *GatedStore) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.calls...)
}

func (s *GatedStore) wait(ctx context.Context, key string) error {
	s.mu.Lock()
	s.calls = append(s.calls, key)
	gate := s.gates[key]
	err := s.fail[key]
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return err
}

// ListProvinces implements region.Store.
func (s *GatedStore) ListProvinces(ctx context.Context) ([]region.Node, error) {
	if err := s.wait(ctx, "provinces"); err != nil {
		return nil, err
	}

	return s.Catalog.Provinces(), nil
}

// ListRegencies implements region.Store.
func (s *GatedStore) ListRegencies(ctx context.Context, provinceCode string) ([]region.Node, error) {
	if err := s.wait(ctx, "regencies:"+provinceCode); err != nil {
		return nil, err
	}

	return s.Catalog.Regencies(provinceCode), nil
}

// ListDistricts implements region.Store.
func (s *GatedStore) ListDistricts(ctx context.Context, regencyCode string) ([]region.Node, error) {
	if err := s.wait(ctx, "districts:"+regencyCode); err != nil {
		return nil, err
	}

	return s.Catalog.Districts(regencyCode), nil
}
