// Copyright 2025 The JalanKu Authors
// SPDX-License-Identifier: Apache-2.0

package region

import (
	"context"
	"fmt"
)

// Store is the read side of the administrative reference data.
type Store interface {
	ListProvinces(ctx context.Context) ([]Node, error)
	ListRegencies(ctx context.Context, provinceCode string) ([]Node, error)
	ListDistricts(ctx context.Context, regencyCode string) ([]Node, error)
}

// LoadCatalog walks a store top-down and builds a catalog snapshot. Any
// failure is reported as ErrReferenceDataUnavailable.
func LoadCatalog(ctx context.Context, store Store) (*Catalog, error) {
	provinces, err := store.ListProvinces(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: listing provinces: %w", ErrReferenceDataUnavailable, err)
	}

	nodes := append([]Node(nil), provinces...)

	for _, p := range provinces {
		regencies, err := store.ListRegencies(ctx, p.Code)
		if err != nil {
			return nil, fmt.Errorf("%w: listing regencies of %s: %w", ErrReferenceDataUnavailable, p.Code, err)
		}

		nodes = append(nodes, regencies...)

		for _, r := range regencies {
			districts, err := store.ListDistricts(ctx, r.Code)
			if err != nil {
				return nil, fmt.Errorf("%w: listing districts of %s: %w", ErrReferenceDataUnavailable, r.Code, err)
			}

			nodes = append(nodes, districts...)
		}
	}

	catalog, err := NewCatalog(nodes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReferenceDataUnavailable, err)
	}

	return catalog, nil
}
