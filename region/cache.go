// Copyright 2025 The JalanKu Authors
// SPDX-License-Identifier: Apache-2.0

package region

import (
	"context"
	"slices"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// CachedStore shares option lists across every draft. Entries expire after
// the configured TTL and concurrent misses for the same key hit the backing
// store once.
type CachedStore struct {
	store Store
	cache *cache.Cache
	group singleflight.Group
}

// NewCachedStore wraps store with a TTL cache.
func NewCachedStore(store Store, ttl time.Duration) *CachedStore {
	return &CachedStore{
		store: store,
		cache: cache.New(ttl, ttl*2),
	}
}

// ListProvinces implements Store.
func (c *CachedStore) ListProvinces(ctx context.Context) ([]Node, error) {
	return c.fetch("provinces", func() ([]Node, error) {
		return c.store.ListProvinces(ctx)
	})
}

// ListRegencies implements Store.
func (c *CachedStore) ListRegencies(ctx context.Context, provinceCode string) ([]Node, error) {
	return c.fetch("regencies:"+provinceCode, func() ([]Node, error) {
		return c.store.ListRegencies(ctx, provinceCode)
	})
}

// ListDistricts implements Store.
func (c *CachedStore) ListDistricts(ctx context.Context, regencyCode string) ([]Node, error) {
	return c.fetch("districts:"+regencyCode, func() ([]Node, error) {
		return c.store.ListDistricts(ctx, regencyCode)
	})
}

// Flush drops every cached list.
func (c *CachedStore) Flush() {
	c.cache.Flush()
}

func (c *CachedStore) fetch(key string, load func() ([]Node, error)) ([]Node, error) {
	if cached, found := c.cache.Get(key); found {
		nodes, _ := cached.([]Node)

		return slices.Clone(nodes), nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		nodes, err := load()
		if err != nil {
			return nil, err
		}

		c.cache.Set(key, nodes, cache.DefaultExpiration)

		return nodes, nil
	})
	if err != nil {
		return nil, err
	}

	nodes, _ := v.([]Node)

	return slices.Clone(nodes), nil
}
