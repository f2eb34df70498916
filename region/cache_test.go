// Copyright 2025 The JalanKu Authors
// SPDX-License-Identifier: Apache-2.0

package region_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jalanku/jalanku/region"
	"github.com/jalanku/jalanku/region/regiontest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStore struct {
	region.Store
	regencies atomic.Int32
}

func (s *countingStore) ListRegencies(ctx context.Context, provinceCode string) ([]region.Node, error) {
	s.regencies.Add(1)

	return s.Store.ListRegencies(ctx, provinceCode)
}

func TestCachedStore(t *testing.T) {
	ctx := context.Background()
	backing := &countingStore{Store: regiontest.Catalog()}
	cached := region.NewCachedStore(backing, time.Minute)

	first, err := cached.ListRegencies(ctx, "35")
	require.NoError(t, err)
	assert.Equal(t, []string{"35.15", "35.78"}, codes(first))

	// Mutating the returned slice must not leak into the cache.
	first[0].Name = "mutated"

	second, err := cached.ListRegencies(ctx, "35")
	require.NoError(t, err)
	assert.Equal(t, "Sidoarjo", second[0].Name)
	assert.Equal(t, int32(1), backing.regencies.Load())

	cached.Flush()

	_, err = cached.ListRegencies(ctx, "35")
	require.NoError(t, err)
	assert.Equal(t, int32(2), backing.regencies.Load())
}

func TestCachedStoreCoalescesMisses(t *testing.T) {
	gated := regiontest.NewGatedStore()
	gated.Hold("districts:35.78")

	cached := region.NewCachedStore(gated, time.Minute)

	var wg sync.WaitGroup

	results := make([][]region.Node, 5)

	for i := range results {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			nodes, err := cached.ListDistricts(context.Background(), "35.78")
			assert.NoError(t, err)

			results[i] = nodes
		}(i)
	}

	assert.Eventually(t, func() bool { return len(gated.Calls()) >= 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	gated.Release("districts:35.78")
	wg.Wait()

	assert.Len(t, gated.Calls(), 1)

	for _, r := range results {
		assert.Len(t, r, 3)
	}
}

func TestCachedStoreDoesNotCacheErrors(t *testing.T) {
	gated := regiontest.NewGatedStore()
	gated.Fail("provinces", assert.AnError)

	cached := region.NewCachedStore(gated, time.Minute)

	_, err := cached.ListProvinces(context.Background())
	require.ErrorIs(t, err, assert.AnError)

	gated.Fail("provinces", nil)

	provinces, err := cached.ListProvinces(context.Background())
	require.NoError(t, err)
	assert.Len(t, provinces, 3)
}
