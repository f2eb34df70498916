// Copyright 2025 The JalanKu Authors
// SPDX-License-Identifier: Apache-2.0

// Package geocodetest provides a scriptable geocoding gateway for tests.
package geocodetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/jalanku/jalanku/geocode"
	"github.com/jalanku/jalanku/spatial"
)

// Fake answers lookups from fixed tables. Unknown queries fail with
// ErrorTypeNotFound. Calls can be held and released to control completion order.
type Fake struct {
	mu       sync.Mutex
	forward  map[string]geocode.Result
	reverse  map[string]geocode.Result
	fail     error
	holds    []chan struct{}
	holdNext int
	calls    int
}

// New returns an empty fake.
func New() *Fake {
	return &Fake{
		forward: make(map[string]geocode.Result),
		reverse: make(map[string]geocode.Result),
	}
}

func pointKey(p spatial.Point) string {
	return fmt.Sprintf("%.5f,%.5f", p.Lat, p.Lng)
}

// AddForward scripts an address lookup.
func (f *Fake) AddForward(address string, p spatial.Point, display string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.forward[address] = geocode.Result{Point: p, Confidence: "high", Provider: "fake", DisplayName: display}

	return f
}

// AddReverse scripts a coordinate lookup.
func (f *Fake) AddReverse(p spatial.Point, display string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.reverse[pointKey(p)] = geocode.Result{Point: p, Confidence: "high", Provider: "fake", DisplayName: display}

	return f
}

// FailWith makes every lookup return err until cleared with nil.
func (f *Fake) FailWith(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.fail = err
}

// HoldNext makes the next n lookups block until Release. Holds are handed
// out in call order, so Release(i) unblocks the i-th held call.
func (f *Fake) HoldNext(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for range n {
		f.holds = append(f.holds, make(chan struct{}))
	}
}

// Release unblocks the i-th held call (zero based).
func (f *Fake) Release(i int) {
	f.mu.Lock()
	ch := f.holds[i]
	f.mu.Unlock()

	close(ch)
}

// Calls returns the number of lookups received.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls
}

func (f *Fake) begin(ctx context.Context) error {
	f.mu.Lock()
	f.calls++

	var gate chan struct{}
	if f.holdNext < len(f.holds) {
		gate = f.holds[f.holdNext]
		f.holdNext++
	}
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	return f.fail
}

// Forward implements geocode.Gateway.
func (f *Fake) Forward(ctx context.Context, address string) (*geocode.Result, error) {
	if err := f.begin(ctx); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	res, ok := f.forward[address]
	if !ok {
		return nil, &geocode.GeocodingError{Type: geocode.ErrorTypeNotFound, Message: "no results for " + address}
	}

	return &res, nil
}

// Reverse implements geocode.Gateway.
func (f *Fake) Reverse(ctx context.Context, p spatial.Point) (*geocode.Result, error) {
	if err := f.begin(ctx); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	res, ok := f.reverse[pointKey(p)]
	if !ok {
		return nil, &geocode.GeocodingError{Type: geocode.ErrorTypeNotFound, Message: "no results for " + p.String()}
	}

	return &res, nil
}
