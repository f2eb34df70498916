// Copyright 2025 The JalanKu Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jalanku/jalanku/spatial"
	"github.com/patrickmn/go-cache"
)

// Direction names the two lookup kinds in logs and metrics.
const (
	DirectionForward = "forward"
	DirectionReverse = "reverse"
)

type timeoutGateway struct {
	next    Gateway
	timeout time.Duration
}

// WithTimeout bounds every lookup. A call that has not answered when the
// deadline passes fails with ErrorTypeTimeout even if next ignores ctx.
func WithTimeout(next Gateway, timeout time.Duration) Gateway {
	return &timeoutGateway{next: next, timeout: timeout}
}

type lookupResult struct {
	res *Result
	err error
}

func (t *timeoutGateway) run(ctx context.Context, direction string, fn func(context.Context) (*Result, error)) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	done := make(chan lookupResult, 1)

	go func() {
		res, err := fn(ctx)
		done <- lookupResult{res, err}
	}()

	select {
	case r := <-done:
		if r.err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && TypeOf(r.err) != ErrorTypeTimeout {
			return nil, &GeocodingError{Type: ErrorTypeTimeout, Message: direction + " geocoding timed out", Err: r.err}
		}

		return r.res, r.err
	case <-ctx.Done():
		return nil, &GeocodingError{
			Type:    ErrorTypeTimeout,
			Message: fmt.Sprintf("%s geocoding did not answer within %v", direction, t.timeout),
			Err:     ctx.Err(),
		}
	}
}

func (t *timeoutGateway) Forward(ctx context.Context, address string) (*Result, error) {
	return t.run(ctx, DirectionForward, func(ctx context.Context) (*Result, error) {
		return t.next.Forward(ctx, address)
	})
}

func (t *timeoutGateway) Reverse(ctx context.Context, p spatial.Point) (*Result, error) {
	return t.run(ctx, DirectionReverse, func(ctx context.Context) (*Result, error) {
		return t.next.Reverse(ctx, p)
	})
}

// Cached memoises successful lookups. Reverse keys round coordinates to five
// decimals (about a meter); forward keys fold case and whitespace.
type Cached struct {
	next  Gateway
	cache *cache.Cache
}

// NewCached wraps next with a TTL cache.
func NewCached(next Gateway, ttl time.Duration) *Cached {
	return &Cached{next: next, cache: cache.New(ttl, ttl*2)}
}

func forwardKey(address string) string {
	return "f:" + strings.Join(strings.Fields(strings.ToLower(address)), " ")
}

func reverseKey(p spatial.Point) string {
	return fmt.Sprintf("r:%.5f,%.5f", p.Lat, p.Lng)
}

func (c *Cached) get(key string) (*Result, bool) {
	v, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}

	res, ok := v.(Result)
	if !ok {
		return nil, false
	}

	return &res, true
}

// Forward implements Gateway.
func (c *Cached) Forward(ctx context.Context, address string) (*Result, error) {
	key := forwardKey(address)
	if res, ok := c.get(key); ok {
		return res, nil
	}

	res, err := c.next.Forward(ctx, address)
	if err != nil {
		return nil, err
	}

	c.cache.SetDefault(key, *res)

	return res, nil
}

// Reverse implements Gateway.
func (c *Cached) Reverse(ctx context.Context, p spatial.Point) (*Result, error) {
	key := reverseKey(p)
	if res, ok := c.get(key); ok {
		return res, nil
	}

	res, err := c.next.Reverse(ctx, p)
	if err != nil {
		return nil, err
	}

	c.cache.SetDefault(key, *res)

	return res, nil
}

// Len returns the number of cached lookups.
func (c *Cached) Len() int {
	return c.cache.ItemCount()
}

// Observer is notified of every lookup outcome.
type Observer interface {
	ObserveGeocode(direction string, elapsed time.Duration, err error)
}

type observedGateway struct {
	next Gateway
	obs  Observer
}

// WithObserver reports every lookup to obs.
func WithObserver(next Gateway, obs Observer) Gateway {
	return &observedGateway{next: next, obs: obs}
}

func (o *observedGateway) Forward(ctx context.Context, address string) (*Result, error) {
	start := time.Now()
	res, err := o.next.Forward(ctx, address)
	o.obs.ObserveGeocode(DirectionForward, time.Since(start), err)

	return res, err
}

func (o *observedGateway) Reverse(ctx context.Context, p spatial.Point) (*Result, error) {
	start := time.Now()
	res, err := o.next.Reverse(ctx, p)
	o.obs.ObserveGeocode(DirectionReverse, time.Since(start), err)

	return res, err
}
