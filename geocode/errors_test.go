// Copyright 2025 The JalanKu Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeocodingErrorIsUnavailable(t *testing.T) {
	err := fmt.Errorf("resolving draft: %w", &GeocodingError{Type: ErrorTypeNetworkError, Message: "boom"})

	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, ErrorTypeNetworkError, TypeOf(err))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(errors.New("plain")))
}

func TestGeocodingErrorUnwrap(t *testing.T) {
	err := &GeocodingError{Type: ErrorTypeTimeout, Message: "slow", Err: context.DeadlineExceeded}

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "slow: context deadline exceeded", err.Error())
}

func TestIsRateLimitError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"typed", &GeocodingError{Type: ErrorTypeRateLimit}, true},
		{"other typed", &GeocodingError{Type: ErrorTypeTimeout}, false},
		{"message 429", errors.New("server said 429"), true},
		{"too many requests", errors.New("Too Many Requests"), true},
		{"unrelated", errors.New("connection reset"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRateLimitError(tt.err))
		})
	}
}

func TestIsQuotaExceededError(t *testing.T) {
	assert.True(t, IsQuotaExceededError(&GeocodingError{Type: ErrorTypeQuotaExceeded}))
	assert.True(t, IsQuotaExceededError(errors.New("OVER_QUERY_LIMIT")))
	assert.False(t, IsQuotaExceededError(errors.New("ZERO_RESULTS")))
}

func TestIsTimeoutError(t *testing.T) {
	assert.True(t, IsTimeoutError(&GeocodingError{Type: ErrorTypeTimeout}))
	assert.True(t, IsTimeoutError(fmt.Errorf("get: %w", context.DeadlineExceeded)))
	assert.True(t, IsTimeoutError(errors.New("i/o timeout")))
	assert.False(t, IsTimeoutError(errors.New("no such host")))
}

func TestClassifyHTTPError(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorType
	}{
		{http.StatusTooManyRequests, ErrorTypeRateLimit},
		{http.StatusForbidden, ErrorTypeQuotaExceeded},
		{http.StatusBadRequest, ErrorTypeInvalidRequest},
		{http.StatusNotFound, ErrorTypeNotFound},
		{http.StatusBadGateway, ErrorTypeNetworkError},
		{http.StatusTeapot, ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := ClassifyHTTPError(tt.status, "")
			assert.Equal(t, tt.want, err.Type)
			assert.NoError(t, err.Err)
		})
	}

	err := ClassifyHTTPError(http.StatusForbidden, "API key expired")
	assert.Contains(t, err.Error(), "API key expired")
}
