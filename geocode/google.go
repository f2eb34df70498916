// Copyright 2025 The JalanKu Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jalanku/jalanku/spatial"
)

// DefaultGoogleBaseURL is the Google Maps Geocoding API endpoint.
const DefaultGoogleBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"

// GoogleOptions configures GoogleMapsGeocoder.
type GoogleOptions struct {
	APIKey     string
	Region     string // ccTLD bias, e.g. "id"
	Language   string // result language, e.g. "id"
	BaseURL    string
	HTTPClient *http.Client
}

// GoogleMapsGeocoder uses Google Maps Geocoding API.
type GoogleMapsGeocoder struct {
	opts GoogleOptions
}

// NewGoogleMapsGeocoder creates a new Google Maps geocoder.
func NewGoogleMapsGeocoder(opts GoogleOptions) *GoogleMapsGeocoder {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultGoogleBaseURL
	}

	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &GoogleMapsGeocoder{opts: opts}
}

type googleMapsResponse struct {
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
			LocationType string `json:"location_type"` // ROOFTOP, RANGE_INTERPOLATED, GEOMETRIC_CENTER, APPROXIMATE
		} `json:"geometry"`
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
	Status       string `json:"status"` // OK, ZERO_RESULTS, etc.
	ErrorMessage string `json:"error_message"`
}

// Forward implements Gateway.
func (g *GoogleMapsGeocoder) Forward(ctx context.Context, address string) (*Result, error) {
	params := url.Values{}
	params.Set("address", address)

	return g.lookup(ctx, params)
}

// Reverse implements Gateway.
func (g *GoogleMapsGeocoder) Reverse(ctx context.Context, p spatial.Point) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, &GeocodingError{Type: ErrorTypeInvalidRequest, Message: "invalid coordinates", Err: err}
	}

	params := url.Values{}
	params.Set("latlng", strconv.FormatFloat(p.Lat, 'f', 6, 64)+","+strconv.FormatFloat(p.Lng, 'f', 6, 64))

	return g.lookup(ctx, params)
}

func (g *GoogleMapsGeocoder) lookup(ctx context.Context, params url.Values) (*Result, error) {
	if g.opts.APIKey == "" {
		return nil, &GeocodingError{Type: ErrorTypeUnavailable, Message: "google maps API key not configured"}
	}

	params.Set("key", g.opts.APIKey)

	if g.opts.Region != "" {
		params.Set("region", g.opts.Region)
	}

	if g.opts.Language != "" {
		params.Set("language", g.opts.Language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.opts.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &GeocodingError{Type: ErrorTypeInvalidRequest, Message: "building request", Err: err}
	}

	resp, err := g.opts.HTTPClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, &GeocodingError{Type: ErrorTypeTimeout, Message: "geocoding request timed out", Err: err}
		}

		return nil, &GeocodingError{Type: ErrorTypeNetworkError, Message: "geocoding request failed", Err: err}
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

		return nil, ClassifyHTTPError(resp.StatusCode, string(body))
	}

	var gmResp googleMapsResponse
	if err := json.NewDecoder(resp.Body).Decode(&gmResp); err != nil {
		return nil, &GeocodingError{Type: ErrorTypeUnknown, Message: "decoding response", Err: err}
	}

	if gmResp.Status != "OK" {
		return nil, classifyStatus(gmResp.Status, gmResp.ErrorMessage)
	}

	if len(gmResp.Results) == 0 {
		return nil, &GeocodingError{Type: ErrorTypeNotFound, Message: "no results found"}
	}

	result := gmResp.Results[0]

	confidence := "low"

	switch result.Geometry.LocationType {
	case "ROOFTOP", "RANGE_INTERPOLATED":
		confidence = "high"
	case "GEOMETRIC_CENTER":
		confidence = "medium"
	}

	p := spatial.Point{Lat: result.Geometry.Location.Lat, Lng: result.Geometry.Location.Lng}
	if err := p.Validate(); err != nil {
		return nil, &GeocodingError{Type: ErrorTypeUnknown, Message: fmt.Sprintf("provider returned %s", p), Err: err}
	}

	return &Result{
		Point:       p,
		Confidence:  confidence,
		Provider:    "google_maps",
		DisplayName: result.FormattedAddress,
	}, nil
}
