// Copyright 2025 The JalanKu Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the process settings from an optional YAML file,
// JALANKU_* environment variables and bound command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, with dots turned
// into underscores: geocode.timeout is JALANKU_GEOCODE_TIMEOUT.
const EnvPrefix = "JALANKU"

// Geocoding providers.
const (
	ProviderGoogle = "google"
	ProviderNone   = "none"
)

type Google struct {
	APIKey  string `mapstructure:"api_key"`
	Project string `mapstructure:"project"`
}

type Geocode struct {
	Provider string        `mapstructure:"provider"`
	Google   Google        `mapstructure:"google"`
	Region   string        `mapstructure:"region"`
	Language string        `mapstructure:"language"`
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type Region struct {
	DBPath          string        `mapstructure:"db_path"`
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
	LocatorRadiusKm float64       `mapstructure:"locator_radius_km"`
}

type Server struct {
	Listen string `mapstructure:"listen"`

	// DraftTTL is how long an untouched draft is kept before it is closed.
	DraftTTL time.Duration `mapstructure:"draft_ttl"`
}

// Settings is the full configuration.
type Settings struct {
	Geocode Geocode `mapstructure:"geocode"`
	Region  Region  `mapstructure:"region"`
	Server  Server  `mapstructure:"server"`
}

// New returns a viper instance with defaults and environment lookup set up.
// Callers bind flags on it before calling Load.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("geocode.provider", ProviderGoogle)
	v.SetDefault("geocode.google.api_key", "")
	v.SetDefault("geocode.google.project", "")
	v.SetDefault("geocode.region", "id")
	v.SetDefault("geocode.language", "id")
	v.SetDefault("geocode.timeout", 8*time.Second)
	v.SetDefault("geocode.cache_ttl", 10*time.Minute)
	v.SetDefault("region.db_path", "db")
	v.SetDefault("region.cache_ttl", time.Hour)
	v.SetDefault("region.locator_radius_km", 15.0)
	v.SetDefault("server.listen", "localhost:8080")
	v.SetDefault("server.draft_ttl", 30*time.Minute)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The conventional variable name is honoured as a fallback.
	_ = v.BindEnv("geocode.google.api_key", EnvPrefix+"_GEOCODE_GOOGLE_API_KEY", "GOOGLE_MAPS_API_KEY")

	return v
}

// Load reads path (if not empty) into v and decodes the result.
func Load(v *viper.Viper, path string) (*Settings, error) {
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	s.Geocode.Provider = strings.ToLower(strings.TrimSpace(s.Geocode.Provider))

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return s, nil
}

// Validate checks value ranges.
func (s *Settings) Validate() error {
	var errs []error

	switch s.Geocode.Provider {
	case ProviderGoogle, ProviderNone:
	default:
		errs = append(errs, fmt.Errorf("geocode.provider: unknown provider %q", s.Geocode.Provider))
	}

	for key, d := range map[string]time.Duration{
		"geocode.timeout":   s.Geocode.Timeout,
		"geocode.cache_ttl": s.Geocode.CacheTTL,
		"region.cache_ttl":  s.Region.CacheTTL,
		"server.draft_ttl":  s.Server.DraftTTL,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s: must be positive, got %s", key, d))
		}
	}

	if s.Region.LocatorRadiusKm <= 0 {
		errs = append(errs, fmt.Errorf("region.locator_radius_km: must be positive, got %g", s.Region.LocatorRadiusKm))
	}

	if s.Region.DBPath == "" {
		errs = append(errs, errors.New("region.db_path: empty"))
	}

	if s.Server.Listen == "" {
		errs = append(errs, errors.New("server.listen: empty"))
	}

	return errors.Join(errs...)
}
