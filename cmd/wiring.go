// Copyright 2025 The JalanKu Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/jalanku/jalanku/candidate"
	"github.com/jalanku/jalanku/config"
	"github.com/jalanku/jalanku/geocode"
	"github.com/jalanku/jalanku/match"
	"github.com/jalanku/jalanku/metrics"
	"github.com/jalanku/jalanku/reconcile"
	"github.com/jalanku/jalanku/region"
	"github.com/jalanku/jalanku/utils/httputils"
)

const dbFile = "jalanku.duckdb"

func loadSettings() (*config.Settings, error) {
	return config.Load(settings, rootOptions.ConfigFile)
}

func userAgent() string {
	return fmt.Sprintf("jalanku/%s (+https://github.com/jalanku/jalanku)", Version)
}

// openRepository opens the reference database, creating it if needed.
func openRepository(s *config.Settings) (*region.SQLRepository, error) {
	if err := os.MkdirAll(s.Region.DBPath, 0o750); err != nil {
		return nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := sql.Open("duckdb", filepath.Join(s.Region.DBPath, dbFile))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	repo := region.NewSQLRepository(db)
	if err := repo.CreateSchema(); err != nil {
		db.Close()

		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return repo, nil
}

// newGateway builds the geocoding chain: cache, then metrics and the
// timeout around the provider client.
func newGateway(ctx context.Context, s *config.Settings, obs geocode.Observer) (geocode.Gateway, error) {
	if s.Geocode.Provider == config.ProviderNone {
		log.Println("Geocoding disabled; coordinates resolve through the boundary lookup only")

		return geocode.Disabled{}, nil
	}

	apiKey := s.Geocode.Google.APIKey
	if apiKey == "" {
		log.Println("No Google Maps API key configured. Attempting to retrieve via ADC...")

		var err error

		apiKey, err = geocode.APIKeyFromADC(ctx, s.Geocode.Google.Project)
		if err != nil {
			log.Printf("Failed to retrieve API key via ADC: %v", err)
			log.Println("Continuing without geocoding")

			return geocode.Disabled{}, nil
		}

		log.Println("Retrieved Google Maps API key via ADC")
	}

	opts := httputils.ClientOptions{
		Timeout:   s.Geocode.Timeout,
		UserAgent: userAgent(),
		TraceBody: rootOptions.TraceHTTPBody,
	}
	if rootOptions.TraceHTTP || rootOptions.TraceHTTPBody {
		opts.Trace = os.Stderr
	}

	var gw geocode.Gateway = geocode.NewGoogleMapsGeocoder(geocode.GoogleOptions{
		APIKey:     apiKey,
		Region:     s.Geocode.Region,
		Language:   s.Geocode.Language,
		HTTPClient: httputils.NewClient(opts),
	})

	gw = geocode.WithTimeout(gw, s.Geocode.Timeout)
	if obs != nil {
		gw = geocode.WithObserver(gw, obs)
	}

	return geocode.NewCached(gw, s.Geocode.CacheTTL), nil
}

// app is everything a draft needs, built from the settings.
type app struct {
	settings *config.Settings
	repo     *region.SQLRepository
	store    region.Store
	catalog  *region.Catalog
	gateway  geocode.Gateway
	matcher  *match.Matcher
	metrics  *metrics.Metrics
}

func newApp(ctx context.Context) (*app, error) {
	s, err := loadSettings()
	if err != nil {
		return nil, err
	}

	repo, err := openRepository(s)
	if err != nil {
		return nil, err
	}

	catalog, err := region.LoadCatalog(ctx, repo)
	if err != nil {
		repo.DB().Close()

		return nil, err
	}

	if catalog.Len() == 0 {
		log.Printf("Reference database in %s is empty; run `jalanku region load` first", s.Region.DBPath)
	}

	locator, err := region.NewLocator(catalog, s.Region.LocatorRadiusKm)
	if err != nil {
		repo.DB().Close()

		return nil, fmt.Errorf("building boundary index: %w", err)
	}

	m, err := metrics.New(nil)
	if err != nil {
		repo.DB().Close()

		return nil, err
	}

	gw, err := newGateway(ctx, s, m)
	if err != nil {
		repo.DB().Close()

		return nil, err
	}

	log.Printf("Loaded %d regions, %d districts indexed for boundary lookup", catalog.Len(), locator.Size())

	return &app{
		settings: s,
		repo:     repo,
		store:    region.NewCachedStore(repo, s.Region.CacheTTL),
		catalog:  catalog,
		gateway:  gw,
		matcher:  match.NewMatcher(match.StaticCatalog(catalog), gw, locator),
		metrics:  m,
	}, nil
}

func (a *app) draftConfig() reconcile.Config {
	return reconcile.Config{
		Matcher:        a.matcher,
		Gateway:        a.gateway,
		Store:          a.store,
		Catalog:        a.catalog,
		Photos:         candidate.EXIFExtractor{},
		ResolveTimeout: a.settings.Geocode.Timeout,
		Observer:       a.metrics,
	}
}

func (a *app) Close() error {
	return a.repo.DB().Close()
}
