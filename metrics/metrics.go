// Copyright 2025 The JalanKu Authors
// SPDX-License-Identifier: Apache-2.0

// Package metrics exposes Prometheus counters for geocoding and draft
// reconciliation.
package metrics

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/jalanku/jalanku/geocode"
	"github.com/jalanku/jalanku/match"
	"github.com/jalanku/jalanku/reconcile"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "jalanku"

// Metrics holds the collectors of one process. It satisfies both
// geocode.Observer and reconcile.Observer.
type Metrics struct {
	registry *prometheus.Registry

	geocodeRequests  *prometheus.CounterVec
	geocodeDuration  *prometheus.HistogramVec
	staleResponses   *prometheus.CounterVec
	draftTransitions *prometheus.CounterVec
	matchConfidence  *prometheus.CounterVec
	activeDrafts     prometheus.Gauge
}

// New creates the collectors and registers them on registry. A nil registry
// gets a fresh one.
func New(registry *prometheus.Registry) (*Metrics, error) {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: registry,
		geocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding requests by direction and outcome",
		}, []string{"direction", "outcome"}),
		geocodeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_duration_seconds",
			Help:      "Time taken by geocoding requests",
			// 50ms to ~25s
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"direction"}),
		staleResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_responses_total",
			Help:      "Responses dropped because a newer request superseded them",
		}, []string{"kind"}),
		draftTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "draft_transitions_total",
			Help:      "Draft state machine transitions by target state",
		}, []string{"state"}),
		matchConfidence: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "match_confidence_total",
			Help:      "Administrative matches by confidence grade",
		}, []string{"confidence"}),
		activeDrafts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_drafts",
			Help:      "Drafts currently held in memory",
		}),
	}

	if err := registry.Register(m); err != nil {
		return nil, err
	}

	return m, nil
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.geocodeRequests.Describe(ch)
	m.geocodeDuration.Describe(ch)
	m.staleResponses.Describe(ch)
	m.draftTransitions.Describe(ch)
	m.matchConfidence.Describe(ch)
	m.activeDrafts.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.geocodeRequests.Collect(ch)
	m.geocodeDuration.Collect(ch)
	m.staleResponses.Collect(ch)
	m.draftTransitions.Collect(ch)
	m.matchConfidence.Collect(ch)
	m.activeDrafts.Collect(ch)
}

// ObserveGeocode records one gateway call. The outcome label is "ok" or the
// error classification.
func (m *Metrics) ObserveGeocode(direction string, elapsed time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = geocode.TypeOf(err).String()
	}

	m.geocodeRequests.WithLabelValues(direction, outcome).Inc()
	m.geocodeDuration.WithLabelValues(direction).Observe(elapsed.Seconds())
}

// Transition implements reconcile.Observer.
func (m *Metrics) Transition(state reconcile.State) {
	m.draftTransitions.WithLabelValues(string(state)).Inc()
}

// StaleResponse implements reconcile.Observer.
func (m *Metrics) StaleResponse(kind string) {
	m.staleResponses.WithLabelValues(kind).Inc()
}

// Matched implements reconcile.Observer.
func (m *Metrics) Matched(confidence match.Confidence) {
	m.matchConfidence.WithLabelValues(string(confidence)).Inc()
}

// DraftOpened and DraftClosed track the number of live drafts.
func (m *Metrics) DraftOpened() { m.activeDrafts.Inc() }

func (m *Metrics) DraftClosed() { m.activeDrafts.Dec() }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog:      log.New(os.Stderr, "metrics handler: ", log.LstdFlags),
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}
