// Copyright 2025 The JalanKu Authors
// SPDX-License-Identifier: Apache-2.0

// Package reconcile owns the location state of one report draft. It
// arbitrates between photo, device and typed candidates, drives geocoding and
// matching, drops stale responses and decides when the administrative
// selector is filled automatically.
package reconcile

import (
	"context"
	"errors"
	"io"

	"github.com/jalanku/jalanku/candidate"
	"github.com/jalanku/jalanku/match"
	"github.com/jalanku/jalanku/region"
	"github.com/jalanku/jalanku/spatial"
)

// State of the reconciliation state machine.
type State string

const (
	StateIdle              State = "idle"
	StateCandidateReceived State = "candidate-received"
	StateResolving         State = "resolving"
	StateResolved          State = "resolved"
	StateConflict          State = "conflict"
	StateFailed            State = "failed"
)

// Severity of the status message.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

var (
	// ErrClosed is returned by mutators of a closed draft.
	ErrClosed = errors.New("draft closed")

	// ErrNoSuggestion is returned by ConfirmSuggestion when there is nothing to confirm.
	ErrNoSuggestion = errors.New("no suggestion to confirm")

	// ErrNothingToRetry is returned by Retry before any candidate was accepted.
	ErrNothingToRetry = errors.New("no candidate to retry")
)

// Record is the authoritative per-draft bookkeeping.
type Record struct {
	ActiveCandidate   *candidate.Candidate `json:"active_candidate,omitempty"`
	LastSource        candidate.Source     `json:"last_source,omitempty"`
	PendingGeneration uint64               `json:"pending_generation"`
	LockedByUser      bool                 `json:"locked_by_user"`
}

// Status is the observable snapshot the form layer renders.
type Status struct {
	State                  State            `json:"state"`
	IsGeocodingFromCoords  bool             `json:"is_geocoding_from_coords"`
	IsGeocodingFromAddress bool             `json:"is_geocoding_from_address"`
	LastGeocodingSource    candidate.Source `json:"last_geocoding_source,omitempty"`
	ConfidenceLevel        match.Confidence `json:"confidence_level,omitempty"`
	CanAutoSelect          bool             `json:"can_auto_select"`
	IsProcessingAdminSync  bool             `json:"is_processing_admin_sync"`
	Message                string           `json:"message,omitempty"`
	Severity               Severity         `json:"severity,omitempty"`
	Retryable              bool             `json:"retryable"`
	Suggestion             *match.Result    `json:"suggestion,omitempty"`
	Seq                    uint64           `json:"seq"`
}

// Resolution is the tuple the form binds to its submitted fields.
type Resolution struct {
	Coordinates *spatial.Point   `json:"coordinates,omitempty"`
	AddressText string           `json:"address_text,omitempty"`
	Selection   region.Selection `json:"selection"`
	Confidence  match.Confidence `json:"confidence,omitempty"`
}

// Matcher places a candidate on the administrative hierarchy.
type Matcher interface {
	Match(ctx context.Context, in match.Input) (match.Result, error)
}

// PhotoExtractor reads the location embedded in a photo.
type PhotoExtractor interface {
	Extract(ctx context.Context, photo io.Reader) (candidate.Candidate, error)
}

// Observer receives lifecycle events, typically for metrics.
type Observer interface {
	Transition(state State)
	StaleResponse(kind string)
	Matched(confidence match.Confidence)
}

type nopObserver struct{}

func (nopObserver) Transition(State)         {}
func (nopObserver) StaleResponse(string)     {}
func (nopObserver) Matched(match.Confidence) {}
