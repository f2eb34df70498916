// Copyright 2025 The JalanKu Authors
// SPDX-License-Identifier: Apache-2.0

package reconcile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jalanku/jalanku/candidate"
	"github.com/jalanku/jalanku/geocode"
	"github.com/jalanku/jalanku/match"
	"github.com/jalanku/jalanku/region"
	"github.com/jalanku/jalanku/selection"
	"github.com/jalanku/jalanku/spatial"
)

// DefaultResolveTimeout bounds one geocode-and-match round.
const DefaultResolveTimeout = 8 * time.Second

// Config wires a Draft to its adapters.
type Config struct {
	Matcher Matcher

	// Gateway forward geocodes typed addresses into coordinates. Optional.
	Gateway geocode.Gateway

	// Store feeds the administrative selector options.
	Store region.Store

	// Catalog, when set, validates selector codes synchronously.
	Catalog *region.Catalog

	Photos PhotoExtractor
	Device candidate.DeviceLocator

	ResolveTimeout time.Duration
	Observer       Observer

	// OnStatus is called after every observable change, outside any lock.
	// Calls may overlap; Status.Seq orders them.
	OnStatus func(Status)
}

// Draft reconciles the location of one report. All methods are safe for
// concurrent use. Adapter calls run in the background and report back
// through the same transition code, tagged with the generation they were
// issued under; a response for any generation but the pending one is dropped.
type Draft struct {
	cfg Config
	sel *selection.Controller

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// op serializes transitions, including the selector calls they make.
	// mu guards the fields below and is never held while calling the selector.
	op sync.Mutex
	mu sync.Mutex

	closed     bool
	state      State
	record     Record
	gen        uint64
	candidates map[uint64][]candidate.Candidate
	adapters   map[string]uint64 // latest request per adapter kind

	selectionEdited bool
	resolution      Resolution
	suggestion      *match.Result
	confidence      match.Confidence
	canAutoSelect   bool
	fromCoords      bool
	fromAddress     bool
	geocodingSource candidate.Source
	message         string
	severity        Severity
	retryable       bool
	seq             uint64
}

// NewDraft creates an idle draft and starts loading the province options.
func NewDraft(cfg Config) *Draft {
	if cfg.ResolveTimeout <= 0 {
		cfg.ResolveTimeout = DefaultResolveTimeout
	}

	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	d := &Draft{
		cfg:        cfg,
		ctx:        ctx,
		cancel:     cancel,
		state:      StateIdle,
		candidates: make(map[uint64][]candidate.Candidate),
		adapters:   make(map[string]uint64),
	}

	d.sel = selection.NewController(cfg.Store, selection.Config{
		Catalog:  cfg.Catalog,
		OnChange: func(selection.State) { d.publish() },
		OnStale:  func(region.Level) { cfg.Observer.StaleResponse("options") },
	})
	d.sel.LoadProvinces()

	return d
}

// Selector exposes the administrative selector of the draft.
func (d *Draft) Selector() *selection.Controller {
	return d.sel
}

// Status returns the current snapshot.
func (d *Draft) Status() Status {
	d.mu.Lock()
	s := d.statusLocked()
	d.mu.Unlock()

	s.IsProcessingAdminSync = d.sel.Loading()

	return s
}

func (d *Draft) statusLocked() Status {
	s := Status{
		State:                  d.state,
		IsGeocodingFromCoords:  d.fromCoords,
		IsGeocodingFromAddress: d.fromAddress,
		LastGeocodingSource:    d.geocodingSource,
		ConfidenceLevel:        d.confidence,
		CanAutoSelect:          d.canAutoSelect,
		Message:                d.message,
		Severity:               d.severity,
		Retryable:              d.retryable,
		Seq:                    d.seq,
	}

	if d.suggestion != nil {
		sg := *d.suggestion
		s.Suggestion = &sg
	}

	return s
}

// Record returns a copy of the bookkeeping record.
func (d *Draft) Record() Record {
	d.mu.Lock()
	defer d.mu.Unlock()

	r := d.record
	if r.ActiveCandidate != nil {
		c := *r.ActiveCandidate
		r.ActiveCandidate = &c
	}

	return r
}

// Resolution returns the location fields the form submits.
func (d *Draft) Resolution() Resolution {
	d.mu.Lock()
	r := d.resolution
	d.mu.Unlock()

	r.Selection = d.sel.Selection()

	return r
}

// Candidates returns every candidate recorded under generation gen: the
// accepted input first, then what was derived from it.
func (d *Draft) Candidates(gen uint64) []candidate.Candidate {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]candidate.Candidate(nil), d.candidates[gen]...)
}

func (d *Draft) publish() {
	d.mu.Lock()
	d.seq++
	s := d.statusLocked()
	d.mu.Unlock()

	s.IsProcessingAdminSync = d.sel.Loading()

	if d.cfg.OnStatus != nil {
		d.cfg.OnStatus(s)
	}
}

// setStateLocked moves the machine and records the transition.
func (d *Draft) setStateLocked(s State) {
	if d.state == s {
		return
	}

	d.state = s
	d.cfg.Observer.Transition(s)
}

func (d *Draft) setMessageLocked(sev Severity, msg string, retryable bool) {
	d.severity, d.message, d.retryable = sev, msg, retryable
}

// Submit offers a candidate to the draft. Candidates that lose against the
// active one, or arrive for a superseded generation, are discarded silently;
// the returned error only reports malformed input or a closed draft.
func (d *Draft) Submit(c candidate.Candidate) error {
	if err := c.Validate(); err != nil {
		return err
	}

	d.op.Lock()
	defer d.op.Unlock()

	d.mu.Lock()

	if d.closed {
		d.mu.Unlock()

		return ErrClosed
	}

	accepted := d.acceptLocked(c)
	d.mu.Unlock()

	if accepted {
		d.publish()
	}

	return nil
}

// acceptLocked applies the precedence rules and, if c wins, starts resolving it.
func (d *Draft) acceptLocked(c candidate.Candidate) bool {
	active := d.record.ActiveCandidate

	switch {
	case c.Source.Derived() && c.Generation != d.record.PendingGeneration:
		log.Printf("Dropping stale %s (pending generation %d)", c, d.record.PendingGeneration)
		d.cfg.Observer.StaleResponse("candidate")

		return false

	case d.record.LockedByUser && !c.Source.Explicit():
		log.Printf("Ignoring %s: location was set by the user", c)

		return false

	case active != nil && active.Source.Outranks(c.Source):
		log.Printf("Ignoring %s: %s takes precedence", c, active.Source)

		return false
	}

	if c.Source.Explicit() {
		d.record.LockedByUser = true
	}

	d.setStateLocked(StateCandidateReceived)
	d.startLocked(c)

	return true
}

// startLocked issues a new generation for c and resolves it in the background.
func (d *Draft) startLocked(c candidate.Candidate) {
	d.gen++
	c.Generation = d.gen

	d.candidates[c.Generation] = []candidate.Candidate{c}
	d.record.ActiveCandidate = &c
	d.record.LastSource = c.Source
	d.record.PendingGeneration = c.Generation

	// The input's own fields are authoritative; derived ones are refilled.
	d.resolution.Coordinates = c.Coordinates
	d.resolution.AddressText = c.AddressText
	d.resolution.Confidence = ""

	d.suggestion = nil
	d.confidence = ""
	d.canAutoSelect = false
	d.fromAddress = c.HasAddress()
	d.fromCoords = !d.fromAddress

	if d.fromAddress {
		d.geocodingSource = candidate.SourceGeocodeForward
	} else {
		d.geocodingSource = candidate.SourceGeocodeReverse
	}

	d.setMessageLocked("", "", false)
	d.setStateLocked(StateResolving)

	d.wg.Add(1)

	go func() {
		defer d.wg.Done()

		d.deliver(c.Generation, d.resolve(c))
	}()
}

// outcome is what one resolve round produced.
type outcome struct {
	match   match.Result
	err     error
	derived *candidate.Candidate
}

func (d *Draft) resolve(c candidate.Candidate) outcome {
	ctx, cancel := context.WithTimeout(d.ctx, d.cfg.ResolveTimeout)
	defer cancel()

	done := make(chan outcome, 1)

	// Tracked so Wait and Close also cover a gateway call that outlives the
	// timeout.
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		done <- d.resolveSync(ctx, c)
	}()

	select {
	case out := <-done:
		return out
	case <-ctx.Done():
		return outcome{
			match: match.NoMatch(),
			err:   &geocode.GeocodingError{Type: geocode.ErrorTypeTimeout, Message: "location lookup timed out", Err: ctx.Err()},
		}
	}
}

func (d *Draft) resolveSync(ctx context.Context, c candidate.Candidate) outcome {
	if c.HasAddress() {
		res, err := d.cfg.Matcher.Match(ctx, match.Input{AddressText: c.AddressText})
		out := outcome{match: res, err: err}

		if c.HasCoordinates() || d.cfg.Gateway == nil {
			return out
		}

		fwd, ferr := d.cfg.Gateway.Forward(ctx, c.AddressText)

		switch {
		case ferr == nil && fwd != nil:
			dc := candidate.New(candidate.SourceGeocodeForward, &spatial.Point{Lat: fwd.Point.Lat, Lng: fwd.Point.Lng}, fwd.DisplayName)
			dc.Generation = c.Generation
			out.derived = &dc
		case geocode.TypeOf(ferr) == geocode.ErrorTypeUnavailable:
			// Geocoding is switched off; the text match stands on its own.
		case out.err == nil && res.Confidence != match.ConfidenceNone:
			log.Printf("Forward geocoding %q failed, keeping text match: %v", c.AddressText, ferr)
		case out.err == nil && ferr != nil:
			out.err = fmt.Errorf("forward geocoding %q: %w", c.AddressText, ferr)
		}

		return out
	}

	res, err := d.cfg.Matcher.Match(ctx, match.Input{Coordinates: c.Coordinates})
	out := outcome{match: res, err: err}

	if err == nil && res.Via == "reverse-geocode" {
		dc := candidate.New(candidate.SourceGeocodeReverse, nil, res.AddressText)
		dc.Generation = c.Generation
		out.derived = &dc
	}

	return out
}

// deliver applies the outcome of generation gen, unless it has been superseded.
func (d *Draft) deliver(gen uint64, out outcome) {
	d.op.Lock()
	defer d.op.Unlock()

	d.mu.Lock()

	if d.closed || gen != d.record.PendingGeneration {
		pending := d.record.PendingGeneration
		d.mu.Unlock()

		log.Printf("Dropping stale resolution for generation %d (pending %d)", gen, pending)
		d.cfg.Observer.StaleResponse("resolution")

		return
	}

	d.record.PendingGeneration = 0
	d.fromCoords, d.fromAddress = false, false

	if dc := out.derived; dc != nil {
		d.candidates[gen] = append(d.candidates[gen], *dc)

		// Derived values only fill gaps; they never replace what the
		// accepted candidate carried.
		if d.resolution.Coordinates == nil && dc.Coordinates != nil {
			d.resolution.Coordinates = dc.Coordinates
		}

		if d.resolution.AddressText == "" && dc.AddressText != "" {
			d.resolution.AddressText = dc.AddressText
		}
	}

	res := out.match
	d.confidence = res.Confidence
	d.resolution.Confidence = res.Confidence
	d.cfg.Observer.Matched(res.Confidence)

	active := d.record.ActiveCandidate
	autoApply := out.err == nil &&
		res.Confidence.AutoApplicable() &&
		!d.selectionEdited &&
		(!d.record.LockedByUser || (active != nil && active.Source.Explicit()))

	switch {
	case out.err != nil:
		log.Printf("Resolving %s failed: %v", active, out.err)
		d.setStateLocked(StateFailed)
		d.setMessageLocked(SeverityError, failureMessage(out.err), true)
		d.suggestLocked(res)

	case autoApply:
		d.setStateLocked(StateResolved)
		d.canAutoSelect = true

	default:
		d.setStateLocked(StateConflict)
		d.setMessageLocked(SeverityWarning, conflictMessage(res, d.selectionEdited), false)
		d.suggestLocked(res)
	}

	d.mu.Unlock()

	if autoApply {
		if err := d.sel.ApplyMatch(res.Selection); err != nil {
			log.Printf("Matched selection %s rejected by selector: %v", res.Selection, err)

			d.mu.Lock()
			d.canAutoSelect = false
			d.setStateLocked(StateConflict)
			d.setMessageLocked(SeverityWarning, "The detected area does not fit the region list; please choose it manually.", false)
			d.suggestLocked(res)
			d.mu.Unlock()
		}
	}

	d.publish()
}

func (d *Draft) suggestLocked(res match.Result) {
	if res.Selection.IsEmpty() {
		d.suggestion = nil

		return
	}

	d.suggestion = &res
}

func failureMessage(err error) string {
	switch {
	case errors.Is(err, region.ErrReferenceDataUnavailable):
		return "The region list could not be loaded. Try again."
	case geocode.IsTimeoutError(err):
		return "Looking up the location took too long. Try again."
	case geocode.IsRateLimitError(err), geocode.IsQuotaExceededError(err):
		return "The location service is busy. Try again in a moment."
	case geocode.TypeOf(err) == geocode.ErrorTypeNotFound:
		return "No address was found for this location. Type the address or choose the area."
	default:
		return "The location could not be looked up. Try again or choose the area manually."
	}
}

func conflictMessage(res match.Result, edited bool) string {
	switch {
	case edited && !res.Selection.IsEmpty():
		return fmt.Sprintf("The location points to %s, which differs from your choice.", describe(res))
	case res.Confidence == match.ConfidenceLow:
		return fmt.Sprintf("Only %s could be recognised; please complete the area.", describe(res))
	case res.Selection.IsEmpty():
		return "The area could not be recognised; please choose it manually."
	default:
		return fmt.Sprintf("Please confirm the area %s.", describe(res))
	}
}

func describe(res match.Result) string {
	if len(res.Matches) == 0 {
		return res.Selection.String()
	}

	name := res.Matches[len(res.Matches)-1].Name
	for i := len(res.Matches) - 2; i >= 0; i-- {
		name += ", " + res.Matches[i].Name
	}

	return name
}

// beginAdapter registers a new request for an adapter kind and returns its generation.
func (d *Draft) beginAdapter(kind string) (uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return 0, ErrClosed
	}

	d.gen++
	d.adapters[kind] = d.gen

	return d.gen, nil
}

// adapterCurrent reports whether gen is still the latest request of kind.
func (d *Draft) adapterCurrent(kind string, gen uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return !d.closed && d.adapters[kind] == gen
}

// AttachPhoto reads the location embedded in photo. The bytes are extracted
// in the background; a later photo supersedes an earlier one still in flight.
func (d *Draft) AttachPhoto(photo []byte) error {
	if d.cfg.Photos == nil {
		return errors.New("photo extraction not configured")
	}

	gen, err := d.beginAdapter("photo")
	if err != nil {
		return err
	}

	data := bytes.Clone(photo)

	d.wg.Add(1)

	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(d.ctx, d.cfg.ResolveTimeout)
		defer cancel()

		c, err := d.cfg.Photos.Extract(ctx, bytes.NewReader(data))
		if !d.adapterCurrent("photo", gen) {
			d.cfg.Observer.StaleResponse("photo")

			return
		}

		switch {
		case errors.Is(err, candidate.ErrNoGPSData):
			d.notice(SeverityInfo, "This photo has no location. Type the address or use your current location.", false)
		case err != nil:
			d.fail(fmt.Sprintf("The photo could not be read: %v", err))
		default:
			if err := d.Submit(c); err != nil {
				log.Printf("Photo candidate rejected: %v", err)
			}
		}
	}()

	return nil
}

// RequestDeviceLocation asks the device locator for the current position.
func (d *Draft) RequestDeviceLocation() error {
	if d.cfg.Device == nil {
		return candidate.ErrPositionUnavailable
	}

	gen, err := d.beginAdapter("device")
	if err != nil {
		return err
	}

	d.wg.Add(1)

	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(d.ctx, d.cfg.ResolveTimeout)
		defer cancel()

		c, err := candidate.FromDevice(ctx, d.cfg.Device)
		if !d.adapterCurrent("device", gen) {
			d.cfg.Observer.StaleResponse("device")

			return
		}

		if err != nil {
			log.Printf("Device location failed: %v", err)
			d.fail("Your current location is unavailable. Type the address instead.")

			return
		}

		if err := d.Submit(c); err != nil {
			log.Printf("Device candidate rejected: %v", err)
		}
	}()

	return nil
}

// EditAddress records address text typed by the user.
func (d *Draft) EditAddress(text string) error {
	c, err := candidate.ManualAddress(text)
	if err != nil {
		return err
	}

	return d.Submit(c)
}

// EditCoordinates records a coordinate pair entered by the user.
func (d *Draft) EditCoordinates(p spatial.Point) error {
	c, err := candidate.ManualCoordinates(p)
	if err != nil {
		return err
	}

	return d.Submit(c)
}

// SetProvince, SetRegency and SetDistrict are manual selector edits. They
// lock the draft against automatic selection.
func (d *Draft) SetProvince(code string) error {
	return d.SetLevel(region.LevelProvince, code)
}

func (d *Draft) SetRegency(code string) error {
	return d.SetLevel(region.LevelRegency, code)
}

func (d *Draft) SetDistrict(code string) error {
	return d.SetLevel(region.LevelDistrict, code)
}

// SetLevel selects code at level by hand.
func (d *Draft) SetLevel(level region.Level, code string) error {
	d.op.Lock()
	defer d.op.Unlock()

	if err := d.sel.Set(level, code); err != nil {
		return err
	}

	d.mu.Lock()
	d.record.LockedByUser = true
	d.selectionEdited = true
	d.canAutoSelect = false
	d.mu.Unlock()

	d.publish()

	return nil
}

// MarkUserEdit records that the user edited the draft by hand.
func (d *Draft) MarkUserEdit() {
	d.mu.Lock()
	d.record.LockedByUser = true
	d.mu.Unlock()

	d.publish()
}

// ConfirmSuggestion applies the offered selection after user confirmation.
func (d *Draft) ConfirmSuggestion() error {
	d.op.Lock()
	defer d.op.Unlock()

	d.mu.Lock()
	sg := d.suggestion
	d.mu.Unlock()

	if sg == nil {
		return ErrNoSuggestion
	}

	if err := d.sel.ApplyMatch(sg.Selection); err != nil {
		return err
	}

	d.mu.Lock()
	d.suggestion = nil
	d.record.LockedByUser = true
	d.selectionEdited = true
	d.setMessageLocked("", "", false)
	d.setStateLocked(StateResolved)
	d.mu.Unlock()

	d.publish()

	return nil
}

// Retry resolves the active candidate again under a fresh generation.
func (d *Draft) Retry() error {
	d.op.Lock()
	defer d.op.Unlock()

	d.mu.Lock()

	if d.closed {
		d.mu.Unlock()

		return ErrClosed
	}

	if d.record.ActiveCandidate == nil {
		d.mu.Unlock()

		return ErrNothingToRetry
	}

	d.startLocked(*d.record.ActiveCandidate)
	d.mu.Unlock()

	d.publish()

	return nil
}

// ClearError dismisses a failure and leaves the draft for manual completion.
func (d *Draft) ClearError() {
	d.mu.Lock()

	if d.state != StateFailed {
		d.mu.Unlock()

		return
	}

	d.setStateLocked(StateConflict)
	d.setMessageLocked("", "", false)
	d.mu.Unlock()

	d.publish()
}

func (d *Draft) notice(sev Severity, msg string, retryable bool) {
	d.mu.Lock()
	d.setMessageLocked(sev, msg, retryable)
	d.mu.Unlock()

	d.publish()
}

func (d *Draft) fail(msg string) {
	d.op.Lock()
	defer d.op.Unlock()

	d.mu.Lock()
	d.setStateLocked(StateFailed)
	d.setMessageLocked(SeverityError, msg, d.record.ActiveCandidate != nil)
	d.mu.Unlock()

	d.publish()
}

// Wait blocks until background work issued so far has settled.
func (d *Draft) Wait() {
	d.wg.Wait()
	d.sel.Wait()
}

// Close abandons pending work. Responses arriving afterwards are dropped.
func (d *Draft) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	d.cancel()
	d.wg.Wait()
	d.sel.Close()
}
