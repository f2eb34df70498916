// Copyright 2025 The JalanKu Authors
// SPDX-License-Identifier: Apache-2.0

package selection

import (
	"context"
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/jalanku/jalanku/region"
)

// DefaultFetchTimeout bounds a single option-list fetch.
const DefaultFetchTimeout = 10 * time.Second

// State is a consistent snapshot of the selector.
type State struct {
	Selection region.Selection `json:"selection"`
	Provinces []region.Node    `json:"provinces"`
	Regencies []region.Node    `json:"regencies"`
	Districts []region.Node    `json:"districts"`
	Loading   bool             `json:"loading"`
	Error     string           `json:"error,omitempty"`
}

// Options returns the option list shown for level.
func (s State) Options(level region.Level) []region.Node {
	switch level {
	case region.LevelProvince:
		return s.Provinces
	case region.LevelRegency:
		return s.Regencies
	case region.LevelDistrict:
		return s.Districts
	}

	return nil
}

// Config tunes a Controller.
type Config struct {
	// Catalog, when set, validates every code synchronously. Without it codes
	// are checked against the loaded option lists, and again when a pending
	// list arrives.
	Catalog *region.Catalog

	FetchTimeout time.Duration

	// OnChange is called after every state change, outside the lock.
	OnChange func(State)

	// OnStale is called when an option list arrives for a superseded request.
	OnStale func(level region.Level)
}

// Controller owns the selection of one draft and keeps the child option
// lists in step with it. Option fetches run in the background; each carries
// the generation it was issued under and is dropped on arrival if a newer
// request for the same level has been made since.
type Controller struct {
	store region.Store
	cfg   Config

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	sel     region.Selection
	options map[region.Level][]region.Node
	pending map[region.Level]uint64 // generation of the in-flight fetch, 0 when idle
	seq     uint64
	err     error
}

// NewController creates a controller reading options from store.
func NewController(store region.Store, cfg Config) *Controller {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Controller{
		store:   store,
		cfg:     cfg,
		ctx:     ctx,
		cancel:  cancel,
		options: make(map[region.Level][]region.Node),
		pending: make(map[region.Level]uint64),
	}
}

// LoadProvinces fetches the top-level options.
func (c *Controller) LoadProvinces() {
	c.mu.Lock()
	c.fetchLocked(region.LevelProvince, "")
	c.mu.Unlock()
}

// Selection returns the current codes.
func (c *Controller) Selection() region.Selection {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.sel
}

// Loading reports whether any option fetch is in flight.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.loadingLocked()
}

func (c *Controller) loadingLocked() bool {
	for _, gen := range c.pending {
		if gen != 0 {
			return true
		}
	}

	return false
}

// State returns a snapshot of the selector.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	s := State{
		Selection: c.sel,
		Provinces: slices.Clone(c.options[region.LevelProvince]),
		Regencies: slices.Clone(c.options[region.LevelRegency]),
		Districts: slices.Clone(c.options[region.LevelDistrict]),
		Loading:   c.loadingLocked(),
	}

	if c.err != nil {
		s.Error = c.err.Error()
	}

	return s
}

// SetProvince selects a province; regency and district are always cleared.
func (c *Controller) SetProvince(code string) error {
	return c.dispatch(SetAction(region.LevelProvince, code))
}

// SetRegency selects a regency of the current province.
func (c *Controller) SetRegency(code string) error {
	return c.dispatch(SetAction(region.LevelRegency, code))
}

// SetDistrict selects a district of the current regency.
func (c *Controller) SetDistrict(code string) error {
	return c.dispatch(SetAction(region.LevelDistrict, code))
}

// Set selects code at level.
func (c *Controller) Set(level region.Level, code string) error {
	if !level.Valid() {
		return fmt.Errorf("%w: unknown level %d", region.ErrInvalidSelectionPath, int(level))
	}

	return c.dispatch(SetAction(level, code))
}

// ApplyMatch replaces all three levels in one step.
func (c *Controller) ApplyMatch(sel region.Selection) error {
	return c.dispatch(Action{Kind: ApplyMatch, Selection: sel})
}

// Reset clears the selection.
func (c *Controller) Reset() error {
	return c.dispatch(Action{Kind: Clear})
}

func (c *Controller) dispatch(a Action) error {
	c.mu.Lock()

	next, err := Reduce(c.sel, a)
	if err == nil {
		err = c.checkLocked(next)
	}

	if err != nil {
		c.mu.Unlock()
		log.Printf("Rejected %s on selection %s: %v", a.Kind, c.Selection(), err)

		return err
	}

	prev := c.sel
	c.sel = next

	// Refetch the child list of every level whose code changed. A level
	// whose parent changed loses its options until the new list arrives.
	if a.Kind == ApplyMatch || next.ProvinceCode != prev.ProvinceCode {
		c.resetLocked(region.LevelRegency)
		c.resetLocked(region.LevelDistrict)

		if next.ProvinceCode != "" {
			c.fetchLocked(region.LevelRegency, next.ProvinceCode)
		}

		if next.RegencyCode != "" {
			c.fetchLocked(region.LevelDistrict, next.RegencyCode)
		}
	} else if next.RegencyCode != prev.RegencyCode {
		c.resetLocked(region.LevelDistrict)

		if next.RegencyCode != "" {
			c.fetchLocked(region.LevelDistrict, next.RegencyCode)
		}
	}

	state := c.stateLocked()
	c.mu.Unlock()

	c.notify(state)

	return nil
}

// checkLocked validates next against the catalog, or against whatever option
// lists are already loaded for its parents.
func (c *Controller) checkLocked(next region.Selection) error {
	if c.cfg.Catalog != nil {
		return c.cfg.Catalog.ValidateSelection(next)
	}

	if err := next.CheckShape(); err != nil {
		return err
	}

	for _, level := range region.Levels {
		code := next.Code(level)
		if code == "" {
			return nil
		}

		// Options for this level are only meaningful if they belong to the
		// same parent as next.
		if level != region.LevelProvince && next.Code(level-1) != c.sel.Code(level-1) {
			continue
		}

		if c.pending[level] != 0 {
			continue
		}

		opts, loaded := c.options[level]
		if loaded && !containsCode(opts, code) {
			return fmt.Errorf("%w: %s %s is not an option", region.ErrInvalidSelectionPath, level, code)
		}
	}

	return nil
}

func containsCode(nodes []region.Node, code string) bool {
	return slices.ContainsFunc(nodes, func(n region.Node) bool { return n.Code == code })
}

func (c *Controller) resetLocked(level region.Level) {
	delete(c.options, level)
	c.pending[level] = 0
}

func (c *Controller) fetchLocked(level region.Level, parent string) {
	c.seq++
	gen := c.seq
	c.pending[level] = gen

	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		ctx, cancel := context.WithTimeout(c.ctx, c.cfg.FetchTimeout)
		defer cancel()

		var (
			nodes []region.Node
			err   error
		)

		switch level {
		case region.LevelProvince:
			nodes, err = c.store.ListProvinces(ctx)
		case region.LevelRegency:
			nodes, err = c.store.ListRegencies(ctx, parent)
		case region.LevelDistrict:
			nodes, err = c.store.ListDistricts(ctx, parent)
		}

		c.deliver(level, gen, nodes, err)
	}()
}

func (c *Controller) deliver(level region.Level, gen uint64, nodes []region.Node, err error) {
	c.mu.Lock()

	if c.pending[level] != gen {
		c.mu.Unlock()

		if c.cfg.OnStale != nil {
			c.cfg.OnStale(level)
		}

		return
	}

	c.pending[level] = 0

	if err != nil {
		c.err = fmt.Errorf("%w: loading %s options: %w", region.ErrReferenceDataUnavailable, level, err)
		log.Printf("Selection options unavailable: %v", c.err)
	} else {
		c.err = nil
		c.options[level] = nodes

		// A code that is not among the fresh options can't stay selected.
		if code := c.sel.Code(level); code != "" && !containsCode(nodes, code) {
			log.Printf("Clearing %s %s: not among %d options", level, code, len(nodes))

			c.sel, _ = Reduce(c.sel, SetAction(level, ""))
			for child := level + 1; child <= region.LevelDistrict; child++ {
				c.resetLocked(child)
			}
		}
	}

	state := c.stateLocked()
	c.mu.Unlock()

	c.notify(state)
}

func (c *Controller) notify(s State) {
	if c.cfg.OnChange != nil {
		c.cfg.OnChange(s)
	}
}

// Wait blocks until every issued fetch has been delivered or dropped.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close abandons in-flight fetches and waits for their goroutines.
func (c *Controller) Close() {
	c.cancel()
	c.wg.Wait()
}
