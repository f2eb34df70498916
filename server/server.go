// Copyright 2025 The JalanKu Authors
// SPDX-License-Identifier: Apache-2.0

// Package server exposes report drafts and the region lists over HTTP for
// the report form.
package server

import (
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jalanku/jalanku/metrics"
	"github.com/jalanku/jalanku/reconcile"
	"github.com/jalanku/jalanku/region"
	"github.com/patrickmn/go-cache"
)

// MaxPhotoBytes caps an uploaded photo.
const MaxPhotoBytes = 16 << 20

// DefaultDraftTTL is how long a draft survives without requests.
const DefaultDraftTTL = 30 * time.Minute

// Options wires a Server.
type Options struct {
	// Draft is the template every new draft is created from. Its Device and
	// OnStatus fields are replaced per draft.
	Draft reconcile.Config

	// Store serves the region list endpoints.
	Store region.Store

	// Metrics, when set, is exposed on /metrics and tracks live drafts.
	Metrics *metrics.Metrics

	// DraftTTL closes drafts that received no request for this long. Forms
	// that are abandoned never delete their draft. Zero means DefaultDraftTTL.
	DraftTTL time.Duration
}

type entry struct {
	draft  *reconcile.Draft
	device *devicePosition
	once   sync.Once
}

// Server holds the drafts of in-progress report forms. Drafts live in a TTL
// cache; every request refreshes the deadline and eviction closes the draft.
// Expired drafts are swept whenever a new one is opened, so the registry is
// bounded by the drafts created within one TTL.
type Server struct {
	opts   Options
	drafts *cache.Cache
}

func NewServer(opts Options) *Server {
	if opts.DraftTTL <= 0 {
		opts.DraftTTL = DefaultDraftTTL
	}

	s := &Server{opts: opts}

	// No janitor goroutine: sweeps happen in open.
	s.drafts = cache.New(opts.DraftTTL, 0)
	s.drafts.OnEvicted(func(_ string, v any) {
		s.closeEntry(v.(*entry))
	})

	return s
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	api := r.Group("/api")
	api.POST("/drafts", s.createDraft)

	d := api.Group("/drafts/:id")
	d.DELETE("", s.deleteDraft)
	d.GET("/status", s.draftStatus)
	d.GET("/resolution", s.draftResolution)
	d.GET("/selection", s.draftSelection)
	d.POST("/photo", s.attachPhoto)
	d.POST("/address", s.editAddress)
	d.POST("/coordinates", s.editCoordinates)
	d.POST("/device", s.deviceLocation)
	d.PUT("/selection/:level", s.setSelection)
	d.POST("/confirm", s.confirmSuggestion)
	d.POST("/retry", s.retry)
	d.POST("/clear-error", s.clearError)

	api.GET("/regions/provinces", s.listProvinces)
	api.GET("/regions/provinces/:code/regencies", s.listRegencies)
	api.GET("/regions/regencies/:code/districts", s.listDistricts)

	if s.opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(s.opts.Metrics.Handler()))
	}

	return r
}

// Run serves on addr until the listener fails.
func (s *Server) Run(addr string) error {
	log.Printf("Serving report drafts on %s", addr)

	return s.Router().Run(addr)
}

// Close closes every open draft.
func (s *Server) Close() {
	items := s.drafts.Items()
	for id := range items {
		s.drafts.Delete(id)
	}

	// Items skips expired entries that were not swept yet.
	s.drafts.DeleteExpired()
}

// Sweep closes the drafts whose TTL ran out.
func (s *Server) Sweep() {
	s.drafts.DeleteExpired()
}

// Len returns the number of drafts held, including expired ones not swept yet.
func (s *Server) Len() int {
	return s.drafts.ItemCount()
}

func (s *Server) open() (string, *entry) {
	dev := &devicePosition{}

	cfg := s.opts.Draft
	cfg.Device = dev
	cfg.OnStatus = nil

	s.Sweep()

	e := &entry{draft: reconcile.NewDraft(cfg), device: dev}
	id := uuid.NewString()

	s.drafts.SetDefault(id, e)

	if s.opts.Metrics != nil {
		s.opts.Metrics.DraftOpened()
	}

	return id, e
}

func (s *Server) closeEntry(e *entry) {
	e.once.Do(func() {
		e.draft.Close()

		if s.opts.Metrics != nil {
			s.opts.Metrics.DraftClosed()
		}
	})
}

func (s *Server) lookup(ctx *gin.Context) (*entry, bool) {
	id := ctx.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "unknown draft"})

		return nil, false
	}

	v, ok := s.drafts.Get(id)
	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "unknown draft"})

		return nil, false
	}

	// Refresh the idle deadline.
	e := v.(*entry)
	s.drafts.SetDefault(id, e)

	return e, true
}

// respond maps draft errors onto status codes.
func respond(ctx *gin.Context, err error, d *reconcile.Draft) {
	switch {
	case err == nil:
		ctx.JSON(http.StatusAccepted, d.Status())
	case errors.Is(err, reconcile.ErrClosed):
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, region.ErrInvalidSelectionPath),
		errors.Is(err, reconcile.ErrNoSuggestion),
		errors.Is(err, reconcile.ErrNothingToRetry):
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}
