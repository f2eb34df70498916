// Copyright 2025 The JalanKu Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/jalanku/jalanku/candidate"
	"github.com/jalanku/jalanku/reconcile"
	"github.com/jalanku/jalanku/region"
	"github.com/jalanku/jalanku/selection"
	"github.com/jalanku/jalanku/spatial"
)

// devicePosition is the device locator of one draft. The browser posts the
// fix it obtained; the draft then reads it back through the locator.
type devicePosition struct {
	mu  sync.Mutex
	pos *spatial.Point
	err error
}

func (d *devicePosition) set(p *spatial.Point, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pos, d.err = p, err
}

func (d *devicePosition) CurrentPosition(context.Context) (spatial.Point, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.err != nil {
		return spatial.Point{}, d.err
	}

	if d.pos == nil {
		return spatial.Point{}, candidate.ErrPositionUnavailable
	}

	return *d.pos, nil
}

type draftCreated struct {
	ID     string           `json:"id"`
	Status reconcile.Status `json:"status"`
}

func (s *Server) createDraft(ctx *gin.Context) {
	id, e := s.open()

	if err := e.draft.Selector().ApplyQuery(ctx.Request.URL.Query()); err != nil {
		s.drafts.Delete(id)

		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusCreated, draftCreated{ID: id, Status: e.draft.Status()})
}

func (s *Server) deleteDraft(ctx *gin.Context) {
	e, ok := s.lookup(ctx)
	if !ok {
		return
	}

	s.drafts.Delete(ctx.Param("id"))
	s.closeEntry(e)
	ctx.Status(http.StatusNoContent)
}

func (s *Server) draftStatus(ctx *gin.Context) {
	e, ok := s.lookup(ctx)
	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, e.draft.Status())
}

func (s *Server) draftResolution(ctx *gin.Context) {
	e, ok := s.lookup(ctx)
	if !ok {
		return
	}

	res := e.draft.Resolution()

	ctx.JSON(http.StatusOK, gin.H{
		"resolution": res,
		"record":     e.draft.Record(),
		"query":      selection.Query(res.Selection).Encode(),
	})
}

// draftSelection returns the selector of the draft with its option lists.
// Lists come from the draft's own controller, so a list that arrived for a
// superseded parent never shows and a failed load is reported in Error.
func (s *Server) draftSelection(ctx *gin.Context) {
	e, ok := s.lookup(ctx)
	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, e.draft.Selector().State())
}

func (s *Server) attachPhoto(ctx *gin.Context) {
	e, ok := s.lookup(ctx)
	if !ok {
		return
	}

	fh, err := ctx.FormFile("photo")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "multipart field photo is required"})

		return
	}

	if fh.Size > MaxPhotoBytes {
		ctx.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("photo larger than %d bytes", MaxPhotoBytes)})

		return
	}

	f, err := fh.Open()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxPhotoBytes))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	respond(ctx, e.draft.AttachPhoto(data), e.draft)
}

type addressRequest struct {
	Address string `json:"address" binding:"required"`
}

func (s *Server) editAddress(ctx *gin.Context) {
	e, ok := s.lookup(ctx)
	if !ok {
		return
	}

	var req addressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	respond(ctx, e.draft.EditAddress(req.Address), e.draft)
}

type coordinatesRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`

	// Error reports a failed browser lookup, e.g. permission denied.
	Error string `json:"error"`
}

func (r coordinatesRequest) point() (*spatial.Point, error) {
	if r.Lat == nil || r.Lng == nil {
		return nil, errors.New("lat and lng are required")
	}

	return &spatial.Point{Lat: *r.Lat, Lng: *r.Lng}, nil
}

func (s *Server) editCoordinates(ctx *gin.Context) {
	e, ok := s.lookup(ctx)
	if !ok {
		return
	}

	var req coordinatesRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	p, err := req.point()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	respond(ctx, e.draft.EditCoordinates(*p), e.draft)
}

func (s *Server) deviceLocation(ctx *gin.Context) {
	e, ok := s.lookup(ctx)
	if !ok {
		return
	}

	var req coordinatesRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	if req.Error != "" {
		e.device.set(nil, fmt.Errorf("%w: %s", candidate.ErrPositionUnavailable, req.Error))
	} else {
		p, err := req.point()
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

			return
		}

		e.device.set(p, nil)
	}

	respond(ctx, e.draft.RequestDeviceLocation(), e.draft)
}

type selectionRequest struct {
	Code string `json:"code"`
}

func (s *Server) setSelection(ctx *gin.Context) {
	e, ok := s.lookup(ctx)
	if !ok {
		return
	}

	level, err := region.ParseLevel(ctx.Param("level"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	var req selectionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	respond(ctx, e.draft.SetLevel(level, req.Code), e.draft)
}

func (s *Server) confirmSuggestion(ctx *gin.Context) {
	e, ok := s.lookup(ctx)
	if !ok {
		return
	}

	respond(ctx, e.draft.ConfirmSuggestion(), e.draft)
}

func (s *Server) retry(ctx *gin.Context) {
	e, ok := s.lookup(ctx)
	if !ok {
		return
	}

	respond(ctx, e.draft.Retry(), e.draft)
}

func (s *Server) clearError(ctx *gin.Context) {
	e, ok := s.lookup(ctx)
	if !ok {
		return
	}

	e.draft.ClearError()
	ctx.JSON(http.StatusOK, e.draft.Status())
}
