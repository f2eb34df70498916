// Copyright 2025 The JalanKu Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jalanku/jalanku/region"
)

func (s *Server) listProvinces(ctx *gin.Context) {
	nodes, err := s.opts.Store.ListProvinces(ctx.Request.Context())
	s.writeNodes(ctx, nodes, err)
}

func (s *Server) listRegencies(ctx *gin.Context) {
	nodes, err := s.opts.Store.ListRegencies(ctx.Request.Context(), ctx.Param("code"))
	s.writeNodes(ctx, nodes, err)
}

func (s *Server) listDistricts(ctx *gin.Context) {
	nodes, err := s.opts.Store.ListDistricts(ctx.Request.Context(), ctx.Param("code"))
	s.writeNodes(ctx, nodes, err)
}

func (s *Server) writeNodes(ctx *gin.Context, nodes []region.Node, err error) {
	if err != nil {
		log.Printf("Listing regions for %s: %v", ctx.Request.URL.Path, err)
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": region.ErrReferenceDataUnavailable.Error()})

		return
	}

	if nodes == nil {
		nodes = []region.Node{}
	}

	ctx.JSON(http.StatusOK, nodes)
}
