// Copyright 2025 The JalanKu Authors
// SPDX-License-Identifier: Apache-2.0

package region

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

type levelKey struct {
	level Level
	code  string
}

// Catalog is an immutable, validated snapshot of the administrative hierarchy.
// It is safe for concurrent use and implements Store.
type Catalog struct {
	nodes     map[levelKey]Node
	provinces []Node
	children  map[levelKey][]Node // parent -> children, sorted by code
}

// NewCatalog validates nodes and builds a catalog. Codes must be unique within
// a level and every regency/district must reference an existing parent.
func NewCatalog(nodes []Node) (*Catalog, error) {
	c := &Catalog{
		nodes:    make(map[levelKey]Node, len(nodes)),
		children: make(map[levelKey][]Node),
	}

	for _, n := range nodes {
		if err := n.Validate(); err != nil {
			return nil, err
		}

		key := levelKey{n.Level, n.Code}
		if _, dup := c.nodes[key]; dup {
			return nil, fmt.Errorf("duplicate %s code %s", n.Level, n.Code)
		}

		c.nodes[key] = n
	}

	for _, n := range nodes {
		if n.Level == LevelProvince {
			c.provinces = append(c.provinces, n)

			continue
		}

		parent := levelKey{n.Level - 1, n.ParentCode}
		if _, ok := c.nodes[parent]; !ok {
			return nil, fmt.Errorf("%s %s (%s): parent %s %s not found", n.Level, n.Code, n.Name, parent.level, parent.code)
		}

		c.children[parent] = append(c.children[parent], n)
	}

	byCode := func(a, b Node) int { return strings.Compare(a.Code, b.Code) }

	slices.SortFunc(c.provinces, byCode)

	for _, kids := range c.children {
		slices.SortFunc(kids, byCode)
	}

	return c, nil
}

// Len returns the total number of nodes.
func (c *Catalog) Len() int {
	return len(c.nodes)
}

// Node looks up a node by level and code.
func (c *Catalog) Node(level Level, code string) (Node, bool) {
	n, ok := c.nodes[levelKey{level, code}]

	return n, ok
}

// Provinces returns every province sorted by code.
func (c *Catalog) Provinces() []Node {
	return slices.Clone(c.provinces)
}

// Regencies returns the regencies of a province sorted by code.
func (c *Catalog) Regencies(provinceCode string) []Node {
	return slices.Clone(c.children[levelKey{LevelProvince, provinceCode}])
}

// Districts returns the districts of a regency sorted by code.
func (c *Catalog) Districts(regencyCode string) []Node {
	return slices.Clone(c.children[levelKey{LevelRegency, regencyCode}])
}

// All returns every node at a level, sorted by code.
func (c *Catalog) All(level Level) []Node {
	var out []Node

	for _, n := range c.nodes {
		if n.Level == level {
			out = append(out, n)
		}
	}

	slices.SortFunc(out, func(a, b Node) int { return strings.Compare(a.Code, b.Code) })

	return out
}

// Nodes returns the full catalog sorted by level then code.
func (c *Catalog) Nodes() []Node {
	out := make([]Node, 0, len(c.nodes))
	for _, level := range Levels {
		out = append(out, c.All(level)...)
	}

	return out
}

// PathTo returns the selection that ends at the given node, with every
// ancestor filled in.
func (c *Catalog) PathTo(level Level, code string) (Selection, bool) {
	n, ok := c.Node(level, code)
	if !ok {
		return Selection{}, false
	}

	var sel Selection

	for {
		switch n.Level {
		case LevelDistrict:
			sel.DistrictCode = n.Code
		case LevelRegency:
			sel.RegencyCode = n.Code
		case LevelProvince:
			sel.ProvinceCode = n.Code

			return sel, true
		}

		n, ok = c.Node(n.Level-1, n.ParentCode)
		if !ok {
			return Selection{}, false
		}
	}
}

// ValidateSelection checks that every set code exists and is the true child of
// the level above it.
func (c *Catalog) ValidateSelection(sel Selection) error {
	if err := sel.CheckShape(); err != nil {
		return err
	}

	parent := ""

	for _, level := range Levels {
		code := sel.Code(level)
		if code == "" {
			return nil
		}

		n, ok := c.Node(level, code)
		if !ok {
			return fmt.Errorf("%w: unknown %s %s", ErrInvalidSelectionPath, level, code)
		}

		if n.ParentCode != parent {
			return fmt.Errorf("%w: %s %s belongs to %s, not %s", ErrInvalidSelectionPath, level, code, n.ParentCode, parent)
		}

		parent = code
	}

	return nil
}

// ListProvinces implements Store.
func (c *Catalog) ListProvinces(_ context.Context) ([]Node, error) {
	return c.Provinces(), nil
}

// ListRegencies implements Store.
func (c *Catalog) ListRegencies(_ context.Context, provinceCode string) ([]Node, error) {
	return c.Regencies(provinceCode), nil
}

// ListDistricts implements Store.
func (c *Catalog) ListDistricts(_ context.Context, regencyCode string) ([]Node, error) {
	return c.Districts(regencyCode), nil
}
