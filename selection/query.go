// Copyright 2025 The JalanKu Authors
// SPDX-License-Identifier: Apache-2.0

package selection

import (
	"net/url"

	"github.com/jalanku/jalanku/region"
)

// Query parameter names of the shareable selection.
const (
	ParamProvince = "province"
	ParamRegency  = "regency"
	ParamDistrict = "district"
)

var params = map[region.Level]string{
	region.LevelProvince: ParamProvince,
	region.LevelRegency:  ParamRegency,
	region.LevelDistrict: ParamDistrict,
}

// Query renders sel as query parameters. Unset levels are omitted.
func Query(sel region.Selection) url.Values {
	v := url.Values{}

	for _, level := range region.Levels {
		if code := sel.Code(level); code != "" {
			v.Set(params[level], code)
		}
	}

	return v
}

// Query renders the current selection as query parameters.
func (c *Controller) Query() url.Values {
	return Query(c.Selection())
}

// ApplyQuery restores a selection from query parameters through the normal
// setters, top-down. Levels absent from v are left unset. It stops at the
// first rejected level and returns its error.
func (c *Controller) ApplyQuery(v url.Values) error {
	if !v.Has(ParamProvince) {
		return nil
	}

	for _, level := range region.Levels {
		if !v.Has(params[level]) {
			return nil
		}

		if err := c.Set(level, v.Get(params[level])); err != nil {
			return err
		}
	}

	return nil
}
