// Copyright (C) 2025 Driftwood Labs (oss@driftwoodlabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package quantity

import (
	"fmt"
	"io"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var tableValidate = validator.New()

// unitTableFile is the YAML schema for a unit table.
//
// Example document:
//
//	dimensions:
//	  - name: requests
//	units:
//	  - symbol: req
//	    dimension: requests
//	    scale: 1
//	  - symbol: kreq
//	    dimension: requests
//	    scale: 1000
type unitTableFile struct {
	Dimensions []struct {
		Name string `yaml:"name" validate:"required"`
	} `yaml:"dimensions" validate:"dive"`
	Units []struct {
		Symbol    string `yaml:"symbol" validate:"required"`
		Dimension string `yaml:"dimension" validate:"required"`
		Scale     int64  `yaml:"scale" validate:"required,gt=0"`
	} `yaml:"units" validate:"required,min=1,dive"`
}

// Registry resolves units by symbol. A fresh Registry knows the built-in
// time and data units; LoadUnitTable extends it with company-specific
// units declared in YAML.
//
// Registry is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	units map[string]Unit
	dims  map[Dimension]bool
}

// NewRegistry creates a Registry pre-populated with the built-in units.
func NewRegistry() *Registry {
	r := &Registry{
		units: make(map[string]Unit),
		dims:  map[Dimension]bool{Time: true, Data: true},
	}
	for _, u := range []Unit{
		Nanosecond, Microsecond, Millisecond, Second, Minute, Hour, Day,
		Bit, Byte, Kilobyte, Megabyte, Gigabyte, Terabyte,
	} {
		r.units[u.symbol] = u
	}
	return r
}

// Unit resolves a unit by symbol.
func (r *Registry) Unit(symbol string) (Unit, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.units[symbol]
	return u, ok
}

// Symbols returns the number of registered units.
func (r *Registry) Symbols() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.units)
}

// LoadUnitTable parses a YAML unit table and registers its dimensions
// and units.
//
// Every unit must name either a built-in dimension, a dimension declared
// in the same document, or one loaded earlier. Scales are base units per
// declared unit and must be positive. Redefining an existing symbol with
// a different dimension or scale is an error; an identical redefinition
// is ignored.
func (r *Registry) LoadUnitTable(src io.Reader) error {
	raw, err := io.ReadAll(src)
	if err != nil {
		return fmt.Errorf("quantity: read unit table: %w", err)
	}

	var file unitTableFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("quantity: unmarshal unit table: %w", err)
	}
	if err := tableValidate.Struct(&file); err != nil {
		return fmt.Errorf("quantity: invalid unit table: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Stage the whole document first; a rejected table must leave the
	// registry untouched.
	newDims := make(map[Dimension]bool)
	for _, d := range file.Dimensions {
		newDims[Dimension(d.Name)] = true
	}
	newUnits := make(map[string]Unit)
	for _, spec := range file.Units {
		dim := Dimension(spec.Dimension)
		if !r.dims[dim] && !newDims[dim] {
			return fmt.Errorf("quantity: unit %q references unknown dimension %q", spec.Symbol, spec.Dimension)
		}
		u := Unit{symbol: spec.Symbol, dim: dim, factor: spec.Scale}
		prev, registered := r.units[spec.Symbol]
		if !registered {
			prev, registered = newUnits[spec.Symbol]
		}
		if registered {
			if prev != u {
				return fmt.Errorf("quantity: unit %q already registered as %s/%d", spec.Symbol, prev.dim, prev.factor)
			}
			continue
		}
		newUnits[spec.Symbol] = u
	}

	for d := range newDims {
		r.dims[d] = true
	}
	for s, u := range newUnits {
		r.units[s] = u
	}
	return nil
}
