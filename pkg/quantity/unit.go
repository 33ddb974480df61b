// Copyright (C) 2025 Driftwood Labs (oss@driftwoodlabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package quantity provides typed amounts with unit-safe arithmetic.
//
// An Amount pairs an integer value with a Unit; arithmetic and comparison
// only work between units of the same Dimension, and conversions track
// whether any rounding occurred. Built-in tables cover time and data
// sizes; additional company-specific units can be loaded from a YAML
// unit table at runtime (see LoadUnitTable).
//
// Example:
//
//	heap := quantity.Of(512, quantity.Megabyte)
//	limit := quantity.Of(1, quantity.Gigabyte)
//	if c, _ := heap.Cmp(limit); c < 0 {
//	    // fits
//	}
package quantity

// Dimension identifies what a unit measures. Units of different
// dimensions never convert or compare.
type Dimension string

// Built-in dimensions.
const (
	Time Dimension = "time"
	Data Dimension = "data"
)

// Unit is a named measurement unit. Each unit is defined by the number
// of base units it contains; the base unit of a dimension has factor 1
// (nanoseconds for Time, bits for Data).
//
// Unit values are immutable and comparable with ==.
type Unit struct {
	symbol string
	dim    Dimension
	// factor is the number of base units per one of this unit, always >= 1.
	factor int64
}

// Built-in time units. The base unit is the nanosecond.
var (
	Nanosecond  = Unit{"ns", Time, 1}
	Microsecond = Unit{"us", Time, 1_000}
	Millisecond = Unit{"ms", Time, 1_000_000}
	Second      = Unit{"s", Time, 1_000_000_000}
	Minute      = Unit{"min", Time, 60 * 1_000_000_000}
	Hour        = Unit{"h", Time, 3_600 * 1_000_000_000}
	Day         = Unit{"d", Time, 24 * 3_600 * 1_000_000_000}
)

// Built-in data units. The base unit is the bit; byte multiples scale by
// 1024.
var (
	Bit      = Unit{"b", Data, 1}
	Byte     = Unit{"B", Data, 8}
	Kilobyte = Unit{"KB", Data, 8 << 10}
	Megabyte = Unit{"MB", Data, 8 << 20}
	Gigabyte = Unit{"GB", Data, 8 << 30}
	Terabyte = Unit{"TB", Data, 8 << 40}
)

// Symbol returns the unit's display symbol, e.g. "ms" or "MB".
func (u Unit) Symbol() string { return u.symbol }

// Dimension returns the dimension the unit measures.
func (u Unit) Dimension() Dimension { return u.dim }

// IsZero reports whether u is the zero Unit (no symbol, no dimension).
func (u Unit) IsZero() bool { return u == Unit{} }
