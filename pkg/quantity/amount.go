// Copyright (C) 2025 Driftwood Labs (oss@driftwoodlabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package quantity

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrDimensionMismatch is returned when an operation mixes units of
	// different dimensions, e.g. adding megabytes to minutes.
	ErrDimensionMismatch = errors.New("quantity: dimension mismatch")

	// ErrOverflow is returned when a conversion or arithmetic result does
	// not fit in an int64 of the target unit's base scale.
	ErrOverflow = errors.New("quantity: value overflows int64")
)

// Amount is an immutable integer value bound to a Unit.
//
// Arithmetic converts operands to the finer of the two units first, so
// `Of(1, Second).Add(Of(500, Millisecond))` yields 1500 ms. Conversions
// that cannot be represented without rounding round half away from zero
// and mark the result inexact; Exact reports whether any rounding has
// happened anywhere in an amount's history.
type Amount struct {
	value   int64
	unit    Unit
	inexact bool
}

// Of creates an Amount of value units of u.
func Of(value int64, u Unit) Amount {
	if u.IsZero() {
		panic("quantity: Of with zero Unit")
	}
	return Amount{value: value, unit: u}
}

// OfFloat creates an Amount from a float value, rounding half away from
// zero to the nearest whole unit. The result is marked inexact when
// rounding discarded a fraction.
func OfFloat(value float64, u Unit) Amount {
	if u.IsZero() {
		panic("quantity: OfFloat with zero Unit")
	}
	rounded := math.Round(value)
	return Amount{
		value:   int64(rounded),
		unit:    u,
		inexact: rounded != value,
	}
}

// Value returns the numeric value in the amount's own unit.
func (a Amount) Value() int64 { return a.value }

// Unit returns the amount's unit.
func (a Amount) Unit() Unit { return a.unit }

// Exact reports whether the amount is free of rounding error.
func (a Amount) Exact() bool { return !a.inexact }

// String formats the amount as "<value> <symbol>", e.g. "150 ms".
// Inexact amounts are prefixed with "~".
func (a Amount) String() string {
	if a.inexact {
		return fmt.Sprintf("~%d %s", a.value, a.unit.symbol)
	}
	return fmt.Sprintf("%d %s", a.value, a.unit.symbol)
}

// mulCheck multiplies a*b, reporting overflow.
func mulCheck(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	r := a * b
	if r/b != a {
		return 0, false
	}
	return r, true
}

// ConvertTo re-expresses the amount in unit u.
//
// Returns ErrDimensionMismatch if u measures a different dimension and
// ErrOverflow if the value does not fit. When the source value is not a
// whole multiple of the target unit the result rounds half away from
// zero and is marked inexact; otherwise converting back to the original
// unit is the identity.
func (a Amount) ConvertTo(u Unit) (Amount, error) {
	if u.IsZero() {
		return Amount{}, fmt.Errorf("quantity: convert to zero Unit")
	}
	if u.dim != a.unit.dim {
		return Amount{}, fmt.Errorf("%w: %s -> %s", ErrDimensionMismatch, a.unit.dim, u.dim)
	}
	if u == a.unit {
		return a, nil
	}

	base, ok := mulCheck(a.value, a.unit.factor)
	if !ok {
		return Amount{}, fmt.Errorf("%w: %s to %s", ErrOverflow, a, u.symbol)
	}
	q := base / u.factor
	rem := base % u.factor
	inexact := a.inexact
	if rem != 0 {
		inexact = true
		// Round half away from zero.
		if 2*abs(rem) >= u.factor {
			if base < 0 {
				q--
			} else {
				q++
			}
		}
	}
	return Amount{value: q, unit: u, inexact: inexact}, nil
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// finerUnit returns whichever of a, b has the smaller base factor.
func finerUnit(a, b Unit) Unit {
	if b.factor < a.factor {
		return b
	}
	return a
}

// Add returns a + b expressed in the finer of the two units.
func (a Amount) Add(b Amount) (Amount, error) {
	if b.unit.dim != a.unit.dim {
		return Amount{}, fmt.Errorf("%w: %s + %s", ErrDimensionMismatch, a.unit.dim, b.unit.dim)
	}
	target := finerUnit(a.unit, b.unit)
	ca, err := a.ConvertTo(target)
	if err != nil {
		return Amount{}, err
	}
	cb, err := b.ConvertTo(target)
	if err != nil {
		return Amount{}, err
	}
	sum := ca.value + cb.value
	if (ca.value > 0 && cb.value > 0 && sum < 0) || (ca.value < 0 && cb.value < 0 && sum >= 0) {
		return Amount{}, fmt.Errorf("%w: %s + %s", ErrOverflow, a, b)
	}
	return Amount{value: sum, unit: target, inexact: ca.inexact || cb.inexact}, nil
}

// Sub returns a - b expressed in the finer of the two units.
func (a Amount) Sub(b Amount) (Amount, error) {
	return a.Add(b.Neg())
}

// Neg returns the amount with its sign flipped.
func (a Amount) Neg() Amount {
	return Amount{value: -a.value, unit: a.unit, inexact: a.inexact}
}

// Scale returns the amount multiplied by k.
func (a Amount) Scale(k int64) (Amount, error) {
	v, ok := mulCheck(a.value, k)
	if !ok {
		return Amount{}, fmt.Errorf("%w: %s * %d", ErrOverflow, a, k)
	}
	return Amount{value: v, unit: a.unit, inexact: a.inexact}, nil
}

// Cmp compares a against b across units of one dimension, returning -1,
// 0, or 1.
func (a Amount) Cmp(b Amount) (int, error) {
	if b.unit.dim != a.unit.dim {
		return 0, fmt.Errorf("%w: %s vs %s", ErrDimensionMismatch, a.unit.dim, b.unit.dim)
	}
	// Compare in base units; fall back to float on overflow, which only
	// loses precision far beyond any interesting magnitude.
	ba, okA := mulCheck(a.value, a.unit.factor)
	bb, okB := mulCheck(b.value, b.unit.factor)
	if okA && okB {
		switch {
		case ba < bb:
			return -1, nil
		case ba > bb:
			return 1, nil
		default:
			return 0, nil
		}
	}
	fa := float64(a.value) * float64(a.unit.factor)
	fb := float64(b.value) * float64(b.unit.factor)
	switch {
	case fa < fb:
		return -1, nil
	case fa > fb:
		return 1, nil
	default:
		return 0, nil
	}
}
