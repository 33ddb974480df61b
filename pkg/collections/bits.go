// Copyright (C) 2025 Driftwood Labs (oss@driftwoodlabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package collections

import "math/bits"

const wordBits = 64

// Bits is a growable bit vector backed by 64-bit words.
//
// Set grows the vector as needed. Get and Clear beyond the current length
// are a false read and a no-op respectively, so callers never need to
// pre-size. Negative indexes panic.
//
// Bits is not safe for concurrent use.
type Bits struct {
	words []uint64
}

// NewBits creates an empty bit vector.
func NewBits() *Bits {
	return &Bits{}
}

// FromWords creates a bit vector from a word slice previously obtained
// via Words. The slice is copied.
func FromWords(words []uint64) *Bits {
	w := make([]uint64, len(words))
	copy(w, words)
	return &Bits{words: w}
}

func (b *Bits) grow(word int) {
	for len(b.words) <= word {
		b.words = append(b.words, 0)
	}
}

// Set sets bit i, growing the vector if needed.
func (b *Bits) Set(i int) {
	if i < 0 {
		panic("collections: negative bit index")
	}
	b.grow(i / wordBits)
	b.words[i/wordBits] |= 1 << (uint(i) % wordBits)
}

// Clear clears bit i. Clearing beyond the current length is a no-op.
func (b *Bits) Clear(i int) {
	if i < 0 {
		panic("collections: negative bit index")
	}
	if w := i / wordBits; w < len(b.words) {
		b.words[w] &^= 1 << (uint(i) % wordBits)
	}
}

// Get reports whether bit i is set. Bits beyond the current length read
// as false.
func (b *Bits) Get(i int) bool {
	if i < 0 {
		panic("collections: negative bit index")
	}
	w := i / wordBits
	if w >= len(b.words) {
		return false
	}
	return b.words[w]&(1<<(uint(i)%wordBits)) != 0
}

// SetRange sets bits lo through hi-1.
func (b *Bits) SetRange(lo, hi int) {
	for i := lo; i < hi; i++ {
		b.Set(i)
	}
}

// ClearAll clears every bit while keeping allocated capacity.
func (b *Bits) ClearAll() {
	for i := range b.words {
		b.words[i] = 0
	}
}

// Count returns the number of set bits.
func (b *Bits) Count() int {
	n := 0
	for _, w := range b.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// NextSet returns the index of the first set bit at or after from, and
// whether one exists.
func (b *Bits) NextSet(from int) (int, bool) {
	if from < 0 {
		from = 0
	}
	for w := from / wordBits; w < len(b.words); w++ {
		word := b.words[w]
		if w == from/wordBits {
			word &= ^uint64(0) << (uint(from) % wordBits)
		}
		if word != 0 {
			return w*wordBits + bits.TrailingZeros64(word), true
		}
	}
	return 0, false
}

// Words returns a copy of the backing words. FromWords(b.Words()) yields
// an equal vector.
func (b *Bits) Words() []uint64 {
	out := make([]uint64, len(b.words))
	copy(out, b.words)
	return out
}
