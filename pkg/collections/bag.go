// Copyright (C) 2025 Driftwood Labs (oss@driftwoodlabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package collections provides small general-purpose containers shared
// across Driftwood services: a multiset (Bag), a blocking bounded queue,
// a growable bit vector, and an LRU map with eviction callbacks.
//
// Each container is independent and carries its own concurrency contract;
// read the type documentation before sharing one between goroutines.
package collections

// Bag is a multiset: an unordered collection that keeps a frequency count
// per distinct element.
//
// A Bag is NOT safe for concurrent use. Callers that share a Bag between
// goroutines must provide their own synchronization.
//
// The zero value is not usable; create one with NewBag.
//
// Example:
//
//	bag := collections.NewBag[string]()
//	bag.Add("retweet")
//	bag.Add("retweet")
//	bag.Count("retweet") // 2
type Bag[T comparable] struct {
	counts map[T]int
	size   int
}

// NewBag creates an empty Bag.
func NewBag[T comparable]() *Bag[T] {
	return &Bag[T]{counts: make(map[T]int)}
}

// Add inserts one occurrence of e.
func (b *Bag[T]) Add(e T) {
	b.AddN(e, 1)
}

// AddN inserts n occurrences of e.
//
// n must be positive; AddN panics otherwise. Use RemoveN to decrease a
// count.
func (b *Bag[T]) AddN(e T, n int) {
	if n <= 0 {
		panic("collections: Bag.AddN requires a positive count")
	}
	b.counts[e] += n
	b.size += n
}

// Remove deletes one occurrence of e. It reports whether an occurrence
// was present to remove.
func (b *Bag[T]) Remove(e T) bool {
	return b.RemoveN(e, 1) == 1
}

// RemoveN deletes up to n occurrences of e and returns the number of
// occurrences actually removed. The stored count never goes below zero,
// and elements whose count reaches zero are dropped entirely, so Elements
// never reports stale members.
func (b *Bag[T]) RemoveN(e T, n int) int {
	if n <= 0 {
		return 0
	}
	have, ok := b.counts[e]
	if !ok {
		return 0
	}
	removed := n
	if removed > have {
		removed = have
	}
	if have == removed {
		delete(b.counts, e)
	} else {
		b.counts[e] = have - removed
	}
	b.size -= removed
	return removed
}

// Count returns the number of occurrences of e, zero if absent.
func (b *Bag[T]) Count(e T) int {
	return b.counts[e]
}

// Len returns the number of distinct elements.
func (b *Bag[T]) Len() int {
	return len(b.counts)
}

// Size returns the total number of occurrences across all elements.
func (b *Bag[T]) Size() int {
	return b.size
}

// Elements returns the distinct elements in unspecified order.
func (b *Bag[T]) Elements() []T {
	out := make([]T, 0, len(b.counts))
	for e := range b.counts {
		out = append(out, e)
	}
	return out
}

// Counts returns a copy of the element histogram.
func (b *Bag[T]) Counts() map[T]int {
	out := make(map[T]int, len(b.counts))
	for e, n := range b.counts {
		out[e] = n
	}
	return out
}
