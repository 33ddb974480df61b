// Copyright (C) 2025 Driftwood Labs (oss@driftwoodlabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package collections

import (
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LRUMap is a fixed-capacity map evicting the least recently used entry
// on overflow, with an optional eviction callback and hit/miss counters.
//
// It wraps hashicorp's LRU cache, which is safe for concurrent use; the
// counters are atomic, so LRUMap inherits that safety.
//
// Example:
//
//	m, _ := collections.NewLRUMap(1024, func(k string, v session) {
//	    v.release()
//	})
//	m.Put("abc", sess)
type LRUMap[K comparable, V any] struct {
	cache  *lru.Cache[K, V]
	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewLRUMap creates an LRUMap holding at most capacity entries. onEvict
// may be nil.
func NewLRUMap[K comparable, V any](capacity int, onEvict func(K, V)) (*LRUMap[K, V], error) {
	if capacity < 1 {
		return nil, fmt.Errorf("collections: LRU capacity must be positive, got %d", capacity)
	}
	var cache *lru.Cache[K, V]
	var err error
	if onEvict != nil {
		cache, err = lru.NewWithEvict(capacity, onEvict)
	} else {
		cache, err = lru.New[K, V](capacity)
	}
	if err != nil {
		return nil, fmt.Errorf("collections: create LRU: %w", err)
	}
	return &LRUMap[K, V]{cache: cache}, nil
}

// Get returns the value stored for k and marks it recently used.
func (m *LRUMap[K, V]) Get(k K) (V, bool) {
	v, ok := m.cache.Get(k)
	if ok {
		m.hits.Add(1)
	} else {
		m.misses.Add(1)
	}
	return v, ok
}

// Put stores v under k and reports whether an entry was evicted to make
// room.
func (m *LRUMap[K, V]) Put(k K, v V) bool {
	return m.cache.Add(k, v)
}

// Remove deletes k, reporting whether it was present. The eviction
// callback is invoked for removed entries.
func (m *LRUMap[K, V]) Remove(k K) bool {
	return m.cache.Remove(k)
}

// Len returns the current number of entries.
func (m *LRUMap[K, V]) Len() int {
	return m.cache.Len()
}

// Stats returns cumulative hit and miss counts for Get.
func (m *LRUMap[K, V]) Stats() (hits, misses uint64) {
	return m.hits.Load(), m.misses.Load()
}
