// Copyright (C) 2025 Driftwood Labs (oss@driftwoodlabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package collections

import "testing"

func TestLRUMapEvictsLeastRecentlyUsed(t *testing.T) {
	var evicted []string
	m, err := NewLRUMap(2, func(k string, v int) {
		evicted = append(evicted, k)
	})
	if err != nil {
		t.Fatalf("NewLRUMap: %v", err)
	}

	m.Put("a", 1)
	m.Put("b", 2)
	if _, ok := m.Get("a"); !ok {
		t.Fatal("Get(a) missing before eviction")
	}

	// "b" is now least recently used and must go first.
	if !m.Put("c", 3) {
		t.Fatal("Put(c) = false, want eviction")
	}
	if len(evicted) != 1 || evicted[0] != "b" {
		t.Fatalf("evicted = %v, want [b]", evicted)
	}
	if _, ok := m.Get("b"); ok {
		t.Fatal("Get(b) present after eviction")
	}
	if got := m.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}
}

func TestLRUMapStats(t *testing.T) {
	m, err := NewLRUMap[string, int](4, nil)
	if err != nil {
		t.Fatalf("NewLRUMap: %v", err)
	}
	m.Put("k", 1)
	m.Get("k")
	m.Get("k")
	m.Get("nope")

	hits, misses := m.Stats()
	if hits != 2 || misses != 1 {
		t.Fatalf("Stats() = %d hits, %d misses, want 2, 1", hits, misses)
	}

	if !m.Remove("k") {
		t.Fatal("Remove(k) = false, want true")
	}
	if m.Remove("k") {
		t.Fatal("second Remove(k) = true, want false")
	}
}

func TestLRUMapRejectsBadCapacity(t *testing.T) {
	if _, err := NewLRUMap[int, int](0, nil); err == nil {
		t.Fatal("NewLRUMap(0) error = nil, want error")
	}
}
