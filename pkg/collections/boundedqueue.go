// Copyright (C) 2025 Driftwood Labs (oss@driftwoodlabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package collections

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrClosed is returned by BoundedQueue operations after Close.
var ErrClosed = errors.New("collections: queue closed")

// BoundedQueue is a blocking FIFO queue with a fixed capacity, safe for
// concurrent use by any number of producers and consumers.
//
// Put blocks while the queue is full and Take blocks while it is empty;
// both honor context cancellation. After Close, Put fails immediately and
// Take drains whatever remains before reporting ErrClosed, so consumers
// never lose items that were accepted.
//
// Example:
//
//	q, _ := collections.NewBoundedQueue[job](128)
//	go func() {
//	    for {
//	        j, err := q.Take(ctx)
//	        if err != nil {
//	            return
//	        }
//	        handle(j)
//	    }
//	}()
//	_ = q.Put(ctx, job{ID: 1})
type BoundedQueue[T any] struct {
	mu       sync.Mutex
	notFull  *sync.Cond
	notEmpty *sync.Cond
	items    []T
	capacity int
	closed   bool
}

// NewBoundedQueue creates a queue holding at most capacity items.
// capacity must be at least 1.
func NewBoundedQueue[T any](capacity int) (*BoundedQueue[T], error) {
	if capacity < 1 {
		return nil, fmt.Errorf("collections: queue capacity must be positive, got %d", capacity)
	}
	q := &BoundedQueue[T]{capacity: capacity}
	q.notFull = sync.NewCond(&q.mu)
	q.notEmpty = sync.NewCond(&q.mu)
	return q, nil
}

// Put appends v, blocking while the queue is full.
//
// Returns ctx.Err() if the context is cancelled while waiting, or
// ErrClosed if the queue is closed before v is accepted.
func (q *BoundedQueue[T]) Put(ctx context.Context, v T) error {
	// Wake the waiter when the context fires; a broadcast is the only way
	// to interrupt a Cond wait.
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		q.notFull.Broadcast()
		q.notEmpty.Broadcast()
		q.mu.Unlock()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		if q.closed {
			return ErrClosed
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(q.items) < q.capacity {
			q.items = append(q.items, v)
			q.notEmpty.Signal()
			return nil
		}
		q.notFull.Wait()
	}
}

// TryPut appends v without blocking. It reports whether v was accepted.
func (q *BoundedQueue[T]) TryPut(v T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed || len(q.items) >= q.capacity {
		return false
	}
	q.items = append(q.items, v)
	q.notEmpty.Signal()
	return true
}

// Take removes and returns the oldest item, blocking while the queue is
// empty.
//
// Returns ctx.Err() if the context is cancelled while waiting. After
// Close, Take keeps returning queued items until the queue is empty and
// then returns ErrClosed.
func (q *BoundedQueue[T]) Take(ctx context.Context) (T, error) {
	var zero T
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		q.notFull.Broadcast()
		q.notEmpty.Broadcast()
		q.mu.Unlock()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		if len(q.items) > 0 {
			v := q.items[0]
			q.items = q.items[1:]
			q.notFull.Signal()
			return v, nil
		}
		if q.closed {
			return zero, ErrClosed
		}
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		q.notEmpty.Wait()
	}
}

// TryTake removes and returns the oldest item without blocking.
func (q *BoundedQueue[T]) TryTake() (T, bool) {
	var zero T
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return zero, false
	}
	v := q.items[0]
	q.items = q.items[1:]
	q.notFull.Signal()
	return v, true
}

// Drain removes and returns up to max items without blocking. A max of
// zero or less drains everything currently queued.
func (q *BoundedQueue[T]) Drain(max int) []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.items)
	if max > 0 && max < n {
		n = max
	}
	if n == 0 {
		return nil
	}
	out := make([]T, n)
	copy(out, q.items[:n])
	q.items = q.items[n:]
	q.notFull.Broadcast()
	return out
}

// Len returns the number of queued items.
func (q *BoundedQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Cap returns the queue capacity.
func (q *BoundedQueue[T]) Cap() int {
	return q.capacity
}

// Close marks the queue closed and wakes all waiters. Close is
// idempotent.
func (q *BoundedQueue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.notFull.Broadcast()
	q.notEmpty.Broadcast()
}
