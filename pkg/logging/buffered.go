// Copyright (C) 2025 Driftwood Labs (oss@driftwoodlabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
	"time"
)

// BufferedHandler is a slog.Handler that queues formatted records in a
// bounded in-memory buffer and writes them to an io.Writer from a
// background flusher.
//
// The flusher drains the buffer on a fixed interval and immediately
// whenever the buffer passes half capacity. When the buffer is full the
// oldest queued record is dropped to admit the new one; Dropped reports
// how many records were lost that way. Flush forces a synchronous
// drain, and Close flushes before stopping the flusher. Writes after
// Close are discarded.
//
// Records are formatted as JSON; like the file destination in this
// package, a buffered log exists for machines, not terminals.
//
// Example:
//
//	bh := logging.NewBufferedHandler(logFile, nil, 1024, time.Second)
//	defer bh.Close()
//	logger := slog.New(bh)
type BufferedHandler struct {
	inner slog.Handler

	mu      sync.Mutex
	buf     *bytes.Buffer
	queue   [][]byte
	cap     int
	dropped uint64
	closed  bool

	// flushMu serializes flushes so two concurrent drains cannot
	// interleave their records on w.
	flushMu sync.Mutex

	w    io.Writer
	kick chan struct{}
	done chan struct{}
	wg   sync.WaitGroup
}

// NewBufferedHandler creates a BufferedHandler writing to w.
//
// opts configures level filtering and attribute replacement for the
// JSON formatter; nil means defaults. capacity is the maximum number of
// queued records and must be at least 1; interval is the background
// flush period.
func NewBufferedHandler(w io.Writer, opts *slog.HandlerOptions, capacity int, interval time.Duration) *BufferedHandler {
	if capacity < 1 {
		capacity = 1
	}
	if interval <= 0 {
		interval = time.Second
	}
	buf := &bytes.Buffer{}
	h := &BufferedHandler{
		inner: slog.NewJSONHandler(buf, opts),
		buf:   buf,
		cap:   capacity,
		w:     w,
		kick:  make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
	h.wg.Add(1)
	go h.flushLoop(interval)
	return h
}

// Enabled defers to the formatting handler.
func (h *BufferedHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle formats the record and queues its bytes.
func (h *BufferedHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.enqueue(ctx, r, h.inner)
}

// enqueue formats r with the given handler and appends the bytes to the
// queue, dropping the oldest record on overflow.
func (h *BufferedHandler) enqueue(ctx context.Context, r slog.Record, formatter slog.Handler) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}

	h.buf.Reset()
	if err := formatter.Handle(ctx, r); err != nil {
		return err
	}
	line := make([]byte, h.buf.Len())
	copy(line, h.buf.Bytes())

	if len(h.queue) >= h.cap {
		h.queue = h.queue[1:]
		h.dropped++
	}
	h.queue = append(h.queue, line)

	if len(h.queue) >= h.cap/2 {
		select {
		case h.kick <- struct{}{}:
		default:
		}
	}
	return nil
}

// WithAttrs returns a handler sharing this buffer with extra attributes.
func (h *BufferedHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &derivedHandler{parent: h, inner: h.inner.WithAttrs(attrs)}
}

// WithGroup returns a handler sharing this buffer under a group.
func (h *BufferedHandler) WithGroup(name string) slog.Handler {
	return &derivedHandler{parent: h, inner: h.inner.WithGroup(name)}
}

// Flush synchronously writes all queued records. Concurrent flushes
// are serialized, so records reach the writer in queue order.
func (h *BufferedHandler) Flush() error {
	h.flushMu.Lock()
	defer h.flushMu.Unlock()

	h.mu.Lock()
	queue := h.queue
	h.queue = nil
	h.mu.Unlock()

	for _, line := range queue {
		if _, err := h.w.Write(line); err != nil {
			return err
		}
	}
	return nil
}

// Dropped returns the number of records discarded due to a full buffer.
func (h *BufferedHandler) Dropped() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}

// Close flushes queued records and stops the background flusher.
// Close is idempotent.
func (h *BufferedHandler) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	close(h.done)
	h.wg.Wait()
	return h.Flush()
}

func (h *BufferedHandler) flushLoop(interval time.Duration) {
	defer h.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			_ = h.Flush()
		case <-h.kick:
			_ = h.Flush()
		}
	}
}

// derivedHandler routes WithAttrs/WithGroup children back through the
// parent's queue so all variants share one buffer and flusher.
type derivedHandler struct {
	parent *BufferedHandler
	inner  slog.Handler
}

func (d *derivedHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return d.inner.Enabled(ctx, level)
}

func (d *derivedHandler) Handle(ctx context.Context, r slog.Record) error {
	// Format with the derived handler's attrs, queue via the parent.
	return d.parent.enqueue(ctx, r, d.inner)
}

func (d *derivedHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &derivedHandler{parent: d.parent, inner: d.inner.WithAttrs(attrs)}
}

func (d *derivedHandler) WithGroup(name string) slog.Handler {
	return &derivedHandler{parent: d.parent, inner: d.inner.WithGroup(name)}
}
