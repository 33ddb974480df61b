// Copyright (C) 2025 Driftwood Labs (oss@driftwoodlabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package logging

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer makes bytes.Buffer safe for the background flusher.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestBufferedHandler_FlushWritesQueued(t *testing.T) {
	var out syncBuffer
	bh := NewBufferedHandler(&out, nil, 64, time.Hour) // interval too long to fire
	logger := slog.New(bh)

	logger.Info("queued entry", "n", 1)
	if out.String() != "" {
		t.Fatal("record written before Flush")
	}

	if err := bh.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if !strings.Contains(out.String(), `"msg":"queued entry"`) {
		t.Fatalf("flushed output missing entry: %s", out.String())
	}
	_ = bh.Close()
}

func TestBufferedHandler_BackgroundFlush(t *testing.T) {
	var out syncBuffer
	bh := NewBufferedHandler(&out, nil, 64, 10*time.Millisecond)
	defer bh.Close()
	logger := slog.New(bh)

	logger.Info("background entry")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(out.String(), "background entry") {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("background flusher never wrote the record")
}

// gatedWriter blocks every Write until the gate is closed. It lets a
// test hold the background flusher still while the queue overflows.
type gatedWriter struct {
	gate <-chan struct{}
	out  *syncBuffer
}

func (w *gatedWriter) Write(p []byte) (int, error) {
	<-w.gate
	return w.out.Write(p)
}

func TestBufferedHandler_DropOldestOnOverflow(t *testing.T) {
	var out syncBuffer
	gate := make(chan struct{})
	bh := NewBufferedHandler(&gatedWriter{gate: gate, out: &out}, nil, 4, time.Hour)
	logger := slog.New(bh)

	// The flusher cannot drain while the gate is shut, so ten records
	// must overflow a capacity-4 queue.
	for i := 0; i < 10; i++ {
		logger.Info("entry", "i", i)
	}
	if bh.Dropped() == 0 {
		t.Error("Dropped() = 0 after overflowing a capacity-4 buffer")
	}

	close(gate)
	_ = bh.Close()
	if !strings.Contains(out.String(), `"i":9`) {
		t.Errorf("newest record lost, output: %s", out.String())
	}
}

func TestBufferedHandler_ConcurrentFlushKeepsOrder(t *testing.T) {
	var out syncBuffer
	bh := NewBufferedHandler(&out, nil, 4096, time.Millisecond)
	logger := slog.New(bh)

	// Hammer Flush from several goroutines while records stream in; the
	// background flusher joins in via the short interval and the
	// half-capacity kick.
	const records = 500
	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					_ = bh.Flush()
				}
			}
		}()
	}
	for i := 0; i < records; i++ {
		logger.Info("seq", "n", i)
	}
	close(stop)
	wg.Wait()
	if err := bh.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Every record must appear, in queue order.
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != records {
		t.Fatalf("got %d lines, want %d", len(lines), records)
	}
	for i, line := range lines {
		want := fmt.Sprintf(`"n":%d`, i)
		if !strings.Contains(line, want) {
			t.Fatalf("line %d = %s, want it to contain %s", i, line, want)
		}
	}
}

func TestBufferedHandler_CloseFlushesAndStops(t *testing.T) {
	var out syncBuffer
	bh := NewBufferedHandler(&out, nil, 64, time.Hour)
	logger := slog.New(bh)

	logger.Info("final entry")
	if err := bh.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !strings.Contains(out.String(), "final entry") {
		t.Fatal("Close did not flush queued records")
	}

	// Idempotent, and post-close records are discarded quietly.
	if err := bh.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	logger.Info("after close")
	if strings.Contains(out.String(), "after close") {
		t.Fatal("record accepted after Close")
	}
}

func TestBufferedHandler_WithAttrsSharesBuffer(t *testing.T) {
	var out syncBuffer
	bh := NewBufferedHandler(&out, nil, 64, time.Hour)
	logger := slog.New(bh).With("component", "traffic")

	logger.Info("derived entry")
	if err := bh.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	got := out.String()
	if !strings.Contains(got, `"component":"traffic"`) {
		t.Errorf("derived attrs missing: %s", got)
	}
	if !strings.Contains(got, `"msg":"derived entry"`) {
		t.Errorf("derived record missing: %s", got)
	}
	_ = bh.Close()
}

func TestBufferedHandler_LevelFiltering(t *testing.T) {
	var out syncBuffer
	bh := NewBufferedHandler(&out, &slog.HandlerOptions{Level: slog.LevelWarn}, 64, time.Hour)
	logger := slog.New(bh)

	logger.Info("too quiet")
	logger.Warn("loud enough")
	_ = bh.Close()

	got := out.String()
	if strings.Contains(got, "too quiet") {
		t.Error("info record passed a warn-level handler")
	}
	if !strings.Contains(got, "loud enough") {
		t.Error("warn record filtered out")
	}
}
