// Copyright (C) 2025 Driftwood Labs (oss@driftwoodlabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package traffic tracks per-origin request statistics for servers and
// proxies.
//
// A Monitor keeps request and error counts plus a decaying latency
// estimate per origin (client key), garbage-collects origins that go
// idle, exports everything to Prometheus, and can rate limit origins
// with a token bucket. Origins come and go freely, so the GC matters:
// without it a long-running server accumulates an entry per client IP
// it ever saw.
//
// Example:
//
//	mon, err := traffic.NewMonitor(traffic.Config{
//	    IdleTTL:    10 * time.Minute,
//	    RatePerSec: 50,
//	}, prometheus.DefaultRegisterer, logging.Default())
//	defer mon.Close()
//
//	if !mon.Allow(clientIP) {
//	    http.Error(w, "slow down", http.StatusTooManyRequests)
//	    return
//	}
//	start := time.Now()
//	serve(w, r)
//	mon.Record(clientIP, time.Since(start), false)
package traffic

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/driftwoodlabs/commons/pkg/logging"
)

// latencyDecay is the weight of a new sample in the exponentially
// weighted moving average.
const latencyDecay = 0.2

// Config configures a Monitor. The zero value works: defaults are a
// one-minute GC sweep, a ten-minute idle TTL, and no rate limiting.
type Config struct {
	// GCInterval is how often idle origins are swept. Default 1m.
	GCInterval time.Duration

	// IdleTTL is how long an origin may go unseen before its entry is
	// dropped. Default 10m.
	IdleTTL time.Duration

	// RatePerSec enables per-origin rate limiting when positive.
	RatePerSec float64

	// RateBurst is the token bucket size; defaults to RatePerSec rounded
	// up, minimum 1, when rate limiting is enabled.
	RateBurst int
}

// Stats is a point-in-time snapshot of one origin.
type Stats struct {
	Requests   uint64
	Errors     uint64
	AvgLatency time.Duration
	LastSeen   time.Time
}

type entry struct {
	requests   uint64
	errors     uint64
	avgLatency float64 // nanoseconds, EWMA
	lastSeen   time.Time
	limiter    *rate.Limiter
}

// Monitor tracks per-origin traffic. Safe for concurrent use.
type Monitor struct {
	cfg    Config
	logger *logging.Logger

	mu      sync.Mutex
	entries map[string]*entry

	requestsTotal *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	origins       prometheus.GaugeFunc
	reg           prometheus.Registerer

	done      chan struct{}
	closeOnce sync.Once
}

// NewMonitor creates a Monitor, registers its collectors on reg, and
// starts the GC sweeper. reg may be nil to skip metrics registration;
// logger may be nil for the default logger.
func NewMonitor(cfg Config, reg prometheus.Registerer, logger *logging.Logger) (*Monitor, error) {
	if cfg.GCInterval <= 0 {
		cfg.GCInterval = time.Minute
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	if cfg.RatePerSec > 0 && cfg.RateBurst <= 0 {
		cfg.RateBurst = int(math.Ceil(cfg.RatePerSec))
		if cfg.RateBurst < 1 {
			cfg.RateBurst = 1
		}
	}
	if logger == nil {
		logger = logging.Default()
	}

	m := &Monitor{
		cfg:     cfg,
		logger:  logger,
		entries: make(map[string]*entry),
		reg:     reg,
		done:    make(chan struct{}),
	}

	m.requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "commons",
		Subsystem: "traffic",
		Name:      "requests_total",
		Help:      "Requests observed per origin.",
	}, []string{"origin"})
	m.errorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "commons",
		Subsystem: "traffic",
		Name:      "errors_total",
		Help:      "Failed requests observed per origin.",
	}, []string{"origin"})
	m.origins = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "commons",
		Subsystem: "traffic",
		Name:      "tracked_origins",
		Help:      "Origins currently tracked by the monitor.",
	}, func() float64 {
		m.mu.Lock()
		defer m.mu.Unlock()
		return float64(len(m.entries))
	})

	if reg != nil {
		for _, c := range []prometheus.Collector{m.requestsTotal, m.errorsTotal, m.origins} {
			if err := reg.Register(c); err != nil {
				return nil, fmt.Errorf("traffic: register collector: %w", err)
			}
		}
	}

	go m.gcLoop()
	return m, nil
}

// Record notes one request from origin with its duration and outcome.
func (m *Monitor) Record(origin string, d time.Duration, failed bool) {
	m.mu.Lock()
	e := m.entryLocked(origin)
	e.requests++
	if failed {
		e.errors++
	}
	if e.avgLatency == 0 {
		e.avgLatency = float64(d.Nanoseconds())
	} else {
		e.avgLatency = latencyDecay*float64(d.Nanoseconds()) + (1-latencyDecay)*e.avgLatency
	}
	e.lastSeen = time.Now()
	m.mu.Unlock()

	m.requestsTotal.WithLabelValues(origin).Inc()
	if failed {
		m.errorsTotal.WithLabelValues(origin).Inc()
	}
}

// Allow reports whether origin is within its rate limit. Always true
// when rate limiting is disabled. Allow refreshes the origin's idle
// clock, so a client that is only ever throttled still stays tracked.
func (m *Monitor) Allow(origin string) bool {
	if m.cfg.RatePerSec <= 0 {
		return true
	}
	m.mu.Lock()
	e := m.entryLocked(origin)
	e.lastSeen = time.Now()
	lim := e.limiter
	m.mu.Unlock()
	return lim.Allow()
}

// entryLocked finds or creates the origin's entry. Callers hold m.mu.
func (m *Monitor) entryLocked(origin string) *entry {
	e, ok := m.entries[origin]
	if !ok {
		e = &entry{lastSeen: time.Now()}
		if m.cfg.RatePerSec > 0 {
			e.limiter = rate.NewLimiter(rate.Limit(m.cfg.RatePerSec), m.cfg.RateBurst)
		}
		m.entries[origin] = e
	}
	return e
}

// Snapshot returns the current stats for origin.
func (m *Monitor) Snapshot(origin string) (Stats, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[origin]
	if !ok {
		return Stats{}, false
	}
	return Stats{
		Requests:   e.requests,
		Errors:     e.errors,
		AvgLatency: time.Duration(e.avgLatency),
		LastSeen:   e.lastSeen,
	}, true
}

// Origins returns the tracked origin keys, sorted.
func (m *Monitor) Origins() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.entries))
	for o := range m.entries {
		out = append(out, o)
	}
	sort.Strings(out)
	return out
}

// gcLoop sweeps idle origins on the configured interval.
func (m *Monitor) gcLoop() {
	ticker := time.NewTicker(m.cfg.GCInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.sweep(time.Now())
		}
	}
}

// sweep drops origins unseen for longer than IdleTTL and removes their
// metric series.
func (m *Monitor) sweep(now time.Time) {
	m.mu.Lock()
	var idle []string
	for origin, e := range m.entries {
		if now.Sub(e.lastSeen) > m.cfg.IdleTTL {
			idle = append(idle, origin)
		}
	}
	for _, origin := range idle {
		delete(m.entries, origin)
	}
	m.mu.Unlock()

	for _, origin := range idle {
		m.requestsTotal.DeleteLabelValues(origin)
		m.errorsTotal.DeleteLabelValues(origin)
	}
	if len(idle) > 0 {
		m.logger.Debug("traffic monitor GC", "evicted", len(idle))
	}
}

// Close stops the GC sweeper and unregisters the collectors. Close is
// idempotent.
func (m *Monitor) Close() {
	m.closeOnce.Do(func() {
		close(m.done)
		if m.reg != nil {
			m.reg.Unregister(m.requestsTotal)
			m.reg.Unregister(m.errorsTotal)
			m.reg.Unregister(m.origins)
		}
	})
}
