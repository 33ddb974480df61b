// Copyright (C) 2025 Driftwood Labs (oss@driftwoodlabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package natives extracts embedded native libraries to disk.
//
// Shared objects compiled into the binary (via embed.FS) cannot be
// dlopen'd or executed in place; Loader copies them into a private
// per-process directory so cgo and helper subprocesses can reach them.
// Extraction is verified with SHA-256 so a tampered or half-written
// extraction directory is detected instead of silently loaded.
//
// Example:
//
//	//go:embed libs/*.so
//	var libFS embed.FS
//
//	loader := natives.NewLoader(libFS, []string{"libs/*.so"})
//	paths, err := loader.LoadLibs(ctx)
//	if err != nil {
//	    return err
//	}
//	defer loader.Close()
package natives

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Loader extracts files matching glob patterns from an fs.FS into a
// temp directory.
//
// Loader is safe for concurrent use; LoadLibs runs the extraction once
// and every later call returns the verified cached result.
type Loader struct {
	src      fs.FS
	patterns []string
	dir      string

	mu     sync.Mutex
	loaded bool
	paths  map[string]string // base name -> extracted path
	sums   map[string]string // base name -> hex sha256 at extraction
}

// Option configures a Loader.
type Option func(*Loader)

// WithDir overrides the extraction directory. The default is a fresh
// uuid-suffixed directory under os.TempDir().
func WithDir(dir string) Option {
	return func(l *Loader) { l.dir = dir }
}

// NewLoader creates a Loader extracting files that match any of the
// given glob patterns (fs.Glob syntax) from src.
func NewLoader(src fs.FS, patterns []string, opts ...Option) *Loader {
	l := &Loader{
		src:      src,
		patterns: patterns,
		dir:      filepath.Join(os.TempDir(), "commons-natives-"+uuid.NewString()),
		paths:    make(map[string]string),
		sums:     make(map[string]string),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Dir returns the extraction directory.
func (l *Loader) Dir() string { return l.dir }

// LoadLibs extracts all matching libraries and returns their absolute
// paths, sorted.
//
// The first call extracts in parallel, one goroutine per file, and
// records each file's SHA-256. Later calls re-verify the extracted
// files against the recorded digests and return the same paths without
// rewriting; a digest mismatch means the extraction directory was
// modified underneath us and is reported as an error.
func (l *Loader) LoadLibs(ctx context.Context) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.loaded {
		if err := l.verifyLocked(); err != nil {
			return nil, err
		}
		return l.sortedPathsLocked(), nil
	}

	names, err := l.matchLocked()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("natives: no libraries match %v", l.patterns)
	}

	if err := os.MkdirAll(l.dir, 0o700); err != nil {
		return nil, fmt.Errorf("natives: create extraction dir: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	var resMu sync.Mutex
	for _, name := range names {
		name := name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			base := filepath.Base(name)
			dst := filepath.Join(l.dir, base)
			sum, err := l.extractOne(name, dst)
			if err != nil {
				return err
			}
			resMu.Lock()
			l.paths[base] = dst
			l.sums[base] = sum
			resMu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	l.loaded = true
	return l.sortedPathsLocked(), nil
}

// matchLocked resolves the glob patterns against the source FS.
// Duplicate base names across patterns are an error since every library
// lands flat in one directory.
func (l *Loader) matchLocked() ([]string, error) {
	seen := make(map[string]string)
	var names []string
	for _, pattern := range l.patterns {
		matches, err := fs.Glob(l.src, pattern)
		if err != nil {
			return nil, fmt.Errorf("natives: bad pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			base := filepath.Base(m)
			if prev, dup := seen[base]; dup {
				if prev == m {
					continue
				}
				return nil, fmt.Errorf("natives: duplicate library name %q (%s and %s)", base, prev, m)
			}
			seen[base] = m
			names = append(names, m)
		}
	}
	return names, nil
}

func (l *Loader) extractOne(name, dst string) (string, error) {
	data, err := fs.ReadFile(l.src, name)
	if err != nil {
		return "", fmt.Errorf("natives: read embedded %s: %w", name, err)
	}
	// Read-only: the extracted library is an artifact, not a work file.
	if err := os.WriteFile(dst, data, 0o500); err != nil {
		return "", fmt.Errorf("natives: write %s: %w", dst, err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// verifyLocked re-hashes extracted files against the digests recorded
// at extraction time.
func (l *Loader) verifyLocked() error {
	for base, path := range l.paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("natives: extracted library %s vanished: %w", base, err)
		}
		sum := sha256.Sum256(data)
		if hex.EncodeToString(sum[:]) != l.sums[base] {
			return fmt.Errorf("natives: extracted library %s was modified on disk", base)
		}
	}
	return nil
}

func (l *Loader) sortedPathsLocked() []string {
	out := make([]string, 0, len(l.paths))
	for _, p := range l.paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Path returns the extracted location of a library by base name, after
// a successful LoadLibs.
func (l *Loader) Path(base string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.paths[base]
	return p, ok
}

// Close removes the extraction directory. Paths handed out earlier
// become invalid.
func (l *Loader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loaded = false
	l.paths = make(map[string]string)
	l.sums = make(map[string]string)
	if err := os.RemoveAll(l.dir); err != nil {
		return fmt.Errorf("natives: remove extraction dir: %w", err)
	}
	return nil
}
