// Copyright (C) 2025 Driftwood Labs (oss@driftwoodlabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package natives

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"libs/libalpha.so": &fstest.MapFile{Data: []byte("alpha-machine-code")},
		"libs/libbeta.so":  &fstest.MapFile{Data: []byte("beta-machine-code")},
		"libs/readme.txt":  &fstest.MapFile{Data: []byte("not a library")},
	}
}

func TestLoadLibsExtractsMatching(t *testing.T) {
	l := NewLoader(testFS(), []string{"libs/*.so"}, WithDir(t.TempDir()))
	defer l.Close()

	paths, err := l.LoadLibs(context.Background())
	require.NoError(t, err)
	require.Len(t, paths, 2)

	// Sorted, absolute, and readable with the embedded content.
	assert.Equal(t, "libalpha.so", filepath.Base(paths[0]))
	assert.Equal(t, "libbeta.so", filepath.Base(paths[1]))
	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Equal(t, "alpha-machine-code", string(data))

	// readme.txt did not match the pattern.
	_, ok := l.Path("readme.txt")
	assert.False(t, ok)

	p, ok := l.Path("libbeta.so")
	assert.True(t, ok)
	assert.Equal(t, paths[1], p)
}

func TestLoadLibsIdempotent(t *testing.T) {
	l := NewLoader(testFS(), []string{"libs/*.so"}, WithDir(t.TempDir()))
	defer l.Close()
	ctx := context.Background()

	first, err := l.LoadLibs(ctx)
	require.NoError(t, err)

	info1, err := os.Stat(first[0])
	require.NoError(t, err)

	second, err := l.LoadLibs(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// The file was not rewritten on the second call.
	info2, err := os.Stat(first[0])
	require.NoError(t, err)
	assert.Equal(t, info1.ModTime(), info2.ModTime())
}

func TestLoadLibsDetectsTampering(t *testing.T) {
	dir := t.TempDir()
	l := NewLoader(testFS(), []string{"libs/*.so"}, WithDir(dir))
	defer l.Close()
	ctx := context.Background()

	paths, err := l.LoadLibs(ctx)
	require.NoError(t, err)

	require.NoError(t, os.Chmod(paths[0], 0o600))
	require.NoError(t, os.WriteFile(paths[0], []byte("evil"), 0o600))

	_, err = l.LoadLibs(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "modified")
}

func TestLoadLibsNoMatches(t *testing.T) {
	l := NewLoader(testFS(), []string{"libs/*.dylib"}, WithDir(t.TempDir()))
	_, err := l.LoadLibs(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no libraries match")
}

func TestLoadLibsDuplicateBaseNames(t *testing.T) {
	src := fstest.MapFS{
		"a/lib.so": &fstest.MapFile{Data: []byte("one")},
		"b/lib.so": &fstest.MapFile{Data: []byte("two")},
	}
	l := NewLoader(src, []string{"a/*.so", "b/*.so"}, WithDir(t.TempDir()))
	_, err := l.LoadLibs(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate library name")
}

func TestCloseRemovesDir(t *testing.T) {
	parent := t.TempDir()
	dir := filepath.Join(parent, "extract")
	l := NewLoader(testFS(), []string{"libs/*.so"}, WithDir(dir))

	_, err := l.LoadLibs(context.Background())
	require.NoError(t, err)
	require.DirExists(t, dir)

	require.NoError(t, l.Close())
	assert.NoDirExists(t, dir)
}

func TestLoadLibsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l := NewLoader(testFS(), []string{"libs/*.so"}, WithDir(t.TempDir()))
	_, err := l.LoadLibs(ctx)
	require.Error(t, err)
}
