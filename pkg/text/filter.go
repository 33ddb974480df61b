// Copyright (C) 2025 Driftwood Labs (oss@driftwoodlabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package text

import "strings"

// TypeFilter passes through tokens whose type is (or is not) in a set.
// Build one with KeepTypes or DropTypes.
type TypeFilter struct {
	inner TokenStream
	keep  [numTokenTypes]bool
	cur   Token
}

// KeepTypes wraps inner so only tokens of the given types survive.
func KeepTypes(inner TokenStream, types ...TokenType) *TypeFilter {
	f := &TypeFilter{inner: inner}
	for _, tt := range types {
		if int(tt) < numTokenTypes {
			f.keep[tt] = true
		}
	}
	return f
}

// DropTypes wraps inner so tokens of the given types are removed.
func DropTypes(inner TokenStream, types ...TokenType) *TypeFilter {
	f := &TypeFilter{inner: inner}
	for i := range f.keep {
		f.keep[i] = true
	}
	for _, tt := range types {
		if int(tt) < numTokenTypes {
			f.keep[tt] = false
		}
	}
	return f
}

// Next advances past filtered-out tokens.
func (f *TypeFilter) Next() bool {
	for f.inner.Next() {
		t := f.inner.Token()
		if int(t.Type) < numTokenTypes && f.keep[t.Type] {
			f.cur = t
			return true
		}
	}
	return false
}

// Token returns the current token.
func (f *TypeFilter) Token() Token { return f.cur }

// Reset restarts the wrapped stream.
func (f *TypeFilter) Reset(text string) { f.inner.Reset(text) }

// LowercaseFilter lowercases token terms. Offsets are unchanged, so a
// lowercased term may no longer equal the text slice it points at.
type LowercaseFilter struct {
	inner TokenStream
	cur   Token
}

// NewLowercaseFilter wraps inner with term lowercasing.
func NewLowercaseFilter(inner TokenStream) *LowercaseFilter {
	return &LowercaseFilter{inner: inner}
}

// Next advances the wrapped stream.
func (f *LowercaseFilter) Next() bool {
	if !f.inner.Next() {
		return false
	}
	t := f.inner.Token()
	t.Term = strings.ToLower(t.Term)
	f.cur = t
	return true
}

// Token returns the current token.
func (f *LowercaseFilter) Token() Token { return f.cur }

// Reset restarts the wrapped stream.
func (f *LowercaseFilter) Reset(text string) { f.inner.Reset(text) }

// StopFilter drops tokens whose lowercased term is in a stop set.
type StopFilter struct {
	inner TokenStream
	stops map[string]bool
	cur   Token
}

// NewStopFilter wraps inner, dropping the given stop words
// case-insensitively.
func NewStopFilter(inner TokenStream, stopWords []string) *StopFilter {
	stops := make(map[string]bool, len(stopWords))
	for _, w := range stopWords {
		stops[strings.ToLower(w)] = true
	}
	return &StopFilter{inner: inner, stops: stops}
}

// Next advances past stopped tokens.
func (f *StopFilter) Next() bool {
	for f.inner.Next() {
		t := f.inner.Token()
		if !f.stops[strings.ToLower(t.Term)] {
			f.cur = t
			return true
		}
	}
	return false
}

// Token returns the current token.
func (f *StopFilter) Token() Token { return f.cur }

// Reset restarts the wrapped stream.
func (f *StopFilter) Reset(text string) { f.inner.Reset(text) }
