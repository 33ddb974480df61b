// Copyright (C) 2025 Driftwood Labs (oss@driftwoodlabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package text

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// LatinTokenizer is the pipeline's base stage: it splits text into word
// and punctuation tokens.
//
// Input is NFC-normalized on Reset, and all offsets produced by the
// pipeline are byte offsets into that normalized text (available via
// Text). Words are maximal runs of letters, digits, and underscores;
// every other non-space rune becomes a single Punctuation token;
// whitespace separates tokens and is never emitted.
//
// LatinTokenizer is not safe for concurrent use; create one per
// goroutine.
type LatinTokenizer struct {
	text string
	pos  int
	cur  Token
}

// NewLatinTokenizer creates a tokenizer with empty input. Call Reset
// before Next.
func NewLatinTokenizer() *LatinTokenizer {
	return &LatinTokenizer{}
}

// Reset restarts the tokenizer on new input, normalizing it to NFC.
func (lt *LatinTokenizer) Reset(text string) {
	lt.text = norm.NFC.String(text)
	lt.pos = 0
	lt.cur = Token{}
}

// Text returns the normalized input all token offsets refer to.
func (lt *LatinTokenizer) Text() string { return lt.text }

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Next advances to the next token.
func (lt *LatinTokenizer) Next() bool {
	// Skip whitespace.
	for lt.pos < len(lt.text) {
		r, size := utf8.DecodeRuneInString(lt.text[lt.pos:])
		if !unicode.IsSpace(r) {
			break
		}
		lt.pos += size
	}
	if lt.pos >= len(lt.text) {
		return false
	}

	start := lt.pos
	r, size := utf8.DecodeRuneInString(lt.text[lt.pos:])
	if !isWordRune(r) {
		lt.pos += size
		lt.cur = Token{Term: lt.text[start:lt.pos], Start: start, Type: Punctuation}
		return true
	}

	for lt.pos < len(lt.text) {
		r, size := utf8.DecodeRuneInString(lt.text[lt.pos:])
		if !isWordRune(r) {
			break
		}
		lt.pos += size
	}
	lt.cur = Token{Term: lt.text[start:lt.pos], Start: start, Type: Word}
	return true
}

// Token returns the current token.
func (lt *LatinTokenizer) Token() Token { return lt.cur }
