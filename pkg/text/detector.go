// Copyright (C) 2025 Driftwood Labs (oss@driftwoodlabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package text

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// urlPattern matches web addresses by scheme or www. prefix. Trailing
// sentence punctuation is trimmed afterwards in urlSpans.
var urlPattern = regexp.MustCompile(`(?i)(?:https?://|www\.)\S+`)

// emoticonPattern matches common character-art faces and hearts.
var emoticonPattern = regexp.MustCompile(`[:;=8][-o^]?[)(\[\]DPp/\\|]|</?3`)

// tickerPattern matches the body of a cashtag ticker symbol; class-share
// suffixes like the ".A" in $BRK.A are handled by extendTicker.
var tickerPattern = regexp.MustCompile(`^[A-Za-z]{1,6}$`)

// span is a reclassified byte range of the input.
type span struct {
	start, end int
	typ        TokenType
}

// EntityDetector wraps a TokenStream and reclassifies entity shapes.
//
// It rewrites token types without moving term boundaries, except for the
// documented merges, where several underlying tokens collapse into one
// entity token carrying the merged term and the start offset of the
// first merged token:
//
//   - '#' + word            -> HashTag  (word must not start with a digit)
//   - '@' + word            -> Username
//   - '$' + short ticker    -> Stock
//   - scheme or www. runs   -> URL
//   - character-art faces   -> Emoticon
//
// Merges only apply when the pieces are adjacent in the input; "# tag"
// stays a punctuation token followed by a word.
type EntityDetector struct {
	inner   TokenStream
	text    string
	spans   []span
	spanIdx int
	// pending holds tokens pulled for lookahead but not yet emitted,
	// oldest first.
	pending []Token
	cur     Token
}

// NewEntityDetector wraps inner with entity detection.
func NewEntityDetector(inner TokenStream) *EntityDetector {
	return &EntityDetector{inner: inner}
}

// Reset restarts detection on new input.
func (d *EntityDetector) Reset(text string) {
	d.text = norm.NFC.String(text)
	d.inner.Reset(d.text)
	d.spans = scanSpans(d.text)
	d.spanIdx = 0
	d.pending = nil
	d.cur = Token{}
}

// scanSpans pre-computes URL and emoticon ranges. URL spans win over
// emoticon spans that overlap them.
func scanSpans(text string) []span {
	var spans []span
	for _, m := range urlPattern.FindAllStringIndex(text, -1) {
		start, end := m[0], m[1]
		end = start + len(strings.TrimRight(text[start:end], `.,;:!?'")]}`))
		if end > start {
			spans = append(spans, span{start: start, end: end, typ: URL})
		}
	}
	urls := spans
	for _, m := range emoticonPattern.FindAllStringIndex(text, -1) {
		overlaps := false
		for _, u := range urls {
			if m[0] < u.end && m[1] > u.start {
				overlaps = true
				break
			}
		}
		if !overlaps {
			spans = append(spans, span{start: m[0], end: m[1], typ: Emoticon})
		}
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	return spans
}

// next pulls the next underlying token, honoring the lookahead queue.
func (d *EntityDetector) next() (Token, bool) {
	if len(d.pending) > 0 {
		t := d.pending[0]
		d.pending = d.pending[1:]
		return t, true
	}
	if !d.inner.Next() {
		return Token{}, false
	}
	return d.inner.Token(), true
}

// unread pushes tokens back onto the lookahead queue in order.
func (d *EntityDetector) unread(tokens ...Token) {
	d.pending = append(tokens, d.pending...)
}

// Next advances to the next (possibly merged) token.
func (d *EntityDetector) Next() bool {
	t, ok := d.next()
	if !ok {
		return false
	}

	// Align with the pre-scanned spans. A span is only usable when it
	// begins exactly at a token boundary; one that starts mid-token
	// (e.g. the "www." inside "awww.example.com") would re-emit bytes
	// of a token already delivered, so it is dropped and the underlying
	// tokens pass through.
	for d.spanIdx < len(d.spans) {
		s := d.spans[d.spanIdx]
		if s.end <= t.Start || t.Start > s.start {
			d.spanIdx++
			continue
		}
		if t.Start == s.start {
			// Swallow every constituent token and emit the span as
			// one entity.
			for {
				nt, ok := d.next()
				if !ok {
					break
				}
				if nt.Start >= s.end {
					d.unread(nt)
					break
				}
			}
			d.spanIdx++
			d.cur = Token{Term: d.text[s.start:s.end], Start: s.start, Type: s.typ}
			return true
		}
		break
	}

	if t.Type == Punctuation {
		if typ, merged, ok := d.tryMerge(t); ok {
			d.cur = Token{Term: merged, Start: t.Start, Type: typ}
			return true
		}
	}

	d.cur = t
	return true
}

// tryMerge attempts the '#', '@', '$' prefix merges.
func (d *EntityDetector) tryMerge(t Token) (TokenType, string, bool) {
	var typ TokenType
	switch t.Term {
	case "#":
		typ = HashTag
	case "@":
		typ = Username
	case "$":
		typ = Stock
	default:
		return 0, "", false
	}

	nt, ok := d.next()
	if !ok {
		return 0, "", false
	}
	if nt.Type != Word || nt.Start != t.End() || !mergeable(typ, nt.Term) {
		d.unread(nt)
		return 0, "", false
	}

	end := nt.End()
	if typ == Stock {
		end = d.extendTicker(end)
	}
	return typ, d.text[t.Start:end], true
}

// extendTicker absorbs a class-share suffix like the ".A" in $BRK.A:
// an adjacent '.' followed by an adjacent single letter.
func (d *EntityDetector) extendTicker(end int) int {
	dot, ok := d.next()
	if !ok {
		return end
	}
	if dot.Type != Punctuation || dot.Term != "." || dot.Start != end {
		d.unread(dot)
		return end
	}
	class, ok := d.next()
	if !ok {
		d.unread(dot)
		return end
	}
	if class.Type != Word || class.Start != dot.End() || !singleLetter(class.Term) {
		d.unread(dot, class)
		return end
	}
	return class.End()
}

func singleLetter(s string) bool {
	r, size := utf8.DecodeRuneInString(s)
	return size == len(s) && unicode.IsLetter(r)
}

func mergeable(typ TokenType, term string) bool {
	switch typ {
	case HashTag:
		// Hashtags must not lead with a digit.
		r, _ := utf8.DecodeRuneInString(term)
		return r == '_' || unicode.IsLetter(r)
	case Stock:
		return tickerPattern.MatchString(term)
	default:
		return true
	}
}

// Token returns the current token.
func (d *EntityDetector) Token() Token { return d.cur }
