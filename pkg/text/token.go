// Copyright (C) 2025 Driftwood Labs (oss@driftwoodlabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package text implements a streaming token pipeline for short,
// tweet-like messages.
//
// The pipeline is built from independent, pluggable stages sharing one
// contract, TokenStream. A tokenizer produces raw word and punctuation
// tokens, a detector reclassifies entity shapes (#hashtags, @usernames,
// $cashtags, URLs, emoticons), and filters drop or transform tokens.
// Each stage is usable standalone:
//
//	tok := text.NewLatinTokenizer()
//	det := text.NewEntityDetector(tok)
//	low := text.NewLowercaseFilter(det)
//	low.Reset("Loving the new build @dana #golang http://x.co/q")
//	for low.Next() {
//	    t := low.Token()
//	    fmt.Println(t.Type, t.Term)
//	}
//
// Serialized token streams travel between services in a compact
// versioned binary form; see Serialize and Deserialize.
package text

import "fmt"

// TokenType classifies a token produced by the pipeline.
type TokenType uint8

// Token classes. The numeric values are the wire codes used by the
// serializer and must never be reordered; add new types at the end.
const (
	// Word is a run of letters, digits, and underscores.
	Word TokenType = iota
	// Punctuation is a single non-word, non-space rune.
	Punctuation
	// HashTag is a '#' immediately followed by a word token.
	HashTag
	// Username is an '@' immediately followed by a word token.
	Username
	// URL is a web address recognized in the text.
	URL
	// Stock is a '$' immediately followed by a short ticker symbol.
	Stock
	// Emoticon is a character-art face such as ":-)" or "<3".
	Emoticon

	numTokenTypes = iota
)

// String returns the token type name, e.g. "HASHTAG".
func (tt TokenType) String() string {
	switch tt {
	case Word:
		return "WORD"
	case Punctuation:
		return "PUNCTUATION"
	case HashTag:
		return "HASHTAG"
	case Username:
		return "USERNAME"
	case URL:
		return "URL"
	case Stock:
		return "STOCK"
	case Emoticon:
		return "EMOTICON"
	default:
		return fmt.Sprintf("TOKENTYPE(%d)", uint8(tt))
	}
}

// Token is the attribute bundle every pipeline stage reads and writes:
// the term text, its byte offset into the (NFC-normalized) input, and
// its classification.
//
// Term always equals the text slice [Start, Start+len(Term)) of the
// stream's input unless a transforming filter (e.g. lowercasing)
// replaced it; offsets are never changed by filters.
type Token struct {
	Term  string
	Start int
	Type  TokenType
}

// End returns the byte offset just past the token.
func (t Token) End() int { return t.Start + len(t.Term) }

// TokenStream is the shared streaming-attribute contract connecting
// pipeline stages.
//
// Usage:
//
//	ts.Reset(input)
//	for ts.Next() {
//	    t := ts.Token()
//	    ...
//	}
//
// Token is only valid after a Next call that returned true. Reset may be
// called at any time to start over on new input; wrapping stages forward
// Reset to the stage they wrap.
type TokenStream interface {
	// Next advances to the next token, reporting whether one is available.
	Next() bool
	// Token returns the current token.
	Token() Token
	// Reset restarts the stream on new input text.
	Reset(text string)
}

// Collect drains ts into a slice, a convenience for tests and callers
// that do not need streaming.
func Collect(ts TokenStream) []Token {
	var out []Token
	for ts.Next() {
		out = append(out, ts.Token())
	}
	return out
}
