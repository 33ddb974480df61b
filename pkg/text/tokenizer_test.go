// Copyright (C) 2025 Driftwood Labs (oss@driftwoodlabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package text

import "testing"

func toks(terms []string, types []TokenType) []struct {
	term string
	typ  TokenType
} {
	out := make([]struct {
		term string
		typ  TokenType
	}, len(terms))
	for i := range terms {
		out[i] = struct {
			term string
			typ  TokenType
		}{terms[i], types[i]}
	}
	return out
}

func TestLatinTokenizer(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		terms []string
		types []TokenType
	}{
		{
			"plain words", "hello world",
			[]string{"hello", "world"},
			[]TokenType{Word, Word},
		},
		{
			"punctuation splits", "well, yes!",
			[]string{"well", ",", "yes", "!"},
			[]TokenType{Word, Punctuation, Word, Punctuation},
		},
		{
			"digits and underscores in words", "node_42 up",
			[]string{"node_42", "up"},
			[]TokenType{Word, Word},
		},
		{
			"adjacent punctuation stays separate", "a...b",
			[]string{"a", ".", ".", ".", "b"},
			[]TokenType{Word, Punctuation, Punctuation, Punctuation, Word},
		},
		{
			"unicode words", "café über",
			[]string{"café", "über"},
			[]TokenType{Word, Word},
		},
		{"empty", "", nil, nil},
		{"only whitespace", "  \t\n ", nil, nil},
	}

	lt := NewLatinTokenizer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lt.Reset(tt.in)
			got := Collect(lt)
			want := toks(tt.terms, tt.types)
			if len(got) != len(want) {
				t.Fatalf("got %d tokens %v, want %d", len(got), got, len(want))
			}
			for i, g := range got {
				if g.Term != want[i].term || g.Type != want[i].typ {
					t.Errorf("token %d = %q/%v, want %q/%v", i, g.Term, g.Type, want[i].term, want[i].typ)
				}
			}
		})
	}
}

func TestLatinTokenizerOffsets(t *testing.T) {
	lt := NewLatinTokenizer()
	lt.Reset("ok, go")
	for lt.Next() {
		tok := lt.Token()
		if got := lt.Text()[tok.Start:tok.End()]; got != tok.Term {
			t.Errorf("offset slice %q != term %q", got, tok.Term)
		}
	}
}

func TestLatinTokenizerNormalizesNFC(t *testing.T) {
	lt := NewLatinTokenizer()
	// "é" as 'e' + combining acute must tokenize like precomposed "é".
	lt.Reset("café")
	if !lt.Next() {
		t.Fatal("no token for decomposed input")
	}
	if got := lt.Token().Term; got != "café" {
		t.Fatalf("Term = %q, want %q", got, "café")
	}
	if lt.Next() {
		t.Fatalf("unexpected extra token %q", lt.Token().Term)
	}
}

func TestLatinTokenizerReusable(t *testing.T) {
	lt := NewLatinTokenizer()
	lt.Reset("first")
	if n := len(Collect(lt)); n != 1 {
		t.Fatalf("first run yielded %d tokens, want 1", n)
	}
	lt.Reset("second text")
	if n := len(Collect(lt)); n != 2 {
		t.Fatalf("second run yielded %d tokens, want 2", n)
	}
}
