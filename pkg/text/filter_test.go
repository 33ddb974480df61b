// Copyright (C) 2025 Driftwood Labs (oss@driftwoodlabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package text

import "testing"

func terms(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Term
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestKeepTypes(t *testing.T) {
	f := KeepTypes(NewEntityDetector(NewLatinTokenizer()), HashTag, Username)
	f.Reset("hey @ana check #go and #rust now!")
	got := terms(Collect(f))
	if !equalStrings(got, []string{"@ana", "#go", "#rust"}) {
		t.Fatalf("kept = %v, want [@ana #go #rust]", got)
	}
}

func TestDropTypes(t *testing.T) {
	f := DropTypes(NewLatinTokenizer(), Punctuation)
	f.Reset("well, ok then!")
	got := terms(Collect(f))
	if !equalStrings(got, []string{"well", "ok", "then"}) {
		t.Fatalf("after drop = %v, want [well ok then]", got)
	}
}

func TestLowercaseFilter(t *testing.T) {
	f := NewLowercaseFilter(NewLatinTokenizer())
	f.Reset("Hello WORLD")
	got := Collect(f)
	if !equalStrings(terms(got), []string{"hello", "world"}) {
		t.Fatalf("terms = %v, want [hello world]", terms(got))
	}
	// Offsets still point at the original casing.
	if got[1].Start != 6 {
		t.Fatalf("WORLD offset = %d, want 6", got[1].Start)
	}
}

func TestStopFilter(t *testing.T) {
	f := NewStopFilter(NewLatinTokenizer(), []string{"the", "a", "AND"})
	f.Reset("the quick AND the dead")
	got := terms(Collect(f))
	if !equalStrings(got, []string{"quick", "dead"}) {
		t.Fatalf("after stop = %v, want [quick dead]", got)
	}
}

func TestFilterChainComposes(t *testing.T) {
	// tokenizer -> detector -> stop -> lowercase, all standalone stages.
	chain := NewLowercaseFilter(
		NewStopFilter(
			NewEntityDetector(NewLatinTokenizer()),
			[]string{"the"},
		),
	)
	chain.Reset("The launch #Day1 :)")
	got := Collect(chain)
	if !equalStrings(terms(got), []string{"launch", "#day1", ":)"}) {
		t.Fatalf("terms = %v, want [launch #day1 :)]", terms(got))
	}
	if got[1].Type != HashTag || got[2].Type != Emoticon {
		t.Fatalf("types = %v %v, want HASHTAG EMOTICON", got[1].Type, got[2].Type)
	}
}
