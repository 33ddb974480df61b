// Copyright (C) 2025 Driftwood Labs (oss@driftwoodlabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/driftwoodlabs/commons/pkg/text"
)

// ANSI colors per token type, used only on a TTY.
var typeColors = map[text.TokenType]string{
	text.Word:        "",
	text.Punctuation: "\033[90m",
	text.HashTag:     "\033[36m",
	text.Username:    "\033[33m",
	text.URL:         "\033[34m",
	text.Stock:       "\033[32m",
	text.Emoticon:    "\033[35m",
}

type tokenJSON struct {
	Type  string `json:"type"`
	Term  string `json:"term"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

func runTokenize(cmd *cobra.Command, args []string) error {
	raw, err := readInput(args)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	stream, err := newStream()
	if err != nil {
		return err
	}
	stream.Reset(strings.TrimRight(string(raw), "\n"))
	tokens := text.Collect(stream)
	logger.Debug("tokenized input", "bytes", len(raw), "tokens", len(tokens))

	if jsonOutput {
		out := make([]tokenJSON, 0, len(tokens))
		for _, tok := range tokens {
			out = append(out, tokenJSON{
				Type:  tok.Type.String(),
				Term:  tok.Term,
				Start: tok.Start,
				End:   tok.End(),
			})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	useColor := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	for _, tok := range tokens {
		line := fmt.Sprintf("%s\t%s\t%d:%d", tok.Type, tok.Term, tok.Start, tok.End())
		if useColor {
			if color := typeColors[tok.Type]; color != "" {
				line = color + line + "\033[0m"
			}
		}
		fmt.Println(line)
	}
	return nil
}
