// Copyright (C) 2025 Driftwood Labs (oss@driftwoodlabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/driftwoodlabs/commons/pkg/text"
)

func runInspect(cmd *cobra.Command, args []string) error {
	raw, err := readInput(args)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	original, tokens, err := text.Deserialize(raw)
	if err != nil {
		return fmt.Errorf("decoding token stream: %w", err)
	}

	fmt.Printf("text:   %q\n", original)
	fmt.Printf("tokens: %d\n", len(tokens))
	for i, tok := range tokens {
		fmt.Printf("  [%d] %-12s %q (%d:%d)\n", i, tok.Type, tok.Term, tok.Start, tok.End())
	}
	return nil
}
