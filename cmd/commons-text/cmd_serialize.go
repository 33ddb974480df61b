// Copyright (C) 2025 Driftwood Labs (oss@driftwoodlabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/driftwoodlabs/commons/pkg/text"
)

func runSerialize(cmd *cobra.Command, args []string) error {
	raw, err := readInput(args)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	stream, err := newStream()
	if err != nil {
		return err
	}
	encoded, err := text.Serialize(strings.TrimRight(string(raw), "\n"), stream)
	if err != nil {
		return fmt.Errorf("serializing token stream: %w", err)
	}
	logger.Debug("serialized token stream", "input_bytes", len(raw), "encoded_bytes", len(encoded))

	if outputPath != "" {
		if err := os.WriteFile(outputPath, encoded, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", outputPath, err)
		}
		return nil
	}
	_, err = os.Stdout.Write(encoded)
	return err
}
