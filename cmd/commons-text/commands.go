// Copyright (C) 2025 Driftwood Labs (oss@driftwoodlabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/driftwoodlabs/commons/pkg/logging"
	"github.com/driftwoodlabs/commons/pkg/text"
)

// --- Global Command Variables ---
var (
	verbose    bool
	jsonOutput bool
	noEntities bool
	lowercase  bool
	stopFile   string
	outputPath string

	rootCmd = &cobra.Command{
		Use:   "commons-text",
		Short: "Tokenize, serialize, and inspect short-message token streams",
		Long: `commons-text runs the streaming token pipeline over tweet-like
				text: Latin word tokenization, entity detection (hashtags,
				usernames, URLs, cashtags, emoticons), optional filters, and
				the compact binary wire format.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := logging.LevelWarn
			if verbose {
				level = logging.LevelDebug
			}
			logger = logging.New(logging.Config{
				Level:   level,
				Service: "commons-text",
			})
		},
	}

	tokenizeCmd = &cobra.Command{
		Use:   "tokenize [file]",
		Short: "Run the token pipeline over text and print one token per line",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTokenize, // Defined in cmd_tokenize.go
	}

	serializeCmd = &cobra.Command{
		Use:   "serialize [file]",
		Short: "Encode a text's token stream to the binary wire format",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSerialize, // Defined in cmd_serialize.go
	}

	inspectCmd = &cobra.Command{
		Use:   "inspect [file]",
		Short: "Decode a serialized token stream and dump its contents",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runInspect, // Defined in cmd_inspect.go
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	for _, cmd := range []*cobra.Command{tokenizeCmd, serializeCmd} {
		cmd.Flags().BoolVar(&noEntities, "no-entities", false, "Skip entity detection (plain words and punctuation only)")
		cmd.Flags().BoolVar(&lowercase, "lowercase", false, "Lowercase word and hashtag terms")
		cmd.Flags().StringVar(&stopFile, "stop-file", "", "YAML stop-word file; matching words are dropped")
	}
	tokenizeCmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit tokens as JSON instead of tab-separated lines")
	serializeCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the encoded stream to a file instead of stdout")

	rootCmd.AddCommand(tokenizeCmd)
	rootCmd.AddCommand(serializeCmd)
	rootCmd.AddCommand(inspectCmd)
}

// stopWordFile is the schema for --stop-file.
type stopWordFile struct {
	Words []string `yaml:"words" validate:"required,min=1,dive,required"`
}

var stopValidate = validator.New()

func loadStopWords(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading stop file: %w", err)
	}
	var file stopWordFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parsing stop file %s: %w", path, err)
	}
	if err := stopValidate.Struct(&file); err != nil {
		return nil, fmt.Errorf("invalid stop file %s: %w", path, err)
	}
	return file.Words, nil
}

// newStream assembles the pipeline the flags describe.
func newStream() (text.TokenStream, error) {
	var stream text.TokenStream = text.NewLatinTokenizer()
	if !noEntities {
		stream = text.NewEntityDetector(stream)
	}
	if lowercase {
		stream = text.NewLowercaseFilter(stream)
	}
	if stopFile != "" {
		words, err := loadStopWords(stopFile)
		if err != nil {
			return nil, err
		}
		logger.Debug("loaded stop words", "count", len(words), "path", stopFile)
		stream = text.NewStopFilter(stream, words)
	}
	return stream, nil
}

// readInput reads the positional file argument, or stdin when the
// argument is absent or "-".
func readInput(args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(args[0])
}
