// Copyright (C) 2025 Driftwood Labs (oss@driftwoodlabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package text

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// Wire format v1:
//
//	magic   "TKS1"                         4 bytes
//	text    uvarint length + bytes         NFC-normalized input
//	count   uvarint                        number of tokens
//	tokens  count times:
//	          uvarint start offset delta   from previous token's start
//	          uvarint term length          bytes
//	          type code                    1 byte
//
// Start offsets are non-decreasing, so deltas always fit a uvarint.
// Transformed terms (e.g. lowercased) are not preserved; the decoder
// reconstructs terms from the text slice, which is all downstream
// consumers need.
const serializeMagic = "TKS1"

// Serialization errors.
var (
	ErrBadMagic    = errors.New("text: bad token stream magic")
	ErrTruncated   = errors.New("text: truncated token stream")
	ErrBadToken    = errors.New("text: invalid token record")
	ErrUnknownType = errors.New("text: unknown token type code")
)

// Serialize runs ts over text and encodes the resulting token stream in
// the v1 binary format. The stream is Reset on the normalized text
// first, so a freshly built pipeline can be passed directly.
func Serialize(text string, ts TokenStream) ([]byte, error) {
	ntext := norm.NFC.String(text)
	ts.Reset(ntext)

	var payload bytes.Buffer
	payload.WriteString(serializeMagic)

	var scratch [binary.MaxVarintLen64]byte
	writeUvarint := func(v uint64) {
		n := binary.PutUvarint(scratch[:], v)
		payload.Write(scratch[:n])
	}

	writeUvarint(uint64(len(ntext)))
	payload.WriteString(ntext)

	var tokens []Token
	prev := 0
	for ts.Next() {
		t := ts.Token()
		if t.Start < prev || t.End() > len(ntext) {
			return nil, fmt.Errorf("%w: token %q at %d out of order or range", ErrBadToken, t.Term, t.Start)
		}
		prev = t.Start
		tokens = append(tokens, t)
	}

	writeUvarint(uint64(len(tokens)))
	prev = 0
	for _, t := range tokens {
		writeUvarint(uint64(t.Start - prev))
		writeUvarint(uint64(len(t.Term)))
		payload.WriteByte(byte(t.Type))
		prev = t.Start
	}
	return payload.Bytes(), nil
}

// Deserialize decodes a v1 token stream, returning the normalized text
// and the token sequence with terms sliced back out of the text.
func Deserialize(data []byte) (string, []Token, error) {
	buf := bytes.NewReader(data)

	magic := make([]byte, len(serializeMagic))
	if _, err := buf.Read(magic); err != nil || string(magic) != serializeMagic {
		return "", nil, ErrBadMagic
	}

	textLen, err := binary.ReadUvarint(buf)
	if err != nil {
		return "", nil, fmt.Errorf("%w: text length: %v", ErrTruncated, err)
	}
	if textLen > uint64(buf.Len()) {
		return "", nil, fmt.Errorf("%w: text of %d bytes", ErrTruncated, textLen)
	}
	textBytes := make([]byte, textLen)
	if _, err := buf.Read(textBytes); err != nil {
		return "", nil, fmt.Errorf("%w: text: %v", ErrTruncated, err)
	}
	text := string(textBytes)

	count, err := binary.ReadUvarint(buf)
	if err != nil {
		return "", nil, fmt.Errorf("%w: token count: %v", ErrTruncated, err)
	}

	// Each token record is at least 3 bytes; cap the allocation hint so
	// a corrupt count cannot force a huge allocation.
	capHint := count
	if max := uint64(buf.Len() / 3); capHint > max {
		capHint = max
	}
	tokens := make([]Token, 0, capHint)
	start := 0
	for i := uint64(0); i < count; i++ {
		delta, err := binary.ReadUvarint(buf)
		if err != nil {
			return "", nil, fmt.Errorf("%w: token %d start: %v", ErrTruncated, i, err)
		}
		length, err := binary.ReadUvarint(buf)
		if err != nil {
			return "", nil, fmt.Errorf("%w: token %d length: %v", ErrTruncated, i, err)
		}
		code, err := buf.ReadByte()
		if err != nil {
			return "", nil, fmt.Errorf("%w: token %d type: %v", ErrTruncated, i, err)
		}
		if int(code) >= numTokenTypes {
			return "", nil, fmt.Errorf("%w: %d in token %d", ErrUnknownType, code, i)
		}

		start += int(delta)
		end := start + int(length)
		if start < 0 || start > len(text) || end > len(text) || end < start {
			return "", nil, fmt.Errorf("%w: token %d spans [%d, %d) beyond text of %d bytes",
				ErrBadToken, i, start, end, len(text))
		}
		tokens = append(tokens, Token{Term: text[start:end], Start: start, Type: TokenType(code)})
	}
	return text, tokens, nil
}
