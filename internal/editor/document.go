// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package editor bridges the browser-side block editor and the backend
// document model. The write path validates shape and passes the document
// through verbatim; the read path renders the typed blocks to sanitized
// HTML. Block internals beyond the rendered types stay opaque.
package editor

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Document is the block-list shape the editor produces.
type Document struct {
	Time    int64   `json:"time"`
	Blocks  []Block `json:"blocks"`
	Version string  `json:"version"`
}

// Block is one typed content unit. Data is type-specific and only decoded
// by the renderer for the types it knows.
type Block struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ErrEmptyDocument is returned for a missing or blank content field.
var ErrEmptyDocument = errors.New("content is empty")

// ParseDocument validates that raw is a block document and returns it
// verbatim. The returned bytes are exactly what was posted: a submission
// that does not touch the content must store the prior document unchanged.
func ParseDocument(raw string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, ErrEmptyDocument
	}

	var doc Document
	if err := json.Unmarshal([]byte(trimmed), &doc); err != nil {
		return nil, fmt.Errorf("decoding content document: %w", err)
	}
	if doc.Blocks == nil {
		return nil, errors.New("content document has no blocks field")
	}

	return json.RawMessage(trimmed), nil
}

// Decode parses a stored document for rendering. A nil or empty raw value
// yields an empty document rather than an error: posts without content
// render as empty, not broken.
func Decode(raw json.RawMessage) (Document, error) {
	if len(raw) == 0 {
		return Document{}, nil
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Document{}, fmt.Errorf("decoding content document: %w", err)
	}
	return doc, nil
}
