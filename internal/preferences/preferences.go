// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

// Package preferences parses uploaded preference lists and turns them into
// client rows for the rating matrix builder.
//
// The upload format is a JSON object with a single "repo" key:
//
//	{"repo": ["golang/go", "rs/zerolog"]}
//
// A missing key or a non-list value is an input error. An empty list parses
// successfully; the pipeline rejects it before touching the event source.
package preferences

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/ghrecommend/internal/models"
)

// Key is the only key read from an upload.
const Key = "repo"

// MaxUploadBytes bounds the size of an uploaded preference file.
const MaxUploadBytes = 1 << 20

// Upload is the wire shape of a preference file.
type Upload struct {
	Repo []string `json:"repo"`
}

// Parse reads a preference upload from r. At most MaxUploadBytes are read.
func Parse(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read preference upload: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return nil, models.InputErrorf("preference upload exceeds %d bytes", MaxUploadBytes)
	}
	return ParseBytes(data)
}

// ParseBytes parses a preference upload. Identifiers are normalized to
// "owner/name", blanks are skipped and duplicates removed keeping first
// occurrence order.
func ParseBytes(data []byte) ([]string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, models.InputErrorf("preference upload must be a JSON object with a %q key", Key)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, models.InputErrorf("preference upload is not valid JSON: %v", err)
	}
	raw, ok := doc[Key]
	if !ok {
		return nil, models.InputErrorf("preference upload has no %q key", Key)
	}

	var items []string
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, models.InputErrorf("%q must be a list of repository names", Key)
	}
	return Normalize(items), nil
}

// Normalize trims host prefixes and whitespace, drops blanks and removes
// duplicates while keeping the first occurrence order.
func Normalize(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		it = models.TrimHost(it)
		if it == "" {
			continue
		}
		if _, dup := seen[it]; dup {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}

// Synthesize builds the client rows for a window starting at windowStart.
func Synthesize(items []string, windowStart time.Time) []models.ClientPreference {
	prefs := make([]models.ClientPreference, len(items))
	for i, it := range items {
		prefs[i] = models.ClientPreference{Item: it, Timestamp: windowStart}
	}
	return prefs
}

// Encode renders items in the upload format.
func Encode(items []string) ([]byte, error) {
	if items == nil {
		items = []string{}
	}
	return json.Marshal(Upload{Repo: items})
}
