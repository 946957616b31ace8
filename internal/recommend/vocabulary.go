// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

package recommend

import (
	"sort"
)

// Vocabulary is a bidirectional mapping between identifiers and dense
// indices. Indices follow sorted identifier order.
type Vocabulary struct {
	names []string
	index map[string]int
}

// NewVocabulary builds a vocabulary from names. Duplicates are collapsed.
func NewVocabulary(names []string) *Vocabulary {
	sorted := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)

	index := make(map[string]int, len(sorted))
	for i, n := range sorted {
		index[n] = i
	}
	return &Vocabulary{names: sorted, index: index}
}

// Len returns the number of identifiers.
func (v *Vocabulary) Len() int {
	return len(v.names)
}

// Index returns the index of name.
func (v *Vocabulary) Index(name string) (int, bool) {
	i, ok := v.index[name]
	return i, ok
}

// Name returns the identifier at index i. It panics when i is out of range.
func (v *Vocabulary) Name(i int) string {
	return v.names[i]
}

// Names returns a copy of all identifiers in index order.
func (v *Vocabulary) Names() []string {
	out := make([]string, len(v.names))
	copy(out, v.names)
	return out
}
