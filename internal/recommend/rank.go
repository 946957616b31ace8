// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

package recommend

import (
	"math"
	"sort"
)

// TopN ranks scores (indexed by item) and returns the best n items not in
// exclude. Equal scores keep index order; NaN scores are skipped. A
// non-positive n returns nil.
func TopN(vocab *Vocabulary, scores []float64, exclude map[int]bool, n int) []ScoredItem {
	if n <= 0 {
		return nil
	}
	candidates := make([]int, 0, len(scores))
	for i, s := range scores {
		if exclude[i] || math.IsNaN(s) {
			continue
		}
		candidates = append(candidates, i)
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return scores[candidates[a]] > scores[candidates[b]]
	})
	if len(candidates) > n {
		candidates = candidates[:n]
	}

	out := make([]ScoredItem, len(candidates))
	for k, i := range candidates {
		out[k] = ScoredItem{Item: vocab.Name(i), Score: scores[i]}
	}
	return out
}

// Items returns the identifiers of scored items in order.
func Items(scored []ScoredItem) []string {
	out := make([]string, len(scored))
	for i, s := range scored {
		out[i] = s.Item
	}
	return out
}
