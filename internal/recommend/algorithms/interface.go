// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

// Package algorithms implements the recommendation strategies:
//
//   - implicit-als: alternating least squares for implicit feedback
//     (Hu, Koren, Volinsky 2008) with query-time user recalculation.
//   - lightfm-warp: a factorization machine over identity and side
//     features trained with WARP or BPR pairwise ranking loss.
//
// Both register with the recommend package on import. Trained models are
// immutable and safe for concurrent queries.
package algorithms

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/tomtom215/ghrecommend/internal/recommend"
)

func init() {
	recommend.Register(ALSName, func(opts recommend.Options) (recommend.Strategy, error) {
		return NewALS(opts.ALS), nil
	})
	recommend.Register(FMName, func(opts recommend.Options) (recommend.Strategy, error) {
		fm, err := NewFM(opts.FM)
		if err != nil {
			return nil, err
		}
		return fm, nil
	})
}

// ContextCancelled checks if the context has been canceled.
func ContextCancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// newRand returns a generator for seed. Seed 0 draws from the clock.
//
//nolint:gosec // G404: math/rand is acceptable for ML initialization (not security)
func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// randomMatrix returns rows x cols values drawn from N(0, scale^2).
func randomMatrix(rng *rand.Rand, rows, cols int, scale float64) [][]float64 {
	m := make([][]float64, rows)
	for r := range m {
		m[r] = make([]float64, cols)
		for c := range m[r] {
			m[r][c] = rng.NormFloat64() * scale
		}
	}
	return m
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

// cosineSimilarity computes cosine similarity between two vectors.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var normA, normB float64
	for i := range a {
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot(a, b) / (math.Sqrt(normA) * math.Sqrt(normB))
}

func finite(m [][]float64) bool {
	for _, row := range m {
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

// similarTo ranks every item of vocab by cosine similarity of its vector
// to the vector of item, excluding item itself.
func similarTo(vocab *recommend.Vocabulary, vectors [][]float64, item string, n int) ([]recommend.ScoredItem, error) {
	idx, ok := vocab.Index(item)
	if !ok {
		return nil, unknownItem(item)
	}
	scores := make([]float64, len(vectors))
	for i := range vectors {
		scores[i] = cosineSimilarity(vectors[idx], vectors[i])
	}
	return recommend.TopN(vocab, scores, map[int]bool{idx: true}, n), nil
}
