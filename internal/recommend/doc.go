// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

// Package recommend defines the model adapter contract between a rating
// table and a trained recommender.
//
// A Strategy is chosen once per run by name:
//
//	strategy, err := recommend.NewStrategy("implicit-als", opts)
//	inputs, err := strategy.Prepare(table)
//	model, err := strategy.Train(ctx, inputs, recommend.TrainParams{Factors: 72, Iterations: 100, Seed: 42})
//	items, err := model.Recommend(ctx, seeds, 25)
//
// Concrete strategies live in the algorithms subpackage and register
// themselves on import, the way database/sql drivers do:
//
//	import _ "github.com/tomtom215/ghrecommend/internal/recommend/algorithms"
//
// # Vocabulary
//
// Prepare encodes user and repository identifiers to dense indices in
// sorted order, so the same table always yields the same encoding. The
// Vocabulary keeps both directions for decoding results.
//
// # Seeds
//
// Seed repositories missing from the vocabulary are dropped silently. When
// none are known, Recommend fails with models.ErrUnknownIdentifier.
// Recommendations never contain a seed item. Scores are descending; equal
// scores keep vocabulary order.
package recommend
