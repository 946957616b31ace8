// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

package recommend

import (
	"context"

	"github.com/tomtom215/ghrecommend/internal/ratings"
)

// Interaction is one observed (user, repository) pair in index space.
type Interaction struct {
	User   int `json:"user"`
	Item   int `json:"item"`
	Rating int `json:"rating"`
}

// Side feature columns, in the order they appear in Inputs.
var (
	UserFeatureNames = []string{"repo_cnt", "repo_uniq_cnt"}
	ItemFeatureNames = []string{"event_cnt", "user_uniq_cnt"}
)

// Inputs is a rating table encoded for training.
type Inputs struct {
	Users *Vocabulary
	Items *Vocabulary

	// Interactions are ordered by (user, item) index.
	Interactions []Interaction

	// UserFeatures and ItemFeatures hold the side feature columns per
	// index, log-scaled and divided by the column maximum so values lie
	// in [0, 1].
	UserFeatures [][]float64
	ItemFeatures [][]float64

	// ClientUser is the index of the client user, or -1 when the client
	// did not reach the table.
	ClientUser int
}

// TrainParams are the per-run training parameters.
type TrainParams struct {
	Factors    int `json:"factors"`
	Iterations int `json:"iterations"`
	// Seed 0 derives a seed from the clock, so runs are not reproducible.
	Seed int64 `json:"seed"`
}

// ScoredItem is a recommended repository with its model score.
type ScoredItem struct {
	Item  string  `json:"repo"`
	Score float64 `json:"score"`
}

// Explanation splits the score of one item into per-seed contributions.
type Explanation struct {
	Item  string  `json:"repo"`
	Score float64 `json:"score"`
	// Contributions are ordered by descending contribution.
	Contributions []ScoredItem `json:"contributions"`
}

// Strategy turns a rating table into a trained Model.
type Strategy interface {
	Name() string
	Prepare(table *ratings.Table) (*Inputs, error)
	// Train fails with models.ErrTraining on empty or degenerate inputs.
	Train(ctx context.Context, inputs *Inputs, params TrainParams) (Model, error)
}

// Model answers recommendation queries for a seed set of repositories.
type Model interface {
	// Recommend returns at most topN repositories not in seedItems,
	// by descending score.
	Recommend(ctx context.Context, seedItems []string, topN int) ([]ScoredItem, error)
}

// SimilarFinder is implemented by models that can rank repositories by
// similarity to one repository.
type SimilarFinder interface {
	SimilarItems(ctx context.Context, item string, n int) ([]ScoredItem, error)
}

// Explainer is implemented by models that can attribute a score to the
// seed items that produced it.
type Explainer interface {
	Explain(ctx context.Context, seedItems []string, item string) (*Explanation, error)
}
