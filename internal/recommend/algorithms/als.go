// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

package algorithms

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/ghrecommend/internal/models"
	"github.com/tomtom215/ghrecommend/internal/ratings"
	"github.com/tomtom215/ghrecommend/internal/recommend"
)

// ALSName is the registered name of the ALS strategy.
const ALSName = "implicit-als"

// ALS is the implicit-feedback alternating least squares strategy.
//
// The interaction matrix is binary: p_ui = 1 for every observed pair,
// whatever its rating, with confidence c_ui = 1 + alpha. Training minimizes
//
//	sum_{u,i} c_ui * (p_ui - x_u' * y_i)^2 + lambda * (||x_u||^2 + ||y_i||^2)
//
// by alternately solving every user vector and every item vector exactly.
// The client user takes no part in the factorization: its vector is
// folded in from the seeds at query time, so a row that training has
// memorized never becomes the query.
type ALS struct {
	opts recommend.ALSOptions
}

// NewALS creates the strategy. Zero options take the defaults
// (regularization 0.01, alpha 1, GOMAXPROCS workers).
func NewALS(opts recommend.ALSOptions) *ALS {
	if opts.Regularization <= 0 {
		opts.Regularization = 0.01
	}
	if opts.Alpha <= 0 {
		opts.Alpha = 1.0
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &ALS{opts: opts}
}

// Name returns "implicit-als".
func (a *ALS) Name() string { return ALSName }

// Prepare encodes the table.
func (a *ALS) Prepare(table *ratings.Table) (*recommend.Inputs, error) {
	return recommend.BuildInputs(table)
}

// Train fits user and item factors. The client row of X is left at the
// solution for an empty interaction set.
func (a *ALS) Train(ctx context.Context, inputs *recommend.Inputs, params recommend.TrainParams) (recommend.Model, error) {
	if err := inputs.Validate(); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	numUsers, numItems, k := inputs.Users.Len(), inputs.Items.Len(), params.Factors
	conf := 1.0 + a.opts.Alpha

	userItems := make([][]int, numUsers)
	itemUsers := make([][]int, numItems)
	for _, in := range inputs.Interactions {
		if in.User == inputs.ClientUser {
			continue
		}
		userItems[in.User] = append(userItems[in.User], in.Item)
		itemUsers[in.Item] = append(itemUsers[in.Item], in.User)
	}

	rng := newRand(params.Seed)
	m := &ALSModel{
		inputs: inputs,
		lambda: a.opts.Regularization,
		conf:   conf,
		X:      randomMatrix(rng, numUsers, k, 0.01),
		Y:      randomMatrix(rng, numItems, k, 0.01),
	}

	for iter := 0; iter < params.Iterations; iter++ {
		if ContextCancelled(ctx) {
			return nil, ctx.Err()
		}
		if err := a.solveAll(ctx, m.X, m.Y, userItems, m.lambda, conf); err != nil {
			return nil, err
		}
		if err := a.solveAll(ctx, m.Y, m.X, itemUsers, m.lambda, conf); err != nil {
			return nil, err
		}
	}

	if !finite(m.X) || !finite(m.Y) {
		return nil, fmt.Errorf("%w: factors diverged", models.ErrTraining)
	}
	m.YtY = gram(m.Y, k)
	return m, nil
}

// solveAll recomputes every row of target from the fixed factors, in
// parallel chunks.
func (a *ALS) solveAll(ctx context.Context, target, fixed [][]float64, neighbors [][]int, lambda, conf float64) error {
	k := len(fixed[0])
	ftf := gram(fixed, k)

	g, ctx := errgroup.WithContext(ctx)
	chunk := (len(target) + a.opts.Workers - 1) / a.opts.Workers
	for start := 0; start < len(target); start += chunk {
		end := min(start+chunk, len(target))
		g.Go(func() error {
			for r := start; r < end; r++ {
				if ContextCancelled(ctx) {
					return ctx.Err()
				}
				target[r] = solveRow(fixed, ftf, neighbors[r], lambda, conf)
			}
			return nil
		})
	}
	return g.Wait()
}

// gram returns M'M for the k-column matrix m.
func gram(m [][]float64, k int) [][]float64 {
	g := make([][]float64, k)
	for f := range g {
		g[f] = make([]float64, k)
	}
	for _, row := range m {
		for f1 := 0; f1 < k; f1++ {
			for f2 := f1; f2 < k; f2++ {
				g[f1][f2] += row[f1] * row[f2]
			}
		}
	}
	for f1 := 0; f1 < k; f1++ {
		for f2 := 0; f2 < f1; f2++ {
			g[f1][f2] = g[f2][f1]
		}
	}
	return g
}

// weightedSystem builds A = F'F + F' (C - I) F + lambda*I and
// b = F' C p for the rows of fixed listed in neighbors.
//
//nolint:gocritic // ftf, A follow standard linear algebra notation
func weightedSystem(fixed, ftf [][]float64, neighbors []int, lambda, conf float64) ([][]float64, []float64) {
	k := len(ftf)
	A := make([][]float64, k)
	for f := range A {
		A[f] = make([]float64, k)
		copy(A[f], ftf[f])
		A[f][f] += lambda
	}
	b := make([]float64, k)
	for _, n := range neighbors {
		y := fixed[n]
		for f1 := 0; f1 < k; f1++ {
			for f2 := f1; f2 < k; f2++ {
				delta := (conf - 1.0) * y[f1] * y[f2]
				A[f1][f2] += delta
				if f1 != f2 {
					A[f2][f1] += delta
				}
			}
			b[f1] += conf * y[f1]
		}
	}
	return A, b
}

func solveRow(fixed, ftf [][]float64, neighbors []int, lambda, conf float64) []float64 {
	A, b := weightedSystem(fixed, ftf, neighbors, lambda, conf)
	return solveLinearSystem(A, b)
}

// solveLinearSystem solves A*x = b using Cholesky decomposition.
//
//nolint:gocritic // A, L follow standard linear algebra notation
func solveLinearSystem(A [][]float64, b []float64) []float64 {
	L := cholesky(A)
	return choleskySolve(L, b)
}

//nolint:gocritic // A, L follow standard linear algebra notation
func cholesky(A [][]float64) [][]float64 {
	n := len(A)
	L := make([][]float64, n)
	for i := range L {
		L[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := A[i][j]
			for k := 0; k < j; k++ {
				sum -= L[i][k] * L[j][k]
			}
			if i == j {
				if sum <= 0 {
					sum = 1e-10
				}
				L[i][j] = math.Sqrt(sum)
			} else if L[j][j] != 0 {
				L[i][j] = sum / L[j][j]
			}
		}
	}
	return L
}

// choleskySolve solves L*L'*x = b by forward and back substitution.
//
//nolint:gocritic // L follows standard linear algebra notation
func choleskySolve(L [][]float64, b []float64) []float64 {
	n := len(b)
	z := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := b[i]
		for j := 0; j < i; j++ {
			sum -= L[i][j] * z[j]
		}
		if L[i][i] != 0 {
			z[i] = sum / L[i][i]
		}
	}
	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := z[i]
		for j := i + 1; j < n; j++ {
			sum -= L[j][i] * x[j]
		}
		if L[i][i] != 0 {
			x[i] = sum / L[i][i]
		}
	}
	return x
}

// ALSModel is a trained ALS model.
type ALSModel struct {
	inputs *recommend.Inputs
	lambda float64
	conf   float64

	// X is the user factor matrix (numUsers x factors).
	X [][]float64
	// Y is the item factor matrix (numItems x factors).
	Y [][]float64
	// YtY caches Y'Y for query-time user solves.
	YtY [][]float64
}

// Recommend recalculates a user vector from the known seeds and ranks all
// other items by x_u' * y_i.
func (m *ALSModel) Recommend(ctx context.Context, seedItems []string, topN int) ([]recommend.ScoredItem, error) {
	seeds, err := m.inputs.ResolveSeeds(seedItems)
	if err != nil {
		return nil, err
	}
	if ContextCancelled(ctx) {
		return nil, ctx.Err()
	}

	x := solveRow(m.Y, m.YtY, seeds, m.lambda, m.conf)
	scores := make([]float64, len(m.Y))
	for i, y := range m.Y {
		scores[i] = dot(x, y)
	}
	return recommend.TopN(m.inputs.Items, scores, indexSet(seeds), topN), nil
}

// SimilarItems ranks items by cosine similarity of their factors.
func (m *ALSModel) SimilarItems(_ context.Context, item string, n int) ([]recommend.ScoredItem, error) {
	return similarTo(m.inputs.Items, m.Y, item, n)
}

// Explain decomposes the score of item for the seed user into one term per
// known seed: with A the seed user's weighted system,
//
//	score = y_item' * A^-1 * sum_s c * y_s = sum_s c * y_s' * (A^-1 * y_item)
func (m *ALSModel) Explain(_ context.Context, seedItems []string, item string) (*recommend.Explanation, error) {
	seeds, err := m.inputs.ResolveSeeds(seedItems)
	if err != nil {
		return nil, err
	}
	target, ok := m.inputs.Items.Index(item)
	if !ok {
		return nil, unknownItem(item)
	}

	A, _ := weightedSystem(m.Y, m.YtY, seeds, m.lambda, m.conf)
	w := choleskySolve(cholesky(A), m.Y[target])

	exp := &recommend.Explanation{Item: item}
	for _, s := range seeds {
		c := m.conf * dot(m.Y[s], w)
		exp.Score += c
		exp.Contributions = append(exp.Contributions, recommend.ScoredItem{
			Item:  m.inputs.Items.Name(s),
			Score: c,
		})
	}
	sort.SliceStable(exp.Contributions, func(a, b int) bool {
		return exp.Contributions[a].Score > exp.Contributions[b].Score
	})
	return exp, nil
}

func indexSet(idx []int) map[int]bool {
	set := make(map[int]bool, len(idx))
	for _, i := range idx {
		set[i] = true
	}
	return set
}

func unknownItem(item string) error {
	return models.InputErrorf("repository %s is not in the training vocabulary", item)
}

// Ensure interface compliance.
var (
	_ recommend.Strategy      = (*ALS)(nil)
	_ recommend.Model         = (*ALSModel)(nil)
	_ recommend.SimilarFinder = (*ALSModel)(nil)
	_ recommend.Explainer     = (*ALSModel)(nil)
)
