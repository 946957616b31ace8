// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

package algorithms

import (
	"context"
	"fmt"
	"math"

	"github.com/tomtom215/ghrecommend/internal/models"
	"github.com/tomtom215/ghrecommend/internal/ratings"
	"github.com/tomtom215/ghrecommend/internal/recommend"
)

// FMName is the registered name of the factorization machine strategy.
const FMName = "lightfm-warp"

// Supported FM losses.
const (
	LossWARP = "warp"
	LossBPR  = "bpr"
)

// FM is a hybrid factorization machine. Users and items are represented as
// the weighted sum of the embeddings of their features: one identity
// feature each, plus the side feature columns when enabled.
//
//	score(u, i) = repr(u)' * repr(i) + bias(u) + bias(i)
//
// Training is SGD on a pairwise ranking loss over (user, positive,
// negative) triples, with each positive weighted by its rating.
//
// WARP (Weston, Bengio, Usunier 2011) samples negatives until one violates
// the margin and scales the update by log((items-1) / samples drawn), so
// positives ranked low get large updates. BPR (Rendle et al. 2009) samples
// one negative and follows the log-sigmoid gradient.
type FM struct {
	opts recommend.FMOptions
}

// NewFM creates the strategy. Zero options take the defaults (warp loss,
// learning rate 0.05, regularization 1e-4, 10 samples). An unknown loss
// fails with models.ErrInput.
func NewFM(opts recommend.FMOptions) (*FM, error) {
	switch opts.Loss {
	case "":
		opts.Loss = LossWARP
	case LossWARP, LossBPR:
	default:
		return nil, models.InputErrorf("unknown loss %q, want %s or %s", opts.Loss, LossWARP, LossBPR)
	}
	if opts.LearningRate <= 0 {
		opts.LearningRate = 0.05
	}
	if opts.Regularization < 0 {
		opts.Regularization = 1e-4
	}
	if opts.MaxSampled <= 0 {
		opts.MaxSampled = 10
	}
	return &FM{opts: opts}, nil
}

// Name returns "lightfm-warp".
func (s *FM) Name() string { return FMName }

// Prepare encodes the table with its side features.
func (s *FM) Prepare(table *ratings.Table) (*recommend.Inputs, error) {
	return recommend.BuildInputs(table)
}

type featureWeight struct {
	index  int
	weight float64
}

// featureSets returns, per row, the identity feature followed by the side
// features at offset rows.
func featureSets(side [][]float64, useSide bool) ([][]featureWeight, int) {
	rows := len(side)
	numFeatures := rows
	if useSide && rows > 0 {
		numFeatures += len(side[0])
	}
	sets := make([][]featureWeight, rows)
	for r := range sets {
		sets[r] = []featureWeight{{index: r, weight: 1}}
		if !useSide {
			continue
		}
		for c, v := range side[r] {
			if v != 0 {
				sets[r] = append(sets[r], featureWeight{index: rows + c, weight: v})
			}
		}
	}
	return sets, numFeatures
}

// Train fits feature embeddings for Iterations epochs.
func (s *FM) Train(ctx context.Context, inputs *recommend.Inputs, params recommend.TrainParams) (recommend.Model, error) {
	if err := inputs.Validate(); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	numItems := inputs.Items.Len()
	if numItems < 2 {
		return nil, fmt.Errorf("%w: pairwise ranking needs at least two repositories", models.ErrTraining)
	}

	k := params.Factors
	rng := newRand(params.Seed)
	userSets, numUserFeatures := featureSets(inputs.UserFeatures, s.opts.UseFeatures)
	itemSets, numItemFeatures := featureSets(inputs.ItemFeatures, s.opts.UseFeatures)

	m := &FMModel{
		inputs:     inputs,
		userSets:   userSets,
		itemSets:   itemSets,
		userEmb:    randomMatrix(rng, numUserFeatures, k, 1/float64(k)),
		itemEmb:    randomMatrix(rng, numItemFeatures, k, 1/float64(k)),
		itemBias:   make([]float64, numItemFeatures),
		numFactors: k,
	}

	positives := make([]map[int]bool, inputs.Users.Len())
	for u := range positives {
		positives[u] = make(map[int]bool)
	}
	for _, in := range inputs.Interactions {
		positives[in.User][in.Item] = true
	}

	order := make([]recommend.Interaction, len(inputs.Interactions))
	copy(order, inputs.Interactions)

	t := &fmTrainer{m: m, opts: s.opts, positives: positives, numItems: numItems}
	for epoch := 0; epoch < params.Iterations; epoch++ {
		if ContextCancelled(ctx) {
			return nil, ctx.Err()
		}
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		for _, in := range order {
			t.step(rng.Intn, in)
		}
	}

	if !finite(m.userEmb) || !finite(m.itemEmb) {
		return nil, fmt.Errorf("%w: embeddings diverged; lower the learning rate", models.ErrTraining)
	}
	m.cacheItemReprs()
	return m, nil
}

type fmTrainer struct {
	m         *FMModel
	opts      recommend.FMOptions
	positives []map[int]bool
	numItems  int
}

// sampleNegative draws an item the user has not interacted with. It gives
// up after a bounded number of draws for users who starred nearly all items.
func (t *fmTrainer) sampleNegative(intn func(int) int, u int) (int, bool) {
	for tries := 0; tries < 100; tries++ {
		j := intn(t.numItems)
		if !t.positives[u][j] {
			return j, true
		}
	}
	return 0, false
}

func (t *fmTrainer) step(intn func(int) int, in recommend.Interaction) {
	m := t.m
	u, i := in.User, in.Item
	weight := float64(in.Rating)

	uRepr := m.repr(m.userEmb, m.userSets[u])
	iRepr := m.repr(m.itemEmb, m.itemSets[i])
	posScore := dot(uRepr, iRepr) + m.bias(m.itemBias, m.itemSets[i])

	switch t.opts.Loss {
	case LossBPR:
		j, ok := t.sampleNegative(intn, u)
		if !ok {
			return
		}
		jRepr := m.repr(m.itemEmb, m.itemSets[j])
		x := posScore - dot(uRepr, jRepr) - m.bias(m.itemBias, m.itemSets[j])
		g := weight / (1 + math.Exp(x))
		t.update(u, i, j, uRepr, iRepr, jRepr, g)

	default:
		for n := 1; n <= t.opts.MaxSampled; n++ {
			j, ok := t.sampleNegative(intn, u)
			if !ok {
				return
			}
			jRepr := m.repr(m.itemEmb, m.itemSets[j])
			negScore := dot(uRepr, jRepr) + m.bias(m.itemBias, m.itemSets[j])
			if negScore > posScore-1 {
				g := weight * math.Log(math.Max(1, math.Floor(float64(t.numItems-1)/float64(n))))
				t.update(u, i, j, uRepr, iRepr, jRepr, g)
				return
			}
		}
	}
}

// update takes one ascent step of size g on score(u,i) - score(u,j).
func (t *fmTrainer) update(u, i, j int, uRepr, iRepr, jRepr []float64, g float64) {
	if g == 0 {
		return
	}
	m := t.m
	lr, reg := t.opts.LearningRate, t.opts.Regularization

	for _, fw := range m.userSets[u] {
		e := m.userEmb[fw.index]
		for f := range e {
			e[f] += lr * (g*fw.weight*(iRepr[f]-jRepr[f]) - reg*e[f])
		}
	}
	for _, fw := range m.itemSets[i] {
		e := m.itemEmb[fw.index]
		for f := range e {
			e[f] += lr * (g*fw.weight*uRepr[f] - reg*e[f])
		}
		m.itemBias[fw.index] += lr * (g*fw.weight - reg*m.itemBias[fw.index])
	}
	for _, fw := range m.itemSets[j] {
		e := m.itemEmb[fw.index]
		for f := range e {
			e[f] += lr * (-g*fw.weight*uRepr[f] - reg*e[f])
		}
		m.itemBias[fw.index] += lr * (-g*fw.weight - reg*m.itemBias[fw.index])
	}
}

// FMModel is a trained factorization machine.
type FMModel struct {
	inputs   *recommend.Inputs
	userSets [][]featureWeight
	itemSets [][]featureWeight
	userEmb  [][]float64
	itemEmb  [][]float64
	// itemBias has no user counterpart: a user bias cancels in every
	// pairwise update and never changes a ranking.
	itemBias   []float64
	numFactors int

	itemReprs  [][]float64
	itemBiases []float64
}

func (m *FMModel) repr(emb [][]float64, set []featureWeight) []float64 {
	out := make([]float64, m.numFactors)
	for _, fw := range set {
		for f, v := range emb[fw.index] {
			out[f] += fw.weight * v
		}
	}
	return out
}

func (m *FMModel) bias(biases []float64, set []featureWeight) float64 {
	var b float64
	for _, fw := range set {
		b += fw.weight * biases[fw.index]
	}
	return b
}

func (m *FMModel) cacheItemReprs() {
	m.itemReprs = make([][]float64, len(m.itemSets))
	m.itemBiases = make([]float64, len(m.itemSets))
	for i, set := range m.itemSets {
		m.itemReprs[i] = m.repr(m.itemEmb, set)
		m.itemBiases[i] = m.bias(m.itemBias, set)
	}
}

// userRepr returns the client user's learned representation, or folds a
// user in as the mean of the seed item representations when the client
// is not part of the table.
func (m *FMModel) userRepr(seeds []int) []float64 {
	if c := m.inputs.ClientUser; c >= 0 {
		return m.repr(m.userEmb, m.userSets[c])
	}
	out := make([]float64, m.numFactors)
	for _, s := range seeds {
		for f, v := range m.itemReprs[s] {
			out[f] += v / float64(len(seeds))
		}
	}
	return out
}

// Recommend scores every non-seed item for the client user.
func (m *FMModel) Recommend(ctx context.Context, seedItems []string, topN int) ([]recommend.ScoredItem, error) {
	seeds, err := m.inputs.ResolveSeeds(seedItems)
	if err != nil {
		return nil, err
	}
	if ContextCancelled(ctx) {
		return nil, ctx.Err()
	}

	u := m.userRepr(seeds)
	scores := make([]float64, len(m.itemReprs))
	for i, r := range m.itemReprs {
		scores[i] = dot(u, r) + m.itemBiases[i]
	}
	return recommend.TopN(m.inputs.Items, scores, indexSet(seeds), topN), nil
}

// SimilarItems ranks items by cosine similarity of their representations.
func (m *FMModel) SimilarItems(_ context.Context, item string, n int) ([]recommend.ScoredItem, error) {
	return similarTo(m.inputs.Items, m.itemReprs, item, n)
}

// Ensure interface compliance.
var (
	_ recommend.Strategy      = (*FM)(nil)
	_ recommend.Model         = (*FMModel)(nil)
	_ recommend.SimilarFinder = (*FMModel)(nil)
)
