// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

// Package pipeline runs one recommendation request end to end:
//
//	validate -> load events -> build rating table -> prepare -> train -> recommend
//
// Input errors are reported before the event source is touched. A run whose
// filters leave no data completes with an empty result and a sparsity
// warning. UserMessage turns any error of a run into user-facing text.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/ghrecommend/internal/events"
	"github.com/tomtom215/ghrecommend/internal/logging"
	"github.com/tomtom215/ghrecommend/internal/metrics"
	"github.com/tomtom215/ghrecommend/internal/models"
	"github.com/tomtom215/ghrecommend/internal/preferences"
	"github.com/tomtom215/ghrecommend/internal/ratings"
	"github.com/tomtom215/ghrecommend/internal/recommend"
)

// Loader provides the event source of a run.
type Loader interface {
	LoadEvents(ctx context.Context) (ratings.EventSource, error)
	// Invalidate drops any memoized events so the next load reads the source.
	Invalidate() bool
}

// Result is the outcome of a run.
type Result struct {
	RunID     string `json:"run_id"`
	Algorithm string `json:"algorithm"`

	// Recommendations are github.com/owner/name identifiers, best first.
	Recommendations []string `json:"recommendations"`
	// Scored carries the same items with their model scores.
	Scored []recommend.ScoredItem `json:"-"`

	// UnknownSeeds are preferred repositories absent from the rating table.
	UnknownSeeds []string `json:"unknown_seeds,omitempty"`

	Stats    ratings.Stats               `json:"stats"`
	Warning  *models.DataSparsityWarning `json:"warning,omitempty"`
	Duration time.Duration               `json:"duration"`
}

// Runner executes requests against one event source with a fixed set of
// strategy options.
type Runner struct {
	loader Loader
	opts   recommend.Options
}

// NewRunner creates a runner.
func NewRunner(loader Loader, opts recommend.Options) *Runner {
	return &Runner{loader: loader, opts: opts}
}

// InvalidateEvents drops the memoized events of the runner's source.
func (r *Runner) InvalidateEvents() bool {
	return r.loader.Invalidate()
}

// trained is a model fitted for one request.
type trained struct {
	runID    string
	strategy recommend.Strategy
	repos    []string
	table    *ratings.Table
	inputs   *recommend.Inputs
	model    recommend.Model
	unknown  []string
	start    time.Time
}

// Run produces recommendations for req.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	t, err := r.train(ctx, req)
	if err != nil {
		r.recordOutcome(req.Algorithm, err)
		return nil, err
	}
	res := &Result{
		RunID:        t.runID,
		Algorithm:    t.strategy.Name(),
		UnknownSeeds: t.unknown,
		Stats:        t.table.Stats,
		Warning:      t.table.Warning,
	}
	if t.model == nil {
		res.Recommendations = []string{}
		res.Duration = time.Since(t.start)
		metrics.RecordRun(res.Algorithm, "empty")
		return res, nil
	}

	stage := time.Now()
	scored, err := t.model.Recommend(ctx, t.repos, req.TopN)
	metrics.RecordStage("recommend", time.Since(stage))
	if err != nil {
		r.recordOutcome(res.Algorithm, err)
		return nil, fmt.Errorf("recommend: %w", err)
	}

	res.Scored = make([]recommend.ScoredItem, len(scored))
	res.Recommendations = make([]string, len(scored))
	for i, s := range scored {
		name := models.DisplayName(s.Item)
		res.Scored[i] = recommend.ScoredItem{Item: name, Score: s.Score}
		res.Recommendations[i] = name
	}
	res.Duration = time.Since(t.start)

	metrics.RecordRun(res.Algorithm, "ok")
	logging.Ctx(ctx).Info().
		Str("run_id", t.runID).
		Str("algorithm", res.Algorithm).
		Int("recommendations", len(res.Recommendations)).
		Dur("duration", res.Duration).
		Msg("Recommendation run complete")
	return res, nil
}

// Similar returns the n repositories most similar to repo under a model
// trained with repo as the only preference.
func (r *Runner) Similar(ctx context.Context, req Request, repo string, n int) ([]recommend.ScoredItem, error) {
	req.Repos = []string{repo}
	t, err := r.train(ctx, req)
	if err != nil {
		return nil, err
	}
	if t.model == nil {
		return nil, models.ErrUnknownIdentifier
	}
	finder, ok := t.model.(recommend.SimilarFinder)
	if !ok {
		return nil, models.InputErrorf("algorithm %s does not support similar repositories", t.strategy.Name())
	}
	items, err := finder.SimilarItems(ctx, preferences.Normalize([]string{repo})[0], n)
	if err != nil {
		return nil, err
	}
	return displayNames(items), nil
}

// Explain attributes the score of item to the preferred repositories of req.
func (r *Runner) Explain(ctx context.Context, req Request, item string) (*recommend.Explanation, error) {
	target := preferences.Normalize([]string{item})
	if len(target) == 0 {
		return nil, models.InputErrorf("no repository to explain")
	}
	t, err := r.train(ctx, req)
	if err != nil {
		return nil, err
	}
	if t.model == nil {
		return nil, models.ErrUnknownIdentifier
	}
	explainer, ok := t.model.(recommend.Explainer)
	if !ok {
		return nil, models.InputErrorf("algorithm %s does not support explanations", t.strategy.Name())
	}
	exp, err := explainer.Explain(ctx, t.repos, target[0])
	if err != nil {
		return nil, err
	}
	exp.Item = models.DisplayName(exp.Item)
	exp.Contributions = displayNames(exp.Contributions)
	return exp, nil
}

// train runs every stage up to a fitted model. A nil model with a nil
// error means the rating table came out empty.
func (r *Runner) train(ctx context.Context, req Request) (*trained, error) {
	t := &trained{start: time.Now(), runID: logging.RunIDFromContext(ctx)}
	if t.runID == "" {
		t.runID = logging.GenerateRunID()
		ctx = logging.ContextWithRunID(ctx, t.runID)
	}
	log := logging.Ctx(ctx)

	t.repos = preferences.Normalize(req.Repos)
	if len(t.repos) == 0 {
		return nil, models.InputErrorf("you need to upload some preferences")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	strategy, err := recommend.NewStrategy(req.Algorithm, r.opts)
	if err != nil {
		return nil, err
	}
	t.strategy = strategy

	log.Info().
		Str("algorithm", strategy.Name()).
		Int("preferences", len(t.repos)).
		Time("start", req.Start).
		Time("end", req.End).
		Msg("Recommendation run started")

	t.table, err = r.build(ctx, req, t.repos)
	if err != nil {
		return nil, err
	}
	if t.table.Empty() {
		metrics.SparsityWarnings.Inc()
		log.Warn().
			Int("users", t.table.Stats.KeptUsers).
			Int("repos", t.table.Stats.KeptItems).
			Msg(t.table.Warning.Message())
		return t, nil
	}

	stage := time.Now()
	t.inputs, err = strategy.Prepare(t.table)
	metrics.RecordStage("prepare", time.Since(stage))
	if err != nil {
		return nil, fmt.Errorf("prepare: %w", err)
	}
	known := t.inputs.KnownSeeds(t.repos)
	if len(known) == 0 {
		return nil, models.ErrUnknownIdentifier
	}
	if len(known) < len(t.repos) {
		t.unknown = unknownSeeds(t.repos, known)
		log.Info().Strs("unknown", t.unknown).Msg("Preferred repositories missing from the rating table are ignored")
	}

	stage = time.Now()
	t.model, err = strategy.Train(ctx, t.inputs, req.TrainParams())
	metrics.RecordStage("train", time.Since(stage))
	if err != nil {
		return nil, fmt.Errorf("train %s: %w", strategy.Name(), err)
	}
	log.Info().
		Int("factors", req.Factors).
		Int("iterations", req.Iterations).
		Dur("duration", time.Since(stage)).
		Msg("Model trained")
	return t, nil
}

// build loads the events and builds the rating table. A table evicted
// between load and scan is reloaded once.
func (r *Runner) build(ctx context.Context, req Request, repos []string) (*ratings.Table, error) {
	prefs := preferences.Synthesize(repos, req.Start)

	var table *ratings.Table
	for attempt := 0; attempt < 2; attempt++ {
		stage := time.Now()
		src, err := r.loader.LoadEvents(ctx)
		metrics.RecordStage("load", time.Since(stage))
		if err != nil {
			return nil, err
		}

		stage = time.Now()
		table, err = ratings.Build(ctx, src, prefs, req.BuildParams())
		metrics.RecordStage("build", time.Since(stage))
		if errors.Is(err, events.ErrEvicted) && attempt == 0 {
			logging.Ctx(ctx).Debug().Msg("Event table evicted during build, reloading")
			continue
		}
		if err != nil {
			return nil, err
		}
		break
	}

	s := table.Stats
	metrics.RatingTableRows.Observe(float64(s.Rows))
	logging.Ctx(ctx).Info().
		Int("events", s.WindowEvents).
		Int("users", s.DistinctUsers).
		Int("repos", s.DistinctItems).
		Msg("After filtering date window")
	logging.Ctx(ctx).Info().
		Int("users", s.KeptUsers).
		Int("repos", s.KeptItems).
		Int("rows", s.Rows).
		Msg("Data input with limited repos")
	return table, nil
}

func (r *Runner) recordOutcome(algorithm string, err error) {
	if algorithm == "" {
		algorithm = "unknown"
	}
	metrics.RecordRun(algorithm, outcome(err))
}

func outcome(err error) string {
	switch {
	case errors.Is(err, models.ErrInput):
		return "input_error"
	case errors.Is(err, models.ErrTraining):
		return "training_error"
	default:
		return "error"
	}
}

func unknownSeeds(all, known []string) []string {
	isKnown := make(map[string]bool, len(known))
	for _, k := range known {
		isKnown[k] = true
	}
	var out []string
	for _, s := range all {
		if !isKnown[s] {
			out = append(out, s)
		}
	}
	return out
}

func displayNames(items []recommend.ScoredItem) []recommend.ScoredItem {
	out := make([]recommend.ScoredItem, len(items))
	for i, it := range items {
		out[i] = recommend.ScoredItem{Item: models.DisplayName(it.Item), Score: it.Score}
	}
	return out
}
