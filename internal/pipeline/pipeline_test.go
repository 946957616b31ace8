// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/ghrecommend/internal/config"
	"github.com/tomtom215/ghrecommend/internal/events"
	"github.com/tomtom215/ghrecommend/internal/models"
	"github.com/tomtom215/ghrecommend/internal/ratings"
	"github.com/tomtom215/ghrecommend/internal/recommend"
	"github.com/tomtom215/ghrecommend/internal/recommend/algorithms"
)

type sliceSource []models.Event

func (s sliceSource) ScanWindow(_ context.Context, w models.Window, fn func(models.Event) error) error {
	for _, ev := range s {
		if w.Contains(ev.Timestamp) {
			if err := fn(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// evictedOnce fails its first scan the way a dropped event table does.
type evictedOnce struct {
	sliceSource
	scans int
}

func (s *evictedOnce) ScanWindow(ctx context.Context, w models.Window, fn func(models.Event) error) error {
	s.scans++
	if s.scans == 1 {
		return events.ErrEvicted
	}
	return s.sliceSource.ScanWindow(ctx, w, fn)
}

type fakeLoader struct {
	src         ratings.EventSource
	err         error
	loads       int
	invalidated int
}

func (l *fakeLoader) LoadEvents(context.Context) (ratings.EventSource, error) {
	l.loads++
	return l.src, l.err
}

func (l *fakeLoader) Invalidate() bool {
	l.invalidated++
	return true
}

func day(d int) time.Time {
	return time.Date(2022, 6, d, 0, 0, 0, 0, time.UTC)
}

func scenarioEvents() sliceSource {
	return sliceSource{
		{User: "u1", Item: "o/repoA", Timestamp: day(1)},
		{User: "u1", Item: "o/repoB", Timestamp: day(1)},
		{User: "u2", Item: "o/repoA", Timestamp: day(2)},
		{User: "u2", Item: "o/repoB", Timestamp: day(2)},
		{User: "u3", Item: "o/repoA", Timestamp: day(3)},
	}
}

// clusterEvents has ten users starring alpha/1..4 and ten starring beta/1..4.
func clusterEvents() sliceSource {
	var out sliceSource
	for _, group := range []string{"alpha", "beta"} {
		for u := 0; u < 10; u++ {
			for i := 1; i <= 4; i++ {
				out = append(out, models.Event{
					User:      fmt.Sprintf("%s-user-%d", group, u),
					Item:      fmt.Sprintf("%s/%d", group, i),
					Timestamp: day(2),
				})
			}
		}
	}
	return out
}

func testRequest(repos ...string) Request {
	return Request{
		Repos:               repos,
		Algorithm:           algorithms.ALSName,
		Start:               day(1),
		End:                 day(4),
		MinItems:            1,
		MaxItems:            10,
		TopItems:            10,
		UniqueUserThreshold: 0.5,
		Factors:             8,
		Iterations:          20,
		TopN:                5,
		Seed:                42,
	}
}

func testOptions() recommend.Options {
	return recommend.Options{
		ALS: recommend.ALSOptions{Regularization: 0.01, Alpha: 1},
		FM:  recommend.FMOptions{UseFeatures: true},
	}
}

func TestRunScenario(t *testing.T) {
	loader := &fakeLoader{src: scenarioEvents()}
	runner := NewRunner(loader, testOptions())

	res, err := runner.Run(context.Background(), testRequest("github.com/o/repoB"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Recommendations) == 0 || res.Recommendations[0] != "github.com/o/repoA" {
		t.Errorf("Recommendations = %v, want github.com/o/repoA first", res.Recommendations)
	}
	for _, r := range res.Recommendations {
		if r == "github.com/o/repoB" {
			t.Errorf("Recommendations contain the seed %s", r)
		}
	}
	if res.Stats.KeptUsers != 4 {
		t.Errorf("KeptUsers = %d, want 4", res.Stats.KeptUsers)
	}
	if res.Stats.KeptItems != 2 {
		t.Errorf("KeptItems = %d, want 2", res.Stats.KeptItems)
	}
	if res.Warning != nil {
		t.Errorf("Warning = %v, want nil", res.Warning)
	}
	if res.RunID == "" {
		t.Error("RunID is empty")
	}
	if loader.loads != 1 {
		t.Errorf("loads = %d, want 1", loader.loads)
	}
}

func TestRunBothAlgorithms(t *testing.T) {
	for _, name := range []string{algorithms.ALSName, algorithms.FMName} {
		t.Run(name, func(t *testing.T) {
			runner := NewRunner(&fakeLoader{src: clusterEvents()}, testOptions())
			req := testRequest("alpha/1", "alpha/2")
			req.Algorithm = name
			req.TopN = 2

			res, err := runner.Run(context.Background(), req)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if len(res.Recommendations) != 2 {
				t.Fatalf("Recommendations = %v, want 2 items", res.Recommendations)
			}
			for _, r := range res.Recommendations {
				if !strings.HasPrefix(r, "github.com/alpha/") {
					t.Errorf("recommendation %s is outside the client's community", r)
				}
				if r == "github.com/alpha/1" || r == "github.com/alpha/2" {
					t.Errorf("recommendation %s is a seed", r)
				}
			}
			if res.Algorithm != name {
				t.Errorf("Algorithm = %s, want %s", res.Algorithm, name)
			}
		})
	}
}

func TestRunInputErrorsSkipSource(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Request)
	}{
		{"empty preferences", func(r *Request) { r.Repos = nil }},
		{"blank preferences", func(r *Request) { r.Repos = []string{" ", "https://github.com/"} }},
		{"inverted window", func(r *Request) { r.Start, r.End = r.End, r.Start }},
		{"bad user bounds", func(r *Request) { r.MinItems, r.MaxItems = 10, 1 }},
		{"zero factors", func(r *Request) { r.Factors = 0 }},
		{"zero top n", func(r *Request) { r.TopN = 0 }},
		{"unknown algorithm", func(r *Request) { r.Algorithm = "svd" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := &fakeLoader{src: scenarioEvents()}
			req := testRequest("o/repoB")
			tt.mutate(&req)

			_, err := NewRunner(loader, testOptions()).Run(context.Background(), req)
			if !errors.Is(err, models.ErrInput) {
				t.Errorf("Run error = %v, want ErrInput", err)
			}
			if loader.loads != 0 {
				t.Errorf("loads = %d, want 0", loader.loads)
			}
		})
	}
}

func TestRunTopItemsCap(t *testing.T) {
	runner := NewRunner(&fakeLoader{src: clusterEvents()}, testOptions())
	req := testRequest("alpha/1", "alpha/2")
	req.TopItems = 3

	res, err := runner.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.UnknownSeeds) != 0 {
		t.Errorf("UnknownSeeds = %v, want none", res.UnknownSeeds)
	}
	if res.Stats.KeptItems != 3 {
		t.Errorf("KeptItems = %d, want 3", res.Stats.KeptItems)
	}
	if len(res.Recommendations) != 1 {
		t.Errorf("Recommendations = %v, want the one non-seed item", res.Recommendations)
	}
}

func TestRunPartiallyKnownSeeds(t *testing.T) {
	runner := NewRunner(&fakeLoader{src: clusterEvents()}, testOptions())
	req := testRequest("alpha/1", "alpha/2")
	// Only one repository survives, so the second seed drops out.
	req.TopItems = 1

	res, err := runner.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.UnknownSeeds) != 1 || res.UnknownSeeds[0] != "alpha/2" {
		t.Errorf("UnknownSeeds = %v, want [alpha/2]", res.UnknownSeeds)
	}
	if len(res.Recommendations) != 0 {
		t.Errorf("Recommendations = %v, want none", res.Recommendations)
	}
}

func TestRunEmptyTableWarns(t *testing.T) {
	loader := &fakeLoader{src: scenarioEvents()}
	req := testRequest("o/repoB")
	req.TopItems = 0

	res, err := NewRunner(loader, testOptions()).Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Recommendations) != 0 {
		t.Errorf("Recommendations = %v, want none", res.Recommendations)
	}
	if res.Warning == nil {
		t.Fatal("Warning = nil, want a sparsity warning")
	}
}

func TestRunRetriesEvictedTable(t *testing.T) {
	src := &evictedOnce{sliceSource: scenarioEvents()}
	loader := &fakeLoader{src: src}

	res, err := NewRunner(loader, testOptions()).Run(context.Background(), testRequest("o/repoB"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if loader.loads != 2 {
		t.Errorf("loads = %d, want 2", loader.loads)
	}
	if len(res.Recommendations) == 0 {
		t.Error("Recommendations are empty after reload")
	}
}

func TestRunSourceError(t *testing.T) {
	loadErr := fmt.Errorf("%w: load file:x: boom", models.ErrSource)
	loader := &fakeLoader{err: loadErr}

	_, err := NewRunner(loader, testOptions()).Run(context.Background(), testRequest("o/repoB"))
	if !errors.Is(err, models.ErrSource) {
		t.Errorf("Run error = %v, want ErrSource", err)
	}
}

func TestSimilar(t *testing.T) {
	runner := NewRunner(&fakeLoader{src: clusterEvents()}, testOptions())
	req := testRequest()

	items, err := runner.Similar(context.Background(), req, "github.com/beta/1", 3)
	if err != nil {
		t.Fatalf("Similar: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("Similar returned %d items, want 3", len(items))
	}
	for _, it := range items {
		if !strings.HasPrefix(it.Item, "github.com/beta/") || it.Item == "github.com/beta/1" {
			t.Errorf("similar item %s, want another beta repository", it.Item)
		}
	}
}

func TestExplainUnsupported(t *testing.T) {
	runner := NewRunner(&fakeLoader{src: clusterEvents()}, testOptions())
	req := testRequest("alpha/1")
	req.Algorithm = algorithms.FMName

	if _, err := runner.Explain(context.Background(), req, "alpha/3"); !errors.Is(err, models.ErrInput) {
		t.Errorf("Explain error = %v, want ErrInput", err)
	}
}

func TestExplainRequiresItem(t *testing.T) {
	loader := &fakeLoader{src: clusterEvents()}
	if _, err := NewRunner(loader, testOptions()).Explain(context.Background(), testRequest("alpha/1"), " "); !errors.Is(err, models.ErrInput) {
		t.Errorf("Explain error = %v, want ErrInput", err)
	}
	if loader.loads != 0 {
		t.Errorf("loads = %d, want 0", loader.loads)
	}
}

func TestExplain(t *testing.T) {
	runner := NewRunner(&fakeLoader{src: clusterEvents()}, testOptions())
	req := testRequest("alpha/1", "alpha/2")

	exp, err := runner.Explain(context.Background(), req, "alpha/3")
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if exp.Item != "github.com/alpha/3" {
		t.Errorf("Item = %s, want github.com/alpha/3", exp.Item)
	}
	if len(exp.Contributions) != 2 {
		t.Fatalf("Contributions = %v, want 2", exp.Contributions)
	}
	var sum float64
	for _, c := range exp.Contributions {
		sum += c.Score
	}
	if diff := sum - exp.Score; diff > 1e-6 || diff < -1e-6 {
		t.Errorf("sum of contributions = %v, want %v", sum, exp.Score)
	}
}

func TestInvalidateEvents(t *testing.T) {
	loader := &fakeLoader{}
	if !NewRunner(loader, testOptions()).InvalidateEvents() {
		t.Error("InvalidateEvents() = false, want true")
	}
	if loader.invalidated != 1 {
		t.Errorf("invalidated = %d, want 1", loader.invalidated)
	}
}

func TestDefaultRequest(t *testing.T) {
	cfg := config.PipelineConfig{
		Algorithm:           algorithms.ALSName,
		Factors:             72,
		Iterations:          100,
		MinItems:            5,
		MaxItems:            50,
		TopItems:            250,
		UniqueUserThreshold: 0.9,
		Start:               "2022-06-01",
		End:                 "2022-06-08",
		TopN:                25,
		Seed:                42,
	}
	req, err := DefaultRequest(cfg)
	if err != nil {
		t.Fatalf("DefaultRequest: %v", err)
	}
	if !req.Start.Equal(day(1)) || !req.End.Equal(day(8)) {
		t.Errorf("window = [%v, %v), want [%v, %v)", req.Start, req.End, day(1), day(8))
	}
	if req.Factors != 72 || req.TopN != 25 || req.Seed != 42 {
		t.Errorf("DefaultRequest = %+v", req)
	}

	cfg.Start = "June"
	if _, err := DefaultRequest(cfg); err == nil {
		t.Error("DefaultRequest with a bad start date succeeded")
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"unknown", fmt.Errorf("run: %w", models.ErrUnknownIdentifier), "None of your preferred repositories"},
		{"input", models.InputErrorf("you need to upload some preferences"), "You need to upload some preferences"},
		{"training", fmt.Errorf("train: %w", models.ErrTraining), "could not be trained"},
		{"breaker", fmt.Errorf("%w: %w", models.ErrSource, gobreaker.ErrOpenState), "temporarily unavailable"},
		{"source", fmt.Errorf("%w: load: disk", models.ErrSource), "could not be loaded"},
		{"canceled", context.Canceled, "canceled"},
		{"other", errors.New("boom"), "unexpected"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UserMessage(tt.err)
			if !strings.Contains(got, tt.want) {
				t.Errorf("UserMessage(%v) = %q, want it to contain %q", tt.err, got, tt.want)
			}
		})
	}
}
