// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

package pipeline

import (
	"time"

	"github.com/tomtom215/ghrecommend/internal/config"
	"github.com/tomtom215/ghrecommend/internal/models"
	"github.com/tomtom215/ghrecommend/internal/ratings"
	"github.com/tomtom215/ghrecommend/internal/recommend"
)

// Request is one recommendation run.
type Request struct {
	// Repos are the client's preferred repositories, "owner/name" or with
	// the github.com/ prefix.
	Repos []string `json:"repo"`

	Algorithm string `json:"algorithm"`

	Start time.Time `json:"start"`
	End   time.Time `json:"end"`

	MinItems            int                    `json:"min_items"`
	MaxItems            int                    `json:"max_items"`
	TopItems            int                    `json:"top_items"`
	UniqueUserThreshold float64                `json:"unique_user_threshold"`
	ThresholdBasis      ratings.ThresholdBasis `json:"threshold_basis,omitempty"`
	Ranking             ratings.ItemRanking    `json:"ranking,omitempty"`

	Factors    int   `json:"factors"`
	Iterations int   `json:"iterations"`
	TopN       int   `json:"top_n"`
	Seed       int64 `json:"seed"`
}

// DefaultRequest returns a request carrying the configured pipeline
// defaults and no repositories.
func DefaultRequest(cfg config.PipelineConfig) (Request, error) {
	start, end, err := cfg.Window()
	if err != nil {
		return Request{}, err
	}
	return Request{
		Algorithm:           cfg.Algorithm,
		Start:               start,
		End:                 end,
		MinItems:            cfg.MinItems,
		MaxItems:            cfg.MaxItems,
		TopItems:            cfg.TopItems,
		UniqueUserThreshold: cfg.UniqueUserThreshold,
		ThresholdBasis:      ratings.ThresholdBasis(cfg.ThresholdBasis),
		Ranking:             ratings.ItemRanking(cfg.Ranking),
		Factors:             cfg.Factors,
		Iterations:          cfg.Iterations,
		TopN:                cfg.TopN,
		Seed:                cfg.Seed,
	}, nil
}

// Window returns [Start, End).
func (r Request) Window() models.Window {
	return models.Window{Start: r.Start, End: r.End}
}

// BuildParams returns the rating table parameters of the request.
func (r Request) BuildParams() ratings.Params {
	return ratings.Params{
		Window:              r.Window(),
		MinItems:            r.MinItems,
		MaxItems:            r.MaxItems,
		TopItems:            r.TopItems,
		UniqueUserThreshold: r.UniqueUserThreshold,
		ThresholdBasis:      r.ThresholdBasis,
		Ranking:             r.Ranking,
	}
}

// TrainParams returns the model training parameters of the request.
func (r Request) TrainParams() recommend.TrainParams {
	return recommend.TrainParams{Factors: r.Factors, Iterations: r.Iterations, Seed: r.Seed}
}

// Validate checks every parameter. It fails with models.ErrInput.
func (r Request) Validate() error {
	if err := r.BuildParams().Validate(); err != nil {
		return err
	}
	if r.Factors <= 0 {
		return models.InputErrorf("factors must be positive, got %d", r.Factors)
	}
	if r.Iterations <= 0 {
		return models.InputErrorf("iterations must be positive, got %d", r.Iterations)
	}
	if r.TopN <= 0 {
		return models.InputErrorf("top_n must be positive, got %d", r.TopN)
	}
	return nil
}
