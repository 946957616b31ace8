// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

package pipeline

import (
	"time"

	"github.com/tomtom215/ghrecommend/internal/config"
	"github.com/tomtom215/ghrecommend/internal/ratings"
	"github.com/tomtom215/ghrecommend/internal/validation"
)

// Params are the user-adjustable run parameters. Nil fields keep the
// configured default. The bounds are the ranges offered to users.
type Params struct {
	Algorithm *string `json:"algorithm,omitempty" validate:"omitempty,oneof=implicit-als lightfm-warp"`

	Start *string `json:"start,omitempty" validate:"omitempty,date"`
	End   *string `json:"end,omitempty" validate:"omitempty,date"`

	MinItems            *int     `json:"min_items,omitempty" validate:"omitempty,gte=1,lte=20"`
	MaxItems            *int     `json:"max_items,omitempty" validate:"omitempty,gte=5,lte=100"`
	TopItems            *int     `json:"top_items,omitempty" validate:"omitempty,gte=0,lte=10000"`
	UniqueUserThreshold *float64 `json:"unique_user_threshold,omitempty" validate:"omitempty,gte=0.2,lte=1"`
	ThresholdBasis      *string  `json:"threshold_basis,omitempty" validate:"omitempty,oneof=window lifetime"`
	Ranking             *string  `json:"ranking,omitempty" validate:"omitempty,oneof=event_cnt user_uniq_cnt"`

	Factors    *int   `json:"factors,omitempty" validate:"omitempty,oneof=48 60 72 84"`
	Iterations *int   `json:"iterations,omitempty" validate:"omitempty,gte=1,lte=2500"`
	TopN       *int   `json:"top_n,omitempty" validate:"omitempty,gte=1,lte=100"`
	Seed       *int64 `json:"seed,omitempty"`
}

// Apply validates p and returns base with every set field of p applied.
func (p Params) Apply(base Request) (Request, error) {
	if verr := validation.ValidateStruct(&p); verr != nil {
		return base, verr
	}

	req := base
	if p.Algorithm != nil {
		req.Algorithm = *p.Algorithm
	}
	if p.Start != nil {
		req.Start = mustDate(*p.Start)
	}
	if p.End != nil {
		req.End = mustDate(*p.End)
	}
	if p.MinItems != nil {
		req.MinItems = *p.MinItems
	}
	if p.MaxItems != nil {
		req.MaxItems = *p.MaxItems
	}
	if p.TopItems != nil {
		req.TopItems = *p.TopItems
	}
	if p.UniqueUserThreshold != nil {
		req.UniqueUserThreshold = *p.UniqueUserThreshold
	}
	if p.ThresholdBasis != nil {
		req.ThresholdBasis = ratings.ThresholdBasis(*p.ThresholdBasis)
	}
	if p.Ranking != nil {
		req.Ranking = ratings.ItemRanking(*p.Ranking)
	}
	if p.Factors != nil {
		req.Factors = *p.Factors
	}
	if p.Iterations != nil {
		req.Iterations = *p.Iterations
	}
	if p.TopN != nil {
		req.TopN = *p.TopN
	}
	if p.Seed != nil {
		req.Seed = *p.Seed
	}
	return req, nil
}

// mustDate parses a date already accepted by the "date" validation tag.
func mustDate(s string) time.Time {
	t, _ := time.Parse(config.DateLayout, s)
	return t
}
