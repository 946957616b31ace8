// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

package ratings

import (
	"github.com/tomtom215/ghrecommend/internal/models"
)

// ThresholdBasis selects which event counts feed the unique-user ratio test.
type ThresholdBasis string

const (
	// BasisWindow compares counts computed over the analysed window.
	BasisWindow ThresholdBasis = "window"

	// BasisLifetime compares counts over the whole source, ignoring the window.
	// The source must implement LifetimeStatter.
	BasisLifetime ThresholdBasis = "lifetime"
)

// ItemRanking selects the column used to rank items before truncation.
type ItemRanking string

const (
	// RankByEvents ranks by total event count.
	RankByEvents ItemRanking = "event_cnt"

	// RankByUniqueUsers ranks by distinct user count.
	RankByUniqueUsers ItemRanking = "user_uniq_cnt"
)

// Params are the filtering parameters of one build.
type Params struct {
	Window models.Window

	// MinItems and MaxItems bound a user's distinct repository count, inclusive.
	MinItems int
	MaxItems int

	// TopItems caps the number of repositories kept after ranking.
	TopItems int

	// UniqueUserThreshold is in (0, 1]. An item is kept when
	// user_uniq_cnt > event_cnt * UniqueUserThreshold.
	UniqueUserThreshold float64

	// ThresholdBasis defaults to BasisWindow.
	ThresholdBasis ThresholdBasis

	// Ranking defaults to RankByEvents.
	Ranking ItemRanking
}

// Validate reports parameter errors as models.ErrInput.
func (p Params) Validate() error {
	if err := p.Window.Validate(); err != nil {
		return err
	}
	if p.MinItems < 0 {
		return models.InputErrorf("min_items must be non-negative, got %d", p.MinItems)
	}
	if p.MaxItems < p.MinItems {
		return models.InputErrorf("max_items (%d) must not be below min_items (%d)", p.MaxItems, p.MinItems)
	}
	if p.TopItems < 0 {
		return models.InputErrorf("top_items must be non-negative, got %d", p.TopItems)
	}
	if p.UniqueUserThreshold <= 0 || p.UniqueUserThreshold > 1 {
		return models.InputErrorf("unique_user_threshold must be in (0, 1], got %g", p.UniqueUserThreshold)
	}
	switch p.ThresholdBasis {
	case "", BasisWindow, BasisLifetime:
	default:
		return models.InputErrorf("unknown threshold basis %q", p.ThresholdBasis)
	}
	switch p.Ranking {
	case "", RankByEvents, RankByUniqueUsers:
	default:
		return models.InputErrorf("unknown item ranking %q", p.Ranking)
	}
	return nil
}

func (p Params) basis() ThresholdBasis {
	if p.ThresholdBasis == "" {
		return BasisWindow
	}
	return p.ThresholdBasis
}

func (p Params) ranking() ItemRanking {
	if p.Ranking == "" {
		return RankByEvents
	}
	return p.Ranking
}
