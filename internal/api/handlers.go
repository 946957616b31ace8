// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

package api

import (
	"context"
	"time"

	"github.com/tomtom215/ghrecommend/internal/events"
	"github.com/tomtom215/ghrecommend/internal/pipeline"
	"github.com/tomtom215/ghrecommend/internal/profiles"
)

// Pinger reports database reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// EventCache is the memoized event table store.
type EventCache interface {
	Cached() []events.CacheKey
	Clear() int
	BreakerState() string
}

// Dependencies are the collaborators of a Handler. Profiles may be nil
// when profile storage is disabled.
type Dependencies struct {
	Runner   *pipeline.Runner
	Defaults pipeline.Request
	Profiles *profiles.Store
	DB       Pinger
	Events   EventCache
}

// Handler serves the recommendation API.
type Handler struct {
	runner    *pipeline.Runner
	defaults  pipeline.Request
	profiles  *profiles.Store
	db        Pinger
	events    EventCache
	startTime time.Time
}

// NewHandler creates a handler.
func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		runner:    deps.Runner,
		defaults:  deps.Defaults,
		profiles:  deps.Profiles,
		db:        deps.DB,
		events:    deps.Events,
		startTime: time.Now(),
	}
}
