// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

// Package api serves recommendations over HTTP using the Chi router.
//
// Every endpoint answers with the APIResponse envelope. Errors map to
// statuses by kind: input errors are 400, training failures 422, an open
// warehouse breaker 503 and other source failures 502.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/ghrecommend/internal/middleware"
)

// Router wires handlers and middleware into a chi router.
type Router struct {
	handler *Handler
	mw      *ChiMiddleware
	timeout time.Duration
}

// NewRouter creates a router. A positive timeout bounds every API request,
// training included.
func NewRouter(handler *Handler, mw *ChiMiddleware, timeout time.Duration) *Router {
	return &Router{handler: handler, mw: mw, timeout: timeout}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.mw.CORS()) // CORS must be global to handle OPTIONS preflight

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.mw.RateLimit())
		r.Use(middleware.PrometheusMetrics)
		r.Use(chimiddleware.Compress(5, "application/json"))
		if router.timeout > 0 {
			r.Use(chimiddleware.Timeout(router.timeout))
		}

		r.Post("/recommendations", router.handler.Recommend)
		r.Post("/explain", router.handler.Explain)
		r.Get("/similar", router.handler.Similar)
		r.Delete("/cache/events", router.handler.InvalidateEvents)

		r.Route("/profiles", func(r chi.Router) {
			r.Post("/", router.handler.CreateProfile)
			r.Get("/", router.handler.ListProfiles)
			r.Get("/{id}", router.handler.GetProfile)
			r.Delete("/{id}", router.handler.DeleteProfile)
			r.Post("/{id}/recommendations", router.handler.ProfileRecommend)
		})
	})

	return r
}
