// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

/*
Package middleware provides HTTP middleware shared by the API router.

  - RequestID: UUID request ids in the X-Request-ID header, the request
    context and the logging context
  - PrometheusMetrics: request counts and latencies labelled by chi route
    pattern, so path parameters such as profile ids do not create new series

Both are func(http.Handler) http.Handler and plug into chi's r.Use:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Route("/api/v1", func(r chi.Router) {
	    r.Use(middleware.PrometheusMetrics)
	    r.Post("/recommendations", h.Recommend)
	})
*/
package middleware
