// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

package api

import (
	"net/http"
	"time"
)

// HealthLive handles liveness probe requests.
// Returns 200 OK if the process is alive, regardless of dependencies
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles readiness probe requests. The service is ready when
// DuckDB answers and the warehouse breaker is not open.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	dbConnected := h.db != nil && h.db.Ping(r.Context()) == nil

	breaker := "closed"
	cached := 0
	if h.events != nil {
		breaker = h.events.BreakerState()
		cached = len(h.events.Cached())
	}
	ready := dbConnected && breaker != "open"

	data := map[string]interface{}{
		"ready":              ready,
		"database_connected": dbConnected,
		"warehouse_breaker":  breaker,
		"cached_tables":      cached,
	}
	if !ready {
		NewResponseWriter(w, r).ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Service is not ready", data)
		return
	}
	WriteSuccess(w, r, data)
}
