// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

package api

import (
	"net/http"
	"strconv"

	"github.com/tomtom215/ghrecommend/internal/models"
	"github.com/tomtom215/ghrecommend/internal/pipeline"
	"github.com/tomtom215/ghrecommend/internal/ratings"
	"github.com/tomtom215/ghrecommend/internal/recommend"
	"github.com/tomtom215/ghrecommend/internal/validation"
)

// RecommendResponse is the payload of a recommendation run.
type RecommendResponse struct {
	RunID           string                 `json:"run_id"`
	Algorithm       string                 `json:"algorithm"`
	Recommendations []string               `json:"recommendations"`
	UnknownSeeds    []string               `json:"unknown_seeds,omitempty"`
	Warning         string                 `json:"warning,omitempty"`
	Stats           ratings.Stats          `json:"stats"`
	Scores          []recommend.ScoredItem `json:"scores,omitempty"`
	DurationMs      int64                  `json:"duration_ms"`
}

func newRecommendResponse(res *pipeline.Result, debug bool) *RecommendResponse {
	out := &RecommendResponse{
		RunID:           res.RunID,
		Algorithm:       res.Algorithm,
		Recommendations: res.Recommendations,
		UnknownSeeds:    res.UnknownSeeds,
		Stats:           res.Stats,
		DurationMs:      res.Duration.Milliseconds(),
	}
	if res.Warning != nil {
		out.Warning = res.Warning.Message()
	}
	if debug {
		out.Scores = res.Scored
	}
	return out
}

// Recommend handles POST /api/v1/recommendations.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	body, err := decodeRecommendRequest(w, r, true)
	if err != nil {
		respondError(w, r, err)
		return
	}
	req, err := body.Params.Apply(h.defaults)
	if err != nil {
		respondError(w, r, err)
		return
	}
	req.Repos = body.Repos

	res, err := h.runner.Run(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	WriteSuccess(w, r, newRecommendResponse(res, body.Debug))
}

// Explain handles POST /api/v1/explain.
func (h *Handler) Explain(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var body ExplainRequest
	if err := decodeJSON(r.Body, &body); err != nil {
		respondError(w, r, err)
		return
	}
	if verr := validation.ValidateStruct(&body); verr != nil {
		respondError(w, r, verr)
		return
	}
	req, err := body.Params.Apply(h.defaults)
	if err != nil {
		respondError(w, r, err)
		return
	}
	req.Repos = body.Repos

	exp, err := h.runner.Explain(r.Context(), req, body.Item)
	if err != nil {
		respondError(w, r, err)
		return
	}
	WriteSuccess(w, r, exp)
}

// Similar handles GET /api/v1/similar?repo=owner/name&n=10. Run parameters
// may be passed as further query parameters.
func (h *Handler) Similar(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	body := SimilarRequest{Repo: query.Get("repo"), N: 10}
	if v := query.Get("n"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, r, models.InputErrorf("n must be an integer, got %q", v))
			return
		}
		body.N = n
	}
	if verr := validation.ValidateStruct(&body); verr != nil {
		respondError(w, r, verr)
		return
	}

	params, err := paramsFromForm(query)
	if err != nil {
		respondError(w, r, err)
		return
	}
	req, err := params.Apply(h.defaults)
	if err != nil {
		respondError(w, r, err)
		return
	}

	items, err := h.runner.Similar(r.Context(), req, body.Repo, body.N)
	if err != nil {
		respondError(w, r, err)
		return
	}
	WriteSuccess(w, r, map[string]interface{}{
		"repo":    models.DisplayName(models.TrimHost(body.Repo)),
		"similar": items,
	})
}

// InvalidateEvents handles DELETE /api/v1/cache/events. With all=true every
// memoized table is dropped, otherwise only the configured source's.
func (h *Handler) InvalidateEvents(w http.ResponseWriter, r *http.Request) {
	all, _ := strconv.ParseBool(r.URL.Query().Get("all"))
	if all && h.events != nil {
		WriteSuccess(w, r, map[string]interface{}{"cleared": h.events.Clear()})
		return
	}
	WriteSuccess(w, r, map[string]interface{}{"invalidated": h.runner.InvalidateEvents()})
}
