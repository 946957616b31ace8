// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) profilesEnabled(w http.ResponseWriter, r *http.Request) bool {
	if h.profiles == nil {
		NewResponseWriter(w, r).NotFound("Profile storage is disabled")
		return false
	}
	return true
}

// CreateProfile handles POST /api/v1/profiles. The body has the same shape
// as a recommendation request; parameters are validated before storing.
func (h *Handler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	if !h.profilesEnabled(w, r) {
		return
	}
	body, err := decodeRecommendRequest(w, r, true)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if _, err := body.Params.Apply(h.defaults); err != nil {
		respondError(w, r, err)
		return
	}

	profile, err := h.profiles.Create(r.Context(), body.Repos, &body.Params)
	if err != nil {
		respondError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Created(profile)
}

// ListProfiles handles GET /api/v1/profiles.
func (h *Handler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	if !h.profilesEnabled(w, r) {
		return
	}
	list, err := h.profiles.List(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	WriteSuccess(w, r, list)
}

// GetProfile handles GET /api/v1/profiles/{id}.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	if !h.profilesEnabled(w, r) {
		return
	}
	profile, err := h.profiles.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	WriteSuccess(w, r, profile)
}

// DeleteProfile handles DELETE /api/v1/profiles/{id}.
func (h *Handler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	if !h.profilesEnabled(w, r) {
		return
	}
	if err := h.profiles.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	NewResponseWriter(w, r).NoContent()
}

// ProfileRecommend handles POST /api/v1/profiles/{id}/recommendations.
// Parameters in the optional JSON body override the stored ones; any
// repositories in the body are ignored.
func (h *Handler) ProfileRecommend(w http.ResponseWriter, r *http.Request) {
	if !h.profilesEnabled(w, r) {
		return
	}
	profile, err := h.profiles.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	body, err := decodeRecommendRequest(w, r, false)
	if err != nil {
		respondError(w, r, err)
		return
	}

	req := h.defaults
	if profile.Params != nil {
		if req, err = profile.Params.Apply(req); err != nil {
			respondError(w, r, err)
			return
		}
	}
	if req, err = body.Params.Apply(req); err != nil {
		respondError(w, r, err)
		return
	}
	req.Repos = profile.Repos

	res, err := h.runner.Run(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	WriteSuccess(w, r, newRecommendResponse(res, body.Debug))
}
