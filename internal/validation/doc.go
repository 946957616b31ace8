// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is built once and shared; it caches struct
// metadata, so concurrent use is safe and cheap after the first call.
// Field names in errors come from the json tag, so messages refer to the
// names a client actually sent ("min_items", not "MinItems").
//
// # Custom Tags
//
//   - repo: a repository identifier, "owner/name" with an optional
//     "github.com/" or "https://github.com/" prefix
//   - date: a calendar date in YYYY-MM-DD form
//
// # Usage
//
//	type SimilarRequest struct {
//	    Repo string `json:"repo" validate:"required,repo"`
//	    N    int    `json:"n" validate:"gte=1,lte=100"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
//	    return
//	}
//
// A *RequestValidationError unwraps to models.ErrInput, so callers that only
// classify errors can use errors.Is.
package validation
