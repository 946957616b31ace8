// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/ghrecommend/internal/events"
	"github.com/tomtom215/ghrecommend/internal/logging"
	"github.com/tomtom215/ghrecommend/internal/models"
	"github.com/tomtom215/ghrecommend/internal/pipeline"
	"github.com/tomtom215/ghrecommend/internal/profiles"
	"github.com/tomtom215/ghrecommend/internal/validation"
)

// classify maps an error to an HTTP status and error code.
func classify(err error) (int, string) {
	var verr *validation.RequestValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, ErrCodeValidationFailed
	case errors.Is(err, profiles.ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	case errors.Is(err, models.ErrInput):
		return http.StatusBadRequest, ErrCodeBadRequest
	case errors.Is(err, models.ErrTraining):
		return http.StatusUnprocessableEntity, ErrCodeTrainingFailed
	case events.IsRejected(err):
		return http.StatusServiceUnavailable, ErrCodeServiceUnavailable
	case errors.Is(err, models.ErrSource):
		return http.StatusBadGateway, ErrCodeSourceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrCodeTimeout
	default:
		return http.StatusInternalServerError, ErrCodeInternalError
	}
}

// respondError writes err using the pipeline's user-facing message.
// Server-side failures are logged with the full error.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	rw := NewResponseWriter(w, r)

	var verr *validation.RequestValidationError
	if errors.As(err, &verr) {
		apiErr := verr.ToAPIError()
		rw.ErrorWithDetails(status, code, apiErr.Message, apiErr.Details)
		return
	}

	message := pipeline.UserMessage(err)
	if errors.Is(err, profiles.ErrNotFound) {
		message = "Profile not found"
	}
	if status >= http.StatusInternalServerError {
		logging.Ctx(r.Context()).Error().Err(err).Int("status", status).Msg("Request failed")
	} else {
		logging.Ctx(r.Context()).Debug().Err(err).Int("status", status).Msg("Request rejected")
	}
	rw.Error(status, code, message)
}
