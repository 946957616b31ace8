// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

package pipeline

import (
	"context"
	"errors"
	"strings"

	"github.com/tomtom215/ghrecommend/internal/events"
	"github.com/tomtom215/ghrecommend/internal/models"
)

// UserMessage converts a run error into text for the person who asked for
// recommendations. It returns "" for a nil error.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, models.ErrUnknownIdentifier):
		return "None of your preferred repositories appear in the selected data. " +
			"Try a wider time window or relax the filters."
	case errors.Is(err, models.ErrInput):
		return capitalize(strings.TrimPrefix(err.Error(), models.ErrInput.Error()+": "))
	case errors.Is(err, models.ErrTraining):
		return "The model could not be trained on this data. Try different parameters."
	case events.IsRejected(err):
		return "The event warehouse is temporarily unavailable. Try again later."
	case errors.Is(err, models.ErrSource):
		return "The star event data could not be loaded."
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "The request was canceled before recommendations were ready."
	default:
		return "An unexpected error occurred."
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
