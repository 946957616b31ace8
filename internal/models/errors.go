// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

package models

import (
	"errors"
	"fmt"
)

// Error kinds shared by every stage of a recommendation run. Callers test
// them with errors.Is; concrete errors wrap them with context.
var (
	// ErrInput covers malformed or empty preference uploads, inverted time
	// windows and out-of-range parameters. Never retried.
	ErrInput = errors.New("invalid input")

	// ErrUnknownIdentifier is returned when none of the seed repositories
	// are part of the training vocabulary.
	ErrUnknownIdentifier = fmt.Errorf("%w: none of the preferred repositories are known", ErrInput)

	// ErrTraining is returned when a model cannot be fitted, for example on
	// an empty or all-zero interaction matrix. No partial results accompany it.
	ErrTraining = errors.New("training failed")

	// ErrSource is returned when the event source cannot be read.
	ErrSource = errors.New("event source unavailable")
)

// InputErrorf returns an error wrapping ErrInput with a formatted message.
func InputErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInput, fmt.Sprintf(format, args...))
}

// DataSparsityWarning reports that filtering left no users or no items.
// It is not an error: the run completes with an empty result.
type DataSparsityWarning struct {
	Users int `json:"users"`
	Items int `json:"items"`
}

// Message returns the user-facing text of the warning.
func (w DataSparsityWarning) Message() string {
	return fmt.Sprintf("filters left %d users and %d repositories; widen the time window or relax the thresholds", w.Users, w.Items)
}
