// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

// Package models holds the shared data types: star events, client
// preferences, the feature rows of the rating table, the time window, and
// the error taxonomy every layer classifies against.
package models
