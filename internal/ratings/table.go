// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

package ratings

import (
	"github.com/tomtom215/ghrecommend/internal/models"
)

// Row is one rating joined with the features of its user and repository.
type Row struct {
	models.Rating
	UserFeatures models.UserFeatures `json:"user_features"`
	ItemFeatures models.ItemFeatures `json:"item_features"`
}

// Stats are counts collected while building a table, for logging and metrics.
type Stats struct {
	WindowEvents  int `json:"window_events"`
	ClientRows    int `json:"client_rows"`
	Skipped       int `json:"skipped"`
	DistinctUsers int `json:"distinct_users"`
	DistinctItems int `json:"distinct_items"`
	KeptUsers     int `json:"kept_users"`
	KeptItems     int `json:"kept_items"`
	Rows          int `json:"rows"`
}

// Table is the training table of one run.
//
// Rows are in first-seen (user, repository) order. Users are in first-seen
// order; Items follow the ranking used for truncation.
type Table struct {
	Rows  []Row
	Users []models.UserFeatures
	Items []models.ItemFeatures
	Stats Stats

	// Warning is set when the table is empty.
	Warning *models.DataSparsityWarning
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool {
	return t == nil || len(t.Rows) == 0
}

// UserNames returns the distinct users of the table.
func (t *Table) UserNames() []string {
	names := make([]string, len(t.Users))
	for i, u := range t.Users {
		names[i] = u.User
	}
	return names
}

// ItemNames returns the distinct repositories of the table.
func (t *Table) ItemNames() []string {
	names := make([]string, len(t.Items))
	for i, it := range t.Items {
		names[i] = it.Item
	}
	return names
}

// HasUser reports whether user occurs in any row.
func (t *Table) HasUser(user string) bool {
	for _, u := range t.Users {
		if u.User == user {
			return true
		}
	}
	return false
}

// HasItem reports whether item occurs in any row.
func (t *Table) HasItem(item string) bool {
	for _, it := range t.Items {
		if it.Item == item {
			return true
		}
	}
	return false
}
