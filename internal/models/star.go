// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

package models

import (
	"strings"
	"time"
)

// ClientUser is the synthetic user that carries an uploaded preference list
// through feature computation, filtering and training.
const ClientUser = "recom_client"

// RepoHostPrefix is prepended to repository identifiers for display.
const RepoHostPrefix = "github.com/"

// Event is one watch ("star") action of a user on a repository.
type Event struct {
	User      string    `json:"user"`
	Item      string    `json:"repo"`
	Timestamp time.Time `json:"timestamp"`
}

// ClientPreference is one repository from an uploaded preference list.
// Timestamp is the start of the analysed window so the row always falls
// inside it.
type ClientPreference struct {
	Item      string    `json:"repo"`
	Timestamp time.Time `json:"timestamp"`
}

// Event returns the preference as an event of ClientUser.
func (p ClientPreference) Event() Event {
	return Event{User: ClientUser, Item: p.Item, Timestamp: p.Timestamp}
}

// UserFeatures are per-user aggregates over the windowed events.
type UserFeatures struct {
	User string `json:"user"`

	// RepoCnt is the total number of events of the user.
	RepoCnt int `json:"repo_cnt"`

	// RepoUniqCnt is the number of distinct repositories the user starred.
	RepoUniqCnt int `json:"repo_uniq_cnt"`
}

// ItemFeatures are per-repository aggregates over the windowed events.
type ItemFeatures struct {
	Item string `json:"repo"`

	// EventCnt is the total number of events on the repository.
	EventCnt int `json:"event_cnt"`

	// UserUniqCnt is the number of distinct users that starred the repository.
	UserUniqCnt int `json:"user_uniq_cnt"`
}

// UniqueUserRatio returns UserUniqCnt / EventCnt, or 0 for an item without events.
func (f ItemFeatures) UniqueUserRatio() float64 {
	if f.EventCnt == 0 {
		return 0
	}
	return float64(f.UserUniqCnt) / float64(f.EventCnt)
}

// Rating is the number of events between one user and one repository.
type Rating struct {
	User   string `json:"user"`
	Item   string `json:"repo"`
	Rating int    `json:"rating"`
}

// DisplayName returns the repository identifier with the host prefix added.
// Identifiers that already carry it are returned unchanged.
func DisplayName(item string) string {
	if strings.HasPrefix(item, RepoHostPrefix) {
		return item
	}
	return RepoHostPrefix + item
}

// TrimHost strips the host prefix and surrounding whitespace from a
// repository identifier, so "github.com/owner/name" and "owner/name" match.
func TrimHost(item string) string {
	item = strings.TrimSpace(item)
	item = strings.TrimPrefix(item, "https://")
	return strings.TrimPrefix(item, RepoHostPrefix)
}

// Window is the half-open time interval [Start, End) analysed by one run.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether ts lies in [Start, End).
func (w Window) Contains(ts time.Time) bool {
	return !ts.Before(w.Start) && ts.Before(w.End)
}

// Validate returns an ErrInput when End is not after Start.
func (w Window) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return InputErrorf("time window bounds are required")
	}
	if !w.End.After(w.Start) {
		return InputErrorf("window end %s must be after start %s",
			w.End.Format(time.DateOnly), w.Start.Format(time.DateOnly))
	}
	return nil
}
