// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

// Package ratings turns windowed star events plus a client preference list
// into the (user, repository, rating) table used for training.
//
// Build runs the following steps:
//
//  1. Scan events with timestamp in [start, end) from the source.
//  2. Append the client preference rows.
//  3. Compute UserFeatures and ItemFeatures.
//  4. Keep items with user_uniq_cnt > event_cnt * threshold, or listed by
//     the client; rank them and keep the top N.
//  5. Keep users whose distinct repository count lies in [min, max], and
//     always the client.
//  6. Count events per (user, repository).
//  7. Join ratings with the surviving items and users.
//
// Group order is first-seen order over the scanned events, and all sorts
// are stable, so identical inputs give identical tables.
package ratings

import (
	"context"
	"fmt"
	"sort"

	"github.com/tomtom215/ghrecommend/internal/models"
)

// EventSource streams events in a time window. Implementations must push
// the window filter down and deliver events in a deterministic order.
type EventSource interface {
	ScanWindow(ctx context.Context, w models.Window, fn func(models.Event) error) error
}

// LifetimeStatter is implemented by sources that can report per-item
// counts over all of their events.
type LifetimeStatter interface {
	ItemStats(ctx context.Context) (map[string]models.ItemFeatures, error)
}

type pairKey struct {
	user, item int
}

// accumulator holds grouped counts in first-seen order.
type accumulator struct {
	userIdx map[string]int
	itemIdx map[string]int
	users   []models.UserFeatures
	items   []models.ItemFeatures

	pairs     map[pairKey]int
	pairOrder []pairKey

	skipped int
}

func newAccumulator() *accumulator {
	return &accumulator{
		userIdx: make(map[string]int),
		itemIdx: make(map[string]int),
		pairs:   make(map[pairKey]int),
	}
}

func (a *accumulator) add(ev models.Event) {
	if ev.User == "" || ev.Item == "" {
		a.skipped++
		return
	}

	u, ok := a.userIdx[ev.User]
	if !ok {
		u = len(a.users)
		a.userIdx[ev.User] = u
		a.users = append(a.users, models.UserFeatures{User: ev.User})
	}
	i, ok := a.itemIdx[ev.Item]
	if !ok {
		i = len(a.items)
		a.itemIdx[ev.Item] = i
		a.items = append(a.items, models.ItemFeatures{Item: ev.Item})
	}

	a.users[u].RepoCnt++
	a.items[i].EventCnt++

	key := pairKey{user: u, item: i}
	if a.pairs[key] == 0 {
		a.pairOrder = append(a.pairOrder, key)
		a.users[u].RepoUniqCnt++
		a.items[i].UserUniqCnt++
	}
	a.pairs[key]++
}

// Build computes the rating table for prefs over the events of src.
//
// An empty prefs list or invalid params fail with models.ErrInput before src
// is read. When filtering leaves nothing, Build returns an empty table with
// a DataSparsityWarning rather than an error.
func Build(ctx context.Context, src EventSource, prefs []models.ClientPreference, params Params) (*Table, error) {
	if len(prefs) == 0 {
		return nil, models.InputErrorf("no preferred repositories were supplied")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	acc := newAccumulator()
	var outside int
	err := src.ScanWindow(ctx, params.Window, func(ev models.Event) error {
		if !params.Window.Contains(ev.Timestamp) {
			outside++
			return nil
		}
		acc.add(ev)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan events: %w", err)
	}
	stats := Stats{
		WindowEvents: countEvents(acc),
		Skipped:      acc.skipped + outside,
	}

	clientItems := make(map[string]struct{}, len(prefs))
	for _, p := range prefs {
		clientItems[p.Item] = struct{}{}
		acc.add(p.Event())
	}
	stats.ClientRows = len(prefs)
	stats.DistinctUsers = len(acc.users)
	stats.DistinctItems = len(acc.items)

	var lifetime map[string]models.ItemFeatures
	if params.basis() == BasisLifetime {
		ls, ok := src.(LifetimeStatter)
		if !ok {
			return nil, models.InputErrorf("event source cannot provide lifetime item statistics")
		}
		if lifetime, err = ls.ItemStats(ctx); err != nil {
			return nil, fmt.Errorf("lifetime item stats: %w", err)
		}
	}

	keptItems := selectItems(acc.items, clientItems, lifetime, params)
	keptUsers := selectUsers(acc.users, params)

	table := assemble(acc, keptItems, keptUsers)
	stats.KeptUsers = len(keptUsers)
	stats.KeptItems = len(keptItems)
	stats.Rows = len(table.Rows)
	table.Stats = stats

	if len(table.Rows) == 0 {
		table.Warning = &models.DataSparsityWarning{Users: len(table.Users), Items: len(table.Items)}
	}
	return table, nil
}

func countEvents(acc *accumulator) int {
	n := 0
	for _, u := range acc.users {
		n += u.RepoCnt
	}
	return n
}

// selectItems applies the quality rule and the top-N cap. Client items pass
// the quality rule unconditionally and are placed ahead of other items when
// the cap is applied, so a preference list shorter than the cap is never cut.
// The result keeps ranking order.
func selectItems(items []models.ItemFeatures, client map[string]struct{}, lifetime map[string]models.ItemFeatures, params Params) map[string]int {
	candidates := make([]models.ItemFeatures, 0, len(items))
	for _, it := range items {
		basis := it
		if lf, ok := lifetime[it.Item]; ok {
			basis = lf
		}
		_, isClient := client[it.Item]
		if isClient || float64(basis.UserUniqCnt) > float64(basis.EventCnt)*params.UniqueUserThreshold {
			candidates = append(candidates, it)
		}
	}

	rankBy := params.ranking()
	sort.SliceStable(candidates, func(a, b int) bool {
		if rankBy == RankByUniqueUsers {
			return candidates[a].UserUniqCnt > candidates[b].UserUniqCnt
		}
		return candidates[a].EventCnt > candidates[b].EventCnt
	})

	chosen := make(map[string]bool, params.TopItems)
	budget := params.TopItems
	for _, it := range candidates {
		if budget == 0 {
			break
		}
		if _, ok := client[it.Item]; ok {
			chosen[it.Item] = true
			budget--
		}
	}
	for _, it := range candidates {
		if budget == 0 {
			break
		}
		if !chosen[it.Item] {
			chosen[it.Item] = true
			budget--
		}
	}

	kept := make(map[string]int, len(chosen))
	for _, it := range candidates {
		if chosen[it.Item] {
			kept[it.Item] = len(kept)
		}
	}
	return kept
}

func selectUsers(users []models.UserFeatures, params Params) map[string]bool {
	kept := make(map[string]bool, len(users))
	for _, u := range users {
		if u.User == models.ClientUser ||
			(u.RepoUniqCnt >= params.MinItems && u.RepoUniqCnt <= params.MaxItems) {
			kept[u.User] = true
		}
	}
	return kept
}

// assemble performs the inner join of ratings with kept users and items.
func assemble(acc *accumulator, keptItems map[string]int, keptUsers map[string]bool) *Table {
	t := &Table{}
	seenUser := make(map[int]bool)
	seenItem := make(map[int]bool)

	for _, key := range acc.pairOrder {
		uf := acc.users[key.user]
		itf := acc.items[key.item]
		if !keptUsers[uf.User] {
			continue
		}
		if _, ok := keptItems[itf.Item]; !ok {
			continue
		}

		t.Rows = append(t.Rows, Row{
			Rating:       models.Rating{User: uf.User, Item: itf.Item, Rating: acc.pairs[key]},
			UserFeatures: uf,
			ItemFeatures: itf,
		})
		if !seenUser[key.user] {
			seenUser[key.user] = true
			t.Users = append(t.Users, uf)
		}
		if !seenItem[key.item] {
			seenItem[key.item] = true
			t.Items = append(t.Items, itf)
		}
	}

	sort.SliceStable(t.Items, func(a, b int) bool {
		return keptItems[t.Items[a].Item] < keptItems[t.Items[b].Item]
	})
	return t
}
