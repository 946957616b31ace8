// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

package recommend

import (
	"fmt"
	"math"
	"sort"

	"github.com/tomtom215/ghrecommend/internal/models"
	"github.com/tomtom215/ghrecommend/internal/ratings"
)

// BuildInputs encodes table. Strategies share it as their Prepare step.
func BuildInputs(table *ratings.Table) (*Inputs, error) {
	if table == nil {
		return nil, fmt.Errorf("%w: nil rating table", models.ErrTraining)
	}

	userNames := make([]string, 0, len(table.Users))
	for _, u := range table.Users {
		userNames = append(userNames, u.User)
	}
	itemNames := make([]string, 0, len(table.Items))
	for _, it := range table.Items {
		itemNames = append(itemNames, it.Item)
	}

	in := &Inputs{
		Users:      NewVocabulary(userNames),
		Items:      NewVocabulary(itemNames),
		ClientUser: -1,
	}
	if idx, ok := in.Users.Index(models.ClientUser); ok {
		in.ClientUser = idx
	}

	in.Interactions = make([]Interaction, 0, len(table.Rows))
	for _, row := range table.Rows {
		u, uok := in.Users.Index(row.User)
		i, iok := in.Items.Index(row.Item)
		if !uok || !iok {
			return nil, fmt.Errorf("row (%s, %s) references an identifier outside the table", row.User, row.Item)
		}
		in.Interactions = append(in.Interactions, Interaction{User: u, Item: i, Rating: row.Rating.Rating})
	}
	sort.Slice(in.Interactions, func(a, b int) bool {
		x, y := in.Interactions[a], in.Interactions[b]
		if x.User != y.User {
			return x.User < y.User
		}
		return x.Item < y.Item
	})

	in.UserFeatures = make([][]float64, in.Users.Len())
	for _, u := range table.Users {
		idx, _ := in.Users.Index(u.User)
		in.UserFeatures[idx] = []float64{float64(u.RepoCnt), float64(u.RepoUniqCnt)}
	}
	in.ItemFeatures = make([][]float64, in.Items.Len())
	for _, it := range table.Items {
		idx, _ := in.Items.Index(it.Item)
		in.ItemFeatures[idx] = []float64{float64(it.EventCnt), float64(it.UserUniqCnt)}
	}
	scaleColumns(in.UserFeatures)
	scaleColumns(in.ItemFeatures)

	return in, nil
}

// scaleColumns maps every column to log1p(x) / max(log1p(x)).
func scaleColumns(rows [][]float64) {
	if len(rows) == 0 {
		return
	}
	maxes := make([]float64, len(rows[0]))
	for _, r := range rows {
		for c, v := range r {
			r[c] = math.Log1p(v)
			if r[c] > maxes[c] {
				maxes[c] = r[c]
			}
		}
	}
	for _, r := range rows {
		for c := range r {
			if maxes[c] > 0 {
				r[c] /= maxes[c]
			}
		}
	}
}

// ResolveSeeds maps seed identifiers to item indices, dropping unknown and
// duplicate seeds. It fails with models.ErrUnknownIdentifier when no seed
// is known.
func (in *Inputs) ResolveSeeds(seeds []string) ([]int, error) {
	if len(seeds) == 0 {
		return nil, models.InputErrorf("no seed repositories were supplied")
	}
	out := make([]int, 0, len(seeds))
	seen := make(map[int]bool, len(seeds))
	for _, s := range seeds {
		idx, ok := in.Items.Index(s)
		if !ok || seen[idx] {
			continue
		}
		seen[idx] = true
		out = append(out, idx)
	}
	if len(out) == 0 {
		return nil, models.ErrUnknownIdentifier
	}
	return out, nil
}

// KnownSeeds returns the seeds present in the item vocabulary, in input order.
func (in *Inputs) KnownSeeds(seeds []string) []string {
	var known []string
	for _, s := range seeds {
		if _, ok := in.Items.Index(s); ok {
			known = append(known, s)
		}
	}
	return known
}

// Validate reports whether the inputs can be trained on.
func (in *Inputs) Validate() error {
	if in == nil || in.Users.Len() == 0 || in.Items.Len() == 0 || len(in.Interactions) == 0 {
		return fmt.Errorf("%w: empty interaction matrix", models.ErrTraining)
	}
	return nil
}

// Validate checks training parameters.
func (p TrainParams) Validate() error {
	if p.Factors <= 0 {
		return fmt.Errorf("%w: factors must be positive, got %d", models.ErrTraining, p.Factors)
	}
	if p.Iterations <= 0 {
		return fmt.Errorf("%w: iterations must be positive, got %d", models.ErrTraining, p.Iterations)
	}
	return nil
}
