// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

package events

import (
	"context"

	"github.com/tomtom215/ghrecommend/internal/ratings"
)

// Binding ties a store to the source chosen at startup.
type Binding struct {
	store *Store
	src   Source
}

// Bind returns a binding of s to src.
func (s *Store) Bind(src Source) *Binding {
	return &Binding{store: s, src: src}
}

// Source returns the bound source.
func (b *Binding) Source() Source { return b.src }

// LoadEvents loads the bound source through the store cache.
func (b *Binding) LoadEvents(ctx context.Context) (ratings.EventSource, error) {
	return b.store.Load(ctx, b.src)
}

// Invalidate drops the memoized table of the bound source.
func (b *Binding) Invalidate() bool {
	return b.store.Invalidate(b.src)
}

var (
	_ ratings.EventSource     = (*Table)(nil)
	_ ratings.LifetimeStatter = (*Table)(nil)
)
