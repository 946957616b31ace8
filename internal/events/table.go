// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/ghrecommend/internal/database"
	"github.com/tomtom215/ghrecommend/internal/models"
)

// ErrEvicted is returned by a Table whose backing data was dropped from
// the cache. Load the source again to get a fresh handle.
var ErrEvicted = errors.New("event table was evicted")

// Table is a lazy handle to events materialized in DuckDB. Queries push
// the window filter down; nothing is read into memory until scanned.
//
// Table implements ratings.EventSource and ratings.LifetimeStatter.
type Table struct {
	db       *database.DB
	name     string
	source   Source
	rows     int64
	loadedAt time.Time

	// mu is held shared by scans and exclusively by drop, so a table is
	// never dropped mid-scan.
	mu      sync.RWMutex
	dropped bool
}

// Source returns the source the table was loaded from.
func (t *Table) Source() Source { return t.source }

// Count returns the number of materialized events.
func (t *Table) Count() int64 { return t.rows }

// LoadedAt returns when the table was materialized.
func (t *Table) LoadedAt() time.Time { return t.loadedAt }

// ScanWindow streams the events with timestamp in [w.Start, w.End) ordered
// by (timestamp, user, repo), so callers see a deterministic order.
func (t *Table) ScanWindow(ctx context.Context, w models.Window, fn func(models.Event) error) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.dropped {
		return ErrEvicted
	}

	// #nosec G201 -- table name is generated internally and quoted
	query := fmt.Sprintf(`SELECT ts, actor, repo FROM %s
WHERE ts >= ? AND ts < ?
ORDER BY ts, actor, repo`, database.QuoteIdent(t.name))

	rows, err := t.db.Conn().QueryContext(ctx, query, w.Start.UTC(), w.End.UTC())
	if err != nil {
		return fmt.Errorf("query window of %s: %w", t.name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var ev models.Event
		if err := rows.Scan(&ev.Timestamp, &ev.User, &ev.Item); err != nil {
			return fmt.Errorf("scan event: %w", err)
		}
		ev.Timestamp = ev.Timestamp.UTC()
		if err := fn(ev); err != nil {
			return err
		}
	}
	return rows.Err()
}

// ItemStats returns per-repository event and distinct-user counts over all
// events of the table.
func (t *Table) ItemStats(ctx context.Context) (map[string]models.ItemFeatures, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.dropped {
		return nil, ErrEvicted
	}

	// #nosec G201 -- table name is generated internally and quoted
	query := fmt.Sprintf(`SELECT repo, count(*), count(DISTINCT actor) FROM %s GROUP BY repo`,
		database.QuoteIdent(t.name))

	rows, err := t.db.Conn().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query item stats of %s: %w", t.name, err)
	}
	defer rows.Close()

	stats := make(map[string]models.ItemFeatures)
	for rows.Next() {
		var f models.ItemFeatures
		if err := rows.Scan(&f.Item, &f.EventCnt, &f.UserUniqCnt); err != nil {
			return nil, fmt.Errorf("scan item stats: %w", err)
		}
		stats[f.Item] = f
	}
	return stats, rows.Err()
}

// drop removes the backing table. It waits for running scans.
func (t *Table) drop(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.dropped {
		return nil
	}
	t.dropped = true
	_, err := t.db.Conn().ExecContext(ctx, "DROP TABLE IF EXISTS "+database.QuoteIdent(t.name))
	return err
}
