// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

// Package events loads star events from a file or warehouse source into
// DuckDB and memoizes the loaded tables.
//
// A load materializes every event of the source once into an internal
// table with columns (ts, actor, repo). Later loads of the same source and
// format return the cached handle until it is invalidated or evicted.
// Concurrent loads of one source share a single materialization.
package events

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/ghrecommend/internal/cache"
	"github.com/tomtom215/ghrecommend/internal/config"
	"github.com/tomtom215/ghrecommend/internal/database"
	"github.com/tomtom215/ghrecommend/internal/logging"
	"github.com/tomtom215/ghrecommend/internal/metrics"
	"github.com/tomtom215/ghrecommend/internal/models"
)

// warehouseAlias is the catalog name archive databases are attached under.
const warehouseAlias = "githubarchive"

// Store loads and memoizes event tables.
type Store struct {
	db      *database.DB
	tables  *cache.LRU[CacheKey, *Table]
	breaker *Breaker
	group   singleflight.Group
	seq     atomic.Uint64

	// attachMu serializes warehouse loads, which share one catalog alias.
	attachMu sync.Mutex
}

// NewStore creates a store over db. Tables evicted from the cache are
// dropped from the database.
func NewStore(db *database.DB, cacheCfg config.CacheConfig, breakerCfg config.BreakerConfig) *Store {
	s := &Store{
		db:      db,
		breaker: NewBreaker("warehouse", breakerCfg),
	}
	s.tables = cache.NewLRU[CacheKey, *Table](cacheCfg.Capacity, cacheCfg.TTL, s.onEvict)
	return s
}

func (s *Store) onEvict(key CacheKey, t *Table) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := t.drop(ctx); err != nil {
		logging.Warn().Err(err).Str("key", key.String()).Msg("Failed to drop evicted event table")
		return
	}
	metrics.EventCacheEntries.Set(float64(s.tables.Len()))
	logging.Debug().Str("key", key.String()).Str("table", t.name).Msg("Event table dropped")
}

// Load returns the event table of src, materializing it on a cache miss.
// Failures wrap models.ErrSource.
func (s *Store) Load(ctx context.Context, src Source) (*Table, error) {
	key := KeyOf(src)
	if t, ok := s.tables.Get(key); ok {
		metrics.EventCacheHits.Inc()
		return t, nil
	}
	metrics.EventCacheMisses.Inc()

	v, err, shared := s.group.Do(key.String(), func() (any, error) {
		if t, ok := s.tables.Get(key); ok {
			return t, nil
		}
		t, err := s.load(ctx, src)
		if err != nil {
			return nil, err
		}
		s.tables.Add(key, t)
		metrics.EventCacheEntries.Set(float64(s.tables.Len()))
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logging.Ctx(ctx).Debug().Str("key", key.String()).Msg("Joined in-flight event load")
	}
	return v.(*Table), nil
}

// Invalidate drops the memoized table of src. It reports whether one was cached.
func (s *Store) Invalidate(src Source) bool {
	removed := s.tables.Remove(KeyOf(src))
	metrics.EventCacheEntries.Set(float64(s.tables.Len()))
	return removed
}

// Clear drops every memoized table and returns how many were dropped.
func (s *Store) Clear() int {
	n := s.tables.Clear()
	metrics.EventCacheEntries.Set(0)
	return n
}

// Cached returns the keys of memoized tables, most recently used first.
func (s *Store) Cached() []CacheKey {
	return s.tables.Keys()
}

// BreakerState returns the warehouse circuit breaker state.
func (s *Store) BreakerState() string {
	return s.breaker.State()
}

func (s *Store) load(ctx context.Context, src Source) (*Table, error) {
	start := time.Now()
	var (
		t   *Table
		err error
	)
	switch src := src.(type) {
	case FileSource:
		t, err = s.loadFile(ctx, src)
	case WarehouseSource:
		t, err = s.breaker.Execute(func() (*Table, error) {
			return s.loadWarehouse(ctx, src)
		})
	default:
		err = fmt.Errorf("unsupported source %T", src)
	}

	var rows int64
	if t != nil {
		rows = t.rows
	}
	metrics.RecordEventLoad(src.Kind(), time.Since(start), rows, err)
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %w", models.ErrSource, KeyOf(src), err)
	}

	logging.Ctx(ctx).Info().
		Str("source", src.Kind()).
		Str("key", src.Key()).
		Int64("events", rows).
		Dur("duration", time.Since(start)).
		Msg("Event table loaded")
	return t, nil
}

func (s *Store) loadFile(ctx context.Context, src FileSource) (*Table, error) {
	if _, err := os.Stat(src.Key()); err != nil {
		return nil, fmt.Errorf("events file: %w", err)
	}
	conn, err := s.db.Conn().Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	return s.materialize(ctx, conn, src, src.materializeSQL(""))
}

func (s *Store) loadWarehouse(ctx context.Context, src WarehouseSource) (*Table, error) {
	path := src.DatabasePath()
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("warehouse database: %w", err)
	}

	s.attachMu.Lock()
	defer s.attachMu.Unlock()

	conn, err := s.db.Conn().Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	attach := fmt.Sprintf("ATTACH %s AS %s (READ_ONLY)",
		database.QuoteLiteral(path), database.QuoteIdent(warehouseAlias))
	if _, err := conn.ExecContext(ctx, attach); err != nil {
		return nil, fmt.Errorf("attach %s: %w", path, err)
	}
	defer func() {
		if _, err := conn.ExecContext(context.Background(), "DETACH "+database.QuoteIdent(warehouseAlias)); err != nil {
			logging.Warn().Err(err).Str("path", path).Msg("Failed to detach warehouse database")
		}
	}()

	return s.materialize(ctx, conn, src, src.materializeSQL(warehouseAlias))
}

// materialize creates the internal table from selectSQL and counts its rows.
func (s *Store) materialize(ctx context.Context, conn *sql.Conn, src Source, selectSQL string) (*Table, error) {
	name := fmt.Sprintf("events_%s_%d", src.Format(), s.seq.Add(1))

	create := fmt.Sprintf("CREATE TABLE %s AS %s", database.QuoteIdent(name), selectSQL)
	if _, err := conn.ExecContext(ctx, create); err != nil {
		return nil, fmt.Errorf("materialize events: %w", err)
	}

	var rows int64
	if err := conn.QueryRowContext(ctx, "SELECT count(*) FROM "+database.QuoteIdent(name)).Scan(&rows); err != nil {
		if _, dropErr := conn.ExecContext(ctx, "DROP TABLE IF EXISTS "+database.QuoteIdent(name)); dropErr != nil {
			err = errors.Join(err, dropErr)
		}
		return nil, fmt.Errorf("count events: %w", err)
	}

	return &Table{
		db:       s.db,
		name:     name,
		source:   src,
		rows:     rows,
		loadedAt: time.Now(),
	}, nil
}
