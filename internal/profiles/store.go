// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

// Package profiles stores uploaded preference lists in BadgerDB so a client
// can upload once and request recommendations repeatedly under an id.
package profiles

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/ghrecommend/internal/config"
	"github.com/tomtom215/ghrecommend/internal/logging"
	"github.com/tomtom215/ghrecommend/internal/pipeline"
	"github.com/tomtom215/ghrecommend/internal/preferences"
)

const profileKeyPrefix = "profile:"

// ErrNotFound is returned for an unknown profile id.
var ErrNotFound = errors.New("profile not found")

// Profile is a stored preference list with optional run parameters.
type Profile struct {
	ID        string           `json:"id"`
	Repos     []string         `json:"repo"`
	Params    *pipeline.Params `json:"params,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// Store is a BadgerDB-backed profile store.
type Store struct {
	db *badger.DB
}

// Open opens the store described by cfg.
func Open(cfg config.ProfilesConfig) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil // Suppress BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for profiles: %w", err)
	}
	logging.Info().Str("path", cfg.Path).Bool("in_memory", cfg.InMemory).Msg("Profile store opened")
	return &Store{db: db}, nil
}

// NewStore wraps an open database.
func NewStore(db *badger.DB) *Store {
	return &Store{db: db}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Create stores repos under a new id. Repos are normalized first.
func (s *Store) Create(ctx context.Context, repos []string, params *pipeline.Params) (*Profile, error) {
	p := &Profile{
		ID:        uuid.New().String(),
		Repos:     preferences.Normalize(repos),
		Params:    params,
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal profile: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(profileKeyPrefix+p.ID), data)
	})
	if err != nil {
		return nil, fmt.Errorf("set profile: %w", err)
	}

	logging.Ctx(ctx).Debug().Str("profile_id", p.ID).Int("repos", len(p.Repos)).Msg("Profile created")
	return p, nil
}

// Get returns the profile with id, or ErrNotFound.
func (s *Store) Get(_ context.Context, id string) (*Profile, error) {
	var p Profile
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(profileKeyPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get profile: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &p)
		})
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete removes the profile with id. Deleting an unknown id returns
// ErrNotFound.
func (s *Store) Delete(ctx context.Context, id string) error {
	key := []byte(profileKeyPrefix + id)
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return txn.Delete(key)
	})
	if err != nil {
		return err
	}
	logging.Ctx(ctx).Debug().Str("profile_id", id).Msg("Profile deleted")
	return nil
}

// List returns every profile, oldest first.
func (s *Store) List(_ context.Context) ([]*Profile, error) {
	var out []*Profile
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(profileKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var p Profile
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &p)
			})
			if err != nil {
				return err
			}
			out = append(out, &p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// RunGC rewrites value log files until badger finds nothing left to reclaim.
// It is a no-op for in-memory stores.
func (s *Store) RunGC() error {
	if s.db.Opts().InMemory {
		return nil
	}
	for {
		err := s.db.RunValueLogGC(0.5)
		if errors.Is(err, badger.ErrNoRewrite) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("profile value log gc: %w", err)
		}
	}
}
