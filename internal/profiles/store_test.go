// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

package profiles

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/ghrecommend/internal/config"
	"github.com/tomtom215/ghrecommend/internal/pipeline"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("Failed to open badger: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db)
}

func TestCreateGet(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	factors := 60

	created, err := s.Create(ctx, []string{"github.com/a/b", " c/d ", "a/b"}, &pipeline.Params{Factors: &factors})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("Create returned an empty id")
	}

	got, err := s.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if want := []string{"a/b", "c/d"}; !reflect.DeepEqual(got.Repos, want) {
		t.Errorf("Repos = %v, want %v", got.Repos, want)
	}
	if got.Params == nil || got.Params.Factors == nil || *got.Params.Factors != 60 {
		t.Errorf("Params = %+v, want factors 60", got.Params)
	}
	if !got.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created.CreatedAt)
	}
}

func TestGetNotFound(t *testing.T) {
	s := setupStore(t)
	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get error = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	p, err := s.Create(ctx, []string{"a/b"}, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete error = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete error = %v, want ErrNotFound", err)
	}
}

func TestList(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	var ids []string
	for _, repo := range []string{"a/1", "a/2", "a/3"} {
		p, err := s.Create(ctx, []string{repo}, nil)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		ids = append(ids, p.ID)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != len(ids) {
		t.Fatalf("List returned %d profiles, want %d", len(list), len(ids))
	}
	seen := make(map[string]bool)
	for _, p := range list {
		seen[p.ID] = true
	}
	for _, id := range ids {
		if !seen[id] {
			t.Errorf("List is missing %s", id)
		}
	}
}

func TestOpenInMemory(t *testing.T) {
	s, err := Open(config.ProfilesConfig{Enabled: true, InMemory: true})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if _, err := s.Create(context.Background(), []string{"a/b"}, nil); err != nil {
		t.Errorf("Create: %v", err)
	}
}

func TestOpenDirectory(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(config.ProfilesConfig{Enabled: true, Path: dir})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	p, err := s.Create(context.Background(), []string{"a/b"}, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(config.ProfilesConfig{Enabled: true, Path: dir})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if _, err := reopened.Get(context.Background(), p.ID); err != nil {
		t.Errorf("Get after reopen: %v", err)
	}
}

func TestRunGC(t *testing.T) {
	t.Run("in-memory is a no-op", func(t *testing.T) {
		if err := setupStore(t).RunGC(); err != nil {
			t.Errorf("RunGC = %v, want nil", err)
		}
	})

	t.Run("nothing to rewrite", func(t *testing.T) {
		s, err := Open(config.ProfilesConfig{Enabled: true, Path: t.TempDir()})
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		defer s.Close()
		if _, err := s.Create(context.Background(), []string{"a/b"}, nil); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if err := s.RunGC(); err != nil {
			t.Errorf("RunGC = %v, want nil", err)
		}
	})
}
