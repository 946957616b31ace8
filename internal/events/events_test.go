// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

package events

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/ghrecommend/internal/config"
	"github.com/tomtom215/ghrecommend/internal/database"
	"github.com/tomtom215/ghrecommend/internal/models"
)

const testCSV = `timestamp;user;repo
2022-06-01 10:00:00 UTC;alice;acme/rocket
2022-06-01 09:00:00 UTC;bob;acme/rocket
2022-06-02 12:00:00 UTC;alice;acme/widget
2022-05-31 23:59:59 UTC;carol;acme/rocket
2022-06-08 00:00:00 UTC;carol;acme/widget
not-a-date;dave;acme/rocket
2022-06-03 08:00:00 UTC;;acme/rocket
`

func day(d int) time.Time {
	return time.Date(2022, time.June, d, 0, 0, 0, 0, time.UTC)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(config.DatabaseConfig{MaxMemory: "256MB", Threads: 2})
	if err != nil {
		t.Fatalf("database.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestStore(t *testing.T, capacity int) *Store {
	t.Helper()
	return NewStore(newTestDB(t),
		config.CacheConfig{Capacity: capacity},
		config.BreakerConfig{MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute, FailureThreshold: 2})
}

func collect(t *testing.T, tbl *Table, w models.Window) []models.Event {
	t.Helper()
	var got []models.Event
	err := tbl.ScanWindow(context.Background(), w, func(ev models.Event) error {
		got = append(got, ev)
		return nil
	})
	if err != nil {
		t.Fatalf("ScanWindow: %v", err)
	}
	return got
}

func TestFileSourceScanWindow(t *testing.T) {
	store := newTestStore(t, 2)
	src := FileSource{Path: writeFile(t, "events.csv", testCSV)}

	tbl, err := store.Load(context.Background(), src)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// Malformed timestamp and empty user rows are dropped.
	if tbl.Count() != 5 {
		t.Errorf("Count() = %d, want 5", tbl.Count())
	}

	got := collect(t, tbl, models.Window{Start: day(1), End: day(8)})
	want := []models.Event{
		{User: "bob", Item: "acme/rocket", Timestamp: day(1).Add(9 * time.Hour)},
		{User: "alice", Item: "acme/rocket", Timestamp: day(1).Add(10 * time.Hour)},
		{User: "alice", Item: "acme/widget", Timestamp: day(2).Add(12 * time.Hour)},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i].User != want[i].User || got[i].Item != want[i].Item || !got[i].Timestamp.Equal(want[i].Timestamp) {
			t.Errorf("event[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestItemStats(t *testing.T) {
	store := newTestStore(t, 2)
	tbl, err := store.Load(context.Background(), FileSource{Path: writeFile(t, "events.csv", testCSV)})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	stats, err := tbl.ItemStats(context.Background())
	if err != nil {
		t.Fatalf("ItemStats: %v", err)
	}
	tests := []struct {
		item       string
		wantEvents int
		wantUsers  int
	}{
		{"acme/rocket", 3, 3},
		{"acme/widget", 2, 2},
	}
	for _, tt := range tests {
		got := stats[tt.item]
		if got.EventCnt != tt.wantEvents || got.UserUniqCnt != tt.wantUsers {
			t.Errorf("stats[%s] = %+v, want events=%d users=%d", tt.item, got, tt.wantEvents, tt.wantUsers)
		}
	}
}

func TestLoadMemoizes(t *testing.T) {
	store := newTestStore(t, 2)
	src := FileSource{Path: writeFile(t, "events.csv", testCSV)}

	first, err := store.Load(context.Background(), src)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	second, err := store.Load(context.Background(), src)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if first != second {
		t.Error("second Load returned a new table, want the memoized one")
	}
	if got := len(store.Cached()); got != 1 {
		t.Errorf("Cached() has %d keys, want 1", got)
	}
}

func TestConcurrentLoadsShareTable(t *testing.T) {
	store := newTestStore(t, 2)
	src := FileSource{Path: writeFile(t, "events.csv", testCSV)}

	const n = 8
	tables := make([]*Table, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tables[i], errs[i] = store.Load(context.Background(), src)
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("Load[%d]: %v", i, errs[i])
		}
		if tables[i] != tables[0] {
			t.Errorf("Load[%d] returned a different table", i)
		}
	}
}

func TestInvalidate(t *testing.T) {
	store := newTestStore(t, 2)
	src := FileSource{Path: writeFile(t, "events.csv", testCSV)}

	old, err := store.Load(context.Background(), src)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !store.Invalidate(src) {
		t.Fatal("Invalidate() = false, want true")
	}
	if store.Invalidate(src) {
		t.Error("second Invalidate() = true, want false")
	}

	err = old.ScanWindow(context.Background(), models.Window{Start: day(1), End: day(8)}, func(models.Event) error { return nil })
	if !errors.Is(err, ErrEvicted) {
		t.Errorf("ScanWindow on invalidated table error = %v, want ErrEvicted", err)
	}

	fresh, err := store.Load(context.Background(), src)
	if err != nil {
		t.Fatalf("Load after Invalidate: %v", err)
	}
	if fresh == old {
		t.Error("Load after Invalidate returned the dropped table")
	}
	if got := len(collect(t, fresh, models.Window{Start: day(1), End: day(8)})); got != 3 {
		t.Errorf("fresh table scanned %d events, want 3", got)
	}
}

func TestCapacityEviction(t *testing.T) {
	store := newTestStore(t, 1)
	first := FileSource{Path: writeFile(t, "a.csv", testCSV)}
	second := FileSource{Path: writeFile(t, "b.csv", testCSV)}

	a, err := store.Load(context.Background(), first)
	if err != nil {
		t.Fatalf("Load(a): %v", err)
	}
	if _, err := store.Load(context.Background(), second); err != nil {
		t.Fatalf("Load(b): %v", err)
	}

	_, err = a.ItemStats(context.Background())
	if !errors.Is(err, ErrEvicted) {
		t.Errorf("ItemStats on evicted table error = %v, want ErrEvicted", err)
	}
	keys := store.Cached()
	if len(keys) != 1 || keys[0] != KeyOf(second) {
		t.Errorf("Cached() = %v, want [%v]", keys, KeyOf(second))
	}
}

func TestClear(t *testing.T) {
	store := newTestStore(t, 2)
	for _, name := range []string{"a.csv", "b.csv"} {
		if _, err := store.Load(context.Background(), FileSource{Path: writeFile(t, name, testCSV)}); err != nil {
			t.Fatalf("Load(%s): %v", name, err)
		}
	}
	if got := store.Clear(); got != 2 {
		t.Errorf("Clear() = %d, want 2", got)
	}
	if got := len(store.Cached()); got != 0 {
		t.Errorf("Cached() after Clear has %d keys, want 0", got)
	}
}

func TestMissingFile(t *testing.T) {
	store := newTestStore(t, 2)
	_, err := store.Load(context.Background(), FileSource{Path: filepath.Join(t.TempDir(), "missing.csv")})
	if !errors.Is(err, models.ErrSource) {
		t.Errorf("Load error = %v, want ErrSource", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load error = %v, want os.ErrNotExist in chain", err)
	}
}

// createWarehouse writes an archive database for project into root.
func createWarehouse(t *testing.T, root, project string) {
	t.Helper()
	db, err := database.New(config.DatabaseConfig{Path: filepath.Join(root, project+".duckdb"), MaxMemory: "256MB", Threads: 1})
	if err != nil {
		t.Fatalf("create warehouse: %v", err)
	}
	defer db.Close()

	stmts := []string{
		`CREATE TABLE watch_events (type VARCHAR, actor_login VARCHAR, repo_name VARCHAR, created_at TIMESTAMP)`,
		`INSERT INTO watch_events VALUES
			('WatchEvent', 'alice', 'acme/rocket', TIMESTAMP '2022-06-01 10:00:00'),
			('WatchEvent', 'bob', 'acme/widget', TIMESTAMP '2022-06-02 11:00:00'),
			('ForkEvent', 'carol', 'acme/rocket', TIMESTAMP '2022-06-02 12:00:00'),
			('WatchEvent', NULL, 'acme/rocket', TIMESTAMP '2022-06-03 12:00:00')`,
	}
	for _, stmt := range stmts {
		if _, err := db.Conn().Exec(stmt); err != nil {
			t.Fatalf("warehouse setup: %v", err)
		}
	}
}

func TestWarehouseSource(t *testing.T) {
	root := t.TempDir()
	createWarehouse(t, root, "archive-2022")
	store := newTestStore(t, 2)

	tbl, err := store.Load(context.Background(), WarehouseSource{Root: root, ProjectID: "archive-2022"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tbl.Count() != 2 {
		t.Errorf("Count() = %d, want 2 (WatchEvents with an actor only)", tbl.Count())
	}
	got := collect(t, tbl, models.Window{Start: day(2), End: day(3)})
	if len(got) != 1 || got[0].User != "bob" || got[0].Item != "acme/widget" {
		t.Errorf("window events = %+v, want bob starring acme/widget", got)
	}
	if store.BreakerState() != "closed" {
		t.Errorf("BreakerState() = %q, want closed", store.BreakerState())
	}
}

func TestWarehouseBreakerOpens(t *testing.T) {
	store := newTestStore(t, 2)
	src := WarehouseSource{Root: t.TempDir(), ProjectID: "missing"}

	for i := 0; i < 2; i++ {
		_, err := store.Load(context.Background(), src)
		if err == nil || IsRejected(err) {
			t.Fatalf("Load[%d] error = %v, want a load failure", i, err)
		}
	}

	_, err := store.Load(context.Background(), src)
	if !IsRejected(err) {
		t.Errorf("Load after threshold error = %v, want rejection", err)
	}
	if !errors.Is(err, models.ErrSource) {
		t.Errorf("rejection error = %v, want ErrSource", err)
	}
	if store.BreakerState() != "open" {
		t.Errorf("BreakerState() = %q, want open", store.BreakerState())
	}
}

func TestSourceFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		source  config.SourceConfig
		wh      config.WarehouseConfig
		want    Source
		wantErr bool
	}{
		{
			name:   "file",
			source: config.SourceConfig{Kind: "file", DataPath: "data", Filename: "events.csv"},
			want:   FileSource{Path: filepath.Join("data", "events.csv")},
		},
		{
			name:   "warehouse",
			source: config.SourceConfig{Kind: "warehouse"},
			wh:     config.WarehouseConfig{Root: "wh", ProjectID: "proj"},
			want:   WarehouseSource{Root: "wh", ProjectID: "proj"},
		},
		{
			name: "project id implies warehouse",
			wh:   config.WarehouseConfig{Root: "wh", ProjectID: "proj"},
			want: WarehouseSource{Root: "wh", ProjectID: "proj"},
		},
		{
			name:    "warehouse without project",
			source:  config.SourceConfig{Kind: "warehouse"},
			wantErr: true,
		},
		{
			name:    "unknown kind",
			source:  config.SourceConfig{Kind: "bigtable"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SourceFromConfig(&config.Config{Source: tt.source, Warehouse: tt.wh})
			if (err != nil) != tt.wantErr {
				t.Fatalf("SourceFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("SourceFromConfig() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestCacheKey(t *testing.T) {
	a := KeyOf(FileSource{Path: "data/./events.csv"})
	b := KeyOf(FileSource{Path: "data/events.csv"})
	if a != b {
		t.Errorf("KeyOf differs for equivalent paths: %v vs %v", a, b)
	}
	if a == KeyOf(WarehouseSource{ProjectID: "data/events.csv"}) {
		t.Error("file and warehouse keys collide")
	}
}
