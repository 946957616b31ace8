// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

package events

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tomtom215/ghrecommend/internal/config"
	"github.com/tomtom215/ghrecommend/internal/database"
)

// Format identifies how a source is read. Together with Source.Key it forms
// the memoization key of a loaded table.
type Format string

const (
	FormatCSV       Format = "csv"
	FormatWarehouse Format = "warehouse"
)

// Source is where star events come from: a FileSource or a WarehouseSource.
// The set of implementations is closed.
type Source interface {
	// Key identifies the underlying data (file path or project id).
	Key() string
	Format() Format
	// Kind is the config and metrics label of the source.
	Kind() string

	// materializeSQL returns the statement that selects (ts, actor, repo)
	// rows from the source. attachAlias is the catalog name of an attached
	// warehouse and is ignored by file sources.
	materializeSQL(attachAlias string) string
	sealed()
}

// CacheKey is the memoization key of a loaded event table.
type CacheKey struct {
	Key    string
	Format Format
}

// KeyOf returns the memoization key of src.
func KeyOf(src Source) CacheKey {
	return CacheKey{Key: src.Key(), Format: src.Format()}
}

func (k CacheKey) String() string {
	return string(k.Format) + ":" + k.Key
}

// FileSource reads a semicolon-separated events file with a
// "timestamp;user;repo" header.
type FileSource struct {
	Path string
}

func (s FileSource) Key() string    { return filepath.Clean(s.Path) }
func (s FileSource) Format() Format { return FormatCSV }
func (s FileSource) Kind() string   { return config.SourceFile }
func (FileSource) sealed()          {}

// Timestamps in the archive export carry a literal " UTC" suffix.
func (s FileSource) materializeSQL(string) string {
	return fmt.Sprintf(`SELECT ts, actor, repo FROM (
	SELECT TRY_CAST(replace("timestamp", ' UTC', '') AS TIMESTAMP) AS ts,
	       trim("user") AS actor,
	       trim(repo) AS repo
	FROM read_csv(%s, delim = ';', header = true,
	              columns = {'timestamp': 'VARCHAR', 'user': 'VARCHAR', 'repo': 'VARCHAR'})
) WHERE ts IS NOT NULL AND actor <> '' AND repo <> ''`, database.QuoteLiteral(s.Key()))
}

// WarehouseSource reads WatchEvents from a project's archive database at
// <Root>/<ProjectID>.duckdb. The database is attached read-only.
type WarehouseSource struct {
	Root      string
	ProjectID string
}

func (s WarehouseSource) Key() string    { return s.ProjectID }
func (s WarehouseSource) Format() Format { return FormatWarehouse }
func (s WarehouseSource) Kind() string   { return config.SourceWarehouse }
func (WarehouseSource) sealed()          {}

// DatabasePath returns the archive database file of the project.
func (s WarehouseSource) DatabasePath() string {
	return filepath.Join(s.Root, s.ProjectID+".duckdb")
}

func (s WarehouseSource) materializeSQL(attachAlias string) string {
	return fmt.Sprintf(`SELECT CAST(created_at AS TIMESTAMP) AS ts,
	       actor_login AS actor,
	       repo_name AS repo
FROM %s.watch_events
WHERE type = 'WatchEvent'
  AND created_at IS NOT NULL
  AND coalesce(actor_login, '') <> ''
  AND coalesce(repo_name, '') <> ''`, database.QuoteIdent(attachAlias))
}

// SourceFromConfig selects the event source once at startup. A configured
// warehouse project id takes precedence over the file source, matching
// source.kind "warehouse".
func SourceFromConfig(cfg *config.Config) (Source, error) {
	kind := strings.ToLower(cfg.Source.Kind)
	if kind == "" && cfg.Warehouse.ProjectID != "" {
		kind = config.SourceWarehouse
	}
	switch kind {
	case config.SourceWarehouse:
		if cfg.Warehouse.ProjectID == "" {
			return nil, fmt.Errorf("source.kind is warehouse but warehouse.project_id is empty")
		}
		return WarehouseSource{Root: cfg.Warehouse.Root, ProjectID: cfg.Warehouse.ProjectID}, nil
	case config.SourceFile, "":
		return FileSource{Path: cfg.Source.EventsFile()}, nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
	}
}
