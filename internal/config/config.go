// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

// Package config loads GHRecommend configuration from built-in defaults, an
// optional YAML file and environment variables, in that order of precedence
// (environment wins).
//
// The config file is found via CONFIG_PATH or DefaultConfigPaths. Environment
// variables are mapped explicitly (see envTransformFunc); unmapped variables
// are ignored.
package config

import (
	"time"
)

// Source kinds.
const (
	SourceFile      = "file"
	SourceWarehouse = "warehouse"
)

// Config is the complete application configuration.
type Config struct {
	Source    SourceConfig    `koanf:"source"`
	Warehouse WarehouseConfig `koanf:"warehouse"`
	Pipeline  PipelineConfig  `koanf:"pipeline"`
	ALS       ALSConfig       `koanf:"als"`
	FM        FMConfig        `koanf:"fm"`
	Cache     CacheConfig     `koanf:"cache"`
	Breaker   BreakerConfig   `koanf:"breaker"`
	Database  DatabaseConfig  `koanf:"database"`
	Profiles  ProfilesConfig  `koanf:"profiles"`
	Server    ServerConfig    `koanf:"server"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// SourceConfig selects where star events are read from. It is evaluated
// once at startup.
type SourceConfig struct {
	// Kind is "file" or "warehouse".
	// Default: file
	Kind string `koanf:"kind"`

	// DataPath is the directory holding the events file.
	// Default: data
	DataPath string `koanf:"data_path"`

	// Filename is the semicolon-separated events file (timestamp;user;repo).
	// Default: github_archive_2022q1q2.csv
	Filename string `koanf:"filename"`
}

// WarehouseConfig describes the DuckDB warehouse holding the GitHub archive.
// The query is fixed; only the project id varies.
type WarehouseConfig struct {
	// ProjectID names the warehouse database file <root>/<project_id>.duckdb.
	ProjectID string `koanf:"project_id"`

	// Root is the directory holding warehouse databases.
	// Default: data/warehouse
	Root string `koanf:"root"`
}

// PipelineConfig holds the default parameters of a recommendation run.
// Requests may override each of them within the request bounds.
type PipelineConfig struct {
	// Algorithm is "implicit-als" or "lightfm-warp".
	Algorithm string `koanf:"algorithm"`

	Factors    int `koanf:"factors"`
	Iterations int `koanf:"iterations"`

	MinItems            int     `koanf:"min_items"`
	MaxItems            int     `koanf:"max_items"`
	TopItems            int     `koanf:"top_items"`
	UniqueUserThreshold float64 `koanf:"unique_user_threshold"`

	// ThresholdBasis is "window" or "lifetime".
	ThresholdBasis string `koanf:"threshold_basis"`

	// Ranking is "event_cnt" or "user_uniq_cnt".
	Ranking string `koanf:"ranking"`

	// Start and End are the default window in YYYY-MM-DD form; End is exclusive.
	Start string `koanf:"start"`
	End   string `koanf:"end"`

	// TopN is the number of recommendations returned.
	// Default: 25
	TopN int `koanf:"top_n"`

	// Seed fixes model initialization and sampling. 0 derives a seed from
	// the clock, making runs non-deterministic.
	// Default: 42
	Seed int64 `koanf:"seed"`
}

// ALSConfig tunes the implicit alternating least squares strategy.
type ALSConfig struct {
	// Regularization is the L2 penalty. Default: 0.01
	Regularization float64 `koanf:"regularization"`

	// Alpha scales confidence: c = 1 + alpha * rating. Default: 1.0
	Alpha float64 `koanf:"alpha"`

	// Workers bounds parallel solves (0 = runtime.NumCPU()).
	Workers int `koanf:"workers"`
}

// FMConfig tunes the feature-augmented factorization machine.
type FMConfig struct {
	// Loss is "warp" or "bpr". Default: warp
	Loss string `koanf:"loss"`

	// LearningRate for SGD. Default: 0.05
	LearningRate float64 `koanf:"learning_rate"`

	// Regularization is the L2 penalty on embeddings. Default: 0.0001
	Regularization float64 `koanf:"regularization"`

	// MaxSampled bounds WARP negative sampling per positive. Default: 10
	MaxSampled int `koanf:"max_sampled"`

	// UseFeatures enables the UserFeatures / ItemFeatures side embeddings.
	// Default: true
	UseFeatures bool `koanf:"use_features"`
}

// CacheConfig sizes the loaded event table memoization cache.
type CacheConfig struct {
	// Capacity is the number of event tables kept. Default: 2
	Capacity int `koanf:"capacity"`

	// TTL expires cached tables; 0 keeps them until evicted or invalidated.
	TTL time.Duration `koanf:"ttl"`
}

// BreakerConfig configures the circuit breaker around warehouse loads.
type BreakerConfig struct {
	MaxRequests      uint32        `koanf:"max_requests"`
	Interval         time.Duration `koanf:"interval"`
	Timeout          time.Duration `koanf:"timeout"`
	FailureThreshold uint32        `koanf:"failure_threshold"`
}

// DatabaseConfig configures the DuckDB engine used to load and window events.
type DatabaseConfig struct {
	// Path of the working database; empty runs in memory.
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = runtime.NumCPU()
}

// ProfilesConfig configures the stored preference profiles.
type ProfilesConfig struct {
	Enabled bool `koanf:"enabled"`

	// Path is the badger directory. Ignored when InMemory is set.
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`

	// GCInterval is the period of value log garbage collection.
	GCInterval time.Duration `koanf:"gc_interval"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`

	// Timeout bounds a whole request, training included.
	Timeout time.Duration `koanf:"timeout"`
}

// SecurityConfig holds CORS and rate limiting settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig mirrors logging.Config for file and env loading.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
