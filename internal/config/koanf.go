// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/ghrecommend/config.yaml",
	"/etc/ghrecommend/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Kind:     SourceFile,
			DataPath: "data",
			Filename: "github_archive_2022q1q2.csv",
		},
		Warehouse: WarehouseConfig{
			ProjectID: "",
			Root:      "data/warehouse",
		},
		Pipeline: PipelineConfig{
			Algorithm:           "implicit-als",
			Factors:             72,
			Iterations:          100,
			MinItems:            5,
			MaxItems:            50,
			TopItems:            250,
			UniqueUserThreshold: 0.90,
			ThresholdBasis:      "window",
			Ranking:             "event_cnt",
			Start:               "2022-06-01",
			End:                 "2022-06-08",
			TopN:                25,
			Seed:                42,
		},
		ALS: ALSConfig{
			Regularization: 0.01,
			Alpha:          1.0,
			Workers:        0,
		},
		FM: FMConfig{
			Loss:           "warp",
			LearningRate:   0.05,
			Regularization: 0.0001,
			MaxSampled:     10,
			UseFeatures:    true,
		},
		Cache: CacheConfig{
			Capacity: 2,
			TTL:      0,
		},
		Breaker: BreakerConfig{
			MaxRequests:      3,
			Interval:         time.Minute,
			Timeout:          2 * time.Minute,
			FailureThreshold: 3,
		},
		Database: DatabaseConfig{
			Path:      "",
			MaxMemory: "2GB",
			Threads:   0,
		},
		Profiles: ProfilesConfig{
			Enabled:    true,
			Path:       "data/profiles",
			InMemory:   false,
			GCInterval: 10 * time.Minute,
		},
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8501,
			Timeout: 5 * time.Minute,
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     30,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load reads configuration from defaults, the first config file found and
// the environment.
func Load() (*Config, error) {
	return LoadWithKoanf(findConfigFile())
}

// LoadWithKoanf layers defaults, the YAML file at configPath (skipped when
// empty) and environment variables, then validates the result.
func LoadWithKoanf(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are split on commas when they arrive as strings from env.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to config paths.
var envMappings = map[string]string{
	// Event source
	"source_kind":     "source.kind",
	"data_path":       "source.data_path",
	"events_filename": "source.filename",
	"project_id":      "warehouse.project_id",
	"warehouse_root":  "warehouse.root",

	// Warehouse circuit breaker
	"breaker_failure_threshold": "breaker.failure_threshold",
	"breaker_timeout":           "breaker.timeout",

	// Pipeline defaults
	"recommend_algorithm":             "pipeline.algorithm",
	"recommend_factors":               "pipeline.factors",
	"recommend_iterations":            "pipeline.iterations",
	"recommend_min_items":             "pipeline.min_items",
	"recommend_max_items":             "pipeline.max_items",
	"recommend_top_items":             "pipeline.top_items",
	"recommend_unique_user_threshold": "pipeline.unique_user_threshold",
	"recommend_threshold_basis":       "pipeline.threshold_basis",
	"recommend_ranking":               "pipeline.ranking",
	"recommend_start":                 "pipeline.start",
	"recommend_end":                   "pipeline.end",
	"recommend_top_n":                 "pipeline.top_n",
	"recommend_seed":                  "pipeline.seed",

	// Algorithms
	"als_regularization": "als.regularization",
	"als_alpha":          "als.alpha",
	"als_workers":        "als.workers",
	"fm_loss":            "fm.loss",
	"fm_learning_rate":   "fm.learning_rate",
	"fm_regularization":  "fm.regularization",
	"fm_max_sampled":     "fm.max_sampled",
	"fm_use_features":    "fm.use_features",

	// Cache
	"event_cache_capacity": "cache.capacity",
	"event_cache_ttl":      "cache.ttl",

	// Database
	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",

	// Profiles
	"profiles_enabled":     "profiles.enabled",
	"profiles_path":        "profiles.path",
	"profiles_in_memory":   "profiles.in_memory",
	"profiles_gc_interval": "profiles.gc_interval",

	// Server
	"http_host":    "server.host",
	"http_port":    "server.port",
	"http_timeout": "server.timeout",

	// Security
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable name to a config path, or
// returns "" so unrelated variables never reach the config.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
