// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// DateLayout is the layout of window bounds in config and requests.
const DateLayout = "2006-01-02"

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSource(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateAlgorithms(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateProfiles(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateSource() error {
	switch c.Source.Kind {
	case SourceFile:
		if c.Source.Filename == "" {
			return fmt.Errorf("source.filename is required for the file source")
		}
	case SourceWarehouse:
		if c.Warehouse.ProjectID == "" {
			return fmt.Errorf("warehouse.project_id is required for the warehouse source")
		}
		if strings.ContainsAny(c.Warehouse.ProjectID, `/\`) || strings.Contains(c.Warehouse.ProjectID, "..") {
			return fmt.Errorf("warehouse.project_id must be a plain name, got %q", c.Warehouse.ProjectID)
		}
	default:
		return fmt.Errorf("source.kind must be %q or %q, got %q", SourceFile, SourceWarehouse, c.Source.Kind)
	}
	if c.Cache.Capacity <= 0 {
		return fmt.Errorf("cache.capacity must be positive, got %d", c.Cache.Capacity)
	}
	return nil
}

func (c *Config) validatePipeline() error {
	p := c.Pipeline
	switch p.Algorithm {
	case "implicit-als", "lightfm-warp":
	default:
		return fmt.Errorf("pipeline.algorithm must be implicit-als or lightfm-warp, got %q", p.Algorithm)
	}
	if p.Factors <= 0 {
		return fmt.Errorf("pipeline.factors must be positive, got %d", p.Factors)
	}
	if p.Iterations <= 0 {
		return fmt.Errorf("pipeline.iterations must be positive, got %d", p.Iterations)
	}
	if p.MinItems < 0 || p.MaxItems < p.MinItems {
		return fmt.Errorf("pipeline.min_items/max_items must satisfy 0 <= min <= max, got %d/%d", p.MinItems, p.MaxItems)
	}
	if p.TopItems < 0 {
		return fmt.Errorf("pipeline.top_items must be non-negative, got %d", p.TopItems)
	}
	if p.UniqueUserThreshold <= 0 || p.UniqueUserThreshold > 1 {
		return fmt.Errorf("pipeline.unique_user_threshold must be in (0, 1], got %g", p.UniqueUserThreshold)
	}
	if p.ThresholdBasis != "window" && p.ThresholdBasis != "lifetime" {
		return fmt.Errorf("pipeline.threshold_basis must be window or lifetime, got %q", p.ThresholdBasis)
	}
	if p.Ranking != "event_cnt" && p.Ranking != "user_uniq_cnt" {
		return fmt.Errorf("pipeline.ranking must be event_cnt or user_uniq_cnt, got %q", p.Ranking)
	}
	if p.TopN <= 0 {
		return fmt.Errorf("pipeline.top_n must be positive, got %d", p.TopN)
	}
	start, end, err := p.Window()
	if err != nil {
		return err
	}
	if !end.After(start) {
		return fmt.Errorf("pipeline.end (%s) must be after pipeline.start (%s)", p.End, p.Start)
	}
	return nil
}

func (c *Config) validateAlgorithms() error {
	if c.ALS.Regularization < 0 {
		return fmt.Errorf("als.regularization must be non-negative, got %g", c.ALS.Regularization)
	}
	if c.ALS.Alpha < 0 {
		return fmt.Errorf("als.alpha must be non-negative, got %g", c.ALS.Alpha)
	}
	if c.FM.Loss != "warp" && c.FM.Loss != "bpr" {
		return fmt.Errorf("fm.loss must be warp or bpr, got %q", c.FM.Loss)
	}
	if c.FM.LearningRate <= 0 {
		return fmt.Errorf("fm.learning_rate must be positive, got %g", c.FM.LearningRate)
	}
	if c.FM.MaxSampled <= 0 {
		return fmt.Errorf("fm.max_sampled must be positive, got %d", c.FM.MaxSampled)
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if !c.Security.RateLimitDisabled && c.Security.RateLimitReqs <= 0 {
		return fmt.Errorf("security.rate_limit_reqs must be positive when rate limiting is enabled")
	}
	return nil
}

func (c *Config) validateProfiles() error {
	if !c.Profiles.Enabled {
		return nil
	}
	if !c.Profiles.InMemory && c.Profiles.Path == "" {
		return fmt.Errorf("profiles.path is required unless profiles.in_memory is set")
	}
	if c.Profiles.GCInterval < 0 {
		return fmt.Errorf("profiles.gc_interval must not be negative, got %v", c.Profiles.GCInterval)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("logging.level %q is not a valid level", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// Window parses the default window bounds.
func (p PipelineConfig) Window() (start, end time.Time, err error) {
	if start, err = time.Parse(DateLayout, p.Start); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("pipeline.start %q: %w", p.Start, err)
	}
	if end, err = time.Parse(DateLayout, p.End); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("pipeline.end %q: %w", p.End, err)
	}
	return start, end, nil
}

// EventsFile returns the path of the semicolon-separated events file.
func (s SourceConfig) EventsFile() string {
	return filepath.Join(s.DataPath, s.Filename)
}

// DatabasePath returns the warehouse database file for the configured project.
func (w WarehouseConfig) DatabasePath() string {
	return filepath.Join(w.Root, w.ProjectID+".duckdb")
}
