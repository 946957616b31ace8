// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

package recommend

import (
	"fmt"
	"sort"
	"sync"

	"github.com/tomtom215/ghrecommend/internal/config"
	"github.com/tomtom215/ghrecommend/internal/models"
)

// ALSOptions tune the implicit ALS strategy.
type ALSOptions struct {
	Regularization float64
	Alpha          float64
	// Workers bounds parallel solves. 0 uses GOMAXPROCS.
	Workers int
}

// FMOptions tune the factorization machine strategy.
type FMOptions struct {
	// Loss is "warp" or "bpr".
	Loss           string
	LearningRate   float64
	Regularization float64
	// MaxSampled caps negative samples per positive for WARP.
	MaxSampled  int
	UseFeatures bool
}

// Options are the static strategy options read from configuration.
type Options struct {
	ALS ALSOptions
	FM  FMOptions
}

// OptionsFromConfig maps the algorithm sections of the configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ALS: ALSOptions{
			Regularization: cfg.ALS.Regularization,
			Alpha:          cfg.ALS.Alpha,
			Workers:        cfg.ALS.Workers,
		},
		FM: FMOptions{
			Loss:           cfg.FM.Loss,
			LearningRate:   cfg.FM.LearningRate,
			Regularization: cfg.FM.Regularization,
			MaxSampled:     cfg.FM.MaxSampled,
			UseFeatures:    cfg.FM.UseFeatures,
		},
	}
}

// Factory creates a strategy from options.
type Factory func(opts Options) (Strategy, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a strategy available by name. It panics on duplicate
// names or a nil factory.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if factory == nil {
		panic("recommend: Register factory is nil")
	}
	if _, dup := registry[name]; dup {
		panic("recommend: Register called twice for strategy " + name)
	}
	registry[name] = factory
}

// NewStrategy returns the strategy registered as name. An unknown name
// fails with models.ErrInput.
func NewStrategy(name string, opts Options) (Strategy, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, models.InputErrorf("unknown algorithm %q (available: %v)", name, Strategies())
	}
	s, err := factory(opts)
	if err != nil {
		return nil, fmt.Errorf("create strategy %s: %w", name, err)
	}
	return s, nil
}

// Strategies returns the registered strategy names, sorted.
func Strategies() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
