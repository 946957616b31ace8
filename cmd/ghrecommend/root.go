// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tomtom215/ghrecommend/internal/config"
	"github.com/tomtom215/ghrecommend/internal/database"
	"github.com/tomtom215/ghrecommend/internal/events"
	"github.com/tomtom215/ghrecommend/internal/logging"
	"github.com/tomtom215/ghrecommend/internal/models"
	"github.com/tomtom215/ghrecommend/internal/pipeline"
	"github.com/tomtom215/ghrecommend/internal/preferences"
	"github.com/tomtom215/ghrecommend/internal/recommend"
	_ "github.com/tomtom215/ghrecommend/internal/recommend/algorithms" // registers implicit-als and lightfm-warp
)

// runnerOpener builds a runner for cfg. The returned func releases it.
type runnerOpener func(cfg *config.Config) (*pipeline.Runner, func(), error)

// openRunner wires the same event store the server uses.
func openRunner(cfg *config.Config) (*pipeline.Runner, func(), error) {
	src, err := events.SourceFromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	db, err := database.New(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	store := events.NewStore(db, cfg.Cache, cfg.Breaker)
	runner := pipeline.NewRunner(store.Bind(src), recommend.OptionsFromConfig(cfg))
	release := func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}
	return runner, release, nil
}

// cli holds the state shared by all subcommands.
type cli struct {
	open       runnerOpener
	configPath string
	logLevel   string
}

func newRootCommand(open runnerOpener) *cobra.Command {
	c := &cli{open: open}

	root := &cobra.Command{
		Use:           "ghrecommend",
		Short:         "Recommend GitHub repositories from star events",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Init(logging.Config{
				Level:     c.logLevel,
				Format:    "console",
				Timestamp: true,
				Output:    cmd.ErrOrStderr(),
			})
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: CONFIG_PATH or ./config.yaml)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "log level written to stderr")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return models.InputErrorf("%v", err)
	})

	root.AddCommand(
		newRecommendCommand(c),
		newSimilarCommand(c),
		newExplainCommand(c),
	)
	return root
}

func (c *cli) loadConfig() (*config.Config, error) {
	if c.configPath != "" {
		return config.LoadWithKoanf(c.configPath)
	}
	return config.Load()
}

// prepare loads configuration, applies the run flags to the pipeline
// defaults and opens a runner.
func (c *cli) prepare(cmd *cobra.Command, flags *runFlags) (*pipeline.Runner, pipeline.Request, func(), error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, pipeline.Request{}, nil, err
	}
	base, err := pipeline.DefaultRequest(cfg.Pipeline)
	if err != nil {
		return nil, pipeline.Request{}, nil, err
	}
	req, err := flags.params(cmd).Apply(base)
	if err != nil {
		return nil, pipeline.Request{}, nil, err
	}
	if flags.prefsPath != "" {
		if req.Repos, err = readPreferences(cmd, flags.prefsPath); err != nil {
			return nil, pipeline.Request{}, nil, err
		}
	}
	runner, release, err := c.open(cfg)
	if err != nil {
		return nil, pipeline.Request{}, nil, err
	}
	return runner, req, release, nil
}

// readPreferences parses an upload file, or stdin for "-".
func readPreferences(cmd *cobra.Command, path string) ([]string, error) {
	if path == "-" {
		return preferences.Parse(cmd.InOrStdin())
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, models.InputErrorf("open preferences: %v", err)
	}
	defer f.Close()
	return preferences.Parse(f)
}

// runFlags are the per-run overrides of the pipeline defaults.
type runFlags struct {
	prefsPath string

	algorithm      string
	start, end     string
	minItems       int
	maxItems       int
	topItems       int
	threshold      float64
	thresholdBasis string
	ranking        string
	factors        int
	iterations     int
	topN           int
	seed           int64
}

func (f *runFlags) register(cmd *cobra.Command, withPreferences bool) {
	fs := cmd.Flags()
	if withPreferences {
		fs.StringVarP(&f.prefsPath, "preferences", "p", "", `preference file {"repo": ["owner/name", ...]}, "-" for stdin`)
	}
	fs.StringVar(&f.algorithm, "algorithm", "", "implicit-als or lightfm-warp")
	fs.StringVar(&f.start, "start", "", "window start date, inclusive (YYYY-MM-DD)")
	fs.StringVar(&f.end, "end", "", "window end date, exclusive (YYYY-MM-DD)")
	fs.IntVar(&f.minItems, "min-items", 0, "minimum distinct repositories per user")
	fs.IntVar(&f.maxItems, "max-items", 0, "maximum distinct repositories per user")
	fs.IntVar(&f.topItems, "top-items", 0, "number of repositories kept after ranking")
	fs.Float64Var(&f.threshold, "unique-user-threshold", 0, "minimum unique-user share of a repository's events")
	fs.StringVar(&f.thresholdBasis, "threshold-basis", "", "window or lifetime")
	fs.StringVar(&f.ranking, "ranking", "", "event_cnt or user_uniq_cnt")
	fs.IntVar(&f.factors, "factors", 0, "latent factors: 48, 60, 72 or 84")
	fs.IntVar(&f.iterations, "iterations", 0, "training iterations")
	fs.IntVar(&f.topN, "top-n", 0, "number of recommendations")
	fs.Int64Var(&f.seed, "seed", 0, "random seed")
}

// params returns the flags the user actually set.
func (f *runFlags) params(cmd *cobra.Command) pipeline.Params {
	changed := cmd.Flags().Changed
	var p pipeline.Params
	if changed("algorithm") {
		p.Algorithm = &f.algorithm
	}
	if changed("start") {
		p.Start = &f.start
	}
	if changed("end") {
		p.End = &f.end
	}
	if changed("min-items") {
		p.MinItems = &f.minItems
	}
	if changed("max-items") {
		p.MaxItems = &f.maxItems
	}
	if changed("top-items") {
		p.TopItems = &f.topItems
	}
	if changed("unique-user-threshold") {
		p.UniqueUserThreshold = &f.threshold
	}
	if changed("threshold-basis") {
		p.ThresholdBasis = &f.thresholdBasis
	}
	if changed("ranking") {
		p.Ranking = &f.ranking
	}
	if changed("factors") {
		p.Factors = &f.factors
	}
	if changed("iterations") {
		p.Iterations = &f.iterations
	}
	if changed("top-n") {
		p.TopN = &f.topN
	}
	if changed("seed") {
		p.Seed = &f.seed
	}
	return p
}

func noArgs(_ *cobra.Command, args []string) error {
	if len(args) > 0 {
		return models.InputErrorf("unexpected arguments %q", args)
	}
	return nil
}

// exactlyOneRepo is cobra.ExactArgs(1) reporting an input error.
func exactlyOneRepo(_ *cobra.Command, args []string) error {
	if len(args) != 1 {
		return models.InputErrorf("expected one owner/name argument, got %d", len(args))
	}
	return nil
}

func printf(cmd *cobra.Command, format string, a ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, a...)
}
