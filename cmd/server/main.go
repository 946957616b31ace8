// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/ghrecommend/internal/api"
	"github.com/tomtom215/ghrecommend/internal/config"
	"github.com/tomtom215/ghrecommend/internal/database"
	"github.com/tomtom215/ghrecommend/internal/events"
	"github.com/tomtom215/ghrecommend/internal/logging"
	"github.com/tomtom215/ghrecommend/internal/pipeline"
	"github.com/tomtom215/ghrecommend/internal/profiles"
	"github.com/tomtom215/ghrecommend/internal/recommend"
	_ "github.com/tomtom215/ghrecommend/internal/recommend/algorithms" // registers implicit-als and lightfm-warp
	"github.com/tomtom215/ghrecommend/internal/supervisor"
	"github.com/tomtom215/ghrecommend/internal/supervisor/services"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Msg("Starting GHRecommend with supervisor tree")

	src, err := events.SourceFromConfig(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Invalid event source configuration")
	}
	logging.Info().
		Str("source", src.Kind()).
		Str("key", src.Key()).
		Str("algorithm", cfg.Pipeline.Algorithm).
		Msg("Configuration loaded")

	defaults, err := pipeline.DefaultRequest(cfg.Pipeline)
	if err != nil {
		logging.Fatal().Err(err).Msg("Invalid pipeline defaults")
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	store := events.NewStore(db, cfg.Cache, cfg.Breaker)
	runner := pipeline.NewRunner(store.Bind(src), recommend.OptionsFromConfig(cfg))

	var profileStore *profiles.Store
	if cfg.Profiles.Enabled {
		profileStore, err = profiles.Open(cfg.Profiles)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to open profile store")
		}
		defer func() {
			if err := profileStore.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing profile store")
			}
		}()
	} else {
		logging.Info().Msg("Profile storage disabled (PROFILES_ENABLED=false)")
	}

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}

	handler := api.NewHandler(api.Dependencies{
		Runner:   runner,
		Defaults: defaults,
		Profiles: profileStore,
		DB:       db,
		Events:   store,
	})
	mw := api.NewChiMiddleware(api.ChiMiddlewareConfigFrom(cfg.Security))
	router := api.NewRouter(handler, mw, cfg.Server.Timeout)

	// Training runs inside the request, so the write timeout must cover the
	// router timeout.
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      cfg.Server.Timeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  shutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	if profileStore != nil && !cfg.Profiles.InMemory {
		tree.AddDataService(services.NewProfileGCService(profileStore, cfg.Profiles.GCInterval))
		logging.Info().Dur("interval", cfg.Profiles.GCInterval).Msg("Profile GC service added")
	}
	tree.AddAPIService(services.NewHTTPServerService(server, server.Addr, shutdownTimeout))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	if err := tree.Run(ctx); err != nil {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
