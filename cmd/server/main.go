// Tanjur - Restaurant Catalog, Delivery Price Aggregation and Trending
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tanjur

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/tanjur/internal/api"
	"github.com/tomtom215/tanjur/internal/cache"
	"github.com/tomtom215/tanjur/internal/config"
	"github.com/tomtom215/tanjur/internal/connectors"
	"github.com/tomtom215/tanjur/internal/database"
	"github.com/tomtom215/tanjur/internal/geocoding"
	"github.com/tomtom215/tanjur/internal/logging"
	"github.com/tomtom215/tanjur/internal/models"
	"github.com/tomtom215/tanjur/internal/supervisor"
	"github.com/tomtom215/tanjur/internal/supervisor/services"
	tsync "github.com/tomtom215/tanjur/internal/sync"
	"github.com/tomtom215/tanjur/internal/trending"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("addr", cfg.Server.Addr()).
		Str("wolt_api_key", logging.RedactSecret(cfg.Connectors.Wolt.APIKey)).
		Str("glovo_api_key", logging.RedactSecret(cfg.Connectors.Glovo.APIKey)).
		Msg("Starting Tanjur")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	signalCache := cache.New(cfg.Cache.DefaultTTL, cache.WithSweepInterval(cfg.Cache.SweepInterval))
	scorer := trending.NewScorer(db, signalCache, cfg.Trending, trending.WithViewRecorder(db))

	var opts []tsync.Option
	if cfg.Geocoding.Enabled {
		opts = append(opts, tsync.WithGeocoder(geocoding.New(cfg.Geocoding, signalCache)))
		logging.Info().Str("url", cfg.Geocoding.URL).Msg("Geocoding enabled for new restaurants")
	}

	registry := connectors.All(cfg.Connectors)
	for _, c := range registry {
		logging.Info().
			Str("connector", c.Name()).
			Bool("configured", c.IsConfigured()).
			Msg("Connector registered")
	}

	manager := tsync.NewManager(
		tsync.NewReconciler(db, db, opts...),
		tsync.NewDryRunReconciler(db, opts...),
		registry,
		cfg.Sync,
	)
	manager.SetOnSyncCompleted(func(results []models.SyncResult) {
		n := scorer.Invalidate()
		logging.Info().Int("results", len(results)).Int("evicted", n).Msg("Catalog changed, trending cache cleared")
	})

	handler := api.NewHandler(scorer, manager, db)
	router := api.NewRouter(handler, api.NewChiMiddleware(api.ChiMiddlewareConfigFromServer(cfg.Server)), cfg.Server.Timeout)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}
	tree.AddDataService(services.NewCacheSweeperService(signalCache))
	if cfg.Sync.Interval > 0 {
		tree.AddSyncService(services.NewSchedulerService(manager))
	} else {
		logging.Info().Msg("Scheduled sync disabled (SYNC_INTERVAL=0)")
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
	}

	logging.Info().Msg("Tanjur stopped")
}
