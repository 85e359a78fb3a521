// Tanjur - Restaurant Catalog, Delivery Price Aggregation and Trending
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tanjur

// Command tanjur-sync runs the configured connectors once and exits.
//
//	tanjur-sync [--dry-run] [--service WOLT]
//
// It is meant for cron. The exit status is 1 when any connector result
// carries errors, 2 on a usage or startup failure.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/tanjur/internal/cache"
	"github.com/tomtom215/tanjur/internal/config"
	"github.com/tomtom215/tanjur/internal/connectors"
	"github.com/tomtom215/tanjur/internal/database"
	"github.com/tomtom215/tanjur/internal/geocoding"
	"github.com/tomtom215/tanjur/internal/logging"
	"github.com/tomtom215/tanjur/internal/models"
	tsync "github.com/tomtom215/tanjur/internal/sync"
)

const (
	exitOK      = 0
	exitFailed  = 1
	exitStartup = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, out io.Writer) int {
	fs := flag.NewFlagSet("tanjur-sync", flag.ContinueOnError)
	fs.SetOutput(out)
	dryRun := fs.Bool("dry-run", false, "report changes without writing to the catalog")
	serviceName := fs.String("service", "", "sync a single connector (WOLT, GLOVO, MANUAL)")
	if err := fs.Parse(args); err != nil {
		return exitStartup
	}

	var service models.Service
	if *serviceName != "" {
		s, err := models.ParseService(*serviceName)
		if err != nil {
			fmt.Fprintln(out, err)
			return exitStartup
		}
		service = s
	}

	cfg, err := config.LoadWithKoanf()
	if err != nil {
		fmt.Fprintf(out, "configuration error: %v\n", err)
		return exitStartup
	}
	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	registry := connectors.All(cfg.Connectors)
	if len(connectors.Enabled(registry)) == 0 {
		fmt.Fprintln(out, "No connectors configured.")
		return exitOK
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to open database")
		return exitStartup
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	var opts []tsync.Option
	if cfg.Geocoding.Enabled {
		opts = append(opts, tsync.WithGeocoder(geocoding.New(cfg.Geocoding, cache.New(cfg.Cache.DefaultTTL))))
	}
	manager := tsync.NewManager(
		tsync.NewReconciler(db, db, opts...),
		tsync.NewDryRunReconciler(db, opts...),
		registry,
		cfg.Sync,
	)

	var results []models.SyncResult
	if service != "" {
		result, err := manager.SyncConnector(ctx, service, *dryRun)
		if errors.Is(err, tsync.ErrUnknownConnector) {
			fmt.Fprintf(out, "connector %s is not registered\n", service)
			return exitStartup
		}
		if err != nil {
			logging.Error().Err(err).Msg("Sync failed")
			return exitStartup
		}
		results = []models.SyncResult{result}
	} else {
		results, err = manager.SyncAll(ctx, *dryRun)
		if err != nil {
			logging.Error().Err(err).Msg("Sync failed")
			return exitStartup
		}
	}

	code := exitOK
	for i := range results {
		printResult(out, &results[i])
		if !results[i].Success() {
			code = exitFailed
		}
	}
	return code
}

func printResult(out io.Writer, r *models.SyncResult) {
	mode := ""
	if r.DryRun {
		mode = " (dry run)"
	}
	fmt.Fprintf(out, "%s%s: restaurants +%d ~%d, dishes +%d ~%d, prices %d, errors %d, took %s\n",
		r.Connector, mode,
		r.RestaurantsAdded, r.RestaurantsUpdated,
		r.DishesAdded, r.DishesUpdated,
		r.PricesUpdated, len(r.Errors), r.Duration)
	for _, e := range r.Errors {
		fmt.Fprintf(out, "  - %s\n", e)
	}
}
