// Tanjur - Restaurant Catalog, Delivery Price Aggregation and Trending
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tanjur

// Package main is the Tanjur API server.
//
// Startup order:
//
//  1. Configuration (koanf: defaults, config.yaml, environment)
//  2. DuckDB catalog with versioned migrations
//  3. Signal cache, trending scorer and the optional Nominatim geocoder
//  4. Connector registry, live and dry-run reconcilers, sync manager
//  5. Chi router and HTTP server
//  6. Supervisor tree: cache sweeper, sync scheduler, HTTP server
//
// A completed live sync that changed the catalog clears the cached trending
// rankings.
//
// Minimal local run with the curated feed only:
//
//	export DUCKDB_PATH=./tanjur.duckdb
//	export MANUAL_FEED_PATH=./feed.json
//	export SYNC_ON_STARTUP=true
//	./tanjur-server
//
// SIGINT and SIGTERM cancel the tree; the HTTP server drains for up to 10s.
package main
