// Tanjur - Restaurant Catalog, Delivery Price Aggregation and Trending
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tanjur

/*
Package supervisor runs Tanjur's long-lived services under a suture v4 tree.

	Root ("tanjur")
	├── data-layer
	│   └── cache-sweeper
	├── sync-layer
	│   └── sync-scheduler (when SYNC_INTERVAL > 0)
	└── api-layer
	    └── http-server

Each layer restarts its own services with backoff. A sync scheduler that
keeps failing does not take the HTTP server down with it.

Supervisor events are logged through sutureslog, whose slog handler is
backed by the zerolog global logger (see logging.NewSlogHandler).

	tree, err := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddDataService(services.NewCacheSweeperService(signalCache))
	tree.AddSyncService(services.NewSchedulerService(manager))
	tree.AddAPIService(services.NewHTTPServerService(srv, 10*time.Second))
	err = tree.Serve(ctx)
*/
package supervisor
