// Tanjur - Restaurant Catalog, Delivery Price Aggregation and Trending
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tanjur

// Package services adapts Tanjur components to suture.Service.
//
// Components with a Start/Stop lifecycle (the signal cache, the sync
// manager) are wrapped so that Serve starts them, blocks on ctx and stops
// them on the way out. The HTTP server wrapper translates ListenAndServe
// into the same shape.
package services
