// Tanjur - Restaurant Catalog, Delivery Price Aggregation and Trending
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tanjur

/*
Package sync reconciles connector output into the restaurant catalog.

A Reconciler runs one connector at a time:

 1. An unconfigured connector yields a single configuration error and is
    never fetched from.
 2. Restaurants are matched by their (service, external id) link. A match
    is updated and its link stamped; otherwise a restaurant and its link are
    created, verified and active.
 3. Each restaurant's dishes are matched by (restaurant id, slug). Matched
    dishes are updated and their active price for the service is compared
    with the incoming one; new dishes are created with an initial price.

A failing restaurant or dish is recorded in SyncResult.Errors and the run
continues with the next record. Re-running with identical source data leaves
the catalog unchanged.

Dry runs use a Reconciler built by NewDryRunReconciler: it reads the real
catalog but sends every write to a RecordingWriter, so the counts reflect
what a live run would do.

The Manager owns the connector list, runs enabled connectors on demand or on
a schedule, keeps the last result per connector and notifies a hook after a
live run that changed the catalog.
*/
package sync
