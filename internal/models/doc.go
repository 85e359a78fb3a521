// Tanjur - Restaurant Catalog, Delivery Price Aggregation and Trending
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tanjur

// Package models holds the catalog entities, the source records connectors
// produce, sync results and the trending read models.
//
// Catalog entities use snake_case JSON. Source records use the camelCase
// field names of the partner feeds and carry validator tags checked before
// a record is reconciled.
package models
