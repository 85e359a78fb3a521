// Tanjur - Restaurant Catalog, Delivery Price Aggregation and Trending
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tanjur

package models

import (
	"time"

	"github.com/goccy/go-json"
)

// SyncResult is the outcome of syncing one connector. It is returned to the
// caller and never persisted.
type SyncResult struct {
	Connector          string  `json:"connector"`
	Service            Service `json:"service"`
	DryRun             bool    `json:"dry_run"`
	RestaurantsAdded   int     `json:"restaurants_added"`
	RestaurantsUpdated int     `json:"restaurants_updated"`
	DishesAdded        int     `json:"dishes_added"`
	DishesUpdated      int     `json:"dishes_updated"`
	PricesUpdated      int     `json:"prices_updated"`

	// Modified counts matched restaurants and dishes whose stored fields
	// actually changed. RestaurantsUpdated and DishesUpdated count every match.
	Modified int `json:"modified"`

	Errors    []string      `json:"errors"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
}

// Success reports whether the sync finished without any error. A sync that
// changed nothing is still successful.
func (r *SyncResult) Success() bool {
	return len(r.Errors) == 0
}

// Changed reports whether the sync altered catalog content: something was
// added, a price moved, or a matched record differed from what was stored.
// Re-syncing identical data is not a change.
func (r *SyncResult) Changed() bool {
	return r.RestaurantsAdded+r.DishesAdded+r.PricesUpdated+r.Modified > 0
}

// AddError appends a formatted error entry.
func (r *SyncResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// MarshalJSON adds the derived "success" flag to the encoded result.
func (r SyncResult) MarshalJSON() ([]byte, error) {
	type plain SyncResult
	return json.Marshal(struct {
		plain
		Success bool `json:"success"`
	}{plain(r), r.Success()})
}
