// Tanjur - Restaurant Catalog, Delivery Price Aggregation and Trending
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tanjur

// Package cache provides the signal cache: an expiring in-memory key/value
// store shared by the trending scorer and the geocoder.
package cache

import "time"

// Cacher is the subset of Cache used by consumers that memoize results.
type Cacher interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{})
	SetWithTTL(key string, value interface{}, ttl time.Duration)
	Delete(key string)
	DeletePrefix(prefix string) int
	Clear()
}

var _ Cacher = (*Cache)(nil)
