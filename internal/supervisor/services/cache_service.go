// Tanjur - Restaurant Catalog, Delivery Price Aggregation and Trending
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tanjur

package services

import "context"

// Sweeper is satisfied by *cache.Cache.
type Sweeper interface {
	Start(ctx context.Context)
	Stop()
}

// CacheSweeperService runs the signal cache's expiry sweep.
type CacheSweeperService struct {
	cache Sweeper
	name  string
}

// NewCacheSweeperService wraps c.
func NewCacheSweeperService(c Sweeper) *CacheSweeperService {
	return &CacheSweeperService{cache: c, name: "cache-sweeper"}
}

// Serve implements suture.Service.
func (s *CacheSweeperService) Serve(ctx context.Context) error {
	s.cache.Start(ctx)
	<-ctx.Done()
	s.cache.Stop()
	return ctx.Err()
}

func (s *CacheSweeperService) String() string {
	return s.name
}
