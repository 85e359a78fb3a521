// Tanjur - Restaurant Catalog, Delivery Price Aggregation and Trending
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tanjur

// Package geocoding resolves street addresses to coordinates through a
// Nominatim-compatible search endpoint.
package geocoding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/tanjur/internal/breaker"
	"github.com/tomtom215/tanjur/internal/cache"
	"github.com/tomtom215/tanjur/internal/config"
	"github.com/tomtom215/tanjur/internal/metrics"
)

// ErrNoResult is returned when the address matched nothing.
var ErrNoResult = errors.New("no geocoding result")

// Coordinates is a WGS84 position.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Nominatim is a rate-limited, memoizing geocoder. Lookups that found
// nothing are memoized too, so a bad address costs one request per TTL.
type Nominatim struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *breaker.Breaker
	cache      cache.Cacher
	ttl        time.Duration
}

const defaultMemoTTL = 24 * time.Hour

// New creates a geocoder. c may be nil to disable memoization.
func New(cfg config.GeocodingConfig, c cache.Cacher) *Nominatim {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limit := rate.Inf
	if cfg.RateLimitMS > 0 {
		limit = rate.Every(time.Duration(cfg.RateLimitMS) * time.Millisecond)
	}
	return &Nominatim{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, 1),
		breaker:    breaker.New("nominatim", breaker.Settings{}),
		cache:      c,
		ttl:        defaultMemoTTL,
	}
}

type memo struct {
	coords *Coordinates
}

type searchResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode looks up a free-form address.
func (n *Nominatim) Geocode(ctx context.Context, address string) (*Coordinates, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, ErrNoResult
	}

	key := cache.GenerateKey("geocode", map[string]string{"q": strings.ToLower(address)})
	if n.cache != nil {
		if v, ok := n.cache.Get(key); ok {
			if m, ok := v.(memo); ok {
				if m.coords == nil {
					return nil, ErrNoResult
				}
				c := *m.coords
				return &c, nil
			}
		}
	}

	if err := n.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("geocoding rate limiter: %w", err)
	}
	coords, err := breaker.Execute(n.breaker, func() (*Coordinates, error) {
		return n.search(ctx, address)
	})
	if err != nil && !errors.Is(err, ErrNoResult) {
		return nil, err
	}

	if n.cache != nil {
		n.cache.SetWithTTL(key, memo{coords: coords}, n.ttl)
	}
	if coords == nil {
		return nil, ErrNoResult
	}
	return coords, nil
}

// search returns (nil, nil) when nothing matched so an empty result does
// not count as a breaker failure.
func (n *Nominatim) search(ctx context.Context, address string) (*Coordinates, error) {
	q := url.Values{}
	q.Set("q", address)
	q.Set("format", "json")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/search?"+q.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := n.httpClient.Do(req)
	if err != nil {
		metrics.RecordConnectorRequest("nominatim", "search", 0, time.Since(start))
		return nil, fmt.Errorf("geocoding request: %w", err)
	}
	defer resp.Body.Close()
	metrics.RecordConnectorRequest("nominatim", "search", resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoding request: unexpected status %d", resp.StatusCode)
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode geocoding response: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parse latitude %q: %w", results[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parse longitude %q: %w", results[0].Lon, err)
	}
	return &Coordinates{Latitude: lat, Longitude: lon}, nil
}
