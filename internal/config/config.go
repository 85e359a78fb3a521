// Tanjur - Restaurant Catalog, Delivery Price Aggregation and Trending
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tanjur

// Package config loads Tanjur configuration from defaults, an optional YAML
// file and environment variables (in that order of precedence, lowest first).
//
//	cfg, err := config.LoadWithKoanf()
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("Failed to load config")
//	}
//
// Environment variable names are kept stable with earlier deployments
// (TRENDING_WEIGHT_VIEWS, WOLT_API_KEY, DUCKDB_PATH, ...); see envMappings.
package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Trending   TrendingConfig   `koanf:"trending"`
	Cache      CacheConfig      `koanf:"cache"`
	Connectors ConnectorsConfig `koanf:"connectors"`
	Sync       SyncConfig       `koanf:"sync"`
	Geocoding  GeocodingConfig  `koanf:"geocoding"`
	Database   DatabaseConfig   `koanf:"database"`
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// WeightsConfig holds the per-signal multipliers of the trending score.
type WeightsConfig struct {
	Views     float64 `koanf:"views"`
	Favorites float64 `koanf:"favorites"`
	Reviews   float64 `koanf:"reviews"`
	Rating    float64 `koanf:"rating"`
}

// TrendingConfig configures the trending scorer.
type TrendingConfig struct {
	Weights WeightsConfig `koanf:"weights"`

	// CacheTTL is in seconds to match the TRENDING_CACHE_TTL variable.
	CacheTTL     int           `koanf:"cache_ttl"`
	Window       time.Duration `koanf:"window"`
	DefaultLimit int           `koanf:"default_limit"`
	MaxLimit     int           `koanf:"max_limit"`
}

// CacheTTLDuration returns CacheTTL as a time.Duration.
func (t TrendingConfig) CacheTTLDuration() time.Duration {
	return time.Duration(t.CacheTTL) * time.Second
}

// CacheConfig configures the in-memory signal cache.
type CacheConfig struct {
	DefaultTTL    time.Duration `koanf:"default_ttl"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// ConnectorConfig configures one delivery platform connector.
type ConnectorConfig struct {
	Enabled bool   `koanf:"enabled"`
	APIKey  string `koanf:"api_key"`
	APIURL  string `koanf:"api_url"`

	// RateLimitMS is the minimum spacing between requests in milliseconds.
	RateLimitMS int           `koanf:"rate_limit_ms"`
	BatchSize   int           `koanf:"batch_size"`
	City        string        `koanf:"city"`
	Timeout     time.Duration `koanf:"timeout"`
}

// RateLimit returns RateLimitMS as a time.Duration.
func (c ConnectorConfig) RateLimit() time.Duration {
	return time.Duration(c.RateLimitMS) * time.Millisecond
}

// ManualConfig configures the manual (curated feed) connector.
type ManualConfig struct {
	Enabled  bool   `koanf:"enabled"`
	FeedPath string `koanf:"feed_path"`
}

// ConnectorsConfig groups all connector configurations.
type ConnectorsConfig struct {
	Wolt   ConnectorConfig `koanf:"wolt"`
	Glovo  ConnectorConfig `koanf:"glovo"`
	Manual ManualConfig    `koanf:"manual"`
}

// SyncConfig controls scheduled synchronization.
type SyncConfig struct {
	Interval  time.Duration `koanf:"interval"`
	OnStartup bool          `koanf:"on_startup"`
	Parallel  bool          `koanf:"parallel"`
}

// GeocodingConfig configures the Nominatim geocoder used for new restaurants.
type GeocodingConfig struct {
	Enabled   bool          `koanf:"enabled"`
	URL       string        `koanf:"url"`
	UserAgent string        `koanf:"user_agent"`
	Timeout   time.Duration `koanf:"timeout"`

	// RateLimitMS defaults to 1000, the public Nominatim usage policy.
	RateLimitMS int `koanf:"rate_limit_ms"`
}

// DatabaseConfig configures the DuckDB catalog store.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = runtime.NumCPU()
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig configures the zerolog logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
