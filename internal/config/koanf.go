// Tanjur - Restaurant Catalog, Delivery Price Aggregation and Trending
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tanjur

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, first match wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/tanjur/config.yaml",
	"/etc/tanjur/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Trending: TrendingConfig{
			Weights: WeightsConfig{
				Views:     1.0,
				Favorites: 2.0,
				Reviews:   3.0,
				Rating:    10.0,
			},
			CacheTTL:     900,
			Window:       7 * 24 * time.Hour,
			DefaultLimit: 10,
			MaxLimit:     100,
		},
		Cache: CacheConfig{
			DefaultTTL:    15 * time.Minute,
			SweepInterval: 5 * time.Minute,
		},
		Connectors: ConnectorsConfig{
			Wolt: ConnectorConfig{
				Enabled:     false,
				RateLimitMS: 1000,
				BatchSize:   50,
				Timeout:     30 * time.Second,
			},
			Glovo: ConnectorConfig{
				Enabled:     false,
				RateLimitMS: 1000,
				BatchSize:   50,
				Timeout:     30 * time.Second,
			},
			Manual: ManualConfig{
				Enabled: true,
			},
		},
		Sync: SyncConfig{
			Interval:  6 * time.Hour,
			OnStartup: false,
			Parallel:  false,
		},
		Geocoding: GeocodingConfig{
			Enabled:     false,
			URL:         "https://nominatim.openstreetmap.org",
			UserAgent:   "tanjur/1.0",
			Timeout:     10 * time.Second,
			RateLimitMS: 1000,
		},
		Database: DatabaseConfig{
			Path:      "/data/tanjur.duckdb",
			MaxMemory: "1GB",
			Threads:   0,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            3000,
			Timeout:         30 * time.Second,
			RateLimitReqs:   60,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration with layered sources:
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. Environment variables
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// WOLT_API_KEY -> connectors.wolt.api_key
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated env values.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	"trending_weight_views":     "trending.weights.views",
	"trending_weight_favorites": "trending.weights.favorites",
	"trending_weight_reviews":   "trending.weights.reviews",
	"trending_weight_rating":    "trending.weights.rating",
	"trending_cache_ttl":        "trending.cache_ttl",
	"trending_window":           "trending.window",
	"trending_default_limit":    "trending.default_limit",
	"trending_max_limit":        "trending.max_limit",

	"cache_default_ttl":    "cache.default_ttl",
	"cache_sweep_interval": "cache.sweep_interval",

	"wolt_enabled":       "connectors.wolt.enabled",
	"wolt_api_key":       "connectors.wolt.api_key",
	"wolt_api_url":       "connectors.wolt.api_url",
	"wolt_rate_limit_ms": "connectors.wolt.rate_limit_ms",
	"wolt_batch_size":    "connectors.wolt.batch_size",
	"wolt_city":          "connectors.wolt.city",
	"wolt_timeout":       "connectors.wolt.timeout",

	"glovo_enabled":       "connectors.glovo.enabled",
	"glovo_api_key":       "connectors.glovo.api_key",
	"glovo_api_url":       "connectors.glovo.api_url",
	"glovo_rate_limit_ms": "connectors.glovo.rate_limit_ms",
	"glovo_batch_size":    "connectors.glovo.batch_size",
	"glovo_city":          "connectors.glovo.city",
	"glovo_timeout":       "connectors.glovo.timeout",

	"manual_enabled":   "connectors.manual.enabled",
	"manual_feed_path": "connectors.manual.feed_path",

	"sync_interval":   "sync.interval",
	"sync_on_startup": "sync.on_startup",
	"sync_parallel":   "sync.parallel",

	"geocoding_enabled":       "geocoding.enabled",
	"geocoding_url":           "geocoding.url",
	"geocoding_user_agent":    "geocoding.user_agent",
	"geocoding_timeout":       "geocoding.timeout",
	"geocoding_rate_limit_ms": "geocoding.rate_limit_ms",

	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",

	"http_host":           "server.host",
	"http_port":           "server.port",
	"http_timeout":        "server.timeout",
	"rate_limit_requests": "server.rate_limit_reqs",
	"rate_limit_window":   "server.rate_limit_window",
	"disable_rate_limit":  "server.rate_limit_disabled",
	"cors_origins":        "server.cors_origins",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable name to its koanf path.
// Unmapped variables return "" and are skipped.
//
//   - TRENDING_WEIGHT_REVIEWS -> trending.weights.reviews
//   - WOLT_API_KEY -> connectors.wolt.api_key
//   - DUCKDB_PATH -> database.path
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
