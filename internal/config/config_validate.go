// Tanjur - Restaurant Catalog, Delivery Price Aggregation and Trending
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tanjur

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks that configuration values are usable.
//
// An enabled platform connector without an API key is not an error here:
// the connector reports itself as not configured and the sync result says so.
func (c *Config) Validate() error {
	if err := c.validateTrending(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateConnectors(); err != nil {
		return err
	}
	if err := c.validateGeocoding(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateTrending() error {
	w := c.Trending.Weights
	for name, v := range map[string]float64{
		"TRENDING_WEIGHT_VIEWS":     w.Views,
		"TRENDING_WEIGHT_FAVORITES": w.Favorites,
		"TRENDING_WEIGHT_REVIEWS":   w.Reviews,
		"TRENDING_WEIGHT_RATING":    w.Rating,
	} {
		if v < 0 {
			return fmt.Errorf("%s must be non-negative, got %g", name, v)
		}
	}
	if c.Trending.CacheTTL <= 0 {
		return fmt.Errorf("TRENDING_CACHE_TTL must be positive, got %d", c.Trending.CacheTTL)
	}
	if c.Trending.Window <= 0 {
		return fmt.Errorf("TRENDING_WINDOW must be positive, got %s", c.Trending.Window)
	}
	if c.Trending.DefaultLimit <= 0 {
		return fmt.Errorf("TRENDING_DEFAULT_LIMIT must be positive, got %d", c.Trending.DefaultLimit)
	}
	if c.Trending.MaxLimit < c.Trending.DefaultLimit {
		return fmt.Errorf("TRENDING_MAX_LIMIT (%d) must be >= TRENDING_DEFAULT_LIMIT (%d)",
			c.Trending.MaxLimit, c.Trending.DefaultLimit)
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.DefaultTTL <= 0 {
		return fmt.Errorf("CACHE_DEFAULT_TTL must be positive, got %s", c.Cache.DefaultTTL)
	}
	if c.Cache.SweepInterval <= 0 {
		return fmt.Errorf("CACHE_SWEEP_INTERVAL must be positive, got %s", c.Cache.SweepInterval)
	}
	return nil
}

func (c *Config) validateConnectors() error {
	platforms := []struct {
		env string
		cfg ConnectorConfig
	}{
		{"WOLT", c.Connectors.Wolt},
		{"GLOVO", c.Connectors.Glovo},
	}
	for _, p := range platforms {
		if !p.cfg.Enabled {
			continue
		}
		if p.cfg.APIURL != "" {
			if err := validateHTTPURL(p.cfg.APIURL, p.env+"_API_URL"); err != nil {
				return err
			}
		}
		if p.cfg.RateLimitMS < 0 {
			return fmt.Errorf("%s_RATE_LIMIT_MS must be non-negative, got %d", p.env, p.cfg.RateLimitMS)
		}
		if p.cfg.BatchSize <= 0 {
			return fmt.Errorf("%s_BATCH_SIZE must be positive, got %d", p.env, p.cfg.BatchSize)
		}
	}
	return nil
}

func (c *Config) validateGeocoding() error {
	if !c.Geocoding.Enabled {
		return nil
	}
	if c.Geocoding.UserAgent == "" {
		return fmt.Errorf("GEOCODING_USER_AGENT is required when GEOCODING_ENABLED=true")
	}
	return validateHTTPURL(c.Geocoding.URL, "GEOCODING_URL")
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if !c.Server.RateLimitDisabled && c.Server.RateLimitReqs <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive, got %d", c.Server.RateLimitReqs)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, fatal, panic, disabled; got %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
}

// validateHTTPURL checks for an absolute http(s) URL. Unlike a server base
// URL, partner feed URLs may carry a path prefix (https://partner.example/v1).
func validateHTTPURL(rawURL, fieldName string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %q", fieldName, parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}
	if parsed.RawQuery != "" {
		return fmt.Errorf("%s should not contain query parameters, remove: ?%s", fieldName, parsed.RawQuery)
	}
	return nil
}
