// Tanjur - Restaurant Catalog, Delivery Price Aggregation and Trending
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tanjur

// Package connectors adapts external restaurant data sources to the
// normalized RestaurantRecord and DishRecord shapes.
//
// Every connector reports whether it is usable through IsConfigured. An
// unconfigured connector returns empty lists rather than failing, and a
// configured placeholder may legitimately return nothing at all.
package connectors

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/tanjur/internal/config"
	"github.com/tomtom215/tanjur/internal/models"
)

var (
	// ErrNotConfigured is returned when a connector lacks credentials.
	ErrNotConfigured = errors.New("connector is not configured")

	// ErrUnexpectedStatus wraps non-2xx responses from a partner feed.
	ErrUnexpectedStatus = errors.New("unexpected status")
)

// Connector fetches normalized records from one external source.
type Connector interface {
	Name() string
	Service() models.Service
	IsConfigured() bool
	FetchRestaurants(ctx context.Context, city string) ([]models.RestaurantRecord, error)
	FetchDishes(ctx context.Context, restaurantExternalID string) ([]models.DishRecord, error)
	Metadata() models.ConnectorMetadata
}

// Config configures a single connector.
type Config struct {
	Enabled   bool
	APIKey    string
	APIURL    string
	RateLimit time.Duration
	BatchSize int
	Timeout   time.Duration
	City      string
	FeedPath  string
}

// FromConnectorConfig converts a platform connector configuration.
func FromConnectorConfig(c config.ConnectorConfig) Config {
	return Config{
		Enabled:   c.Enabled,
		APIKey:    c.APIKey,
		APIURL:    c.APIURL,
		RateLimit: c.RateLimit(),
		BatchSize: c.BatchSize,
		Timeout:   c.Timeout,
		City:      c.City,
	}
}

// platformConfigured is the gate shared by the delivery platform connectors:
// enabled, with both an API key and an API URL.
func platformConfigured(c Config) bool {
	return c.Enabled && c.APIKey != "" && c.APIURL != ""
}

// All builds every connector in registry order: Wolt, Glovo, Manual.
// Setting connectors.manual.enabled=false leaves the manual connector out.
func All(cfg config.ConnectorsConfig) []Connector {
	all := []Connector{
		NewWolt(FromConnectorConfig(cfg.Wolt)),
		NewGlovo(FromConnectorConfig(cfg.Glovo)),
	}
	if cfg.Manual.Enabled {
		all = append(all, NewManual(Config{Enabled: true, FeedPath: cfg.Manual.FeedPath}))
	}
	return all
}

// Enabled filters connectors to the configured ones, keeping order.
func Enabled(all []Connector) []Connector {
	out := make([]Connector, 0, len(all))
	for _, c := range all {
		if c.IsConfigured() {
			out = append(out, c)
		}
	}
	return out
}

// Find returns the connector for service, if present.
func Find(all []Connector, service models.Service) (Connector, bool) {
	for _, c := range all {
		if c.Service() == service {
			return c, true
		}
	}
	return nil, false
}
