// Tanjur - Restaurant Catalog, Delivery Price Aggregation and Trending
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tanjur

package connectors

import (
	"context"

	"github.com/tomtom215/tanjur/internal/logging"
	"github.com/tomtom215/tanjur/internal/models"
)

// Glovo is a placeholder until a Glovo partner feed is available: when
// configured it contributes no records, which is not an error.
type Glovo struct {
	cfg Config
}

// NewGlovo creates a Glovo connector.
func NewGlovo(cfg Config) *Glovo {
	return &Glovo{cfg: cfg}
}

func (g *Glovo) Name() string            { return "Glovo" }
func (g *Glovo) Service() models.Service { return models.ServiceGlovo }
func (g *Glovo) IsConfigured() bool      { return platformConfigured(g.cfg) }

func (g *Glovo) FetchRestaurants(_ context.Context, city string) ([]models.RestaurantRecord, error) {
	if !g.IsConfigured() {
		logging.Warn().Str("connector", g.Name()).Msg("Connector not configured")
		return []models.RestaurantRecord{}, nil
	}
	if city == "" {
		city = g.cfg.City
	}
	logging.Info().Str("connector", g.Name()).Str("city", city).Msg("No partner feed; returning no restaurants")
	return []models.RestaurantRecord{}, nil
}

func (g *Glovo) FetchDishes(_ context.Context, restaurantExternalID string) ([]models.DishRecord, error) {
	if !g.IsConfigured() {
		return []models.DishRecord{}, nil
	}
	logging.Debug().Str("connector", g.Name()).Str("external_id", restaurantExternalID).Msg("No partner feed; returning no dishes")
	return []models.DishRecord{}, nil
}

func (g *Glovo) Metadata() models.ConnectorMetadata {
	return models.ConnectorMetadata{
		SourceName: "Glovo Croatia",
		SourceURL:  "https://glovoapp.com/hr/en/",
		Version:    "1.0.0-placeholder",
	}
}
