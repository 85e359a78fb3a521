// Tanjur - Restaurant Catalog, Delivery Price Aggregation and Trending
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tanjur

package sync

import (
	"context"
	"time"

	"github.com/tomtom215/tanjur/internal/geocoding"
	"github.com/tomtom215/tanjur/internal/models"
)

// CatalogReader is the read side of the catalog used for matching.
// Lookups return database.ErrNotFound when nothing matches.
type CatalogReader interface {
	FindServiceLink(ctx context.Context, service models.Service, externalID string) (*models.ServiceLink, error)
	GetRestaurant(ctx context.Context, id string) (*models.Restaurant, error)
	FindDishBySlug(ctx context.Context, restaurantID, slug string) (*models.Dish, error)
	ActivePrice(ctx context.Context, dishID string, service models.Service) (*models.DishPrice, error)
}

// CatalogWriter is the write side of the catalog.
type CatalogWriter interface {
	UpdateRestaurant(ctx context.Context, id string, rec *models.RestaurantRecord) error
	CreateRestaurantWithLink(ctx context.Context, service models.Service, rec *models.RestaurantRecord, baseSlug string) (*models.Restaurant, error)
	TouchServiceLink(ctx context.Context, linkID string, at time.Time) error
	UpdateDish(ctx context.Context, id string, rec *models.DishRecord) error
	CreateDishWithPrice(ctx context.Context, restaurantID, slug string, service models.Service, rec *models.DishRecord) (*models.Dish, error)
	UpdatePrice(ctx context.Context, priceID string, price float64, currency string) error
	CreatePrice(ctx context.Context, dishID string, service models.Service, price float64, currency string) error
}

// Catalog is a store that can both read and write.
type Catalog interface {
	CatalogReader
	CatalogWriter
}

// Geocoder resolves an address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*geocoding.Coordinates, error)
}
