// Tanjur - Restaurant Catalog, Delivery Price Aggregation and Trending
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tanjur

package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/tanjur/internal/connectors"
	"github.com/tomtom215/tanjur/internal/models"
	"github.com/tomtom215/tanjur/internal/trending"
	"github.com/tomtom215/tanjur/internal/validation"
)

// TrendingService ranks restaurants and dishes and records views.
type TrendingService interface {
	NormalizeLimit(limit int) int
	TrendingRestaurants(ctx context.Context, limit int, weights *models.TrendingWeights) ([]models.TrendingRestaurant, error)
	TrendingDishes(ctx context.Context, limit int, weights *models.TrendingWeights) ([]models.TrendingDish, error)
	TrackView(ctx context.Context, kind trending.Kind, id, sessionID, userID string)
}

// SyncService runs connectors and reports their last results.
type SyncService interface {
	Connectors() []connectors.Connector
	LastResult(service models.Service) (models.SyncResult, bool)
	SyncAll(ctx context.Context, dryRun bool) ([]models.SyncResult, error)
	SyncConnector(ctx context.Context, service models.Service, dryRun bool) (models.SyncResult, error)
}

// CatalogStore is the part of the catalog the API writes to directly.
type CatalogStore interface {
	Ping(ctx context.Context) error
	AddFavorite(ctx context.Context, restaurantID, userID string) error
	AddReview(ctx context.Context, review *models.Review) error
}

// Handler holds the dependencies of every route.
type Handler struct {
	trending  TrendingService
	sync      SyncService
	store     CatalogStore
	startTime time.Time
}

// NewHandler creates a handler. sync may be nil when the process serves
// rankings only.
func NewHandler(t TrendingService, s SyncService, store CatalogStore) *Handler {
	return &Handler{
		trending:  t,
		sync:      s,
		store:     store,
		startTime: time.Now(),
	}
}

// limitParam reads ?limit=. Missing or unparsable values yield 0, which the
// scorer maps to its default.
func limitParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		return 0
	}
	return n
}

// validate writes a 400 and returns false when v is invalid.
func validate(rw *ResponseWriter, v interface{}) bool {
	verr := validation.ValidateStruct(v)
	if verr == nil {
		return true
	}
	apiErr := verr.ToAPIError()
	rw.ValidationError(apiErr.Message, apiErr.Details)
	return false
}
