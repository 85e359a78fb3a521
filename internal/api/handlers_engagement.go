// Tanjur - Restaurant Catalog, Delivery Price Aggregation and Trending
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tanjur

package api

import (
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tanjur/internal/models"
)

// FavoriteRequest is the body of POST /api/v1/favorites.
type FavoriteRequest struct {
	RestaurantID string `json:"restaurant_id" validate:"required,notblank,max=64"`
	UserID       string `json:"user_id" validate:"required,notblank,max=128"`
}

// AddFavorite handles POST /api/v1/favorites. Repeating a favorite is a no-op.
func (h *Handler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req FavoriteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		rw.BadRequest("Invalid JSON body")
		return
	}
	if !validate(rw, &req) {
		return
	}
	if err := h.store.AddFavorite(r.Context(), req.RestaurantID, req.UserID); err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Accepted(map[string]string{"status": "accepted"})
}

// ReviewRequest is the body of POST /api/v1/reviews. At least one target is
// required; a review may target both a dish and its restaurant.
type ReviewRequest struct {
	RestaurantID string `json:"restaurant_id" validate:"required_without=DishID,max=64"`
	DishID       string `json:"dish_id" validate:"required_without=RestaurantID,max=64"`
	Rating       int    `json:"rating" validate:"required,min=1,max=5"`
}

// AddReview handles POST /api/v1/reviews.
func (h *Handler) AddReview(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req ReviewRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		rw.BadRequest("Invalid JSON body")
		return
	}
	if !validate(rw, &req) {
		return
	}

	review := &models.Review{Rating: req.Rating}
	if id := strings.TrimSpace(req.RestaurantID); id != "" {
		review.RestaurantID = &id
	}
	if id := strings.TrimSpace(req.DishID); id != "" {
		review.DishID = &id
	}
	if err := h.store.AddReview(r.Context(), review); err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Created(review)
}
