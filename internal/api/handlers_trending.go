// Tanjur - Restaurant Catalog, Delivery Price Aggregation and Trending
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tanjur

package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tanjur/internal/trending"
)

// TrendingRestaurants handles GET /api/v1/restaurants/trending.
func (h *Handler) TrendingRestaurants(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	items, err := h.trending.TrendingRestaurants(r.Context(), h.trending.NormalizeLimit(limitParam(r)), nil)
	if err != nil {
		rw.InternalError("Failed to fetch trending restaurants", err)
		return
	}
	rw.List(items, len(items))
}

// TrendingDishes handles GET /api/v1/dishes/trending.
func (h *Handler) TrendingDishes(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	items, err := h.trending.TrendingDishes(r.Context(), h.trending.NormalizeLimit(limitParam(r)), nil)
	if err != nil {
		rw.InternalError("Failed to fetch trending dishes", err)
		return
	}
	rw.List(items, len(items))
}

// ViewRequest is the body of POST /api/v1/views.
type ViewRequest struct {
	Type      string `json:"type" validate:"required,oneof=restaurant dish"`
	ID        string `json:"id" validate:"required,notblank,max=64"`
	SessionID string `json:"session_id" validate:"max=128"`
	UserID    string `json:"user_id" validate:"max=128"`
}

// TrackView handles POST /api/v1/views. Recording is best effort, so the
// response is always 202 for a well-formed request.
func (h *Handler) TrackView(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req ViewRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		rw.BadRequest("Invalid JSON body")
		return
	}
	if !validate(rw, &req) {
		return
	}

	kind := trending.KindRestaurants
	if req.Type == "dish" {
		kind = trending.KindDishes
	}
	h.trending.TrackView(r.Context(), kind, req.ID, req.SessionID, req.UserID)
	rw.Accepted(map[string]string{"status": "accepted"})
}
