// Tanjur - Restaurant Catalog, Delivery Price Aggregation and Trending
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tanjur

package models

// TrendingWeights are the per-signal multipliers of the trending score.
// All weights are non-negative.
type TrendingWeights struct {
	Views     float64 `json:"views" validate:"gte=0"`
	Favorites float64 `json:"favorites" validate:"gte=0"`
	Reviews   float64 `json:"reviews" validate:"gte=0"`
	Rating    float64 `json:"rating" validate:"gte=0"`
}

// DefaultTrendingWeights returns {views: 1, favorites: 2, reviews: 3, rating: 10}.
func DefaultTrendingWeights() TrendingWeights {
	return TrendingWeights{Views: 1.0, Favorites: 2.0, Reviews: 3.0, Rating: 10.0}
}

// TrendingRestaurant is a scored restaurant. Never persisted.
type TrendingRestaurant struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Slug          string  `json:"slug"`
	ImageURL      string  `json:"image_url,omitempty"`
	AverageRating float64 `json:"average_rating"`
	TotalReviews  int     `json:"total_reviews"`
	City          string  `json:"city"`
	TrendingScore float64 `json:"trending_score"`
}

// TrendingDish is a scored dish. LowestPrice is display-only.
type TrendingDish struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Slug           string   `json:"slug"`
	ImageURL       string   `json:"image_url,omitempty"`
	AverageRating  float64  `json:"average_rating"`
	TotalReviews   int      `json:"total_reviews"`
	RestaurantName string   `json:"restaurant_name"`
	RestaurantSlug string   `json:"restaurant_slug"`
	TrendingScore  float64  `json:"trending_score"`
	LowestPrice    *float64 `json:"lowest_price,omitempty"`
}
