// Tanjur - Restaurant Catalog, Delivery Price Aggregation and Trending
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tanjur

package models

import "time"

// RestaurantEngagement is one eligible restaurant with its raw engagement
// counters inside a trending window. Rating is the lifetime average.
type RestaurantEngagement struct {
	ID            string
	Name          string
	Slug          string
	ImageURL      string
	City          string
	AverageRating float64
	TotalReviews  int
	CreatedAt     time.Time

	Views     int
	Favorites int
	Reviews   int
}

// DishEngagement is one eligible dish with its raw engagement counters
// inside a trending window. Dishes have no favorites.
type DishEngagement struct {
	ID             string
	Name           string
	Slug           string
	ImageURL       string
	RestaurantName string
	RestaurantSlug string
	AverageRating  float64
	TotalReviews   int
	CreatedAt      time.Time

	Views       int
	Reviews     int
	LowestPrice *float64
}
