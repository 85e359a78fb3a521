// Tanjur - Restaurant Catalog, Delivery Price Aggregation and Trending
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tanjur

package models

import (
	"fmt"
	"strings"
	"time"
)

// Service identifies an external data source a catalog restaurant can be linked to.
type Service string

const (
	ServiceWolt   Service = "WOLT"
	ServiceGlovo  Service = "GLOVO"
	ServiceManual Service = "MANUAL"
)

// Services lists every known service in registry order.
var Services = []Service{ServiceWolt, ServiceGlovo, ServiceManual}

// ParseService parses a service name case-insensitively.
func ParseService(s string) (Service, error) {
	svc := Service(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Services {
		if svc == known {
			return svc, nil
		}
	}
	return "", fmt.Errorf("unknown service %q", s)
}

// RestaurantStatus is the lifecycle state of a catalog restaurant.
type RestaurantStatus string

const (
	StatusActive  RestaurantStatus = "ACTIVE"
	StatusPending RestaurantStatus = "PENDING"
	StatusClosed  RestaurantStatus = "CLOSED"
)

// Restaurant is a canonical catalog restaurant.
type Restaurant struct {
	ID            string           `json:"id"`
	OsmID         string           `json:"osm_id"`
	Name          string           `json:"name"`
	Slug          string           `json:"slug"`
	Description   string           `json:"description,omitempty"`
	Address       string           `json:"address"`
	City          string           `json:"city"`
	PostalCode    string           `json:"postal_code,omitempty"`
	Latitude      *float64         `json:"latitude,omitempty"`
	Longitude     *float64         `json:"longitude,omitempty"`
	PhoneNumber   string           `json:"phone_number,omitempty"`
	Website       string           `json:"website,omitempty"`
	ImageURL      string           `json:"image_url,omitempty"`
	Verified      bool             `json:"verified"`
	Status        RestaurantStatus `json:"status"`
	AverageRating float64          `json:"average_rating"`
	TotalReviews  int              `json:"total_reviews"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// Dish is a catalog menu item belonging to one restaurant.
type Dish struct {
	ID            string    `json:"id"`
	RestaurantID  string    `json:"restaurant_id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug"`
	Description   string    `json:"description,omitempty"`
	Category      string    `json:"category,omitempty"`
	ImageURL      string    `json:"image_url,omitempty"`
	Verified      bool      `json:"verified"`
	IsAvailable   bool      `json:"is_available"`
	AverageRating float64   `json:"average_rating"`
	TotalReviews  int       `json:"total_reviews"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DishPrice is the price of a dish on one service. Several rows can exist
// per dish; the current price for a service is the most recently updated
// active row for that (dish, service) pair.
type DishPrice struct {
	ID        string    `json:"id"`
	DishID    string    `json:"dish_id"`
	Service   Service   `json:"service"`
	Price     float64   `json:"price"`
	Currency  string    `json:"currency"`
	IsActive  bool      `json:"is_active"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ServiceLink binds a catalog restaurant to its identity at one service.
// (Service, ExternalID) is unique and is the only key used to match
// incoming records; (RestaurantID, Service) is unique as well.
type ServiceLink struct {
	ID           string    `json:"id"`
	RestaurantID string    `json:"restaurant_id"`
	Service      Service   `json:"service"`
	ExternalID   string    `json:"external_id"`
	LastSyncedAt time.Time `json:"last_synced_at"`
}

// Review is a user rating on a restaurant, a dish, or both.
type Review struct {
	ID           string    `json:"id"`
	RestaurantID *string   `json:"restaurant_id,omitempty"`
	DishID       *string   `json:"dish_id,omitempty"`
	Rating       int       `json:"rating"`
	CreatedAt    time.Time `json:"created_at"`
}

// ViewType is the kind of entity a view event refers to.
type ViewType string

const (
	ViewRestaurant ViewType = "RESTAURANT_VIEW"
	ViewDish       ViewType = "DISH_VIEW"
)

// ViewEvent is one page view of a restaurant or dish.
type ViewEvent struct {
	ID           string    `json:"id"`
	ViewType     ViewType  `json:"view_type"`
	RestaurantID *string   `json:"restaurant_id,omitempty"`
	DishID       *string   `json:"dish_id,omitempty"`
	SessionID    string    `json:"session_id,omitempty"`
	UserID       string    `json:"user_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Favorite marks a restaurant as a favorite of a user.
type Favorite struct {
	ID           string    `json:"id"`
	RestaurantID string    `json:"restaurant_id"`
	UserID       string    `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
}
