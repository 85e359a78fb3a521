// Tanjur - Restaurant Catalog, Delivery Price Aggregation and Trending
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tanjur

package models

import "time"

// RestaurantRecord is the normalized restaurant shape every connector produces.
// ExternalID is unique within the producing service.
type RestaurantRecord struct {
	ExternalID  string   `json:"externalId" validate:"required,max=128"`
	Name        string   `json:"name" validate:"required,notblank,max=256"`
	Description string   `json:"description,omitempty" validate:"max=4096"`
	Address     string   `json:"address" validate:"required,max=512"`
	City        string   `json:"city" validate:"required,max=128"`
	PostalCode  string   `json:"postalCode,omitempty" validate:"max=16"`
	Latitude    *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
	PhoneNumber string   `json:"phoneNumber,omitempty" validate:"max=64"`
	Website     string   `json:"website,omitempty" validate:"max=512"`
	ImageURL    string   `json:"imageUrl,omitempty" validate:"max=1024"`
}

// HasCoordinates reports whether both coordinates are present.
func (r *RestaurantRecord) HasCoordinates() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// DishRecord is the normalized menu item shape every connector produces.
// Price is in major currency units.
type DishRecord struct {
	ExternalID           string  `json:"externalId" validate:"required,max=128"`
	RestaurantExternalID string  `json:"restaurantExternalId" validate:"required,max=128"`
	Name                 string  `json:"name" validate:"required,notblank,max=256"`
	Description          string  `json:"description,omitempty" validate:"max=4096"`
	Category             string  `json:"category,omitempty" validate:"max=128"`
	ImageURL             string  `json:"imageUrl,omitempty" validate:"max=1024"`
	Price                float64 `json:"price" validate:"gte=0"`
	Currency             string  `json:"currency" validate:"required,iso4217"`
}

// ConnectorMetadata describes a connector's data source.
type ConnectorMetadata struct {
	SourceName   string    `json:"source_name"`
	SourceURL    string    `json:"source_url,omitempty"`
	LastSyncedAt time.Time `json:"last_synced_at"`
	Version      string    `json:"version"`
}
