// Tanjur - Restaurant Catalog, Delivery Price Aggregation and Trending
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tanjur

package connectors

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tanjur/internal/models"
)

// ManualFeed is the on-disk format of the curated manual feed.
//
//	{"restaurants": [{"externalId": "...", ...}], "dishes": [{"restaurantExternalId": "...", ...}]}
type ManualFeed struct {
	Restaurants []models.RestaurantRecord `json:"restaurants"`
	Dishes      []models.DishRecord       `json:"dishes"`
}

// Manual serves curated records from a JSON feed file. It is always
// configured; without a feed path it returns nothing. The file is re-read
// on every fetch so edits are picked up by the next sync.
type Manual struct {
	cfg Config
}

// NewManual creates a manual connector.
func NewManual(cfg Config) *Manual {
	return &Manual{cfg: cfg}
}

func (m *Manual) Name() string            { return "Manual" }
func (m *Manual) Service() models.Service { return models.ServiceManual }
func (m *Manual) IsConfigured() bool      { return true }

func (m *Manual) load() (*ManualFeed, error) {
	if m.cfg.FeedPath == "" {
		return &ManualFeed{}, nil
	}
	data, err := os.ReadFile(m.cfg.FeedPath)
	if err != nil {
		return nil, fmt.Errorf("read manual feed: %w", err)
	}
	var feed ManualFeed
	if err := json.Unmarshal(data, &feed); err != nil {
		return nil, fmt.Errorf("parse manual feed %s: %w", m.cfg.FeedPath, err)
	}
	return &feed, nil
}

// FetchRestaurants returns the feed restaurants, restricted to city
// (case-insensitive) when given.
func (m *Manual) FetchRestaurants(_ context.Context, city string) ([]models.RestaurantRecord, error) {
	feed, err := m.load()
	if err != nil {
		return nil, err
	}
	out := make([]models.RestaurantRecord, 0, len(feed.Restaurants))
	for _, r := range feed.Restaurants {
		if city != "" && !strings.EqualFold(r.City, city) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// FetchDishes returns the feed dishes of one restaurant.
func (m *Manual) FetchDishes(_ context.Context, restaurantExternalID string) ([]models.DishRecord, error) {
	feed, err := m.load()
	if err != nil {
		return nil, err
	}
	out := make([]models.DishRecord, 0)
	for _, d := range feed.Dishes {
		if d.RestaurantExternalID == restaurantExternalID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *Manual) Metadata() models.ConnectorMetadata {
	md := models.ConnectorMetadata{
		SourceName: "Manual entry",
		Version:    "1.0.0",
	}
	if m.cfg.FeedPath != "" {
		md.SourceURL = "file://" + m.cfg.FeedPath
		if info, err := os.Stat(m.cfg.FeedPath); err == nil {
			md.LastSyncedAt = info.ModTime().UTC().Truncate(time.Second)
		}
	}
	return md
}
