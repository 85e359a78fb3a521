// Tanjur - Restaurant Catalog, Delivery Price Aggregation and Trending
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tanjur

package connectors

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/tomtom215/tanjur/internal/logging"
	"github.com/tomtom215/tanjur/internal/models"
)

const defaultBatchSize = 50

// Wolt reads the Wolt partner feed:
//
//	GET {apiUrl}/restaurants?city=&limit=&offset=
//	GET {apiUrl}/restaurants/{id}/menu
//
// Menu prices are in cents and converted to major units.
type Wolt struct {
	cfg        Config
	client     *feedClient
	lastSynced atomic.Int64
}

// NewWolt creates a Wolt connector.
func NewWolt(cfg Config) *Wolt {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	return &Wolt{cfg: cfg, client: newFeedClient("wolt", cfg)}
}

func (w *Wolt) Name() string            { return "Wolt" }
func (w *Wolt) Service() models.Service { return models.ServiceWolt }

// IsConfigured requires the enabled flag, an API key and an API URL.
func (w *Wolt) IsConfigured() bool { return platformConfigured(w.cfg) }

type woltRestaurantPage struct {
	Restaurants []woltRestaurant `json:"restaurants"`
}

type woltRestaurant struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Address     struct {
		Street     string `json:"street"`
		City       string `json:"city"`
		PostalCode string `json:"postal_code"`
	} `json:"address"`
	Location *struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"location"`
	Phone    string `json:"phone"`
	Website  string `json:"website"`
	ImageURL string `json:"image_url"`
}

type woltMenu struct {
	Categories []struct {
		Name  string `json:"name"`
		Items []struct {
			ID          string `json:"id"`
			Name        string `json:"name"`
			Description string `json:"description"`
			ImageURL    string `json:"image_url"`
			Price       int64  `json:"price"`
			Currency    string `json:"currency"`
		} `json:"items"`
	} `json:"categories"`
}

// FetchRestaurants pages through the restaurant list. city falls back to
// the configured city; empty means all cities.
func (w *Wolt) FetchRestaurants(ctx context.Context, city string) ([]models.RestaurantRecord, error) {
	if !w.IsConfigured() {
		logging.Warn().Str("connector", w.Name()).Msg("Connector not configured")
		return []models.RestaurantRecord{}, nil
	}
	if city == "" {
		city = w.cfg.City
	}

	records := make([]models.RestaurantRecord, 0)
	for offset := 0; ; offset += w.cfg.BatchSize {
		q := url.Values{}
		if city != "" {
			q.Set("city", city)
		}
		q.Set("limit", strconv.Itoa(w.cfg.BatchSize))
		q.Set("offset", strconv.Itoa(offset))

		var page woltRestaurantPage
		if err := w.client.getJSON(ctx, "restaurants", "/restaurants", q, &page); err != nil {
			return nil, fmt.Errorf("fetch restaurants at offset %d: %w", offset, err)
		}
		for i := range page.Restaurants {
			records = append(records, page.Restaurants[i].record())
		}
		if len(page.Restaurants) < w.cfg.BatchSize {
			break
		}
	}

	w.lastSynced.Store(time.Now().UnixNano())
	logging.Debug().Str("connector", w.Name()).Int("restaurants", len(records)).Msg("Fetched restaurants")
	return records, nil
}

func (r *woltRestaurant) record() models.RestaurantRecord {
	rec := models.RestaurantRecord{
		ExternalID:  r.ID,
		Name:        r.Name,
		Description: r.Description,
		Address:     r.Address.Street,
		City:        r.Address.City,
		PostalCode:  r.Address.PostalCode,
		PhoneNumber: r.Phone,
		Website:     r.Website,
		ImageURL:    r.ImageURL,
	}
	if r.Location != nil {
		lat, lon := r.Location.Lat, r.Location.Lon
		rec.Latitude, rec.Longitude = &lat, &lon
	}
	return rec
}

// FetchDishes flattens a restaurant's menu categories into dish records.
func (w *Wolt) FetchDishes(ctx context.Context, restaurantExternalID string) ([]models.DishRecord, error) {
	if !w.IsConfigured() {
		return []models.DishRecord{}, nil
	}

	var menu woltMenu
	path := "/restaurants/" + url.PathEscape(restaurantExternalID) + "/menu"
	if err := w.client.getJSON(ctx, "menu", path, nil, &menu); err != nil {
		return nil, fmt.Errorf("fetch menu of %s: %w", restaurantExternalID, err)
	}

	dishes := make([]models.DishRecord, 0)
	for _, cat := range menu.Categories {
		for _, item := range cat.Items {
			currency := item.Currency
			if currency == "" {
				currency = "EUR"
			}
			dishes = append(dishes, models.DishRecord{
				ExternalID:           item.ID,
				RestaurantExternalID: restaurantExternalID,
				Name:                 item.Name,
				Description:          item.Description,
				Category:             cat.Name,
				ImageURL:             item.ImageURL,
				Price:                float64(item.Price) / 100,
				Currency:             currency,
			})
		}
	}
	return dishes, nil
}

// Metadata describes the Wolt source. LastSyncedAt is the last successful
// restaurant fetch.
func (w *Wolt) Metadata() models.ConnectorMetadata {
	md := models.ConnectorMetadata{
		SourceName: "Wolt Croatia",
		SourceURL:  "https://wolt.com/hr",
		Version:    "1.0.0",
	}
	if ns := w.lastSynced.Load(); ns > 0 {
		md.LastSyncedAt = time.Unix(0, ns).UTC()
	}
	return md
}
