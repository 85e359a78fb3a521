// Tanjur - Restaurant Catalog, Delivery Price Aggregation and Trending
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tanjur

package sync

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/tanjur/internal/database"
	"github.com/tomtom215/tanjur/internal/geocoding"
	"github.com/tomtom215/tanjur/internal/models"
)

// fakeCatalog is an in-memory Catalog keyed the same way as the DuckDB store.
type fakeCatalog struct {
	mu          sync.Mutex
	seq         int
	writes      int
	restaurants map[string]*models.Restaurant
	links       map[string]*models.ServiceLink // service|externalID
	dishes      map[string]*models.Dish        // restaurantID|slug
	prices      map[string]*models.DishPrice   // dishID|service

	createDishErr func(rec *models.DishRecord) error
}

var _ Catalog = (*fakeCatalog)(nil)

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		restaurants: make(map[string]*models.Restaurant),
		links:       make(map[string]*models.ServiceLink),
		dishes:      make(map[string]*models.Dish),
		prices:      make(map[string]*models.DishPrice),
	}
}

func (f *fakeCatalog) id(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *fakeCatalog) FindServiceLink(_ context.Context, service models.Service, externalID string) (*models.ServiceLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.links[string(service)+"|"+externalID]
	if !ok {
		return nil, database.ErrNotFound
	}
	c := *l
	return &c, nil
}

func (f *fakeCatalog) GetRestaurant(_ context.Context, id string) (*models.Restaurant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.restaurants[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	c := *r
	return &c, nil
}

func (f *fakeCatalog) FindDishBySlug(_ context.Context, restaurantID, slug string) (*models.Dish, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.dishes[restaurantID+"|"+slug]
	if !ok {
		return nil, database.ErrNotFound
	}
	c := *d
	return &c, nil
}

func (f *fakeCatalog) ActivePrice(_ context.Context, dishID string, service models.Service) (*models.DishPrice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.prices[dishID+"|"+string(service)]
	if !ok {
		return nil, database.ErrNotFound
	}
	c := *p
	return &c, nil
}

// applyRestaurant mirrors the store: required fields are overwritten, optional
// ones only when the record carries a value.
func applyRestaurant(r *models.Restaurant, rec *models.RestaurantRecord) {
	r.Name = rec.Name
	r.Address = rec.Address
	r.City = rec.City
	keep := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	keep(&r.Description, rec.Description)
	keep(&r.PostalCode, rec.PostalCode)
	keep(&r.PhoneNumber, rec.PhoneNumber)
	keep(&r.Website, rec.Website)
	keep(&r.ImageURL, rec.ImageURL)
	if rec.Latitude != nil {
		r.Latitude = rec.Latitude
	}
	if rec.Longitude != nil {
		r.Longitude = rec.Longitude
	}
	r.Verified = true
}

func (f *fakeCatalog) UpdateRestaurant(_ context.Context, id string, rec *models.RestaurantRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.restaurants[id]
	if !ok {
		return database.ErrNotFound
	}
	f.writes++
	applyRestaurant(r, rec)
	return nil
}

func (f *fakeCatalog) CreateRestaurantWithLink(_ context.Context, service models.Service, rec *models.RestaurantRecord, baseSlug string) (*models.Restaurant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := string(service) + "|" + rec.ExternalID
	if _, ok := f.links[key]; ok {
		return nil, database.ErrLinkConflict
	}
	f.writes++
	r := &models.Restaurant{ID: f.id("r"), Slug: baseSlug, Status: models.StatusActive}
	applyRestaurant(r, rec)
	f.restaurants[r.ID] = r
	f.links[key] = &models.ServiceLink{ID: f.id("l"), RestaurantID: r.ID, Service: service, ExternalID: rec.ExternalID}
	c := *r
	return &c, nil
}

func (f *fakeCatalog) TouchServiceLink(_ context.Context, linkID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.links {
		if l.ID == linkID {
			f.writes++
			l.LastSyncedAt = at
			return nil
		}
	}
	return database.ErrNotFound
}

func (f *fakeCatalog) UpdateDish(_ context.Context, id string, rec *models.DishRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.dishes {
		if d.ID == id {
			f.writes++
			d.Name, d.Description, d.Category, d.ImageURL = rec.Name, rec.Description, rec.Category, rec.ImageURL
			return nil
		}
	}
	return database.ErrNotFound
}

func (f *fakeCatalog) CreateDishWithPrice(_ context.Context, restaurantID, slug string, service models.Service, rec *models.DishRecord) (*models.Dish, error) {
	if f.createDishErr != nil {
		if err := f.createDishErr(rec); err != nil {
			return nil, err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	d := &models.Dish{
		ID: f.id("d"), RestaurantID: restaurantID, Slug: slug,
		Name: rec.Name, Description: rec.Description, Category: rec.Category, ImageURL: rec.ImageURL,
		Verified: true, IsAvailable: true,
	}
	f.dishes[restaurantID+"|"+slug] = d
	f.prices[d.ID+"|"+string(service)] = &models.DishPrice{
		ID: f.id("p"), DishID: d.ID, Service: service, Price: rec.Price, Currency: rec.Currency, IsActive: true,
	}
	c := *d
	return &c, nil
}

func (f *fakeCatalog) UpdatePrice(_ context.Context, priceID string, price float64, currency string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.prices {
		if p.ID == priceID {
			f.writes++
			p.Price, p.Currency = price, currency
			return nil
		}
	}
	return database.ErrNotFound
}

func (f *fakeCatalog) CreatePrice(_ context.Context, dishID string, service models.Service, price float64, currency string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	f.prices[dishID+"|"+string(service)] = &models.DishPrice{
		ID: f.id("p"), DishID: dishID, Service: service, Price: price, Currency: currency, IsActive: true,
	}
	return nil
}

func (f *fakeCatalog) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

// snapshot renders the catalog without ids or timestamps, sorted, so two
// catalogs with the same content compare equal.
func (f *fakeCatalog) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, r := range f.restaurants {
		out = append(out, fmt.Sprintf("restaurant %s %s %s %s", r.Slug, r.Name, r.Address, r.City))
	}
	for _, d := range f.dishes {
		out = append(out, fmt.Sprintf("dish %s %s", d.Name, d.Category))
	}
	for _, p := range f.prices {
		out = append(out, fmt.Sprintf("price %s %.2f %s", p.Service, p.Price, p.Currency))
	}
	sort.Strings(out)
	return out
}

func (f *fakeCatalog) restaurantByExternal(service models.Service, externalID string) *models.Restaurant {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.links[string(service)+"|"+externalID]
	if !ok {
		return nil
	}
	return f.restaurants[l.RestaurantID]
}

func (f *fakeCatalog) priceOf(restaurantID, dishName string, service models.Service) (float64, bool) {
	d, err := f.FindDishBySlug(context.Background(), restaurantID, DishSlug(dishName, restaurantID))
	if err != nil {
		return 0, false
	}
	p, err := f.ActivePrice(context.Background(), d.ID, service)
	if err != nil {
		return 0, false
	}
	return p.Price, true
}

// mockConnector is a Connector with func-field behavior.
type mockConnector struct {
	name        string
	service     models.Service
	configured  bool
	restaurants func(ctx context.Context, city string) ([]models.RestaurantRecord, error)
	dishes      func(ctx context.Context, externalID string) ([]models.DishRecord, error)

	restaurantCalls atomic.Int32
	dishCalls       atomic.Int32
}

func (m *mockConnector) Name() string            { return m.name }
func (m *mockConnector) Service() models.Service { return m.service }
func (m *mockConnector) IsConfigured() bool      { return m.configured }

func (m *mockConnector) FetchRestaurants(ctx context.Context, city string) ([]models.RestaurantRecord, error) {
	m.restaurantCalls.Add(1)
	if m.restaurants != nil {
		return m.restaurants(ctx, city)
	}
	return []models.RestaurantRecord{}, nil
}

func (m *mockConnector) FetchDishes(ctx context.Context, externalID string) ([]models.DishRecord, error) {
	m.dishCalls.Add(1)
	if m.dishes != nil {
		return m.dishes(ctx, externalID)
	}
	return []models.DishRecord{}, nil
}

func (m *mockConnector) Metadata() models.ConnectorMetadata {
	return models.ConnectorMetadata{SourceName: m.name, Version: "test"}
}

// feed is a mutable source used to drive a mockConnector across runs.
type feed struct {
	mu          sync.Mutex
	restaurants []models.RestaurantRecord
	dishes      map[string][]models.DishRecord
	dishErr     map[string]error
}

func (f *feed) connector(service models.Service) *mockConnector {
	return &mockConnector{
		name:       string(service),
		service:    service,
		configured: true,
		restaurants: func(context.Context, string) ([]models.RestaurantRecord, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			out := make([]models.RestaurantRecord, len(f.restaurants))
			copy(out, f.restaurants)
			return out, nil
		},
		dishes: func(_ context.Context, externalID string) ([]models.DishRecord, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			if err := f.dishErr[externalID]; err != nil {
				return nil, err
			}
			out := make([]models.DishRecord, len(f.dishes[externalID]))
			copy(out, f.dishes[externalID])
			return out, nil
		},
	}
}

func restaurantRecord(externalID, name string) models.RestaurantRecord {
	return models.RestaurantRecord{
		ExternalID: externalID,
		Name:       name,
		Address:    "Ilica " + externalID,
		City:       "Zagreb",
	}
}

func dishRecord(restaurantExternalID, externalID, name string, price float64) models.DishRecord {
	return models.DishRecord{
		ExternalID:           externalID,
		RestaurantExternalID: restaurantExternalID,
		Name:                 name,
		Category:             "Mains",
		Price:                price,
		Currency:             "EUR",
	}
}

// mockGeocoder returns fixed coordinates or an error.
type mockGeocoder struct {
	err   error
	calls atomic.Int32
}

func (g *mockGeocoder) Geocode(context.Context, string) (*geocoding.Coordinates, error) {
	g.calls.Add(1)
	if g.err != nil {
		return nil, g.err
	}
	return &geocoding.Coordinates{Latitude: 45.81, Longitude: 15.98}, nil
}

var errBoom = errors.New("boom")
