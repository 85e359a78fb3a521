// Tanjur - Restaurant Catalog, Delivery Price Aggregation and Trending
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tanjur

package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/tanjur/internal/config"
	"github.com/tomtom215/tanjur/internal/models"
)

// testDBSemaphore serializes DuckDB usage across parallel tests. It is held
// for the whole test, not only while opening the database.
var testDBSemaphore = make(chan struct{}, 1)

// setupTestDB opens an in-memory catalog whose clock is fixed at now.
func setupTestDB(t *testing.T, now time.Time) *DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	type result struct {
		db  *DB
		err error
	}
	resultCh := make(chan result, 1)
	go func() {
		db, err := New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "512MB", Threads: 1})
		resultCh <- result{db: db, err: err}
	}()

	select {
	case res := <-resultCh:
		if res.err != nil {
			t.Fatalf("failed to create test database: %v", res.err)
		}
		res.db.now = func() time.Time { return now }
		t.Cleanup(func() {
			if err := res.db.Close(); err != nil {
				t.Errorf("failed to close test database: %v", err)
			}
		})
		return res.db
	case <-time.After(120 * time.Second):
		t.Fatal("timed out creating test database")
		return nil
	}
}

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func sampleRestaurant(externalID, name string) *models.RestaurantRecord {
	return &models.RestaurantRecord{
		ExternalID: externalID,
		Name:       name,
		Address:    "Ilica 1",
		City:       "Zagreb",
		Latitude:   ptr(45.8131),
		Longitude:  ptr(15.9772),
	}
}

func sampleDish(restaurantExternalID, name string, price float64) *models.DishRecord {
	return &models.DishRecord{
		ExternalID:           name,
		RestaurantExternalID: restaurantExternalID,
		Name:                 name,
		Category:             "Mains",
		Price:                price,
		Currency:             "EUR",
	}
}

func TestNew_AppliesMigrations(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t, testNow)

	version, err := db.CurrentSchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("CurrentSchemaVersion() error = %v", err)
	}
	if version != migrations[len(migrations)-1].Version {
		t.Errorf("schema version = %d, want %d", version, migrations[len(migrations)-1].Version)
	}

	// re-running is a no-op
	if err := db.runVersionedMigrations(); err != nil {
		t.Fatalf("second migration run error = %v", err)
	}
	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestCreateRestaurantWithLink(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t, testNow)
	ctx := context.Background()

	r, err := db.CreateRestaurantWithLink(ctx, models.ServiceWolt, sampleRestaurant("w-1", "Bistro Zagreb"), "bistro-zagreb")
	if err != nil {
		t.Fatalf("CreateRestaurantWithLink() error = %v", err)
	}
	if r.OsmID != "wolt-w-1" {
		t.Errorf("OsmID = %q, want wolt-w-1", r.OsmID)
	}
	if !r.Verified || r.Status != models.StatusActive {
		t.Errorf("new restaurant should be verified and active, got verified=%v status=%s", r.Verified, r.Status)
	}

	got, err := db.GetRestaurant(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetRestaurant() error = %v", err)
	}
	if got.Name != "Bistro Zagreb" || got.Slug != "bistro-zagreb" {
		t.Errorf("stored restaurant = %+v", got)
	}
	if got.Latitude == nil || *got.Latitude != 45.8131 {
		t.Errorf("Latitude = %v, want 45.8131", got.Latitude)
	}
	if !got.CreatedAt.Equal(testNow) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, testNow)
	}

	link, err := db.FindServiceLink(ctx, models.ServiceWolt, "w-1")
	if err != nil {
		t.Fatalf("FindServiceLink() error = %v", err)
	}
	if link.RestaurantID != r.ID {
		t.Errorf("link.RestaurantID = %q, want %q", link.RestaurantID, r.ID)
	}

	// same external id on another service is a different identity
	if _, err := db.FindServiceLink(ctx, models.ServiceGlovo, "w-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindServiceLink(GLOVO) error = %v, want ErrNotFound", err)
	}
}

func TestCreateRestaurantWithLink_SlugSuffixAndConflict(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t, testNow)
	ctx := context.Background()

	first, err := db.CreateRestaurantWithLink(ctx, models.ServiceWolt, sampleRestaurant("w-1", "Pizzeria"), "pizzeria")
	if err != nil {
		t.Fatalf("first create error = %v", err)
	}
	second, err := db.CreateRestaurantWithLink(ctx, models.ServiceGlovo, sampleRestaurant("g-9", "Pizzeria"), "pizzeria")
	if err != nil {
		t.Fatalf("second create error = %v", err)
	}
	if first.Slug != "pizzeria" || second.Slug != "pizzeria-2" {
		t.Errorf("slugs = %q, %q; want pizzeria, pizzeria-2", first.Slug, second.Slug)
	}

	_, err = db.CreateRestaurantWithLink(ctx, models.ServiceGlovo, sampleRestaurant("g-9", "Other"), "other")
	if err == nil {
		t.Fatal("expected error for duplicate (service, external id)")
	}
	if _, err := db.GetRestaurantBySlug(ctx, "other"); !errors.Is(err, ErrNotFound) {
		t.Errorf("rolled back restaurant should not exist, got err = %v", err)
	}
}

func TestUpdateRestaurantAndTouchLink(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t, testNow)
	ctx := context.Background()

	r, err := db.CreateRestaurantWithLink(ctx, models.ServiceManual, sampleRestaurant("m-1", "Old Name"), "old-name")
	if err != nil {
		t.Fatalf("create error = %v", err)
	}

	rec := sampleRestaurant("m-1", "New Name")
	rec.Latitude = ptr(45.8)
	rec.Website = "https://example.hr"
	if err := db.UpdateRestaurant(ctx, r.ID, rec); err != nil {
		t.Fatalf("UpdateRestaurant() error = %v", err)
	}
	got, err := db.GetRestaurant(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetRestaurant() error = %v", err)
	}
	if got.Name != "New Name" || got.Slug != "old-name" || got.Website != "https://example.hr" {
		t.Errorf("updated restaurant = %+v", got)
	}
	if got.Latitude == nil || *got.Latitude != 45.8 {
		t.Errorf("Latitude = %v, want 45.8", got.Latitude)
	}

	link, err := db.FindServiceLink(ctx, models.ServiceManual, "m-1")
	if err != nil {
		t.Fatalf("FindServiceLink() error = %v", err)
	}
	later := testNow.Add(time.Hour)
	if err := db.TouchServiceLink(ctx, link.ID, later); err != nil {
		t.Fatalf("TouchServiceLink() error = %v", err)
	}
	link, _ = db.FindServiceLink(ctx, models.ServiceManual, "m-1")
	if !link.LastSyncedAt.Equal(later) {
		t.Errorf("LastSyncedAt = %v, want %v", link.LastSyncedAt, later)
	}

	if err := db.UpdateRestaurant(ctx, "missing", rec); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateRestaurant(missing) error = %v, want ErrNotFound", err)
	}
}

func TestUpdateRestaurant_KeepsFieldsMissingFromRecord(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t, testNow)
	ctx := context.Background()

	full := sampleRestaurant("m-2", "Konoba")
	full.Description = "Dalmatian food"
	full.PostalCode = "10000"
	full.PhoneNumber = "+385 1 234 567"
	full.Website = "https://konoba.example"
	full.ImageURL = "https://konoba.example/a.jpg"
	r, err := db.CreateRestaurantWithLink(ctx, models.ServiceWolt, full, "konoba")
	if err != nil {
		t.Fatalf("create error = %v", err)
	}

	sparse := &models.RestaurantRecord{
		ExternalID: "m-2",
		Name:       "Konoba Mate",
		Address:    "Vlaska 7",
		City:       "Zagreb",
	}
	if err := db.UpdateRestaurant(ctx, r.ID, sparse); err != nil {
		t.Fatalf("UpdateRestaurant() error = %v", err)
	}

	got, err := db.GetRestaurant(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetRestaurant() error = %v", err)
	}
	if got.Name != "Konoba Mate" || got.Address != "Vlaska 7" {
		t.Errorf("required fields not overwritten: %+v", got)
	}
	if got.Latitude == nil || *got.Latitude != 45.8131 || got.Longitude == nil || *got.Longitude != 15.9772 {
		t.Errorf("coordinates = %v, %v, want kept", got.Latitude, got.Longitude)
	}
	if got.Description != full.Description || got.PostalCode != full.PostalCode ||
		got.PhoneNumber != full.PhoneNumber || got.Website != full.Website || got.ImageURL != full.ImageURL {
		t.Errorf("optional fields not kept: %+v", got)
	}
}

func TestDishAndPriceLifecycle(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t, testNow)
	ctx := context.Background()

	r, err := db.CreateRestaurantWithLink(ctx, models.ServiceWolt, sampleRestaurant("w-1", "Bistro"), "bistro")
	if err != nil {
		t.Fatalf("create restaurant error = %v", err)
	}

	d, err := db.CreateDishWithPrice(ctx, r.ID, "burek-x", models.ServiceWolt, sampleDish("w-1", "Burek", 7.99))
	if err != nil {
		t.Fatalf("CreateDishWithPrice() error = %v", err)
	}
	if !d.Verified || !d.IsAvailable {
		t.Errorf("new dish should be verified and available: %+v", d)
	}

	found, err := db.FindDishBySlug(ctx, r.ID, "burek-x")
	if err != nil {
		t.Fatalf("FindDishBySlug() error = %v", err)
	}
	if found.ID != d.ID {
		t.Errorf("FindDishBySlug ID = %q, want %q", found.ID, d.ID)
	}
	if _, err := db.FindDishBySlug(ctx, "other-restaurant", "burek-x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("slug lookup must be scoped to the restaurant, got err = %v", err)
	}

	price, err := db.ActivePrice(ctx, d.ID, models.ServiceWolt)
	if err != nil {
		t.Fatalf("ActivePrice() error = %v", err)
	}
	if price.Price != 7.99 || price.Currency != "EUR" {
		t.Errorf("active price = %+v, want 7.99 EUR", price)
	}
	if _, err := db.ActivePrice(ctx, d.ID, models.ServiceGlovo); !errors.Is(err, ErrNotFound) {
		t.Errorf("ActivePrice(GLOVO) error = %v, want ErrNotFound", err)
	}

	if err := db.UpdatePrice(ctx, price.ID, 8.49, "EUR"); err != nil {
		t.Fatalf("UpdatePrice() error = %v", err)
	}
	if err := db.CreatePrice(ctx, d.ID, models.ServiceGlovo, 8.20, "EUR"); err != nil {
		t.Fatalf("CreatePrice() error = %v", err)
	}

	prices, err := db.ListPrices(ctx, d.ID)
	if err != nil {
		t.Fatalf("ListPrices() error = %v", err)
	}
	if len(prices) != 2 {
		t.Fatalf("len(prices) = %d, want 2 (update must not add a row)", len(prices))
	}
	price, _ = db.ActivePrice(ctx, d.ID, models.ServiceWolt)
	if price.Price != 8.49 {
		t.Errorf("Wolt price after update = %v, want 8.49", price.Price)
	}

	upd := sampleDish("w-1", "Burek", 8.49)
	upd.Description = "with cheese"
	if err := db.UpdateDish(ctx, d.ID, upd); err != nil {
		t.Fatalf("UpdateDish() error = %v", err)
	}
	found, _ = db.FindDishBySlug(ctx, r.ID, "burek-x")
	if found.Description != "with cheese" {
		t.Errorf("Description = %q, want updated", found.Description)
	}
}
