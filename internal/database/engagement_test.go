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

	"github.com/tomtom215/tanjur/internal/models"
)

func TestEngagement_WindowCounts(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t, testNow)
	ctx := context.Background()
	week := 7 * 24 * time.Hour
	since := testNow.Add(-week)

	r, err := db.CreateRestaurantWithLink(ctx, models.ServiceWolt, sampleRestaurant("w-1", "Bistro"), "bistro")
	if err != nil {
		t.Fatalf("create restaurant: %v", err)
	}
	pending, err := db.CreateRestaurantWithLink(ctx, models.ServiceWolt, sampleRestaurant("w-2", "Pending"), "pending")
	if err != nil {
		t.Fatalf("create restaurant: %v", err)
	}
	if err := db.SetRestaurantStatus(ctx, pending.ID, models.StatusPending); err != nil {
		t.Fatalf("SetRestaurantStatus: %v", err)
	}
	d, err := db.CreateDishWithPrice(ctx, r.ID, "burek", models.ServiceWolt, sampleDish("w-1", "Burek", 7.99))
	if err != nil {
		t.Fatalf("create dish: %v", err)
	}
	if err := db.CreatePrice(ctx, d.ID, models.ServiceGlovo, 6.50, "EUR"); err != nil {
		t.Fatalf("create price: %v", err)
	}
	// inactive rows never count as the lowest price
	if _, err := db.conn.ExecContext(ctx,
		`INSERT INTO dish_prices (id, dish_id, service, price, currency, is_active, updated_at)
		VALUES ('inactive', ?, 'MANUAL', 1.00, 'EUR', false, ?)`, d.ID, testNow); err != nil {
		t.Fatalf("insert inactive price: %v", err)
	}

	// inside the window
	for i := 0; i < 2; i++ {
		if err := db.RecordView(ctx, models.ViewRestaurant, r.ID, "s", ""); err != nil {
			t.Fatalf("RecordView: %v", err)
		}
	}
	if err := db.RecordView(ctx, models.ViewDish, d.ID, "s", ""); err != nil {
		t.Fatalf("RecordView dish: %v", err)
	}
	if err := db.AddFavorite(ctx, r.ID, "u1"); err != nil {
		t.Fatalf("AddFavorite: %v", err)
	}
	if err := db.AddFavorite(ctx, r.ID, "u1"); err != nil {
		t.Fatalf("duplicate AddFavorite should be a no-op: %v", err)
	}
	if err := db.AddReview(ctx, &models.Review{RestaurantID: &r.ID, Rating: 4}); err != nil {
		t.Fatalf("AddReview restaurant: %v", err)
	}
	if err := db.AddReview(ctx, &models.Review{DishID: &d.ID, Rating: 5}); err != nil {
		t.Fatalf("AddReview dish: %v", err)
	}

	// outside the window
	db.now = func() time.Time { return testNow.Add(-8 * 24 * time.Hour) }
	if err := db.RecordView(ctx, models.ViewRestaurant, r.ID, "s", ""); err != nil {
		t.Fatalf("RecordView old: %v", err)
	}
	if err := db.AddReview(ctx, &models.Review{DishID: &d.ID, Rating: 3}); err != nil {
		t.Fatalf("AddReview old: %v", err)
	}
	db.now = func() time.Time { return testNow }

	restaurants, err := db.RestaurantEngagement(ctx, since)
	if err != nil {
		t.Fatalf("RestaurantEngagement() error = %v", err)
	}
	if len(restaurants) != 1 {
		t.Fatalf("len(restaurants) = %d, want 1 (pending excluded)", len(restaurants))
	}
	got := restaurants[0]
	if got.ID != r.ID || got.Views != 2 || got.Favorites != 1 || got.Reviews != 2 {
		t.Errorf("restaurant engagement = %+v, want views=2 favorites=1 reviews=2", got)
	}
	if got.AverageRating != 4 || got.TotalReviews != 1 {
		t.Errorf("restaurant rating = %v/%d, want 4/1", got.AverageRating, got.TotalReviews)
	}

	dishes, err := db.DishEngagement(ctx, since)
	if err != nil {
		t.Fatalf("DishEngagement() error = %v", err)
	}
	if len(dishes) != 1 {
		t.Fatalf("len(dishes) = %d, want 1", len(dishes))
	}
	dish := dishes[0]
	if dish.Views != 1 || dish.Reviews != 1 {
		t.Errorf("dish engagement = %+v, want views=1 reviews=1", dish)
	}
	if dish.AverageRating != 4 || dish.TotalReviews != 2 {
		t.Errorf("dish rating = %v/%d, want lifetime 4/2", dish.AverageRating, dish.TotalReviews)
	}
	if dish.RestaurantName != "Bistro" || dish.RestaurantSlug != "bistro" {
		t.Errorf("dish restaurant = %q/%q", dish.RestaurantName, dish.RestaurantSlug)
	}
	if dish.LowestPrice == nil || *dish.LowestPrice != 6.50 {
		t.Errorf("LowestPrice = %v, want 6.50", dish.LowestPrice)
	}
}

func TestEngagement_ReviewOnBothCountsTwice(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t, testNow)
	ctx := context.Background()

	r, err := db.CreateRestaurantWithLink(ctx, models.ServiceManual, sampleRestaurant("m-1", "Konoba"), "konoba")
	if err != nil {
		t.Fatalf("create restaurant: %v", err)
	}
	d, err := db.CreateDishWithPrice(ctx, r.ID, "pasticada", models.ServiceManual, sampleDish("m-1", "Pasticada", 14))
	if err != nil {
		t.Fatalf("create dish: %v", err)
	}
	if err := db.AddReview(ctx, &models.Review{RestaurantID: &r.ID, DishID: &d.ID, Rating: 5}); err != nil {
		t.Fatalf("AddReview: %v", err)
	}

	rows, err := db.RestaurantEngagement(ctx, testNow.Add(-time.Hour))
	if err != nil {
		t.Fatalf("RestaurantEngagement() error = %v", err)
	}
	if len(rows) != 1 || rows[0].Reviews != 2 {
		t.Errorf("reviews = %+v, want one row with reviews=2", rows)
	}
}

func TestAddReview_Validation(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t, testNow)
	ctx := context.Background()
	id := "r-1"

	tests := []struct {
		name   string
		review models.Review
	}{
		{"rating too low", models.Review{RestaurantID: &id, Rating: 0}},
		{"rating too high", models.Review{RestaurantID: &id, Rating: 6}},
		{"no target", models.Review{Rating: 3}},
	}
	for _, tt := range tests {
		if err := db.AddReview(ctx, &tt.review); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}

	if err := db.RecordView(ctx, models.ViewType("BOGUS"), "x", "", ""); err == nil {
		t.Error("RecordView with unknown type should fail")
	}
}

func TestFavoritesAndReviews_RejectMissingTargets(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t, testNow)
	ctx := context.Background()

	r, err := db.CreateRestaurantWithLink(ctx, models.ServiceManual, sampleRestaurant("m-1", "Bistro"), "bistro")
	if err != nil {
		t.Fatalf("create restaurant: %v", err)
	}
	missing := "no-such-id"

	if err := db.AddFavorite(ctx, missing, "u1"); !errors.Is(err, ErrRestaurantNotFound) {
		t.Errorf("AddFavorite(missing) error = %v, want ErrRestaurantNotFound", err)
	}
	if err := db.AddReview(ctx, &models.Review{RestaurantID: &missing, Rating: 4}); !errors.Is(err, ErrRestaurantNotFound) {
		t.Errorf("AddReview(missing restaurant) error = %v, want ErrRestaurantNotFound", err)
	}
	err = db.AddReview(ctx, &models.Review{RestaurantID: &r.ID, DishID: &missing, Rating: 4})
	if !errors.Is(err, ErrDishNotFound) || !errors.Is(err, ErrNotFound) {
		t.Errorf("AddReview(missing dish) error = %v, want ErrDishNotFound", err)
	}

	var favorites, reviews int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM favorites`).Scan(&favorites); err != nil {
		t.Fatal(err)
	}
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM reviews`).Scan(&reviews); err != nil {
		t.Fatal(err)
	}
	if favorites != 0 || reviews != 0 {
		t.Errorf("orphan rows written: favorites=%d reviews=%d", favorites, reviews)
	}
	if got, _ := db.GetRestaurant(ctx, r.ID); got.TotalReviews != 0 {
		t.Errorf("TotalReviews = %d after rejected review, want 0", got.TotalReviews)
	}
}
