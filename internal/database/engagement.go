// Tanjur - Restaurant Catalog, Delivery Price Aggregation and Trending
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tanjur

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/tanjur/internal/models"
)

// Restaurant reviews count restaurant-level reviews plus reviews on any of
// its dishes. A review carrying both ids is counted once in each term.
const restaurantEngagementQuery = `
SELECT
	r.id, r.name, r.slug, r.image_url, r.city, r.average_rating, r.total_reviews, r.created_at,
	(SELECT COUNT(*) FROM view_events v
		WHERE v.restaurant_id = r.id AND v.created_at >= ?) AS views,
	(SELECT COUNT(*) FROM favorites f
		WHERE f.restaurant_id = r.id AND f.created_at >= ?) AS favorites,
	(SELECT COUNT(*) FROM reviews rv
		WHERE rv.restaurant_id = r.id AND rv.created_at >= ?)
	+ (SELECT COUNT(*) FROM reviews rv JOIN dishes d ON rv.dish_id = d.id
		WHERE d.restaurant_id = r.id AND rv.created_at >= ?) AS reviews
FROM restaurants r
WHERE r.status = 'ACTIVE' AND r.verified
ORDER BY r.id`

const dishEngagementQuery = `
SELECT
	d.id, d.name, d.slug, d.image_url, r.name, r.slug, d.average_rating, d.total_reviews, d.created_at,
	(SELECT COUNT(*) FROM view_events v
		WHERE v.dish_id = d.id AND v.created_at >= ?) AS views,
	(SELECT COUNT(*) FROM reviews rv
		WHERE rv.dish_id = d.id AND rv.created_at >= ?) AS reviews,
	(SELECT MIN(p.price) FROM dish_prices p
		WHERE p.dish_id = d.id AND p.is_active) AS lowest_price
FROM dishes d
JOIN restaurants r ON r.id = d.restaurant_id
WHERE d.verified AND d.is_available AND r.status = 'ACTIVE' AND r.verified
ORDER BY d.id`

// RestaurantEngagement returns every active, verified restaurant with its
// views, favorites and reviews since the given instant.
func (db *DB) RestaurantEngagement(ctx context.Context, since time.Time) ([]models.RestaurantEngagement, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	since = since.UTC()
	rows, err := db.conn.QueryContext(ctx, restaurantEngagementQuery, since, since, since, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query restaurant engagement: %w", err)
	}
	defer closeWithLog(rows, "restaurant engagement rows")

	out := make([]models.RestaurantEngagement, 0)
	for rows.Next() {
		var e models.RestaurantEngagement
		if err := rows.Scan(
			&e.ID, &e.Name, &e.Slug, &e.ImageURL, &e.City, &e.AverageRating, &e.TotalReviews, &e.CreatedAt,
			&e.Views, &e.Favorites, &e.Reviews,
		); err != nil {
			return nil, fmt.Errorf("failed to scan restaurant engagement: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating restaurant engagement: %w", err)
	}
	return out, nil
}

// DishEngagement returns every verified, available dish of an active,
// verified restaurant with its views and reviews since the given instant
// and its lowest active price.
func (db *DB) DishEngagement(ctx context.Context, since time.Time) ([]models.DishEngagement, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	since = since.UTC()
	rows, err := db.conn.QueryContext(ctx, dishEngagementQuery, since, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query dish engagement: %w", err)
	}
	defer closeWithLog(rows, "dish engagement rows")

	out := make([]models.DishEngagement, 0)
	for rows.Next() {
		var e models.DishEngagement
		var lowest sql.NullFloat64
		if err := rows.Scan(
			&e.ID, &e.Name, &e.Slug, &e.ImageURL, &e.RestaurantName, &e.RestaurantSlug,
			&e.AverageRating, &e.TotalReviews, &e.CreatedAt,
			&e.Views, &e.Reviews, &lowest,
		); err != nil {
			return nil, fmt.Errorf("failed to scan dish engagement: %w", err)
		}
		if lowest.Valid {
			price := lowest.Float64
			e.LowestPrice = &price
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dish engagement: %w", err)
	}
	return out, nil
}
