// Tanjur - Restaurant Catalog, Delivery Price Aggregation and Trending
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tanjur

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/tomtom215/tanjur/internal/logging"
	"github.com/tomtom215/tanjur/internal/models"
)

const dishColumns = `id, restaurant_id, name, slug, description, category, image_url,
	verified, is_available, average_rating, total_reviews, created_at, updated_at`

// FindDishBySlug returns the dish of a restaurant with the given slug or ErrNotFound.
func (db *DB) FindDishBySlug(ctx context.Context, restaurantID, slug string) (*models.Dish, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var d models.Dish
	err := db.conn.QueryRowContext(ctx,
		`SELECT `+dishColumns+` FROM dishes WHERE restaurant_id = ? AND slug = ?`,
		restaurantID, slug,
	).Scan(
		&d.ID, &d.RestaurantID, &d.Name, &d.Slug, &d.Description, &d.Category, &d.ImageURL,
		&d.Verified, &d.IsAvailable, &d.AverageRating, &d.TotalReviews, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find dish: %w", err)
	}
	return &d, nil
}

// UpdateDish overwrites the descriptive fields of a dish from a source record.
func (db *DB) UpdateDish(ctx context.Context, id string, rec *models.DishRecord) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE dishes SET name = ?, description = ?, category = ?, image_url = ?, updated_at = ?
		WHERE id = ?`,
		rec.Name, rec.Description, rec.Category, rec.ImageURL, db.now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update dish %s: %w", id, err)
	}
	return requireAffected(result, id)
}

// CreateDishWithPrice inserts a verified dish and its first active price for
// service in one transaction.
func (db *DB) CreateDishWithPrice(ctx context.Context, restaurantID, slug string, service models.Service, rec *models.DishRecord) (dish *models.Dish, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error().
					Err(rbErr).
					AnErr("original_error", err).
					Msg("Transaction rollback failed")
			}
		}
	}()

	now := db.now()
	d := &models.Dish{
		ID:           uuid.New().String(),
		RestaurantID: restaurantID,
		Name:         rec.Name,
		Slug:         slug,
		Description:  rec.Description,
		Category:     rec.Category,
		ImageURL:     rec.ImageURL,
		Verified:     true,
		IsAvailable:  true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO dishes (`+dishColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.RestaurantID, d.Name, d.Slug, d.Description, d.Category, d.ImageURL,
		d.Verified, d.IsAvailable, d.AverageRating, d.TotalReviews, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert dish %s: %w", slug, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO dish_prices (id, dish_id, service, price, currency, is_active, updated_at)
		VALUES (?, ?, ?, ?, ?, true, ?)`,
		uuid.New().String(), d.ID, string(service), rec.Price, rec.Currency, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert dish price: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit dish: %w", err)
	}
	return d, nil
}

// ActivePrice returns the current price of a dish on service: the most
// recently updated active row. ErrNotFound when there is none.
func (db *DB) ActivePrice(ctx context.Context, dishID string, service models.Service) (*models.DishPrice, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var p models.DishPrice
	var svc string
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, dish_id, service, price, currency, is_active, updated_at
		FROM dish_prices
		WHERE dish_id = ? AND service = ? AND is_active
		ORDER BY updated_at DESC, id
		LIMIT 1`,
		dishID, string(service),
	).Scan(&p.ID, &p.DishID, &svc, &p.Price, &p.Currency, &p.IsActive, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get active price: %w", err)
	}
	p.Service = models.Service(svc)
	return &p, nil
}

// ListPrices returns every price row of a dish, newest first.
func (db *DB) ListPrices(ctx context.Context, dishID string) ([]models.DishPrice, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, dish_id, service, price, currency, is_active, updated_at
		FROM dish_prices WHERE dish_id = ? ORDER BY updated_at DESC, id`, dishID)
	if err != nil {
		return nil, fmt.Errorf("failed to list prices: %w", err)
	}
	defer closeWithLog(rows, "price rows")

	prices := make([]models.DishPrice, 0)
	for rows.Next() {
		var p models.DishPrice
		var svc string
		if err := rows.Scan(&p.ID, &p.DishID, &svc, &p.Price, &p.Currency, &p.IsActive, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan price: %w", err)
		}
		p.Service = models.Service(svc)
		prices = append(prices, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prices: %w", err)
	}
	return prices, nil
}

// UpdatePrice overwrites an existing price row in place.
func (db *DB) UpdatePrice(ctx context.Context, priceID string, price float64, currency string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE dish_prices SET price = ?, currency = ?, updated_at = ? WHERE id = ?`,
		price, currency, db.now(), priceID,
	)
	if err != nil {
		return fmt.Errorf("failed to update price %s: %w", priceID, err)
	}
	return requireAffected(result, priceID)
}

// CreatePrice adds an active price row for a dish on service.
func (db *DB) CreatePrice(ctx context.Context, dishID string, service models.Service, price float64, currency string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO dish_prices (id, dish_id, service, price, currency, is_active, updated_at)
		VALUES (?, ?, ?, ?, ?, true, ?)`,
		uuid.New().String(), dishID, string(service), price, currency, db.now(),
	)
	if err != nil {
		return fmt.Errorf("failed to create price: %w", err)
	}
	return nil
}
