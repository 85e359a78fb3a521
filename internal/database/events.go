// Tanjur - Restaurant Catalog, Delivery Price Aggregation and Trending
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tanjur

package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/tomtom215/tanjur/internal/logging"
	"github.com/tomtom215/tanjur/internal/models"
)

// RecordView appends a view event. Exactly one of the entity ids is set,
// matching the view type.
func (db *DB) RecordView(ctx context.Context, viewType models.ViewType, entityID, sessionID, userID string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var restaurantID, dishID *string
	switch viewType {
	case models.ViewRestaurant:
		restaurantID = &entityID
	case models.ViewDish:
		dishID = &entityID
	default:
		return fmt.Errorf("unknown view type %q", viewType)
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO view_events (id, view_type, restaurant_id, dish_id, session_id, user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), string(viewType), restaurantID, dishID, sessionID, userID, db.now(),
	)
	if err != nil {
		return fmt.Errorf("failed to record view: %w", err)
	}
	return nil
}

// AddFavorite marks a restaurant as a user's favorite. Adding the same
// favorite twice is a no-op. ErrRestaurantNotFound when the restaurant does
// not exist.
func (db *DB) AddFavorite(ctx context.Context, restaurantID, userID string) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollbackOnError(tx, &err)

	if err = requireRow(ctx, tx, "restaurants", restaurantID, ErrRestaurantNotFound); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO favorites (id, restaurant_id, user_id, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT DO NOTHING`,
		uuid.New().String(), restaurantID, userID, db.now(),
	)
	if err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit favorite: %w", err)
	}
	return nil
}

// requireRow returns notFound unless table has a row with id.
func requireRow(ctx context.Context, tx *sql.Tx, table, id string, notFound error) error {
	var exists bool
	err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to look up %s %s: %w", table, id, err)
	}
	if !exists {
		return fmt.Errorf("%s: %w", id, notFound)
	}
	return nil
}

// rollbackOnError rolls tx back when *err is set, logging rollback failures.
func rollbackOnError(tx *sql.Tx, err *error) {
	if *err == nil {
		return
	}
	if rbErr := tx.Rollback(); rbErr != nil {
		logging.Error().
			Err(rbErr).
			AnErr("original_error", *err).
			Msg("Transaction rollback failed")
	}
}

// AddReview stores a review and refreshes the average rating and review
// count of the reviewed restaurant and dish. ErrRestaurantNotFound or
// ErrDishNotFound when a referenced entity does not exist.
func (db *DB) AddReview(ctx context.Context, review *models.Review) (err error) {
	if review.Rating < 1 || review.Rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5, got %d", review.Rating)
	}
	if review.RestaurantID == nil && review.DishID == nil {
		return fmt.Errorf("review must reference a restaurant or a dish")
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if review.ID == "" {
		review.ID = uuid.New().String()
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = db.now()
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollbackOnError(tx, &err)

	if review.RestaurantID != nil {
		if err = requireRow(ctx, tx, "restaurants", *review.RestaurantID, ErrRestaurantNotFound); err != nil {
			return err
		}
	}
	if review.DishID != nil {
		if err = requireRow(ctx, tx, "dishes", *review.DishID, ErrDishNotFound); err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO reviews (id, restaurant_id, dish_id, rating, created_at) VALUES (?, ?, ?, ?, ?)`,
		review.ID, review.RestaurantID, review.DishID, review.Rating, review.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert review: %w", err)
	}

	if review.RestaurantID != nil {
		_, err = tx.ExecContext(ctx,
			`UPDATE restaurants SET
				average_rating = (SELECT COALESCE(AVG(rating), 0) FROM reviews WHERE restaurant_id = ?),
				total_reviews = (SELECT COUNT(*) FROM reviews WHERE restaurant_id = ?)
			WHERE id = ?`,
			*review.RestaurantID, *review.RestaurantID, *review.RestaurantID,
		)
		if err != nil {
			return fmt.Errorf("failed to refresh restaurant rating: %w", err)
		}
	}
	if review.DishID != nil {
		_, err = tx.ExecContext(ctx,
			`UPDATE dishes SET
				average_rating = (SELECT COALESCE(AVG(rating), 0) FROM reviews WHERE dish_id = ?),
				total_reviews = (SELECT COUNT(*) FROM reviews WHERE dish_id = ?)
			WHERE id = ?`,
			*review.DishID, *review.DishID, *review.DishID,
		)
		if err != nil {
			return fmt.Errorf("failed to refresh dish rating: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit review: %w", err)
	}
	return nil
}
