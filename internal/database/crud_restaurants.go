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
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/tanjur/internal/logging"
	"github.com/tomtom215/tanjur/internal/models"
)

const restaurantColumns = `id, osm_id, name, slug, description, address, city, postal_code,
	latitude, longitude, phone_number, website, image_url, verified, status,
	average_rating, total_reviews, created_at, updated_at`

// GetRestaurant returns the restaurant with the given id or ErrNotFound.
func (db *DB) GetRestaurant(ctx context.Context, id string) (*models.Restaurant, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx, `SELECT `+restaurantColumns+` FROM restaurants WHERE id = ?`, id)
	return scanRestaurant(row)
}

// GetRestaurantBySlug returns the restaurant with the given slug or ErrNotFound.
func (db *DB) GetRestaurantBySlug(ctx context.Context, slug string) (*models.Restaurant, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx, `SELECT `+restaurantColumns+` FROM restaurants WHERE slug = ?`, slug)
	return scanRestaurant(row)
}

func scanRestaurant(row *sql.Row) (*models.Restaurant, error) {
	var r models.Restaurant
	var lat, lon sql.NullFloat64
	var status string

	err := row.Scan(
		&r.ID, &r.OsmID, &r.Name, &r.Slug, &r.Description, &r.Address, &r.City, &r.PostalCode,
		&lat, &lon, &r.PhoneNumber, &r.Website, &r.ImageURL, &r.Verified, &status,
		&r.AverageRating, &r.TotalReviews, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan restaurant: %w", err)
	}
	r.Status = models.RestaurantStatus(status)
	if lat.Valid {
		r.Latitude = &lat.Float64
	}
	if lon.Valid {
		r.Longitude = &lon.Float64
	}
	return &r, nil
}

// FindServiceLink returns the link for (service, externalID) or ErrNotFound.
func (db *DB) FindServiceLink(ctx context.Context, service models.Service, externalID string) (*models.ServiceLink, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var link models.ServiceLink
	var svc string
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, restaurant_id, service, external_id, last_synced_at
		FROM service_links WHERE service = ? AND external_id = ?`,
		string(service), externalID,
	).Scan(&link.ID, &link.RestaurantID, &svc, &link.ExternalID, &link.LastSyncedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find service link: %w", err)
	}
	link.Service = models.Service(svc)
	return &link, nil
}

// UpdateRestaurant refreshes a restaurant from a source record and marks it
// verified. Name, address and city are always overwritten. Optional fields
// the record leaves empty (nil coordinates, blank strings) keep their stored
// value. Slug and osm id never change.
func (db *DB) UpdateRestaurant(ctx context.Context, id string, rec *models.RestaurantRecord) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE restaurants SET
			name = ?, address = ?, city = ?,
			description = COALESCE(NULLIF(CAST(? AS VARCHAR), ''), description),
			postal_code = COALESCE(NULLIF(CAST(? AS VARCHAR), ''), postal_code),
			latitude = COALESCE(CAST(? AS DOUBLE), latitude),
			longitude = COALESCE(CAST(? AS DOUBLE), longitude),
			phone_number = COALESCE(NULLIF(CAST(? AS VARCHAR), ''), phone_number),
			website = COALESCE(NULLIF(CAST(? AS VARCHAR), ''), website),
			image_url = COALESCE(NULLIF(CAST(? AS VARCHAR), ''), image_url),
			verified = true, updated_at = ?
		WHERE id = ?`,
		rec.Name, rec.Address, rec.City,
		rec.Description, rec.PostalCode,
		nullableFloat(rec.Latitude), nullableFloat(rec.Longitude),
		rec.PhoneNumber, rec.Website, rec.ImageURL,
		db.now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update restaurant %s: %w", id, err)
	}
	return requireAffected(result, id)
}

// TouchServiceLink stamps a link's last sync time.
func (db *DB) TouchServiceLink(ctx context.Context, linkID string, at time.Time) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE service_links SET last_synced_at = ? WHERE id = ?`, at.UTC(), linkID)
	if err != nil {
		return fmt.Errorf("failed to touch service link %s: %w", linkID, err)
	}
	return requireAffected(result, linkID)
}

// CreateRestaurantWithLink inserts a verified, active restaurant together with
// its service link in one transaction. The slug is derived from baseSlug and
// suffixed when already taken. Returns ErrLinkConflict when the
// (service, external id) pair is already linked.
func (db *DB) CreateRestaurantWithLink(ctx context.Context, service models.Service, rec *models.RestaurantRecord, baseSlug string) (restaurant *models.Restaurant, err error) {
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

	slug, err := uniqueSlug(ctx, tx, baseSlug)
	if err != nil {
		return nil, err
	}

	now := db.now()
	r := &models.Restaurant{
		ID:          uuid.New().String(),
		OsmID:       strings.ToLower(string(service)) + "-" + rec.ExternalID,
		Name:        rec.Name,
		Slug:        slug,
		Description: rec.Description,
		Address:     rec.Address,
		City:        rec.City,
		PostalCode:  rec.PostalCode,
		Latitude:    rec.Latitude,
		Longitude:   rec.Longitude,
		PhoneNumber: rec.PhoneNumber,
		Website:     rec.Website,
		ImageURL:    rec.ImageURL,
		Verified:    true,
		Status:      models.StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO restaurants (`+restaurantColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.OsmID, r.Name, r.Slug, r.Description, r.Address, r.City, r.PostalCode,
		nullableFloat(r.Latitude), nullableFloat(r.Longitude), r.PhoneNumber, r.Website, r.ImageURL,
		r.Verified, string(r.Status), r.AverageRating, r.TotalReviews, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert restaurant %s: %w", r.OsmID, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO service_links (id, restaurant_id, service, external_id, last_synced_at)
		VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), r.ID, string(service), rec.ExternalID, now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrLinkConflict
		}
		return nil, fmt.Errorf("failed to insert service link: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit restaurant: %w", err)
	}
	return r, nil
}

// uniqueSlug returns base, or base-2, base-3, ... for the first slug not in use.
func uniqueSlug(ctx context.Context, tx *sql.Tx, base string) (string, error) {
	if base == "" {
		base = "restaurant"
	}
	candidate := base
	for n := 2; ; n++ {
		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM restaurants WHERE slug = ?`, candidate).Scan(&count); err != nil {
			return "", fmt.Errorf("failed to check slug: %w", err)
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}

// SetRestaurantStatus changes the lifecycle status of a restaurant.
func (db *DB) SetRestaurantStatus(ctx context.Context, id string, status models.RestaurantStatus) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE restaurants SET status = ?, updated_at = ? WHERE id = ?`, string(status), db.now(), id)
	if err != nil {
		return fmt.Errorf("failed to set restaurant status: %w", err)
	}
	return requireAffected(result, id)
}

func requireAffected(result sql.Result, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}

func nullableFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
