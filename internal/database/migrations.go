// Tanjur - Restaurant Catalog, Delivery Price Aggregation and Trending
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tanjur

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/tanjur/internal/logging"
)

// Migration is one versioned, append-only schema change. Each migration is
// a single SQL statement.
type Migration struct {
	Version     int
	Name        string
	Description string
	SQL         string
	AppliedAt   time.Time
}

const schemaMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT,
	applied_at TIMESTAMP NOT NULL
)`

// Timestamps are stored as UTC TIMESTAMP values written by the application.
// Relations are enforced by the store rather than FOREIGN KEY clauses since
// DuckDB rejects updates to rows referenced by a foreign key.
var migrations = []Migration{
	{Version: 1, Name: "create_restaurants", Description: "Canonical restaurants", SQL: `
CREATE TABLE IF NOT EXISTS restaurants (
	id TEXT PRIMARY KEY,
	osm_id TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	slug TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	address TEXT NOT NULL,
	city TEXT NOT NULL,
	postal_code TEXT NOT NULL DEFAULT '',
	latitude DOUBLE,
	longitude DOUBLE,
	phone_number TEXT NOT NULL DEFAULT '',
	website TEXT NOT NULL DEFAULT '',
	image_url TEXT NOT NULL DEFAULT '',
	verified BOOLEAN NOT NULL DEFAULT false,
	status TEXT NOT NULL DEFAULT 'PENDING',
	average_rating DOUBLE NOT NULL DEFAULT 0,
	total_reviews INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`},
	{Version: 2, Name: "create_service_links", Description: "Restaurant identity per external service", SQL: `
CREATE TABLE IF NOT EXISTS service_links (
	id TEXT PRIMARY KEY,
	restaurant_id TEXT NOT NULL,
	service TEXT NOT NULL,
	external_id TEXT NOT NULL,
	last_synced_at TIMESTAMP NOT NULL,
	UNIQUE (service, external_id),
	UNIQUE (restaurant_id, service)
)`},
	{Version: 3, Name: "create_dishes", Description: "Menu items", SQL: `
CREATE TABLE IF NOT EXISTS dishes (
	id TEXT PRIMARY KEY,
	restaurant_id TEXT NOT NULL,
	name TEXT NOT NULL,
	slug TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT '',
	image_url TEXT NOT NULL DEFAULT '',
	verified BOOLEAN NOT NULL DEFAULT false,
	is_available BOOLEAN NOT NULL DEFAULT true,
	average_rating DOUBLE NOT NULL DEFAULT 0,
	total_reviews INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	UNIQUE (restaurant_id, slug)
)`},
	{Version: 4, Name: "create_dish_prices", Description: "Dish price per service", SQL: `
CREATE TABLE IF NOT EXISTS dish_prices (
	id TEXT PRIMARY KEY,
	dish_id TEXT NOT NULL,
	service TEXT NOT NULL,
	price DOUBLE NOT NULL,
	currency TEXT NOT NULL,
	is_active BOOLEAN NOT NULL DEFAULT true,
	updated_at TIMESTAMP NOT NULL
)`},
	{Version: 5, Name: "create_reviews", Description: "User ratings on restaurants and dishes", SQL: `
CREATE TABLE IF NOT EXISTS reviews (
	id TEXT PRIMARY KEY,
	restaurant_id TEXT,
	dish_id TEXT,
	rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
	created_at TIMESTAMP NOT NULL
)`},
	{Version: 6, Name: "create_view_events", Description: "Page view log", SQL: `
CREATE TABLE IF NOT EXISTS view_events (
	id TEXT PRIMARY KEY,
	view_type TEXT NOT NULL,
	restaurant_id TEXT,
	dish_id TEXT,
	session_id TEXT NOT NULL DEFAULT '',
	user_id TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
)`},
	{Version: 7, Name: "create_favorites", Description: "User favorite restaurants", SQL: `
CREATE TABLE IF NOT EXISTS favorites (
	id TEXT PRIMARY KEY,
	restaurant_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	UNIQUE (restaurant_id, user_id)
)`},
	{Version: 8, Name: "idx_dish_prices_dish", Description: "Active price lookup",
		SQL: `CREATE INDEX IF NOT EXISTS idx_dish_prices_dish ON dish_prices (dish_id, service)`},
	{Version: 9, Name: "idx_view_events_restaurant", Description: "Restaurant views in window",
		SQL: `CREATE INDEX IF NOT EXISTS idx_view_events_restaurant ON view_events (restaurant_id, created_at)`},
	{Version: 10, Name: "idx_view_events_dish", Description: "Dish views in window",
		SQL: `CREATE INDEX IF NOT EXISTS idx_view_events_dish ON view_events (dish_id, created_at)`},
	{Version: 11, Name: "idx_reviews_restaurant", Description: "Restaurant reviews in window",
		SQL: `CREATE INDEX IF NOT EXISTS idx_reviews_restaurant ON reviews (restaurant_id, created_at)`},
	{Version: 12, Name: "idx_reviews_dish", Description: "Dish reviews in window",
		SQL: `CREATE INDEX IF NOT EXISTS idx_reviews_dish ON reviews (dish_id, created_at)`},
}

func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

func (db *DB) getAppliedMigrations(ctx context.Context) (map[int]Migration, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT version, name, description, applied_at FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer closeWithLog(rows, "migration rows")

	applied := make(map[int]Migration)
	for rows.Next() {
		var m Migration
		if err := rows.Scan(&m.Version, &m.Name, &m.Description, &m.AppliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[m.Version] = m
	}
	return applied, rows.Err()
}

// runVersionedMigrations applies every migration not yet recorded in schema_migrations.
func (db *DB) runVersionedMigrations() error {
	ctx, cancel := schemaContext()
	defer cancel()

	if _, err := db.conn.ExecContext(ctx, schemaMigrationsTable); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := db.getAppliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	newMigrations := 0
	for _, m := range migrations {
		if _, exists := applied[m.Version]; exists {
			continue
		}
		if _, err := db.conn.ExecContext(ctx, m.SQL); err != nil {
			return fmt.Errorf("failed to execute migration v%d (%s): %w", m.Version, m.Name, err)
		}
		_, err := db.conn.ExecContext(ctx,
			`INSERT INTO schema_migrations (version, name, description, applied_at) VALUES (?, ?, ?, ?)`,
			m.Version, m.Name, m.Description, db.now())
		if err != nil {
			return fmt.Errorf("failed to record migration v%d: %w", m.Version, err)
		}
		newMigrations++
	}

	if newMigrations > 0 {
		logging.Info().Int("count", newMigrations).Msg("Applied database migrations")
	}
	return nil
}

// CurrentSchemaVersion returns the highest applied migration version.
func (db *DB) CurrentSchemaVersion(ctx context.Context) (int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var version int
	err := db.conn.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
