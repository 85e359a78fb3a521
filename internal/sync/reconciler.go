// Tanjur - Restaurant Catalog, Delivery Price Aggregation and Trending
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tanjur

package sync

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/tanjur/internal/connectors"
	"github.com/tomtom215/tanjur/internal/database"
	"github.com/tomtom215/tanjur/internal/logging"
	"github.com/tomtom215/tanjur/internal/metrics"
	"github.com/tomtom215/tanjur/internal/models"
	"github.com/tomtom215/tanjur/internal/validation"
)

// Reconciler syncs one connector's records into the catalog.
type Reconciler struct {
	reader   CatalogReader
	writerFn func() CatalogWriter
	dryRun   bool
	geocoder Geocoder
	now      func() time.Time
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithGeocoder geocodes new restaurants that arrive without coordinates.
// Dry runs never call the geocoder.
func WithGeocoder(g Geocoder) Option {
	return func(r *Reconciler) { r.geocoder = g }
}

// WithClock overrides the clock used for link timestamps and durations.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

// NewReconciler creates a reconciler that writes to writer.
func NewReconciler(reader CatalogReader, writer CatalogWriter, opts ...Option) *Reconciler {
	r := &Reconciler{
		reader:   reader,
		writerFn: func() CatalogWriter { return writer },
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewDryRunReconciler creates a reconciler that reads reader but records
// writes in a fresh RecordingWriter per run.
func NewDryRunReconciler(reader CatalogReader, opts ...Option) *Reconciler {
	r := NewReconciler(reader, nil, opts...)
	r.dryRun = true
	r.writerFn = func() CatalogWriter { return NewRecordingWriter() }
	return r
}

// DryRun reports whether the reconciler suppresses writes.
func (r *Reconciler) DryRun() bool { return r.dryRun }

// run holds the state of one Sync call.
type run struct {
	*Reconciler
	conn    connectors.Connector
	catalog CatalogReader
	writer  CatalogWriter
	result  *models.SyncResult
	log     zerolog.Logger
}

// Sync reconciles conn into the catalog. Expected failures (an unconfigured
// connector, a bad record, a failed write) are reported in the result and
// never returned.
func (r *Reconciler) Sync(ctx context.Context, conn connectors.Connector) models.SyncResult {
	start := r.now()
	if logging.CorrelationIDFromContext(ctx) == "" {
		ctx = logging.ContextWithNewCorrelationID(ctx)
	}

	result := models.SyncResult{
		Connector: conn.Name(),
		Service:   conn.Service(),
		DryRun:    r.dryRun,
		Errors:    []string{},
		StartedAt: start.UTC(),
	}
	s := &run{
		Reconciler: r,
		conn:       conn,
		catalog:    r.reader,
		writer:     r.writerFn(),
		result:     &result,
		log:        logging.Ctx(ctx).With().Str("connector", conn.Name()).Bool("dry_run", r.dryRun).Logger(),
	}
	if rw, ok := s.writer.(*RecordingWriter); ok {
		s.catalog = rw.Overlay(r.reader)
	}

	outcome := s.execute(ctx)
	result.Duration = r.now().Sub(start)
	s.finish(outcome)
	return result
}

func (s *run) execute(ctx context.Context) string {
	if !s.conn.IsConfigured() {
		s.result.AddError(fmt.Sprintf("%s connector is not configured", s.conn.Name()))
		return "not_configured"
	}

	restaurants, err := s.conn.FetchRestaurants(ctx, "")
	if err != nil {
		s.result.AddError(fmt.Sprintf("Connector sync error: %v", err))
		s.log.Error().Err(err).Msg("Failed to fetch restaurants")
		return s.outcome()
	}
	s.log.Info().Int("restaurants", len(restaurants)).Msg("Sync started")

	for i := range restaurants {
		if err := ctx.Err(); err != nil {
			s.result.AddError(fmt.Sprintf("Connector sync error: %v", err))
			break
		}
		rec := restaurants[i]
		if err := s.syncRestaurant(ctx, &rec); err != nil {
			s.result.AddError(fmt.Sprintf("Restaurant sync error: restaurant %s: %v", rec.ExternalID, err))
			s.log.Warn().Err(err).Str("external_id", rec.ExternalID).Msg("Restaurant sync failed")
		}
	}
	return s.outcome()
}

func (s *run) outcome() string {
	switch {
	case s.dryRun:
		return "dry_run"
	case s.result.Success():
		return "success"
	default:
		return "partial"
	}
}

func (s *run) finish(outcome string) {
	res := s.result
	counts := metrics.SyncCounts{Errors: len(res.Errors)}
	if !s.dryRun {
		counts.RestaurantsAdded = res.RestaurantsAdded
		counts.RestaurantsUpdated = res.RestaurantsUpdated
		counts.DishesAdded = res.DishesAdded
		counts.DishesUpdated = res.DishesUpdated
		counts.PricesUpdated = res.PricesUpdated
	}
	metrics.RecordSyncRun(s.conn.Name(), outcome, counts, res.Duration)

	if rw, ok := s.writer.(*RecordingWriter); ok {
		s.log.Debug().Int("operations", len(rw.Operations())).Msg("Dry run recorded writes")
	}

	event := s.log.Info()
	if !res.Success() {
		event = s.log.Warn()
	}
	event.
		Str("outcome", outcome).
		Int("restaurants_added", res.RestaurantsAdded).
		Int("restaurants_updated", res.RestaurantsUpdated).
		Int("dishes_added", res.DishesAdded).
		Int("dishes_updated", res.DishesUpdated).
		Int("prices_updated", res.PricesUpdated).
		Int("errors", len(res.Errors)).
		Dur("duration", res.Duration).
		Msg("Sync finished")
}

// syncRestaurant matches or creates one restaurant, then syncs its dishes.
// The restaurant counts as added or updated even when its dishes fail.
func (s *run) syncRestaurant(ctx context.Context, rec *models.RestaurantRecord) error {
	if verr := validation.ValidateStruct(rec); verr != nil {
		return fmt.Errorf("invalid record: %w", verr)
	}

	restaurantID, err := s.upsertRestaurant(ctx, rec)
	if err != nil {
		return err
	}

	dishes, err := s.conn.FetchDishes(ctx, rec.ExternalID)
	if err != nil {
		return fmt.Errorf("fetch dishes: %w", err)
	}

	for i := range dishes {
		dish := dishes[i]
		if err := s.syncDish(ctx, restaurantID, &dish); err != nil {
			s.result.AddError(fmt.Sprintf("Dish sync error: dish %s (restaurant %s): %v", dish.Name, rec.ExternalID, err))
			s.log.Warn().Err(err).
				Str("external_id", dish.ExternalID).
				Str("restaurant_id", restaurantID).
				Msg("Dish sync failed")
		}
	}
	return nil
}

func (s *run) upsertRestaurant(ctx context.Context, rec *models.RestaurantRecord) (string, error) {
	link, err := s.catalog.FindServiceLink(ctx, s.conn.Service(), rec.ExternalID)
	switch {
	case err == nil:
		existing, err := s.catalog.GetRestaurant(ctx, link.RestaurantID)
		if err != nil {
			return "", fmt.Errorf("load linked restaurant %s: %w", link.RestaurantID, err)
		}
		modified := restaurantModified(existing, rec)
		if err := s.writer.UpdateRestaurant(ctx, link.RestaurantID, rec); err != nil {
			return "", fmt.Errorf("update restaurant: %w", err)
		}
		if err := s.writer.TouchServiceLink(ctx, link.ID, s.now().UTC()); err != nil {
			return "", fmt.Errorf("touch service link: %w", err)
		}
		s.result.RestaurantsUpdated++
		if modified {
			s.result.Modified++
		}
		return link.RestaurantID, nil

	case errors.Is(err, database.ErrNotFound):
		if !rec.HasCoordinates() && !s.dryRun {
			s.geocode(ctx, rec)
		}
		created, err := s.writer.CreateRestaurantWithLink(ctx, s.conn.Service(), rec, Slugify(rec.Name))
		if err != nil {
			return "", fmt.Errorf("create restaurant: %w", err)
		}
		s.result.RestaurantsAdded++
		return created.ID, nil

	default:
		return "", fmt.Errorf("find service link: %w", err)
	}
}

// geocode fills in coordinates when a geocoder is set. Failures only log.
func (s *run) geocode(ctx context.Context, rec *models.RestaurantRecord) {
	if s.geocoder == nil {
		return
	}
	parts := make([]string, 0, 3)
	for _, p := range []string{rec.Address, rec.PostalCode, rec.City} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	coords, err := s.geocoder.Geocode(ctx, strings.Join(parts, ", "))
	if err != nil {
		s.log.Debug().Err(err).Str("external_id", rec.ExternalID).Msg("Geocoding failed")
		return
	}
	lat, lon := coords.Latitude, coords.Longitude
	rec.Latitude, rec.Longitude = &lat, &lon
}

func (s *run) syncDish(ctx context.Context, restaurantID string, rec *models.DishRecord) error {
	if verr := validation.ValidateStruct(rec); verr != nil {
		return fmt.Errorf("invalid record: %w", verr)
	}
	slug := DishSlug(rec.Name, restaurantID)

	dish, err := s.catalog.FindDishBySlug(ctx, restaurantID, slug)
	if errors.Is(err, database.ErrNotFound) {
		if _, err := s.writer.CreateDishWithPrice(ctx, restaurantID, slug, s.conn.Service(), rec); err != nil {
			return fmt.Errorf("create dish: %w", err)
		}
		s.result.DishesAdded++
		s.result.PricesUpdated++
		return nil
	}
	if err != nil {
		return fmt.Errorf("find dish: %w", err)
	}

	if err := s.writer.UpdateDish(ctx, dish.ID, rec); err != nil {
		return fmt.Errorf("update dish: %w", err)
	}
	if dishModified(dish, rec) {
		s.result.Modified++
	}

	current, err := s.catalog.ActivePrice(ctx, dish.ID, s.conn.Service())
	switch {
	case errors.Is(err, database.ErrNotFound):
		if err := s.writer.CreatePrice(ctx, dish.ID, s.conn.Service(), rec.Price, rec.Currency); err != nil {
			return fmt.Errorf("create price: %w", err)
		}
		s.result.PricesUpdated++
	case err != nil:
		return fmt.Errorf("load active price: %w", err)
	case !samePrice(current.Price, rec.Price):
		if err := s.writer.UpdatePrice(ctx, current.ID, rec.Price, rec.Currency); err != nil {
			return fmt.Errorf("update price: %w", err)
		}
		s.result.PricesUpdated++
	}

	s.result.DishesUpdated++
	return nil
}

// restaurantModified reports whether applying rec would change the stored
// restaurant. Empty optional fields in rec leave the stored value alone.
func restaurantModified(r *models.Restaurant, rec *models.RestaurantRecord) bool {
	if r.Name != rec.Name || r.Address != rec.Address || r.City != rec.City || !r.Verified {
		return true
	}
	for _, f := range [][2]string{
		{r.Description, rec.Description},
		{r.PostalCode, rec.PostalCode},
		{r.PhoneNumber, rec.PhoneNumber},
		{r.Website, rec.Website},
		{r.ImageURL, rec.ImageURL},
	} {
		if f[1] != "" && f[0] != f[1] {
			return true
		}
	}
	return coordModified(r.Latitude, rec.Latitude) || coordModified(r.Longitude, rec.Longitude)
}

func coordModified(stored, incoming *float64) bool {
	if incoming == nil {
		return false
	}
	return stored == nil || *stored != *incoming
}

func dishModified(d *models.Dish, rec *models.DishRecord) bool {
	return d.Name != rec.Name || d.Description != rec.Description ||
		d.Category != rec.Category || d.ImageURL != rec.ImageURL
}

// samePrice compares prices at cent precision.
func samePrice(a, b float64) bool {
	return math.Round(a*100) == math.Round(b*100)
}
