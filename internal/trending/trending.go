// Tanjur - Restaurant Catalog, Delivery Price Aggregation and Trending
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tanjur

// Package trending ranks restaurants and dishes by a time-decayed, weighted
// combination of engagement signals over a trailing window.
//
// Rankings computed with the configured weights are cached in the signal
// cache under trending:<kind>:<limit>. Query failures are returned to the
// caller; there are no partial rankings.
package trending

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/tomtom215/tanjur/internal/cache"
	"github.com/tomtom215/tanjur/internal/config"
	"github.com/tomtom215/tanjur/internal/logging"
	"github.com/tomtom215/tanjur/internal/metrics"
	"github.com/tomtom215/tanjur/internal/models"
)

// Kind names a ranked entity kind.
type Kind string

const (
	KindRestaurants Kind = "restaurants"
	KindDishes      Kind = "dishes"
)

// KeyPrefix prefixes every trending cache key.
const KeyPrefix = "trending:"

// CacheKey returns the cache key of a ranking.
func CacheKey(kind Kind, limit int) string {
	return fmt.Sprintf("%s%s:%d", KeyPrefix, kind, limit)
}

// EngagementSource provides eligible entities with their window counters.
type EngagementSource interface {
	RestaurantEngagement(ctx context.Context, since time.Time) ([]models.RestaurantEngagement, error)
	DishEngagement(ctx context.Context, since time.Time) ([]models.DishEngagement, error)
}

// ViewRecorder appends view events.
type ViewRecorder interface {
	RecordView(ctx context.Context, viewType models.ViewType, entityID, sessionID, userID string) error
}

// Scorer computes and caches trending rankings. It is safe for concurrent use.
type Scorer struct {
	source       EngagementSource
	views        ViewRecorder
	cache        cache.Cacher
	weights      models.TrendingWeights
	ttl          time.Duration
	window       time.Duration
	defaultLimit int
	maxLimit     int
	now          func() time.Time
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) { s.now = now }
}

// WithViewRecorder enables TrackView.
func WithViewRecorder(v ViewRecorder) Option {
	return func(s *Scorer) { s.views = v }
}

// NewScorer creates a scorer over source, caching through c.
func NewScorer(source EngagementSource, c cache.Cacher, cfg config.TrendingConfig, opts ...Option) *Scorer {
	s := &Scorer{
		source: source,
		cache:  c,
		weights: models.TrendingWeights{
			Views:     cfg.Weights.Views,
			Favorites: cfg.Weights.Favorites,
			Reviews:   cfg.Weights.Reviews,
			Rating:    cfg.Weights.Rating,
		},
		ttl:          cfg.CacheTTLDuration(),
		window:       cfg.Window,
		defaultLimit: cfg.DefaultLimit,
		maxLimit:     cfg.MaxLimit,
		now:          time.Now,
	}
	if s.window <= 0 {
		s.window = 7 * day
	}
	if s.defaultLimit <= 0 {
		s.defaultLimit = 10
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Weights returns the configured weights.
func (s *Scorer) Weights() models.TrendingWeights {
	return s.weights
}

// NormalizeLimit maps a requested limit onto [1, maxLimit], using the
// default for non-positive values.
func (s *Scorer) NormalizeLimit(limit int) int {
	if limit <= 0 {
		return s.defaultLimit
	}
	if s.maxLimit > 0 && limit > s.maxLimit {
		return s.maxLimit
	}
	return limit
}

// resolveWeights reports the weights to use and whether the result may be cached.
func (s *Scorer) resolveWeights(w *models.TrendingWeights) (models.TrendingWeights, bool) {
	if w == nil || *w == s.weights {
		return s.weights, true
	}
	return *w, false
}

// TrendingRestaurants returns up to limit restaurants with a positive score,
// highest first. A nil weights pointer uses the configured weights.
func (s *Scorer) TrendingRestaurants(ctx context.Context, limit int, weights *models.TrendingWeights) ([]models.TrendingRestaurant, error) {
	w, cacheable := s.resolveWeights(weights)
	key := CacheKey(KindRestaurants, limit)
	if cacheable {
		if v, ok := s.cache.Get(key); ok {
			if cached, ok := v.([]models.TrendingRestaurant); ok {
				return slices.Clone(cached), nil
			}
		}
	}

	start := time.Now()
	now := s.now()
	rows, err := s.source.RestaurantEngagement(ctx, now.Add(-s.window))
	if err != nil {
		return nil, fmt.Errorf("trending restaurants: %w", err)
	}

	w = RestaurantSignals.Weights(w)
	items := make([]scored[models.TrendingRestaurant], 0, len(rows))
	for _, r := range rows {
		score := Score(SignalVector{
			Views:     float64(r.Views),
			Favorites: float64(r.Favorites),
			Reviews:   float64(r.Reviews),
			Rating:    r.AverageRating,
		}, w, r.CreatedAt, now)
		items = append(items, scored[models.TrendingRestaurant]{
			id:    r.ID,
			score: score,
			item: models.TrendingRestaurant{
				ID:            r.ID,
				Name:          r.Name,
				Slug:          r.Slug,
				ImageURL:      r.ImageURL,
				AverageRating: r.AverageRating,
				TotalReviews:  r.TotalReviews,
				City:          r.City,
				TrendingScore: score,
			},
		})
	}
	result := rank(items, limit)
	metrics.RecordTrendingComputation(string(KindRestaurants), time.Since(start))

	if cacheable {
		s.cache.SetWithTTL(key, result, s.ttl)
		result = slices.Clone(result)
	}
	logging.Ctx(ctx).Debug().
		Int("candidates", len(rows)).
		Int("ranked", len(result)).
		Int("limit", limit).
		Bool("cached", cacheable).
		Msg("Computed trending restaurants")
	return result, nil
}

// TrendingDishes returns up to limit dishes with a positive score, highest
// first. LowestPrice is attached for display and does not affect the score.
func (s *Scorer) TrendingDishes(ctx context.Context, limit int, weights *models.TrendingWeights) ([]models.TrendingDish, error) {
	w, cacheable := s.resolveWeights(weights)
	key := CacheKey(KindDishes, limit)
	if cacheable {
		if v, ok := s.cache.Get(key); ok {
			if cached, ok := v.([]models.TrendingDish); ok {
				return cloneDishes(cached), nil
			}
		}
	}

	start := time.Now()
	now := s.now()
	rows, err := s.source.DishEngagement(ctx, now.Add(-s.window))
	if err != nil {
		return nil, fmt.Errorf("trending dishes: %w", err)
	}

	w = DishSignals.Weights(w)
	items := make([]scored[models.TrendingDish], 0, len(rows))
	for _, d := range rows {
		score := Score(SignalVector{
			Views:   float64(d.Views),
			Reviews: float64(d.Reviews),
			Rating:  d.AverageRating,
		}, w, d.CreatedAt, now)
		items = append(items, scored[models.TrendingDish]{
			id:    d.ID,
			score: score,
			item: models.TrendingDish{
				ID:             d.ID,
				Name:           d.Name,
				Slug:           d.Slug,
				ImageURL:       d.ImageURL,
				AverageRating:  d.AverageRating,
				TotalReviews:   d.TotalReviews,
				RestaurantName: d.RestaurantName,
				RestaurantSlug: d.RestaurantSlug,
				TrendingScore:  score,
				LowestPrice:    d.LowestPrice,
			},
		})
	}
	result := rank(items, limit)
	metrics.RecordTrendingComputation(string(KindDishes), time.Since(start))

	if cacheable {
		s.cache.SetWithTTL(key, result, s.ttl)
		result = cloneDishes(result)
	}
	logging.Ctx(ctx).Debug().
		Int("candidates", len(rows)).
		Int("ranked", len(result)).
		Int("limit", limit).
		Bool("cached", cacheable).
		Msg("Computed trending dishes")
	return result, nil
}

// cloneDishes copies a cached ranking, LowestPrice included, so callers
// never share memory with the cache.
func cloneDishes(in []models.TrendingDish) []models.TrendingDish {
	out := slices.Clone(in)
	for i := range out {
		if p := out[i].LowestPrice; p != nil {
			v := *p
			out[i].LowestPrice = &v
		}
	}
	return out
}

// Invalidate drops every cached ranking and returns how many were removed.
func (s *Scorer) Invalidate() int {
	n := s.cache.DeletePrefix(KeyPrefix)
	if n > 0 {
		logging.Debug().Int("keys", n).Msg("Invalidated trending cache")
	}
	return n
}

// TrackView records a view of a restaurant or dish. Failures are logged,
// not returned.
func (s *Scorer) TrackView(ctx context.Context, kind Kind, id, sessionID, userID string) {
	if s.views == nil {
		return
	}
	var viewType models.ViewType
	switch kind {
	case KindRestaurants:
		viewType = models.ViewRestaurant
	case KindDishes:
		viewType = models.ViewDish
	default:
		logging.Ctx(ctx).Warn().Str("kind", string(kind)).Msg("Ignoring view of unknown kind")
		return
	}
	if err := s.views.RecordView(ctx, viewType, id, sessionID, userID); err != nil {
		logging.Ctx(ctx).Error().Err(err).
			Str("view_type", string(viewType)).
			Str("entity_id", id).
			Msg("Error tracking view")
	}
}
