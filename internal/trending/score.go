// Tanjur - Restaurant Catalog, Delivery Price Aggregation and Trending
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tanjur

package trending

import (
	"math"
	"sort"
	"time"

	"github.com/tomtom215/tanjur/internal/models"
)

// SignalVector holds the raw engagement signals of one entity. Views,
// Favorites and Reviews are counts inside the window; Rating is the
// lifetime average rating.
type SignalVector struct {
	Views     float64
	Favorites float64
	Reviews   float64
	Rating    float64
}

// SignalSet declares which signals an entity kind supports. Unsupported
// signals take no part in the score whatever their weight.
type SignalSet struct {
	Views     bool
	Favorites bool
	Reviews   bool
	Rating    bool
}

var (
	// RestaurantSignals is the signal set of restaurants.
	RestaurantSignals = SignalSet{Views: true, Favorites: true, Reviews: true, Rating: true}

	// DishSignals is the signal set of dishes. Dishes cannot be favorited.
	DishSignals = SignalSet{Views: true, Favorites: false, Reviews: true, Rating: true}
)

// Weights returns w restricted to the supported signals.
func (s SignalSet) Weights(w models.TrendingWeights) models.TrendingWeights {
	if !s.Views {
		w.Views = 0
	}
	if !s.Favorites {
		w.Favorites = 0
	}
	if !s.Reviews {
		w.Reviews = 0
	}
	if !s.Rating {
		w.Rating = 0
	}
	return w
}

const day = 24 * time.Hour

// AgeInDays returns the age of an entity in fractional days, floored at 1.
func AgeInDays(createdAt, now time.Time) float64 {
	return math.Max(1, float64(now.Sub(createdAt))/float64(day))
}

// Score is the weighted signal sum divided by AgeInDays, rounded to two
// decimal places.
func Score(v SignalVector, w models.TrendingWeights, createdAt, now time.Time) float64 {
	sum := v.Views*w.Views +
		v.Favorites*w.Favorites +
		v.Reviews*w.Reviews +
		v.Rating*w.Rating
	return round2(sum / AgeInDays(createdAt, now))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

type scored[T any] struct {
	id    string
	score float64
	item  T
}

// rank drops non-positive scores, orders by score descending then id
// ascending, and keeps at most limit items.
func rank[T any](items []scored[T], limit int) []T {
	kept := items[:0]
	for _, it := range items {
		if it.score > 0 {
			kept = append(kept, it)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].score != kept[j].score {
			return kept[i].score > kept[j].score
		}
		return kept[i].id < kept[j].id
	})
	if limit >= 0 && len(kept) > limit {
		kept = kept[:limit]
	}
	out := make([]T, len(kept))
	for i, it := range kept {
		out[i] = it.item
	}
	return out
}
