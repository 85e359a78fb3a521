// Tanjur - Restaurant Catalog, Delivery Price Aggregation and Trending
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tanjur

// Package metrics holds the Prometheus collectors for sync runs, connector
// traffic, circuit breakers, the signal cache, trending computations and
// the HTTP API. Collectors register on the default registry via promauto
// and are exposed on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Sync Metrics
	SyncRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_runs_total",
			Help: "Total number of connector sync runs",
		},
		[]string{"connector", "outcome"}, // outcome: success, partial, not_configured, dry_run
	)

	SyncRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_records_total",
			Help: "Catalog records added or updated by sync",
		},
		[]string{"connector", "kind", "action"}, // kind: restaurant, dish, price
	)

	SyncErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_errors_total",
			Help: "Per-record and configuration errors reported by sync",
		},
		[]string{"connector"},
	)

	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sync_duration_seconds",
			Help:    "Duration of one connector sync run",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"connector"},
	)

	SyncLastSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sync_last_success_timestamp",
			Help: "Unix timestamp of the last error-free sync per connector",
		},
		[]string{"connector"},
	)

	// Connector Metrics
	ConnectorRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connector_requests_total",
			Help: "Outbound requests made by connectors and the geocoder",
		},
		[]string{"connector", "endpoint", "status"},
	)

	ConnectorRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "connector_request_duration_seconds",
			Help:    "Latency of outbound connector requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"connector", "endpoint"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: success, failure, rejected
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Signal Cache Metrics
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "signal_cache_hits_total",
			Help: "Signal cache lookups that returned a live entry",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "signal_cache_misses_total",
			Help: "Signal cache lookups that found nothing or an expired entry",
		},
	)

	CacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "signal_cache_evictions_total",
			Help: "Expired entries removed lazily or by the sweep",
		},
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "signal_cache_entries",
			Help: "Current number of entries held by the signal cache",
		},
	)

	// Trending Metrics
	TrendingComputations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trending_computations_total",
			Help: "Trending rankings computed from the catalog (cache misses)",
		},
		[]string{"kind"},
	)

	TrendingComputationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trending_computation_duration_seconds",
			Help:    "Time spent computing one trending ranking",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "route"},
	)
)

// RecordAPIRequest records one served HTTP request.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordConnectorRequest records one outbound request. status is the HTTP
// status code, or 0 when the request never produced a response.
func RecordConnectorRequest(connector, endpoint string, status int, duration time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	ConnectorRequests.WithLabelValues(connector, endpoint, label).Inc()
	ConnectorRequestDuration.WithLabelValues(connector, endpoint).Observe(duration.Seconds())
}

// SyncCounts carries the counters of a finished sync run. It mirrors the
// counter fields of models.SyncResult without importing models.
type SyncCounts struct {
	RestaurantsAdded   int
	RestaurantsUpdated int
	DishesAdded        int
	DishesUpdated      int
	PricesUpdated      int
	Errors             int
}

// RecordSyncRun records the outcome of one connector sync.
func RecordSyncRun(connector, outcome string, counts SyncCounts, duration time.Duration) {
	SyncRuns.WithLabelValues(connector, outcome).Inc()
	SyncDuration.WithLabelValues(connector).Observe(duration.Seconds())

	add := func(kind, action string, n int) {
		if n > 0 {
			SyncRecords.WithLabelValues(connector, kind, action).Add(float64(n))
		}
	}
	add("restaurant", "added", counts.RestaurantsAdded)
	add("restaurant", "updated", counts.RestaurantsUpdated)
	add("dish", "added", counts.DishesAdded)
	add("dish", "updated", counts.DishesUpdated)
	add("price", "updated", counts.PricesUpdated)

	if counts.Errors > 0 {
		SyncErrors.WithLabelValues(connector).Add(float64(counts.Errors))
		return
	}
	if outcome == "success" {
		SyncLastSuccess.WithLabelValues(connector).Set(float64(time.Now().Unix()))
	}
}

// RecordTrendingComputation records one uncached trending computation.
func RecordTrendingComputation(kind string, duration time.Duration) {
	TrendingComputations.WithLabelValues(kind).Inc()
	TrendingComputationDuration.WithLabelValues(kind).Observe(duration.Seconds())
}
