// Tanjur - Restaurant Catalog, Delivery Price Aggregation and Trending
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tanjur

package geocoding

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/tanjur/internal/cache"
	"github.com/tomtom215/tanjur/internal/config"
)

func newTestGeocoder(t *testing.T, handler http.HandlerFunc) (*Nominatim, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	g := New(config.GeocodingConfig{
		Enabled:   true,
		URL:       srv.URL,
		UserAgent: "tanjur-test/1.0",
		Timeout:   time.Second,
	}, cache.New(time.Hour))
	return g, &calls
}

func TestGeocode_FoundAndMemoized(t *testing.T) {
	t.Parallel()

	g, calls := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "tanjur-test/1.0" {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}
		q := r.URL.Query()
		if r.URL.Path != "/search" || q.Get("format") != "json" || q.Get("limit") != "1" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		_, _ = w.Write([]byte(`[{"lat":"45.8150","lon":"15.9819"}]`))
	})

	for range 2 {
		c, err := g.Geocode(context.Background(), "Ilica 1, 10000, Zagreb")
		if err != nil {
			t.Fatalf("Geocode() error = %v", err)
		}
		if c.Latitude != 45.815 || c.Longitude != 15.9819 {
			t.Errorf("Geocode() = %+v", c)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("server called %d times, want 1", calls.Load())
	}
}

func TestGeocode_NoResult(t *testing.T) {
	t.Parallel()

	g, calls := newTestGeocoder(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	for range 2 {
		if _, err := g.Geocode(context.Background(), "Nowhere 0"); !errors.Is(err, ErrNoResult) {
			t.Fatalf("Geocode() error = %v, want ErrNoResult", err)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("empty result should be memoized, server called %d times", calls.Load())
	}
	if _, err := g.Geocode(context.Background(), "   "); !errors.Is(err, ErrNoResult) {
		t.Errorf("blank address error = %v, want ErrNoResult", err)
	}
}

func TestGeocode_ServerError(t *testing.T) {
	t.Parallel()

	g, calls := newTestGeocoder(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	for range 2 {
		_, err := g.Geocode(context.Background(), "Ilica 1")
		if err == nil || errors.Is(err, ErrNoResult) {
			t.Fatalf("Geocode() error = %v, want transport error", err)
		}
	}
	if calls.Load() != 2 {
		t.Errorf("errors must not be memoized, server called %d times", calls.Load())
	}
}
