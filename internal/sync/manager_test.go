// Tanjur - Restaurant Catalog, Delivery Price Aggregation and Trending
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tanjur

package sync

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/tanjur/internal/config"
	"github.com/tomtom215/tanjur/internal/connectors"
	"github.com/tomtom215/tanjur/internal/models"
)

func newTestManager(t *testing.T, cfg config.SyncConfig) (*Manager, *fakeCatalog, *feed) {
	t.Helper()
	cat := newFakeCatalog()
	f := newTestFeed()
	conns := []connectors.Connector{
		f.connector(models.ServiceWolt),
		&mockConnector{name: "Glovo", service: models.ServiceGlovo},
		(&feed{restaurants: []models.RestaurantRecord{restaurantRecord("M1", "Konoba")}}).connector(models.ServiceManual),
	}
	return NewManager(NewReconciler(cat, cat), NewDryRunReconciler(cat), conns, cfg), cat, f
}

func TestManager_SyncAll(t *testing.T) {
	t.Parallel()

	for _, parallel := range []bool{false, true} {
		m, _, f := newTestManager(t, config.SyncConfig{Parallel: parallel})

		var hookCalls atomic.Int32
		m.SetOnSyncCompleted(func(results []models.SyncResult) { hookCalls.Add(1) })

		results, err := m.SyncAll(context.Background(), false)
		if err != nil {
			t.Fatalf("SyncAll() error = %v", err)
		}
		if len(results) != 2 {
			t.Fatalf("parallel=%v: got %d results, want 2 (unconfigured skipped)", parallel, len(results))
		}
		if results[0].Service != models.ServiceWolt || results[1].Service != models.ServiceManual {
			t.Errorf("results out of registry order: %s, %s", results[0].Service, results[1].Service)
		}
		if results[0].RestaurantsAdded != 3 || results[1].RestaurantsAdded != 1 {
			t.Errorf("added = %d, %d", results[0].RestaurantsAdded, results[1].RestaurantsAdded)
		}
		if hookCalls.Load() != 1 {
			t.Errorf("hook called %d times, want 1", hookCalls.Load())
		}
		if len(m.LastResults()) != 2 || m.LastSyncTime().IsZero() {
			t.Errorf("LastResults = %d, LastSyncTime = %v", len(m.LastResults()), m.LastSyncTime())
		}

		// identical data matches every record but changes nothing
		again, err := m.SyncAll(context.Background(), false)
		if err != nil {
			t.Fatal(err)
		}
		if again[0].RestaurantsUpdated != 3 || again[0].Changed() {
			t.Errorf("unchanged resync = %+v", again[0])
		}
		if hookCalls.Load() != 1 {
			t.Errorf("hook called %d times after unchanged run, want 1", hookCalls.Load())
		}

		f.mu.Lock()
		f.dishes["R2"][0].Price = 8.50
		f.mu.Unlock()
		if _, err := m.SyncAll(context.Background(), false); err != nil {
			t.Fatal(err)
		}
		if hookCalls.Load() != 2 {
			t.Errorf("hook called %d times after price change, want 2", hookCalls.Load())
		}
	}
}

func TestManager_DryRunDoesNotNotifyOrRecord(t *testing.T) {
	t.Parallel()

	m, cat, _ := newTestManager(t, config.SyncConfig{})
	var hookCalls atomic.Int32
	m.SetOnSyncCompleted(func([]models.SyncResult) { hookCalls.Add(1) })

	results, err := m.SyncAll(context.Background(), true)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 || !results[0].DryRun {
		t.Fatalf("results = %+v", results)
	}
	if cat.writeCount() != 0 || hookCalls.Load() != 0 || len(m.LastResults()) != 0 {
		t.Errorf("dry run had side effects: writes=%d hook=%d last=%d",
			cat.writeCount(), hookCalls.Load(), len(m.LastResults()))
	}
}

func TestManager_SyncConnector(t *testing.T) {
	t.Parallel()

	m, _, _ := newTestManager(t, config.SyncConfig{})

	res, err := m.SyncConnector(context.Background(), models.ServiceWolt, false)
	if err != nil || res.RestaurantsAdded != 3 {
		t.Fatalf("SyncConnector(WOLT) = %+v, %v", res, err)
	}
	if last, ok := m.LastResult(models.ServiceWolt); !ok || last.RestaurantsAdded != 3 {
		t.Errorf("LastResult(WOLT) = %+v, %v", last, ok)
	}

	res, err = m.SyncConnector(context.Background(), models.ServiceGlovo, false)
	if err != nil || res.Success() || len(res.Errors) != 1 {
		t.Errorf("SyncConnector(GLOVO) = %+v, %v; want config error", res, err)
	}

	empty := NewManager(m.live, nil, nil, config.SyncConfig{})
	if _, err := empty.SyncConnector(context.Background(), models.ServiceWolt, false); !errors.Is(err, ErrUnknownConnector) {
		t.Errorf("unknown connector error = %v", err)
	}
	if _, err := empty.SyncAll(context.Background(), true); err == nil {
		t.Error("dry run without a dry-run reconciler should fail")
	}
	if results, err := empty.SyncAll(context.Background(), false); err != nil || len(results) != 0 {
		t.Errorf("SyncAll with no connectors = %v, %v", results, err)
	}
}

func TestManager_StartStop(t *testing.T) {
	t.Parallel()

	m, _, f := newTestManager(t, config.SyncConfig{Interval: 10 * time.Millisecond, OnStartup: true})
	done := make(chan struct{}, 8)
	m.SetOnSyncCompleted(func([]models.SyncResult) {
		select {
		case done <- struct{}{}:
		default:
		}
	})

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := m.Start(context.Background()); err == nil {
		t.Error("second Start() should fail")
	}

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatalf("sync %d did not run", i+1)
		}
		// the next tick only notifies when the feed changed
		f.mu.Lock()
		f.dishes["R1"][0].Price += 1
		f.mu.Unlock()
	}

	if err := m.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := m.Stop(); err == nil {
		t.Error("second Stop() should fail")
	}

	bad := NewManager(m.live, nil, nil, config.SyncConfig{})
	if err := bad.Start(context.Background()); err == nil {
		t.Error("Start() with zero interval should fail")
	}
}
