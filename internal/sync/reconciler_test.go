// Tanjur - Restaurant Catalog, Delivery Price Aggregation and Trending
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tanjur

package sync

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/tomtom215/tanjur/internal/database"
	"github.com/tomtom215/tanjur/internal/models"
)

func newTestFeed() *feed {
	return &feed{
		restaurants: []models.RestaurantRecord{
			restaurantRecord("R1", "Pizzeria Napoli"),
			restaurantRecord("R2", "Burger Bar"),
			restaurantRecord("R3", "Sushi Go"),
		},
		dishes: map[string][]models.DishRecord{
			"R1": {dishRecord("R1", "D1", "Margherita", 7.99), dishRecord("R1", "D2", "Diavola", 9.50)},
			"R2": {dishRecord("R2", "D3", "Cheeseburger", 8.00)},
			"R3": {dishRecord("R3", "D4", "Maki", 6.50)},
		},
		dishErr: map[string]error{},
	}
}

func TestSync_FirstRunCreatesEverything(t *testing.T) {
	t.Parallel()

	cat := newFakeCatalog()
	res := NewReconciler(cat, cat).Sync(context.Background(), newTestFeed().connector(models.ServiceWolt))

	if !res.Success() {
		t.Fatalf("expected success, errors: %v", res.Errors)
	}
	if res.RestaurantsAdded != 3 || res.RestaurantsUpdated != 0 {
		t.Errorf("restaurants added/updated = %d/%d, want 3/0", res.RestaurantsAdded, res.RestaurantsUpdated)
	}
	if res.DishesAdded != 4 || res.PricesUpdated != 4 {
		t.Errorf("dishes added = %d, prices updated = %d, want 4/4", res.DishesAdded, res.PricesUpdated)
	}
	if res.Connector != "WOLT" || res.Service != models.ServiceWolt || res.DryRun {
		t.Errorf("unexpected result identity: %+v", res)
	}
	r := cat.restaurantByExternal(models.ServiceWolt, "R1")
	if r == nil || r.Slug != "pizzeria-napoli" || !r.Verified || r.Status != models.StatusActive {
		t.Errorf("restaurant R1 = %+v", r)
	}
}

func TestSync_Idempotent(t *testing.T) {
	t.Parallel()

	cat := newFakeCatalog()
	conn := newTestFeed().connector(models.ServiceWolt)
	rec := NewReconciler(cat, cat)

	first := rec.Sync(context.Background(), conn)
	after1 := cat.snapshot()
	second := rec.Sync(context.Background(), conn)
	after2 := cat.snapshot()

	if !first.Success() || !second.Success() {
		t.Fatalf("errors: %v / %v", first.Errors, second.Errors)
	}
	if second.RestaurantsAdded != 0 || second.DishesAdded != 0 || second.PricesUpdated != 0 {
		t.Errorf("second run added %d restaurants, %d dishes, %d prices; want 0",
			second.RestaurantsAdded, second.DishesAdded, second.PricesUpdated)
	}
	if second.RestaurantsUpdated != 3 || second.DishesUpdated != 4 {
		t.Errorf("second run updated %d/%d, want 3/4", second.RestaurantsUpdated, second.DishesUpdated)
	}
	if !reflect.DeepEqual(after1, after2) {
		t.Errorf("catalog changed between identical runs:\n%v\n%v", after1, after2)
	}
}

func TestSync_PartialFailureTolerance(t *testing.T) {
	t.Parallel()

	cat := newFakeCatalog()
	f := newTestFeed()
	f.dishErr["R2"] = errBoom

	res := NewReconciler(cat, cat).Sync(context.Background(), f.connector(models.ServiceWolt))

	if res.RestaurantsAdded != 3 {
		t.Errorf("RestaurantsAdded = %d, want 3", res.RestaurantsAdded)
	}
	if len(res.Errors) != 1 || res.Success() {
		t.Fatalf("Errors = %v, want exactly one", res.Errors)
	}
	if !strings.Contains(res.Errors[0], "Restaurant sync error") || !strings.Contains(res.Errors[0], "R2") {
		t.Errorf("error lacks context: %q", res.Errors[0])
	}
	for _, ext := range []string{"R1", "R3"} {
		r := cat.restaurantByExternal(models.ServiceWolt, ext)
		if r == nil {
			t.Fatalf("restaurant %s not persisted", ext)
		}
	}
	r1 := cat.restaurantByExternal(models.ServiceWolt, "R1")
	if _, ok := cat.priceOf(r1.ID, "Diavola", models.ServiceWolt); !ok {
		t.Error("R1 dishes not persisted")
	}
	r3 := cat.restaurantByExternal(models.ServiceWolt, "R3")
	if p, ok := cat.priceOf(r3.ID, "Maki", models.ServiceWolt); !ok || p != 6.50 {
		t.Errorf("R3 Maki price = %v, %v", p, ok)
	}
}

func TestSync_DishWriteFailureContinues(t *testing.T) {
	t.Parallel()

	cat := newFakeCatalog()
	cat.createDishErr = func(rec *models.DishRecord) error {
		if rec.Name == "Margherita" {
			return errBoom
		}
		return nil
	}

	res := NewReconciler(cat, cat).Sync(context.Background(), newTestFeed().connector(models.ServiceWolt))

	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "Dish sync error: dish Margherita (restaurant R1)") {
		t.Fatalf("Errors = %v", res.Errors)
	}
	if res.DishesAdded != 3 {
		t.Errorf("DishesAdded = %d, want 3", res.DishesAdded)
	}
}

func TestSync_MatchingByExternalID(t *testing.T) {
	t.Parallel()

	cat := newFakeCatalog()
	f := &feed{restaurants: []models.RestaurantRecord{restaurantRecord("R1", "Bistro")}}
	conn := f.connector(models.ServiceWolt)
	rec := NewReconciler(cat, cat)

	rec.Sync(context.Background(), conn)

	f.mu.Lock()
	f.restaurants[0].Address = "Vlaška 40"
	f.mu.Unlock()

	res := rec.Sync(context.Background(), conn)
	if res.RestaurantsUpdated != 1 || res.RestaurantsAdded != 0 {
		t.Fatalf("second run added/updated = %d/%d, want 0/1", res.RestaurantsAdded, res.RestaurantsUpdated)
	}
	if n := len(cat.restaurants); n != 1 {
		t.Fatalf("catalog has %d restaurants, want 1", n)
	}
	r := cat.restaurantByExternal(models.ServiceWolt, "R1")
	if r.Address != "Vlaška 40" {
		t.Errorf("Address = %q, want updated", r.Address)
	}
	l, _ := cat.FindServiceLink(context.Background(), models.ServiceWolt, "R1")
	if l.LastSyncedAt.IsZero() {
		t.Error("service link was not stamped")
	}

	// the same external id under another service is a different restaurant
	other := f.connector(models.ServiceGlovo)
	if res := rec.Sync(context.Background(), other); res.RestaurantsAdded != 1 {
		t.Errorf("GLOVO run added %d, want 1", res.RestaurantsAdded)
	}
}

func TestSync_PriceDeltaDetection(t *testing.T) {
	t.Parallel()

	cat := newFakeCatalog()
	f := &feed{
		restaurants: []models.RestaurantRecord{restaurantRecord("R1", "Pizzeria")},
		dishes: map[string][]models.DishRecord{
			"R1": {dishRecord("R1", "D1", "Margherita", 7.99), dishRecord("R1", "D2", "Marinara", 6.00)},
		},
	}
	conn := f.connector(models.ServiceWolt)
	rec := NewReconciler(cat, cat)
	rec.Sync(context.Background(), conn)

	f.mu.Lock()
	f.dishes["R1"][0].Price = 8.49
	f.mu.Unlock()

	res := rec.Sync(context.Background(), conn)
	if res.PricesUpdated != 1 {
		t.Errorf("PricesUpdated = %d, want 1", res.PricesUpdated)
	}
	r := cat.restaurantByExternal(models.ServiceWolt, "R1")
	if p, _ := cat.priceOf(r.ID, "Margherita", models.ServiceWolt); p != 8.49 {
		t.Errorf("active price = %v, want 8.49", p)
	}

	res = rec.Sync(context.Background(), conn)
	if res.PricesUpdated != 0 {
		t.Errorf("unchanged prices: PricesUpdated = %d, want 0", res.PricesUpdated)
	}
}

func TestSync_MissingActivePriceIsCreated(t *testing.T) {
	t.Parallel()

	cat := newFakeCatalog()
	f := &feed{
		restaurants: []models.RestaurantRecord{restaurantRecord("R1", "Pizzeria")},
		dishes:      map[string][]models.DishRecord{"R1": {dishRecord("R1", "D1", "Margherita", 7.99)}},
	}
	rec := NewReconciler(cat, cat)
	rec.Sync(context.Background(), f.connector(models.ServiceWolt))

	// the same dish now also offered on another platform
	r := cat.restaurantByExternal(models.ServiceWolt, "R1")
	dish, err := cat.FindDishBySlug(context.Background(), r.ID, DishSlug("Margherita", r.ID))
	if err != nil {
		t.Fatal(err)
	}
	delete(cat.prices, dish.ID+"|"+string(models.ServiceWolt))

	res := rec.Sync(context.Background(), f.connector(models.ServiceWolt))
	if res.PricesUpdated != 1 || res.DishesUpdated != 1 {
		t.Errorf("prices/dishes updated = %d/%d, want 1/1", res.PricesUpdated, res.DishesUpdated)
	}
}

func TestSync_UnconfiguredConnector(t *testing.T) {
	t.Parallel()

	cat := newFakeCatalog()
	conn := &mockConnector{name: "Wolt", service: models.ServiceWolt}

	res := NewReconciler(cat, cat).Sync(context.Background(), conn)

	if res.Success() || len(res.Errors) != 1 {
		t.Fatalf("Errors = %v, want one", res.Errors)
	}
	if res.Errors[0] != "Wolt connector is not configured" {
		t.Errorf("error = %q", res.Errors[0])
	}
	if conn.restaurantCalls.Load() != 0 || conn.dishCalls.Load() != 0 {
		t.Error("fetch methods must not be called on an unconfigured connector")
	}
}

func TestSync_FetchRestaurantsError(t *testing.T) {
	t.Parallel()

	cat := newFakeCatalog()
	conn := &mockConnector{
		name: "Wolt", service: models.ServiceWolt, configured: true,
		restaurants: func(context.Context, string) ([]models.RestaurantRecord, error) {
			return nil, errBoom
		},
	}

	res := NewReconciler(cat, cat).Sync(context.Background(), conn)
	if len(res.Errors) != 1 || !strings.HasPrefix(res.Errors[0], "Connector sync error:") {
		t.Errorf("Errors = %v", res.Errors)
	}
	if conn.dishCalls.Load() != 0 {
		t.Error("dishes fetched after restaurant fetch failure")
	}
}

func TestSync_InvalidRecords(t *testing.T) {
	t.Parallel()

	cat := newFakeCatalog()
	blank := restaurantRecord("R2", "   ")
	badDish := dishRecord("R1", "D2", "Mystery", 5)
	badDish.Currency = "EURO"
	f := &feed{
		restaurants: []models.RestaurantRecord{restaurantRecord("R1", "Good"), blank},
		dishes: map[string][]models.DishRecord{
			"R1": {dishRecord("R1", "D1", "Fine", 5), badDish},
		},
	}

	res := NewReconciler(cat, cat).Sync(context.Background(), f.connector(models.ServiceManual))

	if len(res.Errors) != 2 {
		t.Fatalf("Errors = %v, want 2", res.Errors)
	}
	if res.RestaurantsAdded != 1 || res.DishesAdded != 1 {
		t.Errorf("added %d restaurants, %d dishes; want 1/1", res.RestaurantsAdded, res.DishesAdded)
	}
}

func TestSync_DryRun(t *testing.T) {
	t.Parallel()

	cat := newFakeCatalog()
	f := newTestFeed()
	conn := f.connector(models.ServiceWolt)

	dry := NewDryRunReconciler(cat).Sync(context.Background(), conn)
	if cat.writeCount() != 0 {
		t.Fatalf("dry run wrote %d times", cat.writeCount())
	}
	if !dry.DryRun || dry.RestaurantsAdded != 3 || dry.DishesAdded != 4 || dry.PricesUpdated != 4 {
		t.Errorf("dry run counts = %+v", dry)
	}

	// after a live run the dry run reports updates against the real catalog
	NewReconciler(cat, cat).Sync(context.Background(), conn)
	writes := cat.writeCount()
	f.mu.Lock()
	f.dishes["R3"][0].Price = 7.00
	f.mu.Unlock()

	dry = NewDryRunReconciler(cat).Sync(context.Background(), conn)
	if cat.writeCount() != writes {
		t.Error("dry run wrote to the catalog")
	}
	if dry.RestaurantsUpdated != 3 || dry.DishesUpdated != 4 || dry.PricesUpdated != 1 {
		t.Errorf("dry run counts after live run = %+v", dry)
	}
}

func TestSync_Geocoding(t *testing.T) {
	t.Parallel()

	t.Run("fills coordinates", func(t *testing.T) {
		t.Parallel()
		cat := newFakeCatalog()
		geo := &mockGeocoder{}
		f := &feed{restaurants: []models.RestaurantRecord{restaurantRecord("R1", "Bistro")}}

		NewReconciler(cat, cat, WithGeocoder(geo)).Sync(context.Background(), f.connector(models.ServiceManual))

		r := cat.restaurantByExternal(models.ServiceManual, "R1")
		if r.Latitude == nil || *r.Latitude != 45.81 {
			t.Errorf("Latitude = %v", r.Latitude)
		}
	})

	t.Run("failure is ignored", func(t *testing.T) {
		t.Parallel()
		cat := newFakeCatalog()
		geo := &mockGeocoder{err: errors.New("nominatim down")}
		f := &feed{restaurants: []models.RestaurantRecord{restaurantRecord("R1", "Bistro")}}

		res := NewReconciler(cat, cat, WithGeocoder(geo)).Sync(context.Background(), f.connector(models.ServiceManual))
		if !res.Success() || res.RestaurantsAdded != 1 {
			t.Errorf("result = %+v", res)
		}
	})

	t.Run("dry run skips geocoder", func(t *testing.T) {
		t.Parallel()
		cat := newFakeCatalog()
		geo := &mockGeocoder{}
		f := &feed{restaurants: []models.RestaurantRecord{restaurantRecord("R1", "Bistro")}}

		NewDryRunReconciler(cat, WithGeocoder(geo)).Sync(context.Background(), f.connector(models.ServiceManual))
		if geo.calls.Load() != 0 {
			t.Errorf("geocoder called %d times in dry run", geo.calls.Load())
		}
	})
}

func TestRecordingWriter(t *testing.T) {
	t.Parallel()

	w := NewRecordingWriter()
	ctx := context.Background()
	r, _ := w.CreateRestaurantWithLink(ctx, models.ServiceWolt, &models.RestaurantRecord{Name: "A"}, "a")
	d, _ := w.CreateDishWithPrice(ctx, r.ID, "x", models.ServiceWolt, &models.DishRecord{Name: "X", Price: 3})
	_ = w.UpdatePrice(ctx, "p-1", 4, "EUR")

	if !strings.HasPrefix(r.ID, DryRunIDPrefix) || r.ID == d.ID {
		t.Errorf("placeholder ids = %q, %q", r.ID, d.ID)
	}
	ops := w.Operations()
	want := []OpKind{OpCreateRestaurant, OpCreateDish, OpUpdatePrice}
	if len(ops) != len(want) {
		t.Fatalf("ops = %+v", ops)
	}
	for i, k := range want {
		if ops[i].Kind != k {
			t.Errorf("op %d = %s, want %s", i, ops[i].Kind, k)
		}
	}

	view := w.Overlay(newFakeCatalog())
	link, err := view.FindServiceLink(ctx, models.ServiceWolt, "")
	if err != nil || link.RestaurantID != r.ID {
		t.Errorf("overlay link = %+v, %v; want recorded restaurant", link, err)
	}
	if _, err := view.FindDishBySlug(ctx, r.ID, "x"); err != nil {
		t.Errorf("overlay dish lookup error = %v", err)
	}
	p, err := view.ActivePrice(ctx, d.ID, models.ServiceWolt)
	if err != nil || p.Price != 3 {
		t.Errorf("overlay price = %+v, %v; want 3", p, err)
	}
	if err := w.UpdatePrice(ctx, p.ID, 5, "EUR"); err != nil {
		t.Fatal(err)
	}
	if p, _ := view.ActivePrice(ctx, d.ID, models.ServiceWolt); p.Price != 5 {
		t.Errorf("overlay price after update = %v, want 5", p.Price)
	}
	if _, err := view.FindServiceLink(ctx, models.ServiceWolt, "unknown"); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("overlay miss error = %v, want base ErrNotFound", err)
	}
}

func TestSync_DryRunMatchesLiveForRepeatedRecords(t *testing.T) {
	t.Parallel()

	// the same restaurant and dish arrive twice in one feed
	newFeed := func() *feed {
		return &feed{
			restaurants: []models.RestaurantRecord{
				restaurantRecord("R1", "Pizzeria Napoli"),
				restaurantRecord("R1", "Pizzeria Napoli"),
			},
			dishes: map[string][]models.DishRecord{
				"R1": {dishRecord("R1", "D1", "Margherita", 7.99), dishRecord("R1", "D1", "Margherita", 8.49)},
			},
		}
	}

	cat := newFakeCatalog()
	live := NewReconciler(cat, cat).Sync(context.Background(), newFeed().connector(models.ServiceWolt))
	dry := NewDryRunReconciler(newFakeCatalog()).Sync(context.Background(), newFeed().connector(models.ServiceWolt))

	if live.RestaurantsAdded != 1 || live.RestaurantsUpdated != 1 {
		t.Fatalf("live counts = %+v", live)
	}
	type counts struct{ ra, ru, da, du, pu int }
	got := counts{dry.RestaurantsAdded, dry.RestaurantsUpdated, dry.DishesAdded, dry.DishesUpdated, dry.PricesUpdated}
	want := counts{live.RestaurantsAdded, live.RestaurantsUpdated, live.DishesAdded, live.DishesUpdated, live.PricesUpdated}
	if got != want {
		t.Errorf("dry run counts %+v, live counts %+v", got, want)
	}
}

func TestSync_ModifiedCountsOnlyRealChanges(t *testing.T) {
	t.Parallel()

	cat := newFakeCatalog()
	f := newTestFeed()
	conn := f.connector(models.ServiceWolt)
	rec := NewReconciler(cat, cat)

	first := rec.Sync(context.Background(), conn)
	if !first.Changed() {
		t.Fatalf("first run should change the catalog: %+v", first)
	}

	same := rec.Sync(context.Background(), conn)
	if same.RestaurantsUpdated != 3 || same.DishesUpdated != 4 || same.Modified != 0 || same.Changed() {
		t.Errorf("identical resync = %+v, want matches without modifications", same)
	}

	f.mu.Lock()
	f.restaurants[0].Address = "Tkalciceva 12"
	f.dishes["R2"][0].Category = "Burgers"
	f.mu.Unlock()

	changed := rec.Sync(context.Background(), conn)
	if changed.Modified != 2 || changed.PricesUpdated != 0 || !changed.Changed() {
		t.Errorf("resync with edits = %+v, want 2 modified", changed)
	}
}
