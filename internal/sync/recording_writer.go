// Tanjur - Restaurant Catalog, Delivery Price Aggregation and Trending
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tanjur

package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/tanjur/internal/models"
)

// DryRunIDPrefix prefixes the placeholder ids handed out by a RecordingWriter.
const DryRunIDPrefix = "dry-run-"

// OpKind names a catalog write.
type OpKind string

const (
	OpUpdateRestaurant OpKind = "update_restaurant"
	OpCreateRestaurant OpKind = "create_restaurant"
	OpTouchLink        OpKind = "touch_link"
	OpUpdateDish       OpKind = "update_dish"
	OpCreateDish       OpKind = "create_dish"
	OpUpdatePrice      OpKind = "update_price"
	OpCreatePrice      OpKind = "create_price"
)

// Operation is one write a live run would have performed.
type Operation struct {
	Kind     OpKind
	TargetID string
	Service  models.Service
	Name     string
	Price    float64
}

// RecordingWriter is a CatalogWriter that performs no writes. Creations
// return entities with placeholder ids so that dependent records still go
// through matching. Overlay exposes the recorded state to later lookups of
// the same run, so a record seen twice matches its own earlier creation as
// it would in a live run.
type RecordingWriter struct {
	mu  sync.Mutex
	ops []Operation
	seq int

	links       map[string]*models.ServiceLink // service|externalID
	restaurants map[string]*models.Restaurant  // id
	dishes      map[string]*models.Dish        // restaurantID|slug
	prices      map[string]*models.DishPrice   // dishID|service
	repriced    map[string]float64             // priceID
}

var _ CatalogWriter = (*RecordingWriter)(nil)

// NewRecordingWriter creates an empty recorder.
func NewRecordingWriter() *RecordingWriter {
	return &RecordingWriter{
		links:       make(map[string]*models.ServiceLink),
		restaurants: make(map[string]*models.Restaurant),
		dishes:      make(map[string]*models.Dish),
		prices:      make(map[string]*models.DishPrice),
		repriced:    make(map[string]float64),
	}
}

// Operations returns a copy of the recorded operations in call order.
func (w *RecordingWriter) Operations() []Operation {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Operation, len(w.ops))
	copy(out, w.ops)
	return out
}

func (w *RecordingWriter) record(op Operation) {
	w.mu.Lock()
	w.ops = append(w.ops, op)
	w.mu.Unlock()
}

func (w *RecordingWriter) nextID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.seq++
	return fmt.Sprintf("%s%d", DryRunIDPrefix, w.seq)
}

func (w *RecordingWriter) UpdateRestaurant(_ context.Context, id string, rec *models.RestaurantRecord) error {
	w.record(Operation{Kind: OpUpdateRestaurant, TargetID: id, Name: rec.Name})
	return nil
}

func (w *RecordingWriter) CreateRestaurantWithLink(_ context.Context, service models.Service, rec *models.RestaurantRecord, baseSlug string) (*models.Restaurant, error) {
	id := w.nextID()
	w.record(Operation{Kind: OpCreateRestaurant, TargetID: id, Service: service, Name: rec.Name})
	r := &models.Restaurant{
		ID:          id,
		Name:        rec.Name,
		Slug:        baseSlug,
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
	}

	w.mu.Lock()
	w.restaurants[id] = r
	w.links[linkKey(service, rec.ExternalID)] = &models.ServiceLink{
		ID:           DryRunIDPrefix + "link-" + id,
		RestaurantID: id,
		Service:      service,
		ExternalID:   rec.ExternalID,
	}
	w.mu.Unlock()

	c := *r
	return &c, nil
}

func (w *RecordingWriter) TouchServiceLink(_ context.Context, linkID string, _ time.Time) error {
	w.record(Operation{Kind: OpTouchLink, TargetID: linkID})
	return nil
}

func (w *RecordingWriter) UpdateDish(_ context.Context, id string, rec *models.DishRecord) error {
	w.record(Operation{Kind: OpUpdateDish, TargetID: id, Name: rec.Name})
	return nil
}

func (w *RecordingWriter) CreateDishWithPrice(_ context.Context, restaurantID, slug string, service models.Service, rec *models.DishRecord) (*models.Dish, error) {
	id := w.nextID()
	w.record(Operation{Kind: OpCreateDish, TargetID: id, Service: service, Name: rec.Name, Price: rec.Price})
	d := &models.Dish{
		ID:           id,
		RestaurantID: restaurantID,
		Name:         rec.Name,
		Slug:         slug,
		Description:  rec.Description,
		Category:     rec.Category,
		ImageURL:     rec.ImageURL,
		Verified:     true,
		IsAvailable:  true,
	}

	w.mu.Lock()
	w.dishes[dishKey(restaurantID, slug)] = d
	w.prices[priceKey(id, service)] = &models.DishPrice{
		ID: DryRunIDPrefix + "price-" + id, DishID: id, Service: service,
		Price: rec.Price, Currency: rec.Currency, IsActive: true,
	}
	w.mu.Unlock()

	c := *d
	return &c, nil
}

func (w *RecordingWriter) UpdatePrice(_ context.Context, priceID string, price float64, _ string) error {
	w.record(Operation{Kind: OpUpdatePrice, TargetID: priceID, Price: price})
	w.mu.Lock()
	w.repriced[priceID] = price
	w.mu.Unlock()
	return nil
}

func (w *RecordingWriter) CreatePrice(_ context.Context, dishID string, service models.Service, price float64, currency string) error {
	w.record(Operation{Kind: OpCreatePrice, TargetID: dishID, Service: service, Price: price})
	w.mu.Lock()
	w.prices[priceKey(dishID, service)] = &models.DishPrice{
		ID: DryRunIDPrefix + "price-" + dishID, DishID: dishID, Service: service,
		Price: price, Currency: currency, IsActive: true,
	}
	w.mu.Unlock()
	return nil
}

// Overlay returns a reader that answers from the writes recorded so far and
// falls back to base.
func (w *RecordingWriter) Overlay(base CatalogReader) CatalogReader {
	return &overlayReader{base: base, w: w}
}

type overlayReader struct {
	base CatalogReader
	w    *RecordingWriter
}

var _ CatalogReader = (*overlayReader)(nil)

func (o *overlayReader) FindServiceLink(ctx context.Context, service models.Service, externalID string) (*models.ServiceLink, error) {
	o.w.mu.Lock()
	l, ok := o.w.links[linkKey(service, externalID)]
	o.w.mu.Unlock()
	if ok {
		c := *l
		return &c, nil
	}
	return o.base.FindServiceLink(ctx, service, externalID)
}

func (o *overlayReader) GetRestaurant(ctx context.Context, id string) (*models.Restaurant, error) {
	o.w.mu.Lock()
	r, ok := o.w.restaurants[id]
	o.w.mu.Unlock()
	if ok {
		c := *r
		return &c, nil
	}
	return o.base.GetRestaurant(ctx, id)
}

func (o *overlayReader) FindDishBySlug(ctx context.Context, restaurantID, slug string) (*models.Dish, error) {
	o.w.mu.Lock()
	d, ok := o.w.dishes[dishKey(restaurantID, slug)]
	o.w.mu.Unlock()
	if ok {
		c := *d
		return &c, nil
	}
	return o.base.FindDishBySlug(ctx, restaurantID, slug)
}

func (o *overlayReader) ActivePrice(ctx context.Context, dishID string, service models.Service) (*models.DishPrice, error) {
	o.w.mu.Lock()
	p, ok := o.w.prices[priceKey(dishID, service)]
	o.w.mu.Unlock()
	if !ok {
		var err error
		if p, err = o.base.ActivePrice(ctx, dishID, service); err != nil {
			return nil, err
		}
	}
	c := *p
	o.w.mu.Lock()
	if price, moved := o.w.repriced[c.ID]; moved {
		c.Price = price
	}
	o.w.mu.Unlock()
	return &c, nil
}

func linkKey(service models.Service, externalID string) string {
	return string(service) + "|" + externalID
}

func dishKey(restaurantID, slug string) string {
	return restaurantID + "|" + slug
}

func priceKey(dishID string, service models.Service) string {
	return dishID + "|" + string(service)
}
