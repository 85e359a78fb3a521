// Tanjur - Restaurant Catalog, Delivery Price Aggregation and Trending
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tanjur

package sync

import "testing"

func TestSlugify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"Pizzeria Napoli", "pizzeria-napoli"},
		{"Čevapi u lepinji", "cevapi-u-lepinji"},
		{"Đuveč & Štrukli!", "duvec-strukli"},
		{"  --Burger   Bar--  ", "burger-bar"},
		{"Café Ž 2", "cafe-z-2"},
		{"???", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDishSlug_ScopedByRestaurant(t *testing.T) {
	t.Parallel()

	a := DishSlug("Margherita", "r-1")
	b := DishSlug("Margherita", "r-2")
	if a == b {
		t.Errorf("dish slugs should differ across restaurants: %q", a)
	}
	if a != "margherita-r-1" {
		t.Errorf("DishSlug = %q", a)
	}
	if DishSlug("Margherita", "r-1") != a {
		t.Error("DishSlug is not deterministic")
	}
}
