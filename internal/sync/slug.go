// Tanjur - Restaurant Catalog, Delivery Price Aggregation and Trending
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tanjur

package sync

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// letters that do not decompose into a base letter plus a mark
var foldExtra = map[rune]string{
	'đ': "d",
	'ł': "l",
	'ø': "o",
	'ß': "ss",
	'æ': "ae",
	'œ': "oe",
}

// Slugify lowercases s, strips diacritics and joins alphanumeric runs with
// single dashes: "Čevapi u lepinji" -> "cevapi-u-lepinji".
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(folded))
	pendingDash := false
	for _, r := range folded {
		var out string
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = string(r)
		default:
			out = foldExtra[r]
		}
		if out == "" {
			pendingDash = b.Len() > 0
			continue
		}
		if pendingDash {
			b.WriteByte('-')
			pendingDash = false
		}
		b.WriteString(out)
	}
	return b.String()
}

// DishSlug is the matching key of a dish within its restaurant.
func DishSlug(name, restaurantID string) string {
	return Slugify(name + "-" + restaurantID)
}
