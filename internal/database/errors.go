// Tanjur - Restaurant Catalog, Delivery Price Aggregation and Trending
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tanjur

package database

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tomtom215/tanjur/internal/logging"
)

var (
	// ErrNotFound is returned by lookups that match no row.
	ErrNotFound = errors.New("not found")

	// ErrRestaurantNotFound and ErrDishNotFound wrap ErrNotFound for writes
	// that reference a missing entity.
	ErrRestaurantNotFound = fmt.Errorf("restaurant %w", ErrNotFound)
	ErrDishNotFound       = fmt.Errorf("dish %w", ErrNotFound)

	// ErrLinkConflict is returned when a (service, external id) pair is
	// already linked to a restaurant.
	ErrLinkConflict = errors.New("service link already exists")
)

// closeWithLog closes a resource and logs any error.
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource on an error path where Close errors are not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}

// isUniqueConstraintError reports whether err is a DuckDB unique or primary key violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "unique constraint") || strings.Contains(errMsg, "duplicate key")
}
