// Tanjur - Restaurant Catalog, Delivery Price Aggregation and Trending
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tanjur

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/tomtom215/tanjur/internal/models"
	"github.com/tomtom215/tanjur/internal/sync"
)

// ConnectorStatus describes one registered connector.
type ConnectorStatus struct {
	Name       string                   `json:"name"`
	Service    models.Service           `json:"service"`
	Configured bool                     `json:"configured"`
	Metadata   models.ConnectorMetadata `json:"metadata"`
	LastResult *models.SyncResult       `json:"last_result,omitempty"`
}

// Connectors handles GET /api/v1/connectors.
func (h *Handler) Connectors(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.sync == nil {
		rw.ServiceUnavailable("Sync is not enabled")
		return
	}

	conns := h.sync.Connectors()
	out := make([]ConnectorStatus, 0, len(conns))
	for _, c := range conns {
		st := ConnectorStatus{
			Name:       c.Name(),
			Service:    c.Service(),
			Configured: c.IsConfigured(),
			Metadata:   c.Metadata(),
		}
		if res, ok := h.sync.LastResult(c.Service()); ok {
			st.LastResult = &res
		}
		out = append(out, st)
	}
	rw.List(out, len(out))
}

// TriggerSync handles POST /api/v1/connectors/sync. Without ?service= it
// runs every configured connector. The request blocks until the run ends.
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.sync == nil {
		rw.ServiceUnavailable("Sync is not enabled")
		return
	}

	dryRun := false
	if v := r.URL.Query().Get("dry_run"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			rw.BadRequest("dry_run must be a boolean")
			return
		}
		dryRun = b
	}

	if raw := r.URL.Query().Get("service"); raw != "" {
		service, err := models.ParseService(raw)
		if err != nil {
			rw.BadRequest(err.Error())
			return
		}
		result, err := h.sync.SyncConnector(r.Context(), service, dryRun)
		if errors.Is(err, sync.ErrUnknownConnector) {
			rw.NotFound("Connector is not registered: " + string(service))
			return
		}
		if err != nil {
			rw.InternalError("Failed to run sync", err)
			return
		}
		rw.List([]models.SyncResult{result}, 1)
		return
	}

	results, err := h.sync.SyncAll(r.Context(), dryRun)
	if err != nil {
		rw.InternalError("Failed to run sync", err)
		return
	}
	rw.List(results, len(results))
}
