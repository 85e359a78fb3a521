// Tanjur - Restaurant Catalog, Delivery Price Aggregation and Trending
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tanjur

/*
Package api serves the Tanjur HTTP API with the chi router.

Routes:

	GET  /api/v1/health/live
	GET  /api/v1/health/ready
	GET  /api/v1/restaurants/trending?limit=
	GET  /api/v1/dishes/trending?limit=
	POST /api/v1/views                  {"type":"restaurant|dish","id":"...","session_id":"..."}
	POST /api/v1/favorites              {"restaurant_id":"...","user_id":"..."}
	POST /api/v1/reviews                {"restaurant_id"|"dish_id":"...","rating":1..5}
	GET  /api/v1/connectors
	POST /api/v1/connectors/sync?dry_run=&service=
	GET  /metrics

Every JSON response uses the APIResponse envelope:

	{"success": true, "data": [...], "meta": {"request_id": "...", "timestamp": "...", "duration_ms": 3}}
*/
package api
