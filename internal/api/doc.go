// Nachos - Movie Catalog and Suggestion Backend
// Copyright 2026 Marwan K. (MarwanKhatib)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MarwanKhatib/Nachos-backend

// Package api provides HTTP routing and handlers for the suggestion
// backend using the chi router.
//
// Endpoints under /api/v1:
//
//	GET  /health                          liveness and store reachability
//	GET  /genres                          all catalog genres
//	POST /users/{userID}/onboard          create the user's suggestion list
//	GET  /users/{userID}/genres           the user's genre preferences
//	PUT  /users/{userID}/genres           replace preferences, rescore all
//	POST /users/{userID}/ratings          rate a movie, propagate points
//	GET  /users/{userID}/suggestions      read-only preview, ?limit=n
//	POST /users/{userID}/suggestions/top  serve top K and mark them watched
//
// The serve endpoint is a POST: it consumes suggestions (watched flags
// flip), so it is not a safe method. Prometheus metrics are exposed on
// /metrics.
package api
