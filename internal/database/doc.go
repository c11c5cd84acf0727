// Nachos - Movie Catalog and Suggestion Backend
// Copyright 2026 Marwan K. (MarwanKhatib)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MarwanKhatib/Nachos-backend

// Package database provides the DuckDB-backed persistence layer.
//
// It owns the schema (movie catalog, genre tags, related-movie edges, user
// suggestion lists, genre preferences, ratings) and implements the storage
// interfaces the suggestion engine consumes:
//
//   - suggest.Store / suggest.StoreTx over SQL transactions
//   - suggest.Catalog over the movie, genre and related-movie tables
//
// Every query runs under a context timeout from the database configuration.
// Transaction conflicts surface as suggest.ErrConflict so callers can
// retry; all other errors pass through wrapped.
package database
