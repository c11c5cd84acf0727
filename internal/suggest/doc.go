// Nachos - Movie Catalog and Suggestion Backend
// Copyright 2026 Marwan K. (MarwanKhatib)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MarwanKhatib/Nachos-backend

// Package suggest implements the per-user movie suggestion scoring engine.
//
// The engine maintains one suggestion record per (user, movie) pair and keeps
// its score consistent across three mutation flows:
//
//   - Initialize: bulk-create zero-score records for a new user after
//     account verification.
//   - UpdatePreferences: replace the user's ordered genre preference list
//     and recompute every record's total from genre overlap.
//   - RateMovie: persist a rating and propagate point deltas to the rated
//     movie's priority-ordered related movies.
//
// The read path is TopSuggester, which serves the highest-scoring unwatched
// movies, flips them to watched, and recycles the watched pool when it runs
// dry.
//
// # Architecture
//
// This package has no dependency on the database package. The Store, Catalog
// and PointSource interfaces decouple the engine from its backing storage so
// it can be unit-tested against in-memory fakes, and so the database layer
// can implement them without circular imports.
//
// Rating propagation is a strategy behind the PropagationPolicy interface.
// Two policies exist: PointTablePolicy (static per-rating point lists applied
// to the related set, the default) and GenreWeightedPolicy (genre-overlap
// weighted deltas scaled by rating distance from the neutral midpoint). A
// deployment picks exactly one; their arithmetic is never mixed.
//
// # Concurrency
//
// All mutation flows for the same user serialize on a per-user lock and run
// inside a single storage transaction, so a partial flow is never observable.
// Flows for different users run in parallel. Point tables and the related
// index are read-only.
package suggest
