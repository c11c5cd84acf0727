// Nachos - Movie Catalog and Suggestion Backend
// Copyright 2026 Marwan K. (MarwanKhatib)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MarwanKhatib/Nachos-backend

package suggest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Engine orchestrates the three suggestion mutation flows. It is safe for
// concurrent use: flows for the same user serialize on a per-user lock so
// that subtract-old/add-new propagation can never interleave with a second
// submission, while different users proceed in parallel.
type Engine struct {
	cfg     *Config
	store   Store
	catalog Catalog
	policy  PropagationPolicy
	logger  zerolog.Logger

	// Per-user locks for flow serialization. Entries are never evicted; one
	// mutex per user seen over the process lifetime is an accepted cost.
	userLocks sync.Map
}

// NewEngine creates a suggestion engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, store Store, catalog Catalog, policy PropagationPolicy, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if store == nil || catalog == nil || policy == nil {
		return nil, fmt.Errorf("store, catalog and policy are required")
	}

	return &Engine{
		cfg:     cfg,
		store:   store,
		catalog: catalog,
		policy:  policy,
		logger:  logger.With().Str("component", "suggest").Logger(),
	}, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() *Config {
	return e.cfg
}

// lockUser acquires the user's flow lock and returns the unlock function.
func (e *Engine) lockUser(userID UserID) func() {
	v, _ := e.userLocks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Initialize creates the user's suggestion list: one zero-score, unwatched
// record per catalog movie. It runs once at account verification and is
// idempotent, so a retried verification never duplicates records.
func (e *Engine) Initialize(ctx context.Context, userID UserID) error {
	start := time.Now()

	movieIDs, err := e.catalog.MovieIDs(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	unlock := e.lockUser(userID)
	defer unlock()

	err = e.store.InTx(ctx, func(tx StoreTx) error {
		return tx.CreateAll(ctx, userID, movieIDs)
	})
	if err != nil {
		return fmt.Errorf("create suggestions: %w", err)
	}

	e.logger.Info().
		Int("user_id", int(userID)).
		Int("movies", len(movieIDs)).
		Int64("latency_ms", time.Since(start).Milliseconds()).
		Msg("suggestion list initialized")

	return nil
}

// UpdatePreferences replaces the user's ordered genre preference list and
// recomputes every suggestion total as a pure function of the new list and
// each movie's genre tags.
//
// Totals are set, never adjusted by deltas: recomputation is idempotent
// under retry, where delta accumulation would double-apply. The submitted
// order is preserved as preference strength; duplicates keep their first
// position.
func (e *Engine) UpdatePreferences(ctx context.Context, userID UserID, genres []GenreID) error {
	if len(genres) == 0 {
		return ErrEmptyGenres
	}
	genres = dedupeGenres(genres)
	start := time.Now()

	genresByMovie, err := e.catalog.GenresByMovie(ctx)
	if err != nil {
		return fmt.Errorf("load movie genres: %w", err)
	}

	unlock := e.lockUser(userID)
	defer unlock()

	var updated int
	err = e.store.InTx(ctx, func(tx StoreTx) error {
		records, err := tx.Records(ctx, userID)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return fmt.Errorf("%w: user %d has no suggestion list", ErrUserNotFound, userID)
		}

		if err := tx.ReplacePreferences(ctx, userID, genres); err != nil {
			return err
		}

		for i := range records {
			records[i].Total = Score(genres, genresByMovie[records[i].MovieID])
		}
		updated = len(records)

		return tx.BulkUpsertTotals(ctx, records)
	})
	if err != nil {
		return err
	}

	e.logger.Info().
		Int("user_id", int(userID)).
		Int("genres", len(genres)).
		Int("records", updated).
		Int64("latency_ms", time.Since(start).Milliseconds()).
		Msg("genre preferences updated")

	return nil
}

// RateMovie records the user's rating for a movie and propagates its point
// deltas to the movie's related records via the configured policy.
//
// A re-rate first reverses the old rating's propagation, then applies the
// new one, both against the related set as it exists now. The rated movie
// itself is marked watched so it is not suggested again. Everything -
// rating row, watched flag, propagated totals - commits in one transaction;
// a failure (unknown table, short point list) leaves no partial state.
//
// The returned count is the number of related records the new rating
// touched, for observability.
func (e *Engine) RateMovie(ctx context.Context, userID UserID, movieID MovieID, rating float64) (int, error) {
	if !ValidRating(rating) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidRating, rating)
	}
	start := time.Now()

	// Reject unknown movies before taking the lock or opening a transaction.
	if _, err := e.catalog.MovieGenres(ctx, movieID); err != nil {
		return 0, err
	}

	unlock := e.lockUser(userID)
	defer unlock()

	var (
		replaced bool
		fanout   int
	)
	err := e.store.InTx(ctx, func(tx StoreTx) error {
		oldRating, had, err := tx.Rating(ctx, userID, movieID)
		if err != nil {
			return err
		}
		replaced = had

		if err := tx.UpsertRating(ctx, userID, movieID, rating); err != nil {
			return err
		}

		// A rated movie is no longer eligible for suggestion. GetOrCreate
		// first: the movie may postdate the user's onboarding.
		if _, err := tx.GetOrCreate(ctx, userID, movieID); err != nil {
			return err
		}
		if err := tx.MarkWatched(ctx, userID, movieID); err != nil {
			return err
		}

		if had {
			if _, err := e.policy.Apply(ctx, tx, userID, movieID, oldRating, true); err != nil {
				return err
			}
		}

		fanout, err = e.policy.Apply(ctx, tx, userID, movieID, rating, false)
		return err
	})
	if err != nil {
		return 0, err
	}

	e.logger.Info().
		Int("user_id", int(userID)).
		Int("movie_id", int(movieID)).
		Float64("rating", rating).
		Bool("replaced", replaced).
		Int("fanout", fanout).
		Str("policy", e.policy.Name()).
		Int64("latency_ms", time.Since(start).Milliseconds()).
		Msg("rating propagated")

	return fanout, nil
}

// dedupeGenres removes duplicate genre IDs, keeping first occurrences in
// order.
func dedupeGenres(genres []GenreID) []GenreID {
	seen := make(map[GenreID]struct{}, len(genres))
	out := make([]GenreID, 0, len(genres))
	for _, g := range genres {
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	return out
}
