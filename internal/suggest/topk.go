// Nachos - Movie Catalog and Suggestion Backend
// Copyright 2026 Marwan K. (MarwanKhatib)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MarwanKhatib/Nachos-backend

package suggest

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
)

// TopSuggester serves the highest-scoring unwatched suggestions for a user
// and manages the watched-pool recycling that keeps suggestions flowing
// once the pool is exhausted.
type TopSuggester struct {
	store   Store
	catalog Catalog
	logger  zerolog.Logger
}

// NewTopSuggester creates a top-K suggester.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewTopSuggester(store Store, catalog Catalog, logger zerolog.Logger) *TopSuggester {
	return &TopSuggester{
		store:   store,
		catalog: catalog,
		logger:  logger.With().Str("component", "topk").Logger(),
	}
}

// Serve returns up to k movie IDs ordered by total descending, ties broken
// by movie ID ascending, and flips the served records to watched in the
// same transaction. The second return reports whether the watched pool was
// recycled to fill the request.
//
// When the unwatched pool is empty, all of the user's watched flags are
// reset and the query runs once more. Exactly one recycle attempt: a user
// with zero records gets an empty result, not a retry loop. The recycle is
// a supply fallback only; store failures propagate unchanged.
func (s *TopSuggester) Serve(ctx context.Context, userID UserID, k int) ([]MovieID, bool, error) {
	start := time.Now()

	var (
		served   []SuggestionRecord
		recycled bool
	)
	err := s.store.InTx(ctx, func(tx StoreTx) error {
		records, err := tx.TopUnwatched(ctx, userID, k)
		if err != nil {
			return err
		}

		if len(records) == 0 {
			if err := tx.ResetWatched(ctx, userID); err != nil {
				return err
			}
			recycled = true
			records, err = tx.TopUnwatched(ctx, userID, k)
			if err != nil {
				return err
			}
		}

		for i := range records {
			records[i].IsWatched = true
		}
		served = records

		return tx.BulkUpsertTotals(ctx, records)
	})
	if err != nil {
		return nil, false, err
	}

	ids := make([]MovieID, len(served))
	for i, rec := range served {
		ids[i] = rec.MovieID
	}

	s.logger.Debug().
		Int("user_id", int(userID)).
		Int("served", len(ids)).
		Bool("recycled", recycled).
		Int64("latency_ms", time.Since(start).Milliseconds()).
		Msg("top suggestions served")

	return ids, recycled, nil
}

// Preview returns up to limit unwatched suggestions ordered by total
// descending without flipping any watched flags.
//
// When the stored totals carry no signal (no unwatched records, or all
// totals zero) and the user has genre preferences, the catalog is ranked
// live against those preferences instead, so a fresh user still gets a
// meaningful list before any rating has propagated.
func (s *TopSuggester) Preview(ctx context.Context, userID UserID, limit int) ([]SuggestionRecord, error) {
	var (
		records []SuggestionRecord
		prefs   []GenreID
	)
	err := s.store.InTx(ctx, func(tx StoreTx) error {
		var err error
		records, err = tx.TopUnwatched(ctx, userID, limit)
		if err != nil {
			return err
		}

		if !hasSignal(records) {
			prefs, err = tx.Preferences(ctx, userID)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if hasSignal(records) || len(prefs) == 0 {
		return records, nil
	}

	fallback, err := s.rankCatalogByGenres(ctx, userID, prefs, limit)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Int("user_id", int(userID)).
		Int("results", len(fallback)).
		Msg("served genre-based fallback suggestions")

	return fallback, nil
}

// rankCatalogByGenres scores the whole catalog against the user's
// preference list and returns the best matches, deterministically ordered.
func (s *TopSuggester) rankCatalogByGenres(ctx context.Context, userID UserID, prefs []GenreID, limit int) ([]SuggestionRecord, error) {
	genresByMovie, err := s.catalog.GenresByMovie(ctx)
	if err != nil {
		return nil, err
	}

	ranked := make([]SuggestionRecord, 0, len(genresByMovie))
	for movieID, genres := range genresByMovie {
		score := Score(prefs, genres)
		if score == 0 {
			continue
		}
		ranked = append(ranked, SuggestionRecord{
			UserID:  userID,
			MovieID: movieID,
			Total:   score,
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Total != ranked[j].Total {
			return ranked[i].Total > ranked[j].Total
		}
		return ranked[i].MovieID < ranked[j].MovieID
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// hasSignal reports whether any record carries a non-zero total.
func hasSignal(records []SuggestionRecord) bool {
	for _, rec := range records {
		if rec.Total != 0 {
			return true
		}
	}
	return false
}
