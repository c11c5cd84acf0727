// Nachos - Movie Catalog and Suggestion Backend
// Copyright 2026 Marwan K. (MarwanKhatib)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MarwanKhatib/Nachos-backend

package suggest

import (
	"context"
	"fmt"
	"math"
)

// PropagationPolicy applies the score side effects of one rating event to a
// user's suggestion records, inside the caller's transaction.
//
// Apply with subtract=false applies the rating; subtract=true reverses a
// previously applied rating of the same value. Re-rating is always
// subtract-old-then-apply-new as two ordered calls against the related set
// as it exists now; no historical snapshot of curation is kept.
type PropagationPolicy interface {
	// Name returns the policy identifier used in config and logs.
	Name() string

	// Apply propagates the rating of movieID by userID to the movie's
	// related records and returns how many records it touched.
	Apply(ctx context.Context, tx StoreTx, userID UserID, movieID MovieID, rating float64, subtract bool) (int, error)
}

// PointTablePolicy propagates ratings using static per-rating point lists:
// the related movie at priority rank i receives points[i]. This is the
// default policy. Totals may go negative after a downgraded re-rate; they
// are not clamped, so a later upgrade restores them exactly.
type PointTablePolicy struct {
	points  PointSource
	catalog Catalog
}

// NewPointTablePolicy creates the point-table propagation policy.
func NewPointTablePolicy(points PointSource, catalog Catalog) *PointTablePolicy {
	return &PointTablePolicy{points: points, catalog: catalog}
}

// Name implements PropagationPolicy.
func (p *PointTablePolicy) Name() string { return "points" }

// Apply implements PropagationPolicy. It fails with ErrInsufficientPointData
// when the rating's point list is shorter than the related-movie list, and
// with ErrRatingTableNotFound when no table exists for the rating.
func (p *PointTablePolicy) Apply(ctx context.Context, tx StoreTx, userID UserID, movieID MovieID, rating float64, subtract bool) (int, error) {
	points, err := p.points.Points(rating)
	if err != nil {
		return 0, err
	}

	related, err := p.catalog.RelatedOf(ctx, movieID)
	if err != nil {
		return 0, err
	}

	if len(points) < len(related) {
		return 0, fmt.Errorf("%w: %d points for %d related movies of movie %d",
			ErrInsufficientPointData, len(points), len(related), movieID)
	}

	updated := make([]SuggestionRecord, 0, len(related))
	for i, edge := range related {
		rec, err := tx.GetOrCreate(ctx, userID, edge.MovieID)
		if err != nil {
			return 0, err
		}

		if subtract {
			rec.Total -= points[i]
		} else {
			rec.Total += points[i]
		}
		updated = append(updated, *rec)
	}

	if err := tx.BulkUpsertTotals(ctx, updated); err != nil {
		return 0, err
	}
	return len(updated), nil
}

// GenreWeightedPolicy propagates ratings as genre-overlap weighted deltas:
// each related movie's delta is the overlap score between the rated movie's
// genres and the related movie's genres, scaled by the rating's signed
// distance from the neutral midpoint of 2.5. A 5-star rating applies the
// full overlap score, a 0-star rating the full negative, and a 2.5 rating
// propagates nothing.
//
// Totals are clamped at a floor of 0 after every adjustment, which makes
// subtract-then-add round trips lossy near the floor. Deployments that need
// the exact re-rate round-trip use PointTablePolicy instead.
type GenreWeightedPolicy struct {
	catalog Catalog
}

// NewGenreWeightedPolicy creates the genre-weighted propagation policy.
func NewGenreWeightedPolicy(catalog Catalog) *GenreWeightedPolicy {
	return &GenreWeightedPolicy{catalog: catalog}
}

// Name implements PropagationPolicy.
func (p *GenreWeightedPolicy) Name() string { return "genre" }

// Apply implements PropagationPolicy.
func (p *GenreWeightedPolicy) Apply(ctx context.Context, tx StoreTx, userID UserID, movieID MovieID, rating float64, subtract bool) (int, error) {
	ratedGenres, err := p.catalog.MovieGenres(ctx, movieID)
	if err != nil {
		return 0, err
	}

	related, err := p.catalog.RelatedOf(ctx, movieID)
	if err != nil {
		return 0, err
	}

	// (rating-2.5)/2.5 maps the 0-5 scale onto [-1, 1].
	scale := (rating - 2.5) / 2.5

	updated := make([]SuggestionRecord, 0, len(related))
	for _, edge := range related {
		genres, err := p.catalog.MovieGenres(ctx, edge.MovieID)
		if err != nil {
			return 0, err
		}

		delta := int(math.Round(float64(Score(ratedGenres, genres)) * scale))
		if subtract {
			delta = -delta
		}

		rec, err := tx.GetOrCreate(ctx, userID, edge.MovieID)
		if err != nil {
			return 0, err
		}

		rec.Total += delta
		if rec.Total < 0 {
			rec.Total = 0
		}
		updated = append(updated, *rec)
	}

	if err := tx.BulkUpsertTotals(ctx, updated); err != nil {
		return 0, err
	}
	return len(updated), nil
}

// Compile-time interface checks, one per policy.
var (
	_ PropagationPolicy = (*PointTablePolicy)(nil)
	_ PropagationPolicy = (*GenreWeightedPolicy)(nil)
)
