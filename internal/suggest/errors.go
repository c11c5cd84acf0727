// Nachos - Movie Catalog and Suggestion Backend
// Copyright 2026 Marwan K. (MarwanKhatib)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MarwanKhatib/Nachos-backend

package suggest

import "errors"

// Error taxonomy for the suggestion engine. Callers translate these to their
// transport's error surface; the HTTP layer maps validation errors to 400,
// not-found to 404, conflicts to 503 and data-integrity failures to an
// opaque 500.
var (
	// ErrInvalidRating indicates a rating outside the supported half-step
	// 0-5 scale.
	ErrInvalidRating = errors.New("rating must be a half-step between 0 and 5")

	// ErrEmptyGenres indicates a genre preference update with no genres.
	ErrEmptyGenres = errors.New("at least one genre is required")

	// ErrUserNotFound indicates the user has no suggestion state.
	ErrUserNotFound = errors.New("user not found")

	// ErrMovieNotFound indicates the movie does not exist in the catalog.
	ErrMovieNotFound = errors.New("movie not found")

	// ErrRatingTableNotFound indicates no point table exists for a rating
	// value.
	ErrRatingTableNotFound = errors.New("no point table for rating")

	// ErrInsufficientPointData indicates a point table shorter than the
	// related-movie list it must cover. This is a data-integrity problem
	// with the static tables, not a user error.
	ErrInsufficientPointData = errors.New("point table shorter than related-movie list")

	// ErrConflict indicates a transaction serialization failure; the whole
	// flow may be retried by the caller.
	ErrConflict = errors.New("concurrent update conflict")
)
