// Nachos - Movie Catalog and Suggestion Backend
// Copyright 2026 Marwan K. (MarwanKhatib)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MarwanKhatib/Nachos-backend

package api

import (
	"errors"
	"net/http"

	"github.com/MarwanKhatib/Nachos-backend/internal/suggest"
)

// writeSuggestError maps an engine error onto the HTTP error taxonomy.
// Validation failures are 400, missing resources 404, retryable conflicts
// 503; anything else is an opaque 500 so internals never leak.
func writeSuggestError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, suggest.ErrInvalidRating):
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR",
			"rating must be a half step between 0 and 5", nil)
	case errors.Is(err, suggest.ErrEmptyGenres):
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR",
			"genre list must not be empty", nil)
	case errors.Is(err, suggest.ErrUserNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND",
			"user has no suggestion list", nil)
	case errors.Is(err, suggest.ErrMovieNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND",
			"movie not found", nil)
	case errors.Is(err, suggest.ErrConflict):
		w.Header().Set("Retry-After", "1")
		respondError(w, http.StatusServiceUnavailable, "CONFLICT",
			"concurrent update, retry the request", err)
	default:
		// Covers ErrRatingTableNotFound and ErrInsufficientPointData too:
		// both are server-side data integrity problems, not client faults.
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"internal server error", err)
	}
}
