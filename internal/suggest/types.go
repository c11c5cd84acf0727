// Nachos - Movie Catalog and Suggestion Backend
// Copyright 2026 Marwan K. (MarwanKhatib)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MarwanKhatib/Nachos-backend

package suggest

import "context"

// UserID identifies a user. Identity is owned by the auth collaborator; the
// engine treats it as opaque.
type UserID int

// MovieID identifies a movie in the catalog.
type MovieID int

// GenreID identifies a genre.
type GenreID int

// SuggestionRecord is one user's affinity score for one movie.
//
// Total is a signed cumulative score. Point-table propagation may drive it
// negative (a downgraded re-rate subtracts more than it adds back); the
// genre-weighted policy clamps it at zero instead.
//
// IsWatched means "not eligible to be suggested again". It is set both when
// the movie is rated and when it is served by TopSuggester, and cleared in
// bulk when the user's unwatched pool is exhausted.
type SuggestionRecord struct {
	UserID    UserID  `json:"user_id"`
	MovieID   MovieID `json:"movie_id"`
	Total     int     `json:"total"`
	IsWatched bool    `json:"is_watched"`
}

// RelatedMovieEdge is one entry in a movie's curated related-movies list.
// Lower Priority means more closely related; propagation point lists are
// indexed by priority rank.
type RelatedMovieEdge struct {
	MovieID  MovieID `json:"movie_id"`
	Priority int     `json:"priority"`
}

// Catalog provides read-only movie metadata. Implemented by the database
// layer; the engine never mutates catalog data.
type Catalog interface {
	// MovieIDs returns the full catalog's movie identifiers.
	MovieIDs(ctx context.Context) ([]MovieID, error)

	// GenresByMovie returns every movie's genre tags, keyed by movie.
	GenresByMovie(ctx context.Context) (map[MovieID][]GenreID, error)

	// MovieGenres returns one movie's genre tags. Returns ErrMovieNotFound
	// if the movie does not exist.
	MovieGenres(ctx context.Context, id MovieID) ([]GenreID, error)

	// RelatedOf returns the movie's related list ordered by ascending
	// priority. An empty list for an existing movie is valid; only an
	// unknown movie yields ErrMovieNotFound.
	RelatedOf(ctx context.Context, id MovieID) ([]RelatedMovieEdge, error)
}

// Store owns the engine's mutable per-user state. Every call to InTx runs fn
// against a single transaction: either all writes made through tx commit, or
// none do. Serialization failures surface as ErrConflict.
type Store interface {
	InTx(ctx context.Context, fn func(tx StoreTx) error) error
}

// StoreTx is the transactional view of the suggestion store. All methods
// operate within the transaction that produced the StoreTx.
type StoreTx interface {
	// CreateAll bulk-inserts one zero-score, unwatched record per movie for
	// the user. Idempotent: existing (user, movie) rows are left untouched.
	CreateAll(ctx context.Context, userID UserID, movieIDs []MovieID) error

	// Records returns all of the user's suggestion records.
	Records(ctx context.Context, userID UserID) ([]SuggestionRecord, error)

	// GetMany returns the user's records for the given movies, keyed by
	// movie. Missing records are absent from the map, not an error.
	GetMany(ctx context.Context, userID UserID, movieIDs []MovieID) (map[MovieID]*SuggestionRecord, error)

	// GetOrCreate returns the user's record for the movie, creating a
	// zero-score unwatched one if absent.
	GetOrCreate(ctx context.Context, userID UserID, movieID MovieID) (*SuggestionRecord, error)

	// BulkUpsertTotals writes Total and IsWatched for every given record.
	BulkUpsertTotals(ctx context.Context, records []SuggestionRecord) error

	// MarkWatched sets IsWatched for one record.
	MarkWatched(ctx context.Context, userID UserID, movieID MovieID) error

	// TopUnwatched returns up to limit unwatched records ordered by Total
	// descending, ties broken by MovieID ascending.
	TopUnwatched(ctx context.Context, userID UserID, limit int) ([]SuggestionRecord, error)

	// ResetWatched clears IsWatched on all of the user's records.
	ResetWatched(ctx context.Context, userID UserID) error

	// Preferences returns the user's genre preference list in declared
	// order, most-preferred first.
	Preferences(ctx context.Context, userID UserID) ([]GenreID, error)

	// ReplacePreferences deletes the user's stored preferences and writes
	// the given ordered list in its place.
	ReplacePreferences(ctx context.Context, userID UserID, genres []GenreID) error

	// Rating returns the user's current rating for the movie, and whether
	// one exists.
	Rating(ctx context.Context, userID UserID, movieID MovieID) (float64, bool, error)

	// UpsertRating creates or replaces the user's rating for the movie.
	UpsertRating(ctx context.Context, userID UserID, movieID MovieID, rating float64) error
}
