// Nachos - Movie Catalog and Suggestion Backend
// Copyright 2026 Marwan K. (MarwanKhatib)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MarwanKhatib/Nachos-backend

package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/MarwanKhatib/Nachos-backend/internal/metrics"
	"github.com/MarwanKhatib/Nachos-backend/internal/suggest"
)

// seedTestCatalog loads three movies with genres and related edges.
func seedTestCatalog(t *testing.T, catalog *Catalog) {
	t.Helper()
	ctx := context.Background()

	for _, g := range []Genre{{ID: 1, Name: "Action"}, {ID: 2, Name: "Drama"}} {
		if err := catalog.UpsertGenre(ctx, g); err != nil {
			t.Fatalf("UpsertGenre: %v", err)
		}
	}
	movies := []Movie{
		{ID: 10, Title: "First"},
		{ID: 20, Title: "Second"},
		{ID: 30, Title: "Third"},
	}
	for _, m := range movies {
		if err := catalog.UpsertMovie(ctx, m); err != nil {
			t.Fatalf("UpsertMovie: %v", err)
		}
	}
	if err := catalog.SetMovieGenres(ctx, 10, []suggest.GenreID{1, 2}); err != nil {
		t.Fatalf("SetMovieGenres: %v", err)
	}
	if err := catalog.SetMovieGenres(ctx, 20, []suggest.GenreID{2}); err != nil {
		t.Fatalf("SetMovieGenres: %v", err)
	}
	if err := catalog.SetRelatedMovies(ctx, 10, []suggest.MovieID{30, 20}); err != nil {
		t.Fatalf("SetRelatedMovies: %v", err)
	}
}

func TestCatalogMovieIDs(t *testing.T) {
	catalog := NewCatalog(openTestDB(t))
	seedTestCatalog(t, catalog)

	ids, err := catalog.MovieIDs(context.Background())
	if err != nil {
		t.Fatalf("MovieIDs: %v", err)
	}
	want := []suggest.MovieID{10, 20, 30}
	if len(ids) != len(want) {
		t.Fatalf("MovieIDs = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("MovieIDs = %v, want %v", ids, want)
		}
	}
}

func TestCatalogMovieGenres(t *testing.T) {
	catalog := NewCatalog(openTestDB(t))
	seedTestCatalog(t, catalog)
	ctx := context.Background()

	genres, err := catalog.MovieGenres(ctx, 10)
	if err != nil {
		t.Fatalf("MovieGenres: %v", err)
	}
	if len(genres) != 2 || genres[0] != 1 || genres[1] != 2 {
		t.Errorf("MovieGenres(10) = %v, want [1 2]", genres)
	}

	// Untagged movie: empty, not an error.
	genres, err = catalog.MovieGenres(ctx, 30)
	if err != nil {
		t.Fatalf("MovieGenres(30): %v", err)
	}
	if len(genres) != 0 {
		t.Errorf("MovieGenres(30) = %v, want empty", genres)
	}

	// Unknown movie.
	_, err = catalog.MovieGenres(ctx, 999)
	if !errors.Is(err, suggest.ErrMovieNotFound) {
		t.Errorf("MovieGenres(999) error = %v, want ErrMovieNotFound", err)
	}
}

func TestCatalogGenresByMovie(t *testing.T) {
	catalog := NewCatalog(openTestDB(t))
	seedTestCatalog(t, catalog)

	byMovie, err := catalog.GenresByMovie(context.Background())
	if err != nil {
		t.Fatalf("GenresByMovie: %v", err)
	}
	if len(byMovie[10]) != 2 || len(byMovie[20]) != 1 {
		t.Errorf("GenresByMovie = %v, want movie 10 with 2 tags and movie 20 with 1", byMovie)
	}
	if _, ok := byMovie[30]; ok {
		t.Error("untagged movie 30 present in GenresByMovie map")
	}
}

func TestCatalogRelatedOf(t *testing.T) {
	catalog := NewCatalog(openTestDB(t))
	seedTestCatalog(t, catalog)
	ctx := context.Background()

	edges, err := catalog.RelatedOf(ctx, 10)
	if err != nil {
		t.Fatalf("RelatedOf: %v", err)
	}
	// Insertion order became priority: 30 first, then 20.
	if len(edges) != 2 {
		t.Fatalf("RelatedOf(10) = %v, want 2 edges", edges)
	}
	if edges[0].MovieID != 30 || edges[0].Priority != 1 {
		t.Errorf("first edge = %+v, want movie 30 priority 1", edges[0])
	}
	if edges[1].MovieID != 20 || edges[1].Priority != 2 {
		t.Errorf("second edge = %+v, want movie 20 priority 2", edges[1])
	}

	// No edges is a valid, empty answer.
	edges, err = catalog.RelatedOf(ctx, 20)
	if err != nil {
		t.Fatalf("RelatedOf(20): %v", err)
	}
	if len(edges) != 0 {
		t.Errorf("RelatedOf(20) = %v, want empty", edges)
	}

	_, err = catalog.RelatedOf(ctx, 999)
	if !errors.Is(err, suggest.ErrMovieNotFound) {
		t.Errorf("RelatedOf(999) error = %v, want ErrMovieNotFound", err)
	}
}

func TestCatalogListGenres(t *testing.T) {
	catalog := NewCatalog(openTestDB(t))
	seedTestCatalog(t, catalog)

	genres, err := catalog.ListGenres(context.Background())
	if err != nil {
		t.Fatalf("ListGenres: %v", err)
	}
	if len(genres) != 2 || genres[0].Name != "Action" || genres[1].Name != "Drama" {
		t.Errorf("ListGenres = %+v, want Action and Drama", genres)
	}
}

func TestSeedFromFile(t *testing.T) {
	catalog := NewCatalog(openTestDB(t))
	ctx := context.Background()

	seed := `{
		"genres": [{"id": 1, "name": "Action"}, {"id": 2, "name": "Comedy"}],
		"movies": [
			{"id": 1, "title": "One", "genres": [1], "related": [2]},
			{"id": 2, "title": "Two", "genres": [1, 2], "related": []}
		]
	}`
	path := filepath.Join(t.TempDir(), "seed.json")
	if err := os.WriteFile(path, []byte(seed), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := SeedFromFile(ctx, catalog, path); err != nil {
		t.Fatalf("SeedFromFile: %v", err)
	}

	n, err := catalog.CountMovies(ctx)
	if err != nil {
		t.Fatalf("CountMovies: %v", err)
	}
	if n != 2 {
		t.Fatalf("movie count = %d, want 2", n)
	}

	edges, err := catalog.RelatedOf(ctx, 1)
	if err != nil {
		t.Fatalf("RelatedOf: %v", err)
	}
	if len(edges) != 1 || edges[0].MovieID != 2 {
		t.Errorf("RelatedOf(1) = %v, want [movie 2]", edges)
	}

	// Second seed run is a no-op even if the file changed.
	bad := filepath.Join(t.TempDir(), "missing.json")
	if err := SeedFromFile(ctx, catalog, bad); err != nil {
		t.Fatalf("SeedFromFile on populated catalog: %v", err)
	}
}

func TestSeedFromFileRejectsBadJSON(t *testing.T) {
	catalog := NewCatalog(openTestDB(t))
	path := filepath.Join(t.TempDir(), "seed.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := SeedFromFile(context.Background(), catalog, path); err == nil {
		t.Fatal("SeedFromFile accepted malformed JSON")
	}
}

func TestCatalogRecordsQueryMetrics(t *testing.T) {
	ctx := context.Background()
	catalog := NewCatalog(openTestDB(t))
	seedTestCatalog(t, catalog)

	if _, err := catalog.ListGenres(ctx); err != nil {
		t.Fatalf("ListGenres: %v", err)
	}
	if n := testutil.CollectAndCount(metrics.DBQueryDuration, "duckdb_query_duration_seconds"); n < 1 {
		t.Errorf("duration series count = %d, want at least 1", n)
	}

	// A failed lookup counts against the operation, unknown movies included.
	before := testutil.ToFloat64(metrics.DBQueryErrors.WithLabelValues("movie_genres"))
	if _, err := catalog.MovieGenres(ctx, 999); !errors.Is(err, suggest.ErrMovieNotFound) {
		t.Fatalf("MovieGenres(999) error = %v, want ErrMovieNotFound", err)
	}
	after := testutil.ToFloat64(metrics.DBQueryErrors.WithLabelValues("movie_genres"))
	if after != before+1 {
		t.Errorf("movie_genres error count = %v, want %v", after, before+1)
	}
}
