// Nachos - Movie Catalog and Suggestion Backend
// Copyright 2026 Marwan K. (MarwanKhatib)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MarwanKhatib/Nachos-backend

package database

import (
	"context"
	"fmt"
	"os"

	json "github.com/goccy/go-json"

	"github.com/MarwanKhatib/Nachos-backend/internal/logging"
	"github.com/MarwanKhatib/Nachos-backend/internal/suggest"
)

// seedFile is the JSON catalog seed format:
//
//	{
//	  "genres": [{"id": 1, "name": "Action"}],
//	  "movies": [
//	    {"id": 1, "title": "...", "genres": [1], "related": [2, 3]}
//	  ]
//	}
//
// A movie's related list is ordered; the first entry becomes priority 1.
type seedFile struct {
	Genres []Genre     `json:"genres"`
	Movies []seedMovie `json:"movies"`
}

type seedMovie struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Genres  []int  `json:"genres"`
	Related []int  `json:"related"`
}

// SeedFromFile loads the catalog from a JSON seed file. It is a no-op when
// the movies table already has rows, so restarts never re-seed.
func SeedFromFile(ctx context.Context, catalog *Catalog, path string) error {
	n, err := catalog.CountMovies(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		logging.Debug().Int("movies", n).Msg("catalog already populated, skipping seed")
		return nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}

	var seed seedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parse seed file %s: %w", path, err)
	}

	for _, g := range seed.Genres {
		if err := catalog.UpsertGenre(ctx, g); err != nil {
			return err
		}
	}

	// Movies first, then tags and edges, so edges never point at rows that
	// do not exist yet.
	for _, m := range seed.Movies {
		if err := catalog.UpsertMovie(ctx, Movie{ID: m.ID, Title: m.Title}); err != nil {
			return err
		}
	}
	for _, m := range seed.Movies {
		genres := make([]suggest.GenreID, len(m.Genres))
		for i, g := range m.Genres {
			genres[i] = suggest.GenreID(g)
		}
		if err := catalog.SetMovieGenres(ctx, suggest.MovieID(m.ID), genres); err != nil {
			return err
		}

		related := make([]suggest.MovieID, len(m.Related))
		for i, r := range m.Related {
			related[i] = suggest.MovieID(r)
		}
		if err := catalog.SetRelatedMovies(ctx, suggest.MovieID(m.ID), related); err != nil {
			return err
		}
	}

	logging.Info().
		Str("component", "database").
		Int("movies", len(seed.Movies)).
		Int("genres", len(seed.Genres)).
		Str("path", path).
		Msg("catalog seeded")

	return nil
}
