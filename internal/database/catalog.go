// Nachos - Movie Catalog and Suggestion Backend
// Copyright 2026 Marwan K. (MarwanKhatib)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MarwanKhatib/Nachos-backend

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MarwanKhatib/Nachos-backend/internal/metrics"
	"github.com/MarwanKhatib/Nachos-backend/internal/suggest"
)

// Genre is a catalog genre row.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Movie is a catalog movie row.
type Movie struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

// Catalog implements suggest.Catalog over the movie tables and carries the
// write methods the seeder uses.
type Catalog struct {
	db *DB
}

// NewCatalog returns the catalog for the given database.
func NewCatalog(db *DB) *Catalog {
	return &Catalog{db: db}
}

// MovieIDs returns every movie ID in the catalog, ascending.
func (c *Catalog) MovieIDs(ctx context.Context) (ids []suggest.MovieID, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("movie_ids", time.Since(start), err) }()

	ctx, cancel := c.db.queryContext(ctx)
	defer cancel()

	rows, err := c.db.conn.QueryContext(ctx, `SELECT id FROM movies ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query movie ids: %w", err)
	}
	defer closeQuietly(rows)

	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan movie id: %w", err)
		}
		ids = append(ids, suggest.MovieID(id))
	}
	return ids, rows.Err()
}

// GenresByMovie returns the genre tags of every movie in one map. Movies
// without tags map to a nil slice via absence.
func (c *Catalog) GenresByMovie(ctx context.Context) (out map[suggest.MovieID][]suggest.GenreID, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("genres_by_movie", time.Since(start), err) }()

	ctx, cancel := c.db.queryContext(ctx)
	defer cancel()

	rows, err := c.db.conn.QueryContext(ctx,
		`SELECT movie_id, genre_id FROM movie_genres ORDER BY movie_id, genre_id`)
	if err != nil {
		return nil, fmt.Errorf("query movie genres: %w", err)
	}
	defer closeQuietly(rows)

	out = make(map[suggest.MovieID][]suggest.GenreID)
	for rows.Next() {
		var movieID, genreID int
		if err := rows.Scan(&movieID, &genreID); err != nil {
			return nil, fmt.Errorf("scan movie genre: %w", err)
		}
		mid := suggest.MovieID(movieID)
		out[mid] = append(out[mid], suggest.GenreID(genreID))
	}
	return out, rows.Err()
}

// MovieGenres returns one movie's genre tags, or suggest.ErrMovieNotFound
// when the movie does not exist. A movie with no tags returns an empty
// slice.
func (c *Catalog) MovieGenres(ctx context.Context, id suggest.MovieID) (genres []suggest.GenreID, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("movie_genres", time.Since(start), err) }()

	ctx, cancel := c.db.queryContext(ctx)
	defer cancel()

	if err := c.requireMovie(ctx, id); err != nil {
		return nil, err
	}

	rows, err := c.db.conn.QueryContext(ctx,
		`SELECT genre_id FROM movie_genres WHERE movie_id = ? ORDER BY genre_id`, int(id))
	if err != nil {
		return nil, fmt.Errorf("query genres of movie %d: %w", id, err)
	}
	defer closeQuietly(rows)

	genres = []suggest.GenreID{}
	for rows.Next() {
		var gid int
		if err := rows.Scan(&gid); err != nil {
			return nil, fmt.Errorf("scan genre: %w", err)
		}
		genres = append(genres, suggest.GenreID(gid))
	}
	return genres, rows.Err()
}

// RelatedOf returns the movie's curated related edges in ascending priority
// order, or suggest.ErrMovieNotFound when the movie itself is unknown. An
// empty edge list is valid.
func (c *Catalog) RelatedOf(ctx context.Context, id suggest.MovieID) (edges []suggest.RelatedMovieEdge, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("related_of", time.Since(start), err) }()

	ctx, cancel := c.db.queryContext(ctx)
	defer cancel()

	if err := c.requireMovie(ctx, id); err != nil {
		return nil, err
	}

	rows, err := c.db.conn.QueryContext(ctx,
		`SELECT related_id, priority FROM related_movies
		 WHERE movie_id = ?
		 ORDER BY priority`, int(id))
	if err != nil {
		return nil, fmt.Errorf("query related of movie %d: %w", id, err)
	}
	defer closeQuietly(rows)

	edges = []suggest.RelatedMovieEdge{}
	for rows.Next() {
		var relatedID, priority int
		if err := rows.Scan(&relatedID, &priority); err != nil {
			return nil, fmt.Errorf("scan related edge: %w", err)
		}
		edges = append(edges, suggest.RelatedMovieEdge{
			MovieID:  suggest.MovieID(relatedID),
			Priority: priority,
		})
	}
	return edges, rows.Err()
}

// requireMovie fails with suggest.ErrMovieNotFound when the movie row is
// absent.
func (c *Catalog) requireMovie(ctx context.Context, id suggest.MovieID) error {
	var one int
	err := c.db.conn.QueryRowContext(ctx,
		`SELECT 1 FROM movies WHERE id = ?`, int(id)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %d", suggest.ErrMovieNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("query movie %d: %w", id, err)
	}
	return nil
}

// ListGenres returns every genre, ordered by ID.
func (c *Catalog) ListGenres(ctx context.Context) (genres []Genre, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("list_genres", time.Since(start), err) }()

	ctx, cancel := c.db.queryContext(ctx)
	defer cancel()

	rows, err := c.db.conn.QueryContext(ctx, `SELECT id, name FROM genres ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query genres: %w", err)
	}
	defer closeQuietly(rows)

	genres = []Genre{}
	for rows.Next() {
		var g Genre
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, fmt.Errorf("scan genre: %w", err)
		}
		genres = append(genres, g)
	}
	return genres, rows.Err()
}

// CountMovies returns the catalog size.
func (c *Catalog) CountMovies(ctx context.Context) (n int, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("count_movies", time.Since(start), err) }()

	ctx, cancel := c.db.queryContext(ctx)
	defer cancel()
	if err := c.db.conn.QueryRowContext(ctx,
		`SELECT count(*) FROM movies`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count movies: %w", err)
	}
	return n, nil
}

// UpsertMovie writes a movie row.
func (c *Catalog) UpsertMovie(ctx context.Context, m Movie) error {
	ctx, cancel := c.db.queryContext(ctx)
	defer cancel()

	if _, err := c.db.conn.ExecContext(ctx,
		`INSERT INTO movies (id, title) VALUES (?, ?)
		 ON CONFLICT (id) DO UPDATE SET title = excluded.title`,
		m.ID, m.Title); err != nil {
		return fmt.Errorf("upsert movie %d: %w", m.ID, err)
	}
	return nil
}

// UpsertGenre writes a genre row.
func (c *Catalog) UpsertGenre(ctx context.Context, g Genre) error {
	ctx, cancel := c.db.queryContext(ctx)
	defer cancel()

	if _, err := c.db.conn.ExecContext(ctx,
		`INSERT INTO genres (id, name) VALUES (?, ?)
		 ON CONFLICT (id) DO UPDATE SET name = excluded.name`,
		g.ID, g.Name); err != nil {
		return fmt.Errorf("upsert genre %d: %w", g.ID, err)
	}
	return nil
}

// SetMovieGenres replaces a movie's genre tags.
func (c *Catalog) SetMovieGenres(ctx context.Context, movieID suggest.MovieID, genres []suggest.GenreID) error {
	ctx, cancel := c.db.queryContext(ctx)
	defer cancel()

	if _, err := c.db.conn.ExecContext(ctx,
		`DELETE FROM movie_genres WHERE movie_id = ?`, int(movieID)); err != nil {
		return fmt.Errorf("clear genres of movie %d: %w", movieID, err)
	}
	for _, g := range genres {
		if _, err := c.db.conn.ExecContext(ctx,
			`INSERT INTO movie_genres (movie_id, genre_id) VALUES (?, ?)`,
			int(movieID), int(g)); err != nil {
			return fmt.Errorf("tag movie %d with genre %d: %w", movieID, g, err)
		}
	}
	return nil
}

// SetRelatedMovies replaces a movie's related edges; slice order becomes
// priority, starting at 1.
func (c *Catalog) SetRelatedMovies(ctx context.Context, movieID suggest.MovieID, related []suggest.MovieID) error {
	ctx, cancel := c.db.queryContext(ctx)
	defer cancel()

	if _, err := c.db.conn.ExecContext(ctx,
		`DELETE FROM related_movies WHERE movie_id = ?`, int(movieID)); err != nil {
		return fmt.Errorf("clear related of movie %d: %w", movieID, err)
	}
	for i, rid := range related {
		if _, err := c.db.conn.ExecContext(ctx,
			`INSERT INTO related_movies (movie_id, related_id, priority) VALUES (?, ?, ?)`,
			int(movieID), int(rid), i+1); err != nil {
			return fmt.Errorf("relate movie %d to %d: %w", movieID, rid, err)
		}
	}
	return nil
}

// Compile-time interface check.
var _ suggest.Catalog = (*Catalog)(nil)
