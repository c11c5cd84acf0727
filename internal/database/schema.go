// Nachos - Movie Catalog and Suggestion Backend
// Copyright 2026 Marwan K. (MarwanKhatib)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MarwanKhatib/Nachos-backend

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables.
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("create table: %s: %w", query, err)
		}
	}
	return nil
}

// tableCreationQueries returns the table creation SQL statements.
func tableCreationQueries() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS movies (
			id INTEGER PRIMARY KEY,
			title TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS genres (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		)`,

		// Genre tags per movie.
		`CREATE TABLE IF NOT EXISTS movie_genres (
			movie_id INTEGER NOT NULL,
			genre_id INTEGER NOT NULL,
			PRIMARY KEY (movie_id, genre_id)
		)`,

		// Curated related-movie edges. Priority 1 is the closest match;
		// propagation walks edges in ascending priority.
		`CREATE TABLE IF NOT EXISTS related_movies (
			movie_id INTEGER NOT NULL,
			related_id INTEGER NOT NULL,
			priority INTEGER NOT NULL,
			PRIMARY KEY (movie_id, related_id)
		)`,

		// Ordered genre preferences per user; position 0 is the strongest
		// preference.
		`CREATE TABLE IF NOT EXISTS user_genres (
			user_id INTEGER NOT NULL,
			genre_id INTEGER NOT NULL,
			position INTEGER NOT NULL,
			PRIMARY KEY (user_id, genre_id)
		)`,

		// Per-user suggestion scores, one row per (user, movie).
		`CREATE TABLE IF NOT EXISTS user_suggestions (
			user_id INTEGER NOT NULL,
			movie_id INTEGER NOT NULL,
			total INTEGER NOT NULL DEFAULT 0,
			is_watched BOOLEAN NOT NULL DEFAULT false,
			PRIMARY KEY (user_id, movie_id)
		)`,

		`CREATE TABLE IF NOT EXISTS user_ratings (
			user_id INTEGER NOT NULL,
			movie_id INTEGER NOT NULL,
			rate DOUBLE NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, movie_id)
		)`,
	}
}

// createIndexes creates secondary indexes for the hot query paths.
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	indexes := []string{
		// Top-K reads filter on (user_id, is_watched) and sort by total.
		`CREATE INDEX IF NOT EXISTS idx_suggestions_user_watched
			ON user_suggestions (user_id, is_watched, total)`,

		// Propagation reads a movie's edges in priority order.
		`CREATE INDEX IF NOT EXISTS idx_related_priority
			ON related_movies (movie_id, priority)`,

		// Flow B reads all genre tags grouped by movie.
		`CREATE INDEX IF NOT EXISTS idx_movie_genres_movie
			ON movie_genres (movie_id)`,
	}

	for _, query := range indexes {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("create index: %s: %w", query, err)
		}
	}
	return nil
}
