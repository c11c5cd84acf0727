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
	"strings"
	"time"

	"github.com/MarwanKhatib/Nachos-backend/internal/metrics"
	"github.com/MarwanKhatib/Nachos-backend/internal/suggest"
)

// SuggestionStore implements suggest.Store over the DuckDB connection.
type SuggestionStore struct {
	db *DB
}

// NewSuggestionStore returns the store for the given database.
func NewSuggestionStore(db *DB) *SuggestionStore {
	return &SuggestionStore{db: db}
}

// InTx runs fn inside a single SQL transaction. The transaction commits
// only when fn returns nil; any error rolls everything back. DuckDB
// write-write conflicts are mapped to suggest.ErrConflict so callers can
// retry the whole flow.
func (s *SuggestionStore) InTx(ctx context.Context, fn func(tx suggest.StoreTx) error) (err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("transaction", time.Since(start), err) }()

	ctx, cancel := s.db.queryContext(ctx)
	defer cancel()

	sqlTx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = sqlTx.Rollback()
		}
	}()

	if err := fn(&storeTx{ctx: ctx, tx: sqlTx}); err != nil {
		if isTransactionConflict(err) {
			return fmt.Errorf("%w: %v", suggest.ErrConflict, err)
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		if isTransactionConflict(err) {
			return fmt.Errorf("%w: %v", suggest.ErrConflict, err)
		}
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}

// storeTx implements suggest.StoreTx over one sql.Tx. The transaction
// context is captured at begin time so every statement shares the same
// deadline.
type storeTx struct {
	ctx context.Context
	tx  *sql.Tx
}

// CreateAll inserts a zero-score unwatched row per movie ID, skipping rows
// that already exist.
func (t *storeTx) CreateAll(ctx context.Context, userID suggest.UserID, movieIDs []suggest.MovieID) error {
	if len(movieIDs) == 0 {
		return nil
	}

	// One multi-row INSERT; DuckDB handles the whole catalog in a single
	// statement comfortably.
	var (
		sb   strings.Builder
		args = make([]any, 0, len(movieIDs)*2)
	)
	sb.WriteString("INSERT INTO user_suggestions (user_id, movie_id, total, is_watched) VALUES ")
	for i, mid := range movieIDs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, 0, false)")
		args = append(args, int(userID), int(mid))
	}
	sb.WriteString(" ON CONFLICT (user_id, movie_id) DO NOTHING")

	if _, err := t.tx.ExecContext(t.ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("create suggestions for user %d: %w", userID, err)
	}
	return nil
}

// Records returns all of the user's suggestion rows ordered by movie ID.
func (t *storeTx) Records(ctx context.Context, userID suggest.UserID) ([]suggest.SuggestionRecord, error) {
	rows, err := t.tx.QueryContext(t.ctx,
		`SELECT user_id, movie_id, total, is_watched
		 FROM user_suggestions
		 WHERE user_id = ?
		 ORDER BY movie_id`, int(userID))
	if err != nil {
		return nil, fmt.Errorf("query suggestions for user %d: %w", userID, err)
	}
	defer closeQuietly(rows)

	return scanRecords(rows)
}

// GetMany returns the user's rows for the given movie IDs, keyed by movie.
// Missing rows are simply absent from the map.
func (t *storeTx) GetMany(ctx context.Context, userID suggest.UserID, movieIDs []suggest.MovieID) (map[suggest.MovieID]*suggest.SuggestionRecord, error) {
	out := make(map[suggest.MovieID]*suggest.SuggestionRecord, len(movieIDs))
	if len(movieIDs) == 0 {
		return out, nil
	}

	var (
		sb   strings.Builder
		args = []any{int(userID)}
	)
	sb.WriteString(`SELECT user_id, movie_id, total, is_watched
		FROM user_suggestions WHERE user_id = ? AND movie_id IN (`)
	for i, mid := range movieIDs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("?")
		args = append(args, int(mid))
	}
	sb.WriteString(")")

	rows, err := t.tx.QueryContext(t.ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query suggestions for user %d: %w", userID, err)
	}
	defer closeQuietly(rows)

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	for i := range records {
		out[records[i].MovieID] = &records[i]
	}
	return out, nil
}

// GetOrCreate returns the user's row for the movie, inserting a zero-score
// unwatched row when absent.
func (t *storeTx) GetOrCreate(ctx context.Context, userID suggest.UserID, movieID suggest.MovieID) (*suggest.SuggestionRecord, error) {
	rec := &suggest.SuggestionRecord{UserID: userID, MovieID: movieID}
	err := t.tx.QueryRowContext(t.ctx,
		`SELECT total, is_watched FROM user_suggestions
		 WHERE user_id = ? AND movie_id = ?`,
		int(userID), int(movieID)).Scan(&rec.Total, &rec.IsWatched)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("query suggestion (%d, %d): %w", userID, movieID, err)
	}

	if _, err := t.tx.ExecContext(t.ctx,
		`INSERT INTO user_suggestions (user_id, movie_id, total, is_watched)
		 VALUES (?, ?, 0, false)`,
		int(userID), int(movieID)); err != nil {
		return nil, fmt.Errorf("create suggestion (%d, %d): %w", userID, movieID, err)
	}
	return rec, nil
}

// BulkUpsertTotals writes the given records' totals and watched flags,
// inserting rows that do not exist yet.
func (t *storeTx) BulkUpsertTotals(ctx context.Context, records []suggest.SuggestionRecord) error {
	if len(records) == 0 {
		return nil
	}

	var (
		sb   strings.Builder
		args = make([]any, 0, len(records)*4)
	)
	sb.WriteString("INSERT INTO user_suggestions (user_id, movie_id, total, is_watched) VALUES ")
	for i, rec := range records {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, ?)")
		args = append(args, int(rec.UserID), int(rec.MovieID), rec.Total, rec.IsWatched)
	}
	sb.WriteString(` ON CONFLICT (user_id, movie_id)
		DO UPDATE SET total = excluded.total, is_watched = excluded.is_watched`)

	if _, err := t.tx.ExecContext(t.ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("upsert %d suggestion totals: %w", len(records), err)
	}
	return nil
}

// MarkWatched flips the row's watched flag on.
func (t *storeTx) MarkWatched(ctx context.Context, userID suggest.UserID, movieID suggest.MovieID) error {
	res, err := t.tx.ExecContext(t.ctx,
		`UPDATE user_suggestions SET is_watched = true
		 WHERE user_id = ? AND movie_id = ?`,
		int(userID), int(movieID))
	if err != nil {
		return fmt.Errorf("mark watched (%d, %d): %w", userID, movieID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("mark watched (%d, %d): no suggestion row", userID, movieID)
	}
	return nil
}

// TopUnwatched returns up to limit unwatched rows ordered by total
// descending, movie ID ascending on ties.
func (t *storeTx) TopUnwatched(ctx context.Context, userID suggest.UserID, limit int) ([]suggest.SuggestionRecord, error) {
	rows, err := t.tx.QueryContext(t.ctx,
		`SELECT user_id, movie_id, total, is_watched
		 FROM user_suggestions
		 WHERE user_id = ? AND NOT is_watched
		 ORDER BY total DESC, movie_id ASC
		 LIMIT ?`, int(userID), limit)
	if err != nil {
		return nil, fmt.Errorf("query top suggestions for user %d: %w", userID, err)
	}
	defer closeQuietly(rows)

	return scanRecords(rows)
}

// ResetWatched clears every watched flag for the user.
func (t *storeTx) ResetWatched(ctx context.Context, userID suggest.UserID) error {
	if _, err := t.tx.ExecContext(t.ctx,
		`UPDATE user_suggestions SET is_watched = false WHERE user_id = ?`,
		int(userID)); err != nil {
		return fmt.Errorf("reset watched for user %d: %w", userID, err)
	}
	return nil
}

// Preferences returns the user's genre IDs ordered by stored position.
func (t *storeTx) Preferences(ctx context.Context, userID suggest.UserID) ([]suggest.GenreID, error) {
	rows, err := t.tx.QueryContext(t.ctx,
		`SELECT genre_id FROM user_genres
		 WHERE user_id = ?
		 ORDER BY position`, int(userID))
	if err != nil {
		return nil, fmt.Errorf("query preferences for user %d: %w", userID, err)
	}
	defer closeQuietly(rows)

	var genres []suggest.GenreID
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan preference: %w", err)
		}
		genres = append(genres, suggest.GenreID(id))
	}
	return genres, rows.Err()
}

// ReplacePreferences deletes the user's stored preference list and writes
// the new one with positions matching slice order.
func (t *storeTx) ReplacePreferences(ctx context.Context, userID suggest.UserID, genres []suggest.GenreID) error {
	if _, err := t.tx.ExecContext(t.ctx,
		`DELETE FROM user_genres WHERE user_id = ?`, int(userID)); err != nil {
		return fmt.Errorf("clear preferences for user %d: %w", userID, err)
	}
	if len(genres) == 0 {
		return nil
	}

	var (
		sb   strings.Builder
		args = make([]any, 0, len(genres)*3)
	)
	sb.WriteString("INSERT INTO user_genres (user_id, genre_id, position) VALUES ")
	for i, g := range genres {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?)")
		args = append(args, int(userID), int(g), i)
	}
	if _, err := t.tx.ExecContext(t.ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("insert preferences for user %d: %w", userID, err)
	}
	return nil
}

// Rating returns the user's stored rating for the movie, with found=false
// when the movie was never rated.
func (t *storeTx) Rating(ctx context.Context, userID suggest.UserID, movieID suggest.MovieID) (float64, bool, error) {
	var rate float64
	err := t.tx.QueryRowContext(t.ctx,
		`SELECT rate FROM user_ratings WHERE user_id = ? AND movie_id = ?`,
		int(userID), int(movieID)).Scan(&rate)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("query rating (%d, %d): %w", userID, movieID, err)
	}
	return rate, true, nil
}

// UpsertRating writes the user's rating for the movie, replacing any
// previous value.
func (t *storeTx) UpsertRating(ctx context.Context, userID suggest.UserID, movieID suggest.MovieID, rating float64) error {
	if _, err := t.tx.ExecContext(t.ctx,
		`INSERT INTO user_ratings (user_id, movie_id, rate, updated_at)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (user_id, movie_id)
		 DO UPDATE SET rate = excluded.rate, updated_at = excluded.updated_at`,
		int(userID), int(movieID), rating); err != nil {
		return fmt.Errorf("upsert rating (%d, %d): %w", userID, movieID, err)
	}
	return nil
}

// scanRecords drains a user_suggestions result set.
func scanRecords(rows *sql.Rows) ([]suggest.SuggestionRecord, error) {
	var records []suggest.SuggestionRecord
	for rows.Next() {
		var (
			rec     suggest.SuggestionRecord
			userID  int
			movieID int
		)
		if err := rows.Scan(&userID, &movieID, &rec.Total, &rec.IsWatched); err != nil {
			return nil, fmt.Errorf("scan suggestion: %w", err)
		}
		rec.UserID = suggest.UserID(userID)
		rec.MovieID = suggest.MovieID(movieID)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Compile-time interface checks.
var (
	_ suggest.Store   = (*SuggestionStore)(nil)
	_ suggest.StoreTx = (*storeTx)(nil)
)
