// Nachos - Movie Catalog and Suggestion Backend
// Copyright 2026 Marwan K. (MarwanKhatib)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MarwanKhatib/Nachos-backend

package database

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/MarwanKhatib/Nachos-backend/internal/metrics"
	"github.com/MarwanKhatib/Nachos-backend/internal/suggest"
)

func TestCreateAllIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewSuggestionStore(openTestDB(t))
	const user suggest.UserID = 1
	ids := []suggest.MovieID{10, 20, 30}

	for i := 0; i < 2; i++ {
		err := store.InTx(ctx, func(tx suggest.StoreTx) error {
			return tx.CreateAll(ctx, user, ids)
		})
		if err != nil {
			t.Fatalf("CreateAll pass %d: %v", i+1, err)
		}
	}

	var records []suggest.SuggestionRecord
	err := store.InTx(ctx, func(tx suggest.StoreTx) error {
		var err error
		records, err = tx.Records(ctx, user)
		return err
	})
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	for _, rec := range records {
		if rec.Total != 0 || rec.IsWatched {
			t.Errorf("record %+v, want zero total and unwatched", rec)
		}
	}
}

func TestInTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewSuggestionStore(openTestDB(t))
	const user suggest.UserID = 1
	boom := errors.New("boom")

	err := store.InTx(ctx, func(tx suggest.StoreTx) error {
		if err := tx.CreateAll(ctx, user, []suggest.MovieID{10, 20}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("InTx error = %v, want boom", err)
	}

	var records []suggest.SuggestionRecord
	if err := store.InTx(ctx, func(tx suggest.StoreTx) error {
		var err error
		records, err = tx.Records(ctx, user)
		return err
	}); err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("got %d records after rollback, want 0", len(records))
	}
}

func TestGetOrCreateAndGetMany(t *testing.T) {
	ctx := context.Background()
	store := NewSuggestionStore(openTestDB(t))
	const user suggest.UserID = 7

	err := store.InTx(ctx, func(tx suggest.StoreTx) error {
		rec, err := tx.GetOrCreate(ctx, user, 5)
		if err != nil {
			return err
		}
		if rec.Total != 0 || rec.IsWatched {
			t.Errorf("created record %+v, want zero value", rec)
		}

		rec.Total = 42
		if err := tx.BulkUpsertTotals(ctx, []suggest.SuggestionRecord{*rec}); err != nil {
			return err
		}

		// Second GetOrCreate returns the stored row, not a fresh one.
		again, err := tx.GetOrCreate(ctx, user, 5)
		if err != nil {
			return err
		}
		if again.Total != 42 {
			t.Errorf("re-fetched total = %d, want 42", again.Total)
		}

		got, err := tx.GetMany(ctx, user, []suggest.MovieID{5, 99})
		if err != nil {
			return err
		}
		if len(got) != 1 || got[5] == nil || got[5].Total != 42 {
			t.Errorf("GetMany = %+v, want only movie 5 with total 42", got)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("InTx: %v", err)
	}
}

func TestTopUnwatchedOrderingAndReset(t *testing.T) {
	ctx := context.Background()
	store := NewSuggestionStore(openTestDB(t))
	const user suggest.UserID = 7

	seed := []suggest.SuggestionRecord{
		{UserID: user, MovieID: 1, Total: 5},
		{UserID: user, MovieID: 2, Total: 9},
		{UserID: user, MovieID: 3, Total: 9},
		{UserID: user, MovieID: 4, Total: 1, IsWatched: true},
	}
	if err := store.InTx(ctx, func(tx suggest.StoreTx) error {
		return tx.BulkUpsertTotals(ctx, seed)
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var top []suggest.SuggestionRecord
	if err := store.InTx(ctx, func(tx suggest.StoreTx) error {
		var err error
		top, err = tx.TopUnwatched(ctx, user, 2)
		return err
	}); err != nil {
		t.Fatalf("TopUnwatched: %v", err)
	}

	// Total desc, movie ID asc on the tie; the watched row is excluded.
	if len(top) != 2 || top[0].MovieID != 2 || top[1].MovieID != 3 {
		t.Fatalf("TopUnwatched = %+v, want movies [2 3]", top)
	}

	if err := store.InTx(ctx, func(tx suggest.StoreTx) error {
		return tx.ResetWatched(ctx, user)
	}); err != nil {
		t.Fatalf("ResetWatched: %v", err)
	}

	if err := store.InTx(ctx, func(tx suggest.StoreTx) error {
		var err error
		top, err = tx.TopUnwatched(ctx, user, 10)
		return err
	}); err != nil {
		t.Fatalf("TopUnwatched after reset: %v", err)
	}
	if len(top) != 4 {
		t.Fatalf("got %d unwatched after reset, want 4", len(top))
	}
}

func TestMarkWatched(t *testing.T) {
	ctx := context.Background()
	store := NewSuggestionStore(openTestDB(t))
	const user suggest.UserID = 7

	err := store.InTx(ctx, func(tx suggest.StoreTx) error {
		if err := tx.CreateAll(ctx, user, []suggest.MovieID{1}); err != nil {
			return err
		}
		return tx.MarkWatched(ctx, user, 1)
	})
	if err != nil {
		t.Fatalf("MarkWatched: %v", err)
	}

	if err := store.InTx(ctx, func(tx suggest.StoreTx) error {
		records, err := tx.Records(ctx, user)
		if err != nil {
			return err
		}
		if len(records) != 1 || !records[0].IsWatched {
			t.Errorf("records = %+v, want one watched row", records)
		}
		return nil
	}); err != nil {
		t.Fatalf("Records: %v", err)
	}

	// Marking a row that does not exist is an error, not a silent no-op.
	err = store.InTx(ctx, func(tx suggest.StoreTx) error {
		return tx.MarkWatched(ctx, user, 999)
	})
	if err == nil {
		t.Fatal("MarkWatched on missing row succeeded")
	}
}

func TestPreferencesReplaceRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewSuggestionStore(openTestDB(t))
	const user suggest.UserID = 7

	err := store.InTx(ctx, func(tx suggest.StoreTx) error {
		return tx.ReplacePreferences(ctx, user, []suggest.GenreID{30, 10, 20})
	})
	if err != nil {
		t.Fatalf("ReplacePreferences: %v", err)
	}

	var prefs []suggest.GenreID
	if err := store.InTx(ctx, func(tx suggest.StoreTx) error {
		var err error
		prefs, err = tx.Preferences(ctx, user)
		return err
	}); err != nil {
		t.Fatalf("Preferences: %v", err)
	}

	// Submission order survives storage, not genre ID order.
	want := []suggest.GenreID{30, 10, 20}
	if len(prefs) != len(want) {
		t.Fatalf("Preferences = %v, want %v", prefs, want)
	}
	for i := range want {
		if prefs[i] != want[i] {
			t.Fatalf("Preferences = %v, want %v", prefs, want)
		}
	}

	// Replace drops the old list entirely.
	if err := store.InTx(ctx, func(tx suggest.StoreTx) error {
		return tx.ReplacePreferences(ctx, user, []suggest.GenreID{99})
	}); err != nil {
		t.Fatalf("second ReplacePreferences: %v", err)
	}
	if err := store.InTx(ctx, func(tx suggest.StoreTx) error {
		var err error
		prefs, err = tx.Preferences(ctx, user)
		return err
	}); err != nil {
		t.Fatalf("Preferences: %v", err)
	}
	if len(prefs) != 1 || prefs[0] != 99 {
		t.Fatalf("Preferences after replace = %v, want [99]", prefs)
	}
}

func TestRatingUpsertRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewSuggestionStore(openTestDB(t))
	const (
		user  suggest.UserID  = 7
		movie suggest.MovieID = 3
	)

	err := store.InTx(ctx, func(tx suggest.StoreTx) error {
		if _, had, err := tx.Rating(ctx, user, movie); err != nil {
			return err
		} else if had {
			t.Error("Rating reported a row before any upsert")
		}
		return tx.UpsertRating(ctx, user, movie, 3.5)
	})
	if err != nil {
		t.Fatalf("UpsertRating: %v", err)
	}

	err = store.InTx(ctx, func(tx suggest.StoreTx) error {
		rate, had, err := tx.Rating(ctx, user, movie)
		if err != nil {
			return err
		}
		if !had || rate != 3.5 {
			t.Errorf("Rating = (%v, %v), want (3.5, true)", rate, had)
		}
		// Re-rate replaces in place.
		return tx.UpsertRating(ctx, user, movie, 1)
	})
	if err != nil {
		t.Fatalf("re-rate: %v", err)
	}

	err = store.InTx(ctx, func(tx suggest.StoreTx) error {
		rate, had, err := tx.Rating(ctx, user, movie)
		if err != nil {
			return err
		}
		if !had || rate != 1 {
			t.Errorf("Rating after re-rate = (%v, %v), want (1, true)", rate, had)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("read after re-rate: %v", err)
	}
}

func TestInTxRecordsQueryMetrics(t *testing.T) {
	ctx := context.Background()
	store := NewSuggestionStore(openTestDB(t))

	if err := store.InTx(ctx, func(tx suggest.StoreTx) error { return nil }); err != nil {
		t.Fatalf("InTx: %v", err)
	}
	if n := testutil.CollectAndCount(metrics.DBQueryDuration, "duckdb_query_duration_seconds"); n < 1 {
		t.Errorf("duration series count = %d, want at least 1", n)
	}

	boom := errors.New("boom")
	before := testutil.ToFloat64(metrics.DBQueryErrors.WithLabelValues("transaction"))
	if err := store.InTx(ctx, func(tx suggest.StoreTx) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("InTx error = %v, want injected failure", err)
	}
	after := testutil.ToFloat64(metrics.DBQueryErrors.WithLabelValues("transaction"))
	if after != before+1 {
		t.Errorf("transaction error count = %v, want %v", after, before+1)
	}
}
