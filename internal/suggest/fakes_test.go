// Nachos - Movie Catalog and Suggestion Backend
// Copyright 2026 Marwan K. (MarwanKhatib)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MarwanKhatib/Nachos-backend

package suggest

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// memStore is an in-memory Store with copy-on-write transactions: fn runs
// against a deep clone and the clone replaces the live state only on
// success, so tests observe real rollback behavior.
type memStore struct {
	mu       sync.Mutex
	records  map[UserID]map[MovieID]*SuggestionRecord
	prefs    map[UserID][]GenreID
	ratings  map[UserID]map[MovieID]float64
	txErr    error // injected failure for every InTx call
	txCount  int
	upserts  int // BulkUpsertTotals calls across all transactions
	creates  int // CreateAll calls
	recycles int // ResetWatched calls
}

func newMemStore() *memStore {
	return &memStore{
		records: make(map[UserID]map[MovieID]*SuggestionRecord),
		prefs:   make(map[UserID][]GenreID),
		ratings: make(map[UserID]map[MovieID]float64),
	}
}

func (s *memStore) InTx(ctx context.Context, fn func(tx StoreTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txCount++

	if s.txErr != nil {
		return s.txErr
	}

	tx := &memTx{store: s.clone()}
	if err := fn(tx); err != nil {
		return err
	}

	// Commit: adopt the clone's state.
	s.records = tx.store.records
	s.prefs = tx.store.prefs
	s.ratings = tx.store.ratings
	s.upserts = tx.store.upserts
	s.creates = tx.store.creates
	s.recycles = tx.store.recycles
	return nil
}

func (s *memStore) clone() *memStore {
	c := newMemStore()
	c.upserts = s.upserts
	c.creates = s.creates
	c.recycles = s.recycles
	for uid, recs := range s.records {
		c.records[uid] = make(map[MovieID]*SuggestionRecord, len(recs))
		for mid, rec := range recs {
			cp := *rec
			c.records[uid][mid] = &cp
		}
	}
	for uid, genres := range s.prefs {
		c.prefs[uid] = append([]GenreID(nil), genres...)
	}
	for uid, rates := range s.ratings {
		c.ratings[uid] = make(map[MovieID]float64, len(rates))
		for mid, r := range rates {
			c.ratings[uid][mid] = r
		}
	}
	return c
}

// recordCount reports the user's total record count, for idempotence checks.
func (s *memStore) recordCount(userID UserID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records[userID])
}

func (s *memStore) record(userID UserID, movieID MovieID) (SuggestionRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[userID][movieID]
	if !ok {
		return SuggestionRecord{}, false
	}
	return *rec, true
}

func (s *memStore) rating(userID UserID, movieID MovieID) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.ratings[userID][movieID]
	return r, ok
}

func (s *memStore) setRecord(rec SuggestionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.records[rec.UserID] == nil {
		s.records[rec.UserID] = make(map[MovieID]*SuggestionRecord)
	}
	cp := rec
	s.records[rec.UserID][rec.MovieID] = &cp
}

// memTx implements StoreTx over the cloned state.
type memTx struct {
	store *memStore
}

func (t *memTx) CreateAll(ctx context.Context, userID UserID, movieIDs []MovieID) error {
	t.store.creates++
	if t.store.records[userID] == nil {
		t.store.records[userID] = make(map[MovieID]*SuggestionRecord)
	}
	for _, mid := range movieIDs {
		if _, ok := t.store.records[userID][mid]; ok {
			continue
		}
		t.store.records[userID][mid] = &SuggestionRecord{UserID: userID, MovieID: mid}
	}
	return nil
}

func (t *memTx) Records(ctx context.Context, userID UserID) ([]SuggestionRecord, error) {
	recs := make([]SuggestionRecord, 0, len(t.store.records[userID]))
	for _, rec := range t.store.records[userID] {
		recs = append(recs, *rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].MovieID < recs[j].MovieID })
	return recs, nil
}

func (t *memTx) GetMany(ctx context.Context, userID UserID, movieIDs []MovieID) (map[MovieID]*SuggestionRecord, error) {
	out := make(map[MovieID]*SuggestionRecord)
	for _, mid := range movieIDs {
		if rec, ok := t.store.records[userID][mid]; ok {
			cp := *rec
			out[mid] = &cp
		}
	}
	return out, nil
}

func (t *memTx) GetOrCreate(ctx context.Context, userID UserID, movieID MovieID) (*SuggestionRecord, error) {
	if t.store.records[userID] == nil {
		t.store.records[userID] = make(map[MovieID]*SuggestionRecord)
	}
	if rec, ok := t.store.records[userID][movieID]; ok {
		cp := *rec
		return &cp, nil
	}
	rec := &SuggestionRecord{UserID: userID, MovieID: movieID}
	t.store.records[userID][movieID] = rec
	cp := *rec
	return &cp, nil
}

func (t *memTx) BulkUpsertTotals(ctx context.Context, records []SuggestionRecord) error {
	t.store.upserts++
	for _, rec := range records {
		if t.store.records[rec.UserID] == nil {
			t.store.records[rec.UserID] = make(map[MovieID]*SuggestionRecord)
		}
		cp := rec
		t.store.records[rec.UserID][rec.MovieID] = &cp
	}
	return nil
}

func (t *memTx) MarkWatched(ctx context.Context, userID UserID, movieID MovieID) error {
	rec, ok := t.store.records[userID][movieID]
	if !ok {
		return fmt.Errorf("mark watched: no record for user %d movie %d", userID, movieID)
	}
	rec.IsWatched = true
	return nil
}

func (t *memTx) TopUnwatched(ctx context.Context, userID UserID, limit int) ([]SuggestionRecord, error) {
	var recs []SuggestionRecord
	for _, rec := range t.store.records[userID] {
		if !rec.IsWatched {
			recs = append(recs, *rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Total != recs[j].Total {
			return recs[i].Total > recs[j].Total
		}
		return recs[i].MovieID < recs[j].MovieID
	})
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

func (t *memTx) ResetWatched(ctx context.Context, userID UserID) error {
	t.store.recycles++
	for _, rec := range t.store.records[userID] {
		rec.IsWatched = false
	}
	return nil
}

func (t *memTx) Preferences(ctx context.Context, userID UserID) ([]GenreID, error) {
	return append([]GenreID(nil), t.store.prefs[userID]...), nil
}

func (t *memTx) ReplacePreferences(ctx context.Context, userID UserID, genres []GenreID) error {
	t.store.prefs[userID] = append([]GenreID(nil), genres...)
	return nil
}

func (t *memTx) Rating(ctx context.Context, userID UserID, movieID MovieID) (float64, bool, error) {
	r, ok := t.store.ratings[userID][movieID]
	return r, ok, nil
}

func (t *memTx) UpsertRating(ctx context.Context, userID UserID, movieID MovieID, rating float64) error {
	if t.store.ratings[userID] == nil {
		t.store.ratings[userID] = make(map[MovieID]float64)
	}
	t.store.ratings[userID][movieID] = rating
	return nil
}

// fakeCatalog is an in-memory Catalog.
type fakeCatalog struct {
	genres  map[MovieID][]GenreID
	related map[MovieID][]RelatedMovieEdge
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		genres:  make(map[MovieID][]GenreID),
		related: make(map[MovieID][]RelatedMovieEdge),
	}
}

func (c *fakeCatalog) addMovie(id MovieID, genres ...GenreID) {
	c.genres[id] = genres
}

func (c *fakeCatalog) relate(id MovieID, related ...MovieID) {
	edges := make([]RelatedMovieEdge, len(related))
	for i, rid := range related {
		edges[i] = RelatedMovieEdge{MovieID: rid, Priority: i + 1}
	}
	c.related[id] = edges
}

func (c *fakeCatalog) MovieIDs(ctx context.Context) ([]MovieID, error) {
	ids := make([]MovieID, 0, len(c.genres))
	for id := range c.genres {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (c *fakeCatalog) GenresByMovie(ctx context.Context) (map[MovieID][]GenreID, error) {
	out := make(map[MovieID][]GenreID, len(c.genres))
	for id, gs := range c.genres {
		out[id] = append([]GenreID(nil), gs...)
	}
	return out, nil
}

func (c *fakeCatalog) MovieGenres(ctx context.Context, id MovieID) ([]GenreID, error) {
	gs, ok := c.genres[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrMovieNotFound, id)
	}
	return append([]GenreID(nil), gs...), nil
}

func (c *fakeCatalog) RelatedOf(ctx context.Context, id MovieID) ([]RelatedMovieEdge, error) {
	if _, ok := c.genres[id]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrMovieNotFound, id)
	}
	return append([]RelatedMovieEdge(nil), c.related[id]...), nil
}

// fixedPoints is a PointSource backed by a map, for tests that need exact
// table contents.
type fixedPoints map[string][]int

func (p fixedPoints) Points(rating float64) ([]int, error) {
	points, ok := p[RatingKey(rating)]
	if !ok {
		return nil, fmt.Errorf("%w %s", ErrRatingTableNotFound, RatingKey(rating))
	}
	return points, nil
}

// Compile-time interface checks for the fakes.
var (
	_ Store       = (*memStore)(nil)
	_ StoreTx     = (*memTx)(nil)
	_ Catalog     = (*fakeCatalog)(nil)
	_ PointSource = (fixedPoints)(nil)
)
