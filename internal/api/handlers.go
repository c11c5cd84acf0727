// Nachos - Movie Catalog and Suggestion Backend
// Copyright 2026 Marwan K. (MarwanKhatib)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MarwanKhatib/Nachos-backend

package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/MarwanKhatib/Nachos-backend/internal/config"
	"github.com/MarwanKhatib/Nachos-backend/internal/database"
	"github.com/MarwanKhatib/Nachos-backend/internal/metrics"
	"github.com/MarwanKhatib/Nachos-backend/internal/suggest"
)

// Pinger reports store reachability for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler bundles the engine, suggester and catalog behind the HTTP
// endpoints.
type Handler struct {
	engine    *suggest.Engine
	suggester *suggest.TopSuggester
	catalog   *database.Catalog
	store     suggest.Store
	pinger    Pinger
	cfg       *config.APIConfig
	logger    zerolog.Logger
}

// NewHandler creates the API handler set.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHandler(
	engine *suggest.Engine,
	suggester *suggest.TopSuggester,
	catalog *database.Catalog,
	store suggest.Store,
	pinger Pinger,
	cfg *config.APIConfig,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		engine:    engine,
		suggester: suggester,
		catalog:   catalog,
		store:     store,
		pinger:    pinger,
		cfg:       cfg,
		logger:    logger.With().Str("component", "api").Logger(),
	}
}

// userIDParam parses the userID route parameter. A non-numeric or
// non-positive ID responds 400 and returns ok=false.
func userIDParam(w http.ResponseWriter, r *http.Request) (suggest.UserID, bool) {
	raw := chi.URLParam(r, "userID")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR",
			"userID must be a positive integer", nil)
		return 0, false
	}
	return suggest.UserID(id), true
}

// Health reports liveness and store reachability.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.pinger.Ping(ctx); err != nil {
		h.logger.Error().Err(err).Msg("health check: store unreachable")
		respondError(w, http.StatusServiceUnavailable, "UNAVAILABLE",
			"store unreachable", err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]string{"status": "ok"}, start)
}

// Genres lists every catalog genre.
func (h *Handler) Genres(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	genres, err := h.catalog.ListGenres(r.Context())
	if err != nil {
		writeSuggestError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]any{"genres": genres}, start)
}

// Onboard creates the user's suggestion list, one zero-score record per
// catalog movie. Safe to retry.
func (h *Handler) Onboard(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	err := h.engine.Initialize(r.Context(), userID)
	metrics.RecordFlow("initialize", time.Since(start), err)
	if err != nil {
		writeSuggestError(w, err)
		return
	}

	count, err := h.catalog.CountMovies(r.Context())
	if err != nil {
		writeSuggestError(w, err)
		return
	}
	respondSuccess(w, http.StatusCreated, map[string]any{
		"user_id": int(userID),
		"movies":  count,
	}, start)
}

// UserGenres returns the user's stored genre preferences in order.
func (h *Handler) UserGenres(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	var prefs []suggest.GenreID
	err := h.store.InTx(r.Context(), func(tx suggest.StoreTx) error {
		var err error
		prefs, err = tx.Preferences(r.Context(), userID)
		return err
	})
	if err != nil {
		writeSuggestError(w, err)
		return
	}
	if prefs == nil {
		prefs = []suggest.GenreID{}
	}
	respondSuccess(w, http.StatusOK, map[string]any{"genres": prefs}, start)
}

// updateGenresRequest is the PUT /users/{userID}/genres body. Order is
// preference strength, strongest first.
type updateGenresRequest struct {
	Genres []int `json:"genres" validate:"required,min=1,dive,gt=0"`
}

// UpdateGenres replaces the user's preferences and rescores every
// suggestion.
func (h *Handler) UpdateGenres(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	var req updateGenresRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR",
			"invalid JSON body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	genres := make([]suggest.GenreID, len(req.Genres))
	for i, g := range req.Genres {
		genres[i] = suggest.GenreID(g)
	}

	err := h.engine.UpdatePreferences(r.Context(), userID, genres)
	metrics.RecordFlow("preferences", time.Since(start), err)
	if err != nil {
		writeSuggestError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]any{
		"user_id": int(userID),
		"genres":  req.Genres,
	}, start)
}

// rateRequest is the POST /users/{userID}/ratings body.
type rateRequest struct {
	MovieID int     `json:"movie_id" validate:"gt=0"`
	Rating  float64 `json:"rating" validate:"gte=0,lte=5"`
}

// RateMovie persists a rating and propagates its points to the related
// set.
func (h *Handler) RateMovie(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	var req rateRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR",
			"invalid JSON body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	movieID := suggest.MovieID(req.MovieID)
	fanout, err := h.engine.RateMovie(r.Context(), userID, movieID, req.Rating)
	metrics.RecordFlow("rating", time.Since(start), err)
	if err != nil {
		writeSuggestError(w, err)
		return
	}
	metrics.PropagationFanout.Observe(float64(fanout))

	respondSuccess(w, http.StatusOK, map[string]any{
		"user_id":  int(userID),
		"movie_id": req.MovieID,
		"rating":   req.Rating,
	}, start)
}

// ServeTop returns the user's top suggestions and marks them watched.
func (h *Handler) ServeTop(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	ids, recycled, err := h.suggester.Serve(r.Context(), userID, h.engine.Config().TopK)
	metrics.RecordFlow("serve", time.Since(start), err)
	if err != nil {
		writeSuggestError(w, err)
		return
	}
	if recycled {
		metrics.TopKRecycles.Inc()
	}

	movieIDs := make([]int, len(ids))
	for i, id := range ids {
		movieIDs[i] = int(id)
	}
	respondSuccess(w, http.StatusOK, map[string]any{
		"movie_ids": movieIDs,
		"recycled":  recycled,
	}, start)
}

// suggestionItem is one entry of the read-only suggestions list.
type suggestionItem struct {
	MovieID int `json:"movie_id"`
	Total   int `json:"total"`
}

// Suggestions returns a read-only ranked list without consuming anything.
func (h *Handler) Suggestions(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	limit := getIntParam(r, "limit", h.cfg.DefaultLimit)
	if limit < 1 {
		limit = h.cfg.DefaultLimit
	}
	if limit > h.cfg.MaxLimit {
		limit = h.cfg.MaxLimit
	}

	records, err := h.suggester.Preview(r.Context(), userID, limit)
	if err != nil {
		writeSuggestError(w, err)
		return
	}

	items := make([]suggestionItem, len(records))
	for i, rec := range records {
		items[i] = suggestionItem{MovieID: int(rec.MovieID), Total: rec.Total}
	}
	respondSuccess(w, http.StatusOK, map[string]any{
		"suggestions": items,
		"limit":       limit,
	}, start)
}
