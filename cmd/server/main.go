// Nachos - Movie Catalog and Suggestion Backend
// Copyright 2026 Marwan K. (MarwanKhatib)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MarwanKhatib/Nachos-backend

// Package main is the entry point for the Nachos server.
//
// Nachos is a movie suggestion backend: it keeps a per-user scored
// suggestion list over the movie catalog and reshapes those scores as
// users pick genre preferences and rate movies.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered settings from defaults, config.yaml and
//     NACHOS_-prefixed environment variables (Koanf v2)
//  2. Database: DuckDB with the catalog and suggestion schema
//  3. Catalog seed: optional JSON seed file on first run
//  4. Suggestion engine: propagation policy, per-user locking, top-K
//     serving
//  5. HTTP server: REST API plus a Prometheus /metrics endpoint
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (NACHOS_SERVER_PORT, NACHOS_DATABASE_PATH, ...)
//   - Config file (config.yaml, or NACHOS_CONFIG_PATH)
//   - Built-in defaults
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM: it stops
// accepting new connections, waits for in-flight requests up to the
// configured shutdown timeout, then checkpoints and closes the database.
//
// # Example Usage
//
//	export NACHOS_DATABASE_PATH=/data/nachos.duckdb
//	export NACHOS_DATABASE_SEED_PATH=/data/catalog.json
//	export NACHOS_SUGGEST_POLICY=points
//	./nachos
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/MarwanKhatib/Nachos-backend/internal/api"
	"github.com/MarwanKhatib/Nachos-backend/internal/config"
	"github.com/MarwanKhatib/Nachos-backend/internal/database"
	"github.com/MarwanKhatib/Nachos-backend/internal/logging"
	"github.com/MarwanKhatib/Nachos-backend/internal/suggest"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("policy", cfg.Suggest.Policy).
		Int("top_k", cfg.Suggest.TopK).
		Msg("Starting Nachos")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	catalog := database.NewCatalog(db)
	if cfg.Database.SeedPath != "" {
		if err := database.SeedFromFile(context.Background(), catalog, cfg.Database.SeedPath); err != nil {
			logging.Fatal().Err(err).Str("path", cfg.Database.SeedPath).Msg("Failed to seed catalog")
		}
		logging.Info().Str("path", cfg.Database.SeedPath).Msg("Catalog seed applied")
	}

	store := database.NewSuggestionStore(db)

	var policy suggest.PropagationPolicy
	switch cfg.Suggest.Policy {
	case suggest.PolicyGenre:
		policy = suggest.NewGenreWeightedPolicy(catalog)
	default:
		policy = suggest.NewPointTablePolicy(suggest.DefaultPointSource(), catalog)
	}

	engine, err := suggest.NewEngine(&cfg.Suggest, store, catalog, policy, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create suggestion engine")
	}
	suggester := suggest.NewTopSuggester(store, catalog, logging.Logger())

	handler := api.NewHandler(engine, suggester, catalog, store, db, &cfg.API, logging.Logger())

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler.NewRouter(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("HTTP server error")
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("HTTP server shutdown error")
	}

	if err := db.Checkpoint(context.Background()); err != nil {
		logging.Warn().Err(err).Msg("Checkpoint on shutdown failed")
	}

	logging.Info().Msg("Application stopped gracefully")
}
