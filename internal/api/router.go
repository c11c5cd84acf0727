// Nachos - Movie Catalog and Suggestion Backend
// Copyright 2026 Marwan K. (MarwanKhatib)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MarwanKhatib/Nachos-backend

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MarwanKhatib/Nachos-backend/internal/middleware"
)

// NewRouter assembles the chi router with the shared middleware stack
// and all API routes.
func (h *Handler) NewRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"ETag", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(httprate.LimitByIP(h.cfg.RateLimit, h.cfg.RateWindow))
	r.Use(middleware.PrometheusMetrics)

	ratingLimiter := middleware.NewPerUserRateLimiter(
		h.cfg.RatingPerSecond, h.cfg.RatingBurst)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Get("/genres", h.Genres)

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Post("/onboard", h.Onboard)
			r.Get("/genres", h.UserGenres)
			r.Put("/genres", h.UpdateGenres)
			r.With(ratingLimiter.Handler).Post("/ratings", h.RateMovie)
			// Serving mutates watched flags, so it is a POST despite
			// being a read in spirit.
			r.Post("/suggestions/top", h.ServeTop)
			r.Get("/suggestions", h.Suggestions)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
