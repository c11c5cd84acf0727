// Nachos - Movie Catalog and Suggestion Backend
// Copyright 2026 Marwan K. (MarwanKhatib)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MarwanKhatib/Nachos-backend

package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/MarwanKhatib/Nachos-backend/internal/metrics"
	"github.com/MarwanKhatib/Nachos-backend/internal/models"
)

// PerUserRateLimiter throttles an endpoint per user rather than per IP.
// The rating endpoint uses it: each rating fans writes across the related
// set, so one user must not be able to monopolize the store.
//
// Buckets are never evicted; one small limiter per user seen over the
// process lifetime is an accepted cost.
type PerUserRateLimiter struct {
	perSecond float64
	burst     int
	limiters  sync.Map // user ID string -> *rate.Limiter
}

// NewPerUserRateLimiter creates a limiter allowing perSecond sustained
// requests with the given burst per user.
func NewPerUserRateLimiter(perSecond float64, burst int) *PerUserRateLimiter {
	return &PerUserRateLimiter{perSecond: perSecond, burst: burst}
}

// limiter returns the user's token bucket, creating it on first sight.
func (l *PerUserRateLimiter) limiter(key string) *rate.Limiter {
	if v, ok := l.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}
	v, _ := l.limiters.LoadOrStore(key, rate.NewLimiter(rate.Limit(l.perSecond), l.burst))
	return v.(*rate.Limiter)
}

// Handler wraps next with the per-user limit, keyed on the userID route
// parameter. Requests without the parameter pass through; the general
// per-IP limit still covers them.
func (l *PerUserRateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "userID")
		if key == "" || l.limiter(key).Allow() {
			next.ServeHTTP(w, r)
			return
		}

		metrics.APIRateLimitHits.WithLabelValues(r.URL.Path).Inc()

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(models.APIResponse{
			Status:   "error",
			Metadata: models.Metadata{Timestamp: time.Now().UTC()},
			Error: &models.APIError{
				Code:    "RATE_LIMIT_EXCEEDED",
				Message: "too many rating requests, slow down",
			},
		})
	})
}
