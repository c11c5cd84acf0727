// Nachos - Movie Catalog and Suggestion Backend
// Copyright 2026 Marwan K. (MarwanKhatib)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MarwanKhatib/Nachos-backend

// Package middleware provides the HTTP middleware chain: request IDs,
// Prometheus instrumentation and the per-user rating rate limiter.
package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/MarwanKhatib/Nachos-backend/internal/logging"
)

// RequestID tags each request with a unique ID, reusing an upstream
// X-Request-ID header when present. The ID lands in the response header
// and in the request context for log correlation.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		w.Header().Set("X-Request-ID", requestID)
		ctx := logging.ContextWithRequestID(r.Context(), requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
