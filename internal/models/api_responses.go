// Nachos - Movie Catalog and Suggestion Backend
// Copyright 2026 Marwan K. (MarwanKhatib)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MarwanKhatib/Nachos-backend

// Package models holds the shared API wire types.
package models

import (
	"time"
)

// APIResponse is the standard response wrapper for every HTTP endpoint.
//
// Status is "success" or "error". Data carries the payload on success;
// Error carries structured details on failure.
//
// Example:
//
//	{
//	  "status": "success",
//	  "data": {"movie_ids": [3, 1, 8]},
//	  "metadata": {"timestamp": "2026-08-30T12:00:00Z", "query_time_ms": 4}
//	}
type APIResponse struct {
	Status   string    `json:"status"`
	Data     any       `json:"data"`
	Metadata Metadata  `json:"metadata"`
	Error    *APIError `json:"error,omitempty"`
}

// Metadata contains response metadata for observability.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError is the structured error payload.
//
// Codes in use: VALIDATION_ERROR, NOT_FOUND, CONFLICT, RATE_LIMIT_EXCEEDED,
// INTERNAL_ERROR.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
