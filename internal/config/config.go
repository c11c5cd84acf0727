// Nachos - Movie Catalog and Suggestion Backend
// Copyright 2026 Marwan K. (MarwanKhatib)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MarwanKhatib/Nachos-backend

// Package config loads and validates the Nachos configuration from three
// layered sources: built-in defaults, an optional YAML file, and
// NACHOS_-prefixed environment variables, in ascending precedence.
package config

import (
	"fmt"
	"time"

	"github.com/MarwanKhatib/Nachos-backend/internal/suggest"
)

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	API      APIConfig      `koanf:"api"`
	Suggest  suggest.Config `koanf:"suggest"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns the host:port listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the database file path; ":memory:" opens an in-memory
	// database.
	Path string `koanf:"path"`

	// MaxMemory caps DuckDB's memory usage, e.g. "1GB".
	MaxMemory string `koanf:"max_memory"`

	// Threads is the DuckDB thread count; 0 uses runtime.NumCPU().
	Threads int `koanf:"threads"`

	// QueryTimeout bounds individual store queries.
	QueryTimeout time.Duration `koanf:"query_timeout"`

	// SeedPath optionally points at a JSON catalog seed file loaded at
	// startup when the movies table is empty.
	SeedPath string `koanf:"seed_path"`
}

// APIConfig holds HTTP API behavior settings.
type APIConfig struct {
	// CORSOrigins lists allowed CORS origins.
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimit is the general per-IP request budget per RateWindow.
	RateLimit  int           `koanf:"rate_limit"`
	RateWindow time.Duration `koanf:"rate_window"`

	// RatingPerSecond throttles the rating endpoint per user, since each
	// rating fans out writes across the related set. RatingBurst is the
	// token bucket depth.
	RatingPerSecond float64 `koanf:"rating_per_second"`
	RatingBurst     int     `koanf:"rating_burst"`

	// DefaultLimit and MaxLimit bound the suggestions list endpoint.
	DefaultLimit int `koanf:"default_limit"`
	MaxLimit     int `koanf:"max_limit"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns the built-in defaults, applied before file and env
// layers.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8640,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			Path:         "/data/nachos.duckdb",
			MaxMemory:    "1GB",
			Threads:      0, // 0 = runtime.NumCPU()
			QueryTimeout: 30 * time.Second,
			SeedPath:     "",
		},
		API: APIConfig{
			CORSOrigins:     []string{"*"},
			RateLimit:       100,
			RateWindow:      time.Minute,
			RatingPerSecond: 2,
			RatingBurst:     5,
			DefaultLimit:    10,
			MaxLimit:        100,
		},
		Suggest: *suggest.DefaultConfig(),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Validate checks the configuration for values that would fail at runtime.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range 1-65535", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Database.QueryTimeout <= 0 {
		return fmt.Errorf("database.query_timeout must be positive, got %s", c.Database.QueryTimeout)
	}
	if c.API.RateLimit < 1 {
		return fmt.Errorf("api.rate_limit must be at least 1, got %d", c.API.RateLimit)
	}
	if c.API.RatingPerSecond <= 0 {
		return fmt.Errorf("api.rating_per_second must be positive, got %v", c.API.RatingPerSecond)
	}
	if c.API.RatingBurst < 1 {
		return fmt.Errorf("api.rating_burst must be at least 1, got %d", c.API.RatingBurst)
	}
	if c.API.DefaultLimit < 1 || c.API.MaxLimit < c.API.DefaultLimit {
		return fmt.Errorf("api limits invalid: default %d, max %d", c.API.DefaultLimit, c.API.MaxLimit)
	}
	if err := c.Suggest.Validate(); err != nil {
		return fmt.Errorf("suggest: %w", err)
	}
	return nil
}
