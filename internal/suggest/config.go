// Nachos - Movie Catalog and Suggestion Backend
// Copyright 2026 Marwan K. (MarwanKhatib)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MarwanKhatib/Nachos-backend

package suggest

import "fmt"

// Policy identifiers accepted by Config.Policy.
const (
	PolicyPoints = "points"
	PolicyGenre  = "genre"
)

// Config contains the engine's operational settings.
type Config struct {
	// TopK is the number of suggestions served per request.
	TopK int `json:"top_k" koanf:"top_k"`

	// Policy selects the rating propagation strategy: "points" or "genre".
	// A deployment must stick with one policy; switching strategies on a
	// live suggestion table mixes incompatible arithmetic in the stored
	// totals.
	Policy string `json:"policy" koanf:"policy"`
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		TopK:   10,
		Policy: PolicyPoints,
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.TopK <= 0 {
		return fmt.Errorf("top_k must be positive, got %d", c.TopK)
	}
	if c.Policy != PolicyPoints && c.Policy != PolicyGenre {
		return fmt.Errorf("unknown propagation policy %q", c.Policy)
	}
	return nil
}
