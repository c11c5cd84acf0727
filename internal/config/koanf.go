// Nachos - Movie Catalog and Suggestion Backend
// Copyright 2026 Marwan K. (MarwanKhatib)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MarwanKhatib/Nachos-backend

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the config file search paths, first hit wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/nachos/config.yaml",
	"/etc/nachos/config.yml",
}

// ConfigPathEnvVar overrides the config file search when set.
const ConfigPathEnvVar = "NACHOS_CONFIG_PATH"

// envPrefix is stripped from environment variables before mapping them to
// koanf paths: NACHOS_SERVER_PORT -> server.port,
// NACHOS_DATABASE_MAX_MEMORY -> database.max_memory.
const envPrefix = "NACHOS_"

// Load builds the configuration from defaults, an optional YAML file, and
// NACHOS_-prefixed environment variables, then validates it. Precedence is
// env > file > defaults.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// envTransform maps an environment variable name to a koanf path. The first
// underscore after the prefix separates the section; later underscores stay
// literal so multi-word keys like database.max_memory resolve.
func envTransform(name string) string {
	name = strings.ToLower(strings.TrimPrefix(name, envPrefix))
	// NACHOS_CONFIG_PATH is consumed by findConfigFile, not the tree.
	if name == "config_path" {
		return ""
	}
	parts := strings.SplitN(name, "_", 2)
	if len(parts) == 1 {
		return parts[0]
	}
	return parts[0] + "." + parts[1]
}

// findConfigFile returns the first existing config file path, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
