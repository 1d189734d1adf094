// CineShare - Movie Review Social Platform
// Copyright 2026 CineShare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cineshare/cineshare

// Package config loads CineShare configuration via Koanf v2 with layered
// sources (highest priority wins):
//
//  1. Environment variables prefixed CINESHARE_ (CINESHARE_SERVER_PORT=8080)
//  2. Config file (config.yaml, path via CINESHARE_CONFIG)
//  3. Built-in defaults
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// envPrefix is the prefix for environment variable overrides.
const envPrefix = "CINESHARE_"

// Config is the root configuration for the CineShare server.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
	Security SecurityConfig `koanf:"security"`
	Store    StoreConfig    `koanf:"store"`
	Bus      BusConfig      `koanf:"bus"`
	Movies   MoviesConfig   `koanf:"movies"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`

	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// CORSOrigins is empty by default; deployments must opt in explicitly.
	CORSOrigins []string `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// SecurityConfig holds authentication settings.
type SecurityConfig struct {
	// JWTSecret signs access and refresh tokens. Minimum 32 characters.
	JWTSecret string `koanf:"jwt_secret"`

	AccessTokenTTL  time.Duration `koanf:"access_token_ttl"`
	RefreshTokenTTL time.Duration `koanf:"refresh_token_ttl"`

	// BcryptCost for password hashing. 0 uses the bcrypt default.
	BcryptCost int `koanf:"bcrypt_cost"`

	LockoutEnabled bool `koanf:"lockout_enabled"`

	// LoginRateLimit is requests per LoginRateWindow per IP on /auth
	// endpoints.
	LoginRateLimit  int           `koanf:"login_rate_limit"`
	LoginRateWindow time.Duration `koanf:"login_rate_window"`
}

// StoreConfig holds BadgerDB settings.
type StoreConfig struct {
	// Path is the on-disk location of the store. Ignored when InMemory.
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`
}

// Bus modes.
const (
	BusModeChannel = "channel"
	BusModeNATS    = "nats"
)

// BusConfig selects the pub/sub backplane for realtime fan-out.
type BusConfig struct {
	// Mode is "channel" (in-process, single instance) or "nats"
	// (JetStream, multi-instance fan-out).
	Mode string `koanf:"mode"`

	// URL of the NATS server; ignored for channel mode.
	URL string `koanf:"url"`

	// Embedded starts an in-process NATS server for standalone
	// deployments that still want the JetStream transport.
	Embedded bool   `koanf:"embedded"`
	StoreDir string `koanf:"store_dir"`
}

// MoviesConfig holds settings for the external movie metadata API.
type MoviesConfig struct {
	BaseURL string        `koanf:"base_url"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`

	// RequestsPerSecond throttles outbound calls to the metadata API.
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	CacheTTL          time.Duration `koanf:"cache_ttl"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8994,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Security: SecurityConfig{
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 7 * 24 * time.Hour,
			LockoutEnabled:  true,
			LoginRateLimit:  10,
			LoginRateWindow: time.Minute,
		},
		Store: StoreConfig{
			Path: "./data/cineshare",
		},
		Bus: BusConfig{
			Mode: BusModeChannel,
			URL:  "nats://127.0.0.1:4222",
		},
		Movies: MoviesConfig{
			BaseURL:           "https://api.themoviedb.org/3",
			Timeout:           10 * time.Second,
			RequestsPerSecond: 4,
			CacheTTL:          10 * time.Minute,
		},
	}
}

// Load reads configuration from defaults, optional YAML file and
// environment, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	path := os.Getenv(envPrefix + "CONFIG")
	if path == "" {
		path = "config.yaml"
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envToKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// envToKey maps CINESHARE_SECURITY_JWT_SECRET to security.jwt_secret.
// Only the first underscore separates the section from the key; the rest
// of the name is kept as-is so multi-word keys survive.
func envToKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	parts := strings.SplitN(s, "_", 2)
	if len(parts) != 2 {
		return s
	}
	return parts[0] + "." + parts[1]
}
