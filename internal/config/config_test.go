// CineShare - Movie Review Social Platform
// Copyright 2026 CineShare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cineshare/cineshare

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func validConfig() Config {
	cfg := Default()
	cfg.Security.JWTSecret = testSecret
	return cfg
}

func TestDefaultIsValidWithSecret(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config with secret should validate: %v", err)
	}
}

func TestValidateMissingSecret(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing jwt_secret")
	}
	if !strings.Contains(err.Error(), "jwt_secret") {
		t.Errorf("expected jwt_secret error, got %v", err)
	}
}

func TestValidateShortSecret(t *testing.T) {
	cfg := Default()
	cfg.Security.JWTSecret = "too-short"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for short jwt_secret")
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 0
	cfg.Bus.Mode = "rabbitmq"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected errors")
	}
	msg := err.Error()
	for _, want := range []string{"server.port", "jwt_secret", "bus.mode"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected combined error to mention %s, got %v", want, msg)
		}
	}
}

func TestValidateRefreshTTLMustExceedAccess(t *testing.T) {
	cfg := validConfig()
	cfg.Security.RefreshTokenTTL = cfg.Security.AccessTokenTTL
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when refresh TTL <= access TTL")
	}
}

func TestEnvToKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"CINESHARE_SERVER_PORT", "server.port"},
		{"CINESHARE_SECURITY_JWT_SECRET", "security.jwt_secret"},
		{"CINESHARE_BUS_MODE", "bus.mode"},
		{"CINESHARE_MOVIES_REQUESTS_PER_SECOND", "movies.requests_per_second"},
	}
	for _, tt := range tests {
		if got := envToKey(tt.in); got != tt.want {
			t.Errorf("envToKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadLayering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 9000
security:
  jwt_secret: "` + testSecret + `"
  access_token_ttl: 5m
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CINESHARE_CONFIG", path)
	t.Setenv("CINESHARE_SERVER_PORT", "9001") // env overrides file

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 9001 {
		t.Errorf("expected env override port 9001, got %d", cfg.Server.Port)
	}
	if cfg.Security.AccessTokenTTL != 5*time.Minute {
		t.Errorf("expected file-provided TTL 5m, got %v", cfg.Security.AccessTokenTTL)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default log level, got %q", cfg.Logging.Level)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CINESHARE_CONFIG", filepath.Join(dir, "missing.yaml"))
	t.Setenv("CINESHARE_SECURITY_JWT_SECRET", "short")

	if _, err := Load(); err == nil {
		t.Fatal("expected validation failure for short secret")
	}
}
