// CineShare - Movie Review Social Platform
// Copyright 2026 CineShare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cineshare/cineshare

package config

import (
	"errors"
	"fmt"
)

// minJWTSecretLength is the minimum accepted signing-key length.
// Shorter secrets make HS256 tokens brute-forceable.
const minJWTSecretLength = 32

// Validate checks the configuration for values that would make the
// server unsafe or unable to start. It collects every problem rather
// than stopping at the first.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port))
	}

	if c.Security.JWTSecret == "" {
		errs = append(errs, errors.New("security.jwt_secret is required (CINESHARE_SECURITY_JWT_SECRET)"))
	} else if len(c.Security.JWTSecret) < minJWTSecretLength {
		errs = append(errs, fmt.Errorf("security.jwt_secret must be at least %d characters", minJWTSecretLength))
	}

	if c.Security.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("security.access_token_ttl must be positive"))
	}
	if c.Security.RefreshTokenTTL <= c.Security.AccessTokenTTL {
		errs = append(errs, errors.New("security.refresh_token_ttl must exceed security.access_token_ttl"))
	}

	switch c.Bus.Mode {
	case BusModeChannel, BusModeNATS:
	default:
		errs = append(errs, fmt.Errorf("bus.mode must be %q or %q, got %q", BusModeChannel, BusModeNATS, c.Bus.Mode))
	}
	if c.Bus.Mode == BusModeNATS && !c.Bus.Embedded && c.Bus.URL == "" {
		errs = append(errs, errors.New("bus.url is required for bus.mode=nats without an embedded server"))
	}

	if !c.Store.InMemory && c.Store.Path == "" {
		errs = append(errs, errors.New("store.path is required unless store.in_memory is set"))
	}

	if c.Movies.BaseURL == "" {
		errs = append(errs, errors.New("movies.base_url is required"))
	}

	return errors.Join(errs...)
}
