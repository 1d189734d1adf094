// CineShare - Movie Review Social Platform
// Copyright 2026 CineShare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cineshare/cineshare

// Package auth provides the request guards and the login lockout
// tracker. Token issuance and validation live in the token package;
// the guards here are read-only gates executed once per request.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/cineshare/cineshare/internal/token"
)

type contextKey string

const identityContextKey contextKey = "identity"

// Identity is the authenticated caller attached to request contexts.
// The token's subject claim maps to ID so downstream handlers never
// touch JWT internals.
type Identity struct {
	ID       string
	Email    string
	Username string
	Role     string
}

// Middleware holds the guards built on the token service.
type Middleware struct {
	tokens *token.Service
}

// NewMiddleware creates request guards backed by the token service.
func NewMiddleware(tokens *token.Service) *Middleware {
	return &Middleware{tokens: tokens}
}

// RequireAuth rejects requests without a valid bearer token. On
// success the caller identity is attached to the request context.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := m.authenticate(r)
		if !ok {
			w.Header().Set("WWW-Authenticate", "Bearer")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
	})
}

// OptionalAuth attaches the caller identity when a valid token is
// present and proceeds anonymously otherwise. It never rejects.
func (m *Middleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identity, ok := m.authenticate(r); ok {
			r = r.WithContext(ContextWithIdentity(r.Context(), identity))
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) authenticate(r *http.Request) (*Identity, bool) {
	tokenString := extractBearer(r)
	if tokenString == "" {
		return nil, false
	}
	claims, err := m.tokens.Validate(tokenString)
	if err != nil {
		return nil, false
	}
	return &Identity{
		ID:       claims.UserID(),
		Email:    claims.Email,
		Username: claims.Username,
		Role:     claims.Role,
	}, true
}

// extractBearer pulls the access token from the Authorization header.
func extractBearer(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// ContextWithIdentity attaches an identity to a context.
func ContextWithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext returns the authenticated identity, or nil for
// anonymous requests.
func IdentityFromContext(ctx context.Context) *Identity {
	identity, _ := ctx.Value(identityContextKey).(*Identity)
	return identity
}
