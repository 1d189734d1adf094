// CineShare - Movie Review Social Platform
// Copyright 2026 CineShare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cineshare/cineshare

package authz

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cineshare/cineshare/internal/auth"
)

func newTestEnforcer(t *testing.T) *Enforcer {
	t.Helper()
	e, err := NewEnforcer(DefaultRules())
	if err != nil {
		t.Fatalf("NewEnforcer: %v", err)
	}
	return e
}

func TestEnforceModerationMatrix(t *testing.T) {
	e := newTestEnforcer(t)

	tests := []struct {
		role    string
		object  string
		action  string
		allowed bool
	}{
		{"moderator", "/api/v1/reports", "GET", true},
		{"moderator", "/api/v1/reports/r-1", "PUT", true},
		{"moderator", "/api/v1/reviews/abc", "DELETE", true},
		{"admin", "/api/v1/reports", "GET", true},
		{"admin", "/api/v1/users/u-1/role", "PUT", true},
		{"moderator", "/api/v1/users/u-1/role", "PUT", false},
		{"user", "/api/v1/reports", "GET", false},
		{"user", "/api/v1/reviews/abc", "DELETE", false},
		{"", "/api/v1/reports", "GET", false},
	}

	for _, tt := range tests {
		allowed, err := e.Enforce(tt.role, tt.object, tt.action)
		if err != nil {
			t.Fatalf("Enforce(%s, %s, %s): %v", tt.role, tt.object, tt.action, err)
		}
		if allowed != tt.allowed {
			t.Errorf("Enforce(%s, %s, %s) = %v, want %v", tt.role, tt.object, tt.action, allowed, tt.allowed)
		}
	}
}

func TestMiddleware(t *testing.T) {
	e := newTestEnforcer(t)

	var called bool
	handler := e.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	do := func(role string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil)
		if role != "" {
			ctx := auth.ContextWithIdentity(req.Context(), &auth.Identity{ID: "u-1", Role: role})
			req = req.WithContext(ctx)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := do(""); code != http.StatusUnauthorized {
		t.Errorf("anonymous: %d, want 401", code)
	}
	if code := do("user"); code != http.StatusForbidden {
		t.Errorf("user: %d, want 403", code)
	}
	called = false
	if code := do("moderator"); code != http.StatusOK || !called {
		t.Errorf("moderator: %d called=%v", code, called)
	}
}
