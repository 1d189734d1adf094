// CineShare - Movie Review Social Platform
// Copyright 2026 CineShare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cineshare/cineshare

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cineshare/cineshare/internal/token"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestMiddleware(t *testing.T) (*Middleware, *token.Service) {
	t.Helper()
	tokens, err := token.NewService(testSecret, 15*time.Minute, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return NewMiddleware(tokens), tokens
}

func issueAccess(t *testing.T, tokens *token.Service) string {
	t.Helper()
	pair, err := tokens.Issue(token.Identity{
		UserID:   "u-1",
		Email:    "alice@example.com",
		Username: "alice",
		Role:     "user",
	})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return pair.AccessToken
}

func TestRequireAuthAttachesIdentity(t *testing.T) {
	m, tokens := newTestMiddleware(t)

	var got *Identity
	handler := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = IdentityFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+issueAccess(t, tokens))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got == nil || got.ID != "u-1" || got.Username != "alice" {
		t.Errorf("identity = %+v", got)
	}
}

func TestRequireAuthRejections(t *testing.T) {
	m, tokens := newTestMiddleware(t)
	handler := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run")
	}))

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic Zm9vOmJhcg=="},
		{"garbage token", "Bearer not.a.token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}

	// A refresh token is not an access token.
	pair, err := tokens.Issue(token.Identity{UserID: "u-1"})
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+pair.RefreshToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("refresh token accepted as access token: %d", rec.Code)
	}
}

func TestOptionalAuthProceedsAnonymously(t *testing.T) {
	m, tokens := newTestMiddleware(t)

	var got *Identity
	var called bool
	handler := m.OptionalAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		got = IdentityFromContext(r.Context())
	}))

	// No token: anonymous but served.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if !called || got != nil {
		t.Errorf("anonymous request: called=%v identity=%+v", called, got)
	}

	// Invalid token: still anonymous, still served.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if got != nil {
		t.Errorf("invalid token attached identity %+v", got)
	}

	// Valid token: identity attached.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+issueAccess(t, tokens))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if got == nil || got.ID != "u-1" {
		t.Errorf("identity = %+v", got)
	}
}

func TestLockoutThreshold(t *testing.T) {
	l := NewLockout(LockoutConfig{Enabled: true, MaxAttempts: 3, LockoutDuration: time.Minute})

	if l.RecordFailure("alice@example.com") {
		t.Error("locked after 1 failure")
	}
	if l.RecordFailure("alice@example.com") {
		t.Error("locked after 2 failures")
	}
	if !l.RecordFailure("alice@example.com") {
		t.Error("not locked after 3 failures")
	}

	locked, remaining := l.IsLocked("alice@example.com")
	if !locked || remaining <= 0 {
		t.Errorf("IsLocked = %v, %v", locked, remaining)
	}

	// Other subjects are unaffected.
	if locked, _ := l.IsLocked("bob@example.com"); locked {
		t.Error("unrelated subject locked")
	}
}

func TestLockoutExpiresAndResets(t *testing.T) {
	l := NewLockout(LockoutConfig{Enabled: true, MaxAttempts: 2, LockoutDuration: time.Minute})
	current := time.Now()
	l.now = func() time.Time { return current }

	l.RecordFailure("alice@example.com")
	l.RecordFailure("alice@example.com")
	if locked, _ := l.IsLocked("alice@example.com"); !locked {
		t.Fatal("expected lock")
	}

	current = current.Add(2 * time.Minute)
	if locked, _ := l.IsLocked("alice@example.com"); locked {
		t.Error("lock did not expire")
	}

	// After expiry, counting starts over.
	if l.RecordFailure("alice@example.com") {
		t.Error("locked on first failure of a new cycle")
	}
}

func TestLockoutSuccessClears(t *testing.T) {
	l := NewLockout(LockoutConfig{Enabled: true, MaxAttempts: 2, LockoutDuration: time.Minute})

	l.RecordFailure("alice@example.com")
	l.RecordSuccess("alice@example.com")
	if l.RecordFailure("alice@example.com") {
		t.Error("success did not reset the counter")
	}
}

func TestLockoutDisabled(t *testing.T) {
	l := NewLockout(LockoutConfig{Enabled: false, MaxAttempts: 1, LockoutDuration: time.Minute})
	for i := 0; i < 5; i++ {
		if l.RecordFailure("alice@example.com") {
			t.Fatal("disabled lockout locked a subject")
		}
	}
}
