// CineShare - Movie Review Social Platform
// Copyright 2026 CineShare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cineshare/cineshare

package token

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(testSecret, 15*time.Minute, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func testIdentity() Identity {
	return Identity{UserID: "u-1", Email: "alice@example.com", Username: "alice", Role: "user"}
}

func TestNewServiceRequiresSecret(t *testing.T) {
	if _, err := NewService("", time.Minute, time.Hour); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestIssueAndValidateRoundTrip(t *testing.T) {
	svc := newTestService(t)

	pair, err := svc.Issue(testIdentity())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected non-empty token pair")
	}
	if pair.AccessToken == pair.RefreshToken {
		t.Fatal("access and refresh tokens must differ")
	}

	claims, err := svc.Validate(pair.AccessToken)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.UserID() != "u-1" {
		t.Errorf("subject = %q, want u-1", claims.UserID())
	}
	if claims.Email != "alice@example.com" || claims.Username != "alice" {
		t.Errorf("identity not preserved: %+v", claims)
	}
	if !claims.ExpiresAt.After(claims.IssuedAt.Time) {
		t.Error("expiresAt must be after issuedAt")
	}
}

func TestValidateRejectsRefreshToken(t *testing.T) {
	svc := newTestService(t)
	pair, _ := svc.Issue(testIdentity())

	if _, err := svc.Validate(pair.RefreshToken); !errors.Is(err, ErrInvalid) {
		t.Errorf("validating a refresh token as access should fail with ErrInvalid, got %v", err)
	}
}

func TestValidateExpired(t *testing.T) {
	svc := newTestService(t)
	pair, _ := svc.Issue(testIdentity())

	// Shift the service clock past the access TTL. The signature is
	// still valid; only expiry should fail.
	svc.now = func() time.Time { return time.Now().Add(16 * time.Minute) }

	if _, err := svc.Validate(pair.AccessToken); !errors.Is(err, ErrExpired) {
		t.Errorf("expected ErrExpired, got %v", err)
	}
}

func TestValidateMalformed(t *testing.T) {
	svc := newTestService(t)

	for _, tok := range []string{"", "garbage", "a.b", "a.b.c.d"} {
		if _, err := svc.Validate(tok); !errors.Is(err, ErrMalformed) {
			t.Errorf("Validate(%q) = %v, want ErrMalformed", tok, err)
		}
	}
}

func TestValidateWrongKey(t *testing.T) {
	svc := newTestService(t)
	pair, _ := svc.Issue(testIdentity())

	other, err := NewService(strings.Repeat("x", 32), 15*time.Minute, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := other.Validate(pair.AccessToken); !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("expected ErrSignatureInvalid, got %v", err)
	}
}

func TestMalformedTakesPrecedenceOverExpiry(t *testing.T) {
	svc := newTestService(t)
	svc.now = func() time.Time { return time.Now().Add(24 * time.Hour) }

	if _, err := svc.Validate("not-even-a-token"); !errors.Is(err, ErrMalformed) {
		t.Errorf("malformed must be reported before expiry, got %v", err)
	}
}

func TestRefreshIssuesNewValidPair(t *testing.T) {
	svc := newTestService(t)
	original, _ := svc.Issue(testIdentity())

	pair, claims, err := svc.Refresh(original.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if claims.UserID() != "u-1" {
		t.Errorf("refresh claims subject = %q, want u-1", claims.UserID())
	}

	fresh, err := svc.Validate(pair.AccessToken)
	if err != nil {
		t.Fatalf("new access token must validate: %v", err)
	}
	if fresh.UserID() != "u-1" || fresh.Username != "alice" {
		t.Errorf("identity changed across refresh: %+v", fresh)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc := newTestService(t)
	pair, _ := svc.Issue(testIdentity())

	if _, _, err := svc.Refresh(pair.AccessToken); !errors.Is(err, ErrInvalid) {
		t.Errorf("refreshing with an access token should fail with ErrInvalid, got %v", err)
	}
}

func TestRefreshRejectsGarbage(t *testing.T) {
	svc := newTestService(t)
	if _, _, err := svc.Refresh("garbage"); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestOldRefreshTokenStillValidAfterRefresh(t *testing.T) {
	// No server-side single-use enforcement: the superseded pair keeps
	// working until it expires. Documents the accepted trade-off.
	svc := newTestService(t)
	original, _ := svc.Issue(testIdentity())

	if _, _, err := svc.Refresh(original.RefreshToken); err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.Refresh(original.RefreshToken); err != nil {
		t.Errorf("superseded refresh token should still be accepted, got %v", err)
	}
}
