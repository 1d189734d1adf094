// CineShare - Movie Review Social Platform
// Copyright 2026 CineShare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cineshare/cineshare

package api

import (
	"net/http"
	"testing"
)

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/auth/register", "", registerRequest{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "correct-horse-battery",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", rec.Code, rec.Body.String())
	}
	var created authResponse
	decodeData(t, rec, &created)
	if created.User.Username != "alice" || created.AccessToken == "" || created.RefreshToken == "" {
		t.Errorf("unexpected register response: %+v", created)
	}

	claims, err := f.tokens.Validate(created.AccessToken)
	if err != nil {
		t.Fatalf("issued access token does not validate: %v", err)
	}
	if claims.UserID() != created.User.ID {
		t.Errorf("token subject = %s, want %s", claims.UserID(), created.User.ID)
	}

	rec = f.do(t, http.MethodPost, "/api/v1/auth/login", "", loginRequest{
		Email:    "alice@example.com",
		Password: "correct-horse-battery",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rec.Code, rec.Body.String())
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)

	req := registerRequest{
		Email:    "bob@example.com",
		Username: "bob",
		Password: "correct-horse-battery",
	}
	if rec := f.do(t, http.MethodPost, "/api/v1/auth/register", "", req); rec.Code != http.StatusCreated {
		t.Fatalf("first register: %d", rec.Code)
	}

	req.Username = "bob2"
	rec := f.do(t, http.MethodPost, "/api/v1/auth/register", "", req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate email: %d, want 409", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Error == nil || env.Error.Code != ErrCodeConflict {
		t.Errorf("error = %+v, want code %s", env.Error, ErrCodeConflict)
	}
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/auth/register", "", registerRequest{
		Email:    "not-an-email",
		Username: "x",
		Password: "short",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid register: %d, want 400", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error == nil || env.Error.Code != ErrCodeValidationFailed {
		t.Fatalf("error = %+v, want code %s", env.Error, ErrCodeValidationFailed)
	}
	if env.Error.Details == nil {
		t.Error("validation error carries no field details")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	f := newFixture(t)
	session := f.registerUser(t)

	rec := f.do(t, http.MethodPost, "/api/v1/auth/login", "", loginRequest{
		Email:    session.User.Username + "@example.com",
		Password: "not-the-password",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: %d, want 401", rec.Code)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/auth/login", "", loginRequest{
		Email:    "ghost@example.com",
		Password: "whatever-password",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unknown email: %d, want 401", rec.Code)
	}
}

func TestRefreshRotatesPair(t *testing.T) {
	f := newFixture(t)
	session := f.registerUser(t)

	rec := f.do(t, http.MethodPost, "/api/v1/auth/refresh", "", refreshRequest{
		RefreshToken: session.RefreshToken,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: %d %s", rec.Code, rec.Body.String())
	}

	var refreshed authResponse
	decodeData(t, rec, &refreshed)
	if refreshed.AccessToken == "" || refreshed.RefreshToken == "" {
		t.Fatal("refresh returned empty pair")
	}
	if _, err := f.tokens.Validate(refreshed.AccessToken); err != nil {
		t.Errorf("refreshed access token invalid: %v", err)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	f := newFixture(t)
	session := f.registerUser(t)

	rec := f.do(t, http.MethodPost, "/api/v1/auth/refresh", "", refreshRequest{
		RefreshToken: session.AccessToken,
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("access token as refresh: %d, want 401", rec.Code)
	}
}

func TestMe(t *testing.T) {
	f := newFixture(t)
	session := f.registerUser(t)

	rec := f.do(t, http.MethodGet, "/api/v1/auth/me", session.AccessToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: %d %s", rec.Code, rec.Body.String())
	}

	var user struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	decodeData(t, rec, &user)
	if user.ID != session.User.ID {
		t.Errorf("me returned user %s, want %s", user.ID, session.User.ID)
	}
	if user.Email == "" {
		t.Error("me omits email for the account owner")
	}

	if rec := f.do(t, http.MethodGet, "/api/v1/auth/me", "", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("me without token: %d, want 401", rec.Code)
	}
}

func TestLogout(t *testing.T) {
	f := newFixture(t)

	if rec := f.do(t, http.MethodPost, "/api/v1/auth/logout", "", nil); rec.Code != http.StatusNoContent {
		t.Errorf("logout: %d, want 204", rec.Code)
	}
}
