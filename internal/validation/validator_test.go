// CineShare - Movie Review Social Platform
// Copyright 2026 CineShare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cineshare/cineshare

package validation

import (
	"strings"
	"testing"
)

type registerRequest struct {
	Email    string `validate:"required,email"`
	Username string `validate:"required,min=3,max=30,alphanum"`
	Password string `validate:"required,min=8"`
}

type ratingRequest struct {
	Rating int `validate:"required,gte=1,lte=10"`
}

func TestStructValid(t *testing.T) {
	req := registerRequest{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "supersecret",
	}
	if err := Struct(&req); err != nil {
		t.Errorf("expected valid, got %v", err)
	}
}

func TestStructCollectsAllFailures(t *testing.T) {
	req := registerRequest{
		Email:    "not-an-email",
		Username: "x",
		Password: "short",
	}
	err := Struct(&req)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if len(err.Fields()) != 3 {
		t.Errorf("got %d field errors, want 3: %v", len(err.Fields()), err)
	}
	if !strings.Contains(err.Error(), "Email must be a valid email address") {
		t.Errorf("missing email message in %q", err.Error())
	}
	if !strings.Contains(err.Error(), "Username must be at least 3 characters") {
		t.Errorf("missing username message in %q", err.Error())
	}
}

func TestStructRangeMessages(t *testing.T) {
	err := Struct(&ratingRequest{Rating: 11})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if got := err.Error(); !strings.Contains(got, "Rating must be at most 10") {
		t.Errorf("unexpected message %q", got)
	}
}

func TestDetailsShape(t *testing.T) {
	err := Struct(&ratingRequest{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	details := err.Details()
	if len(details) != 1 {
		t.Fatalf("details = %d entries, want 1", len(details))
	}
	if details[0]["field"] != "Rating" || details[0]["tag"] != "required" {
		t.Errorf("unexpected details %+v", details[0])
	}
}

func TestValidatorSingleton(t *testing.T) {
	if Validator() != Validator() {
		t.Error("expected the same validator instance")
	}
}
