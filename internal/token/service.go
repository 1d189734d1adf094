// CineShare - Movie Review Social Platform
// Copyright 2026 CineShare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cineshare/cineshare

// Package token implements the CineShare token service: issuing,
// validating and refreshing HS256-signed JWT access/refresh pairs.
//
// Tokens are stateless; validity is determined purely by signature and
// expiry. There is no server-side revocation list - a refresh token
// remains usable until it expires. Access and refresh tokens carry a
// "typ" claim so one can never be replayed as the other.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token kinds carried in the "typ" claim.
const (
	typeAccess  = "access"
	typeRefresh = "refresh"
)

// Validation errors, ordered by precedence: a token that is both
// malformed and expired reports Malformed; a well-formed token with a
// bad signature reports SignatureInvalid before expiry is considered.
var (
	// ErrMalformed indicates the token could not be parsed at all.
	ErrMalformed = errors.New("token malformed")

	// ErrSignatureInvalid indicates the signature did not verify.
	ErrSignatureInvalid = errors.New("token signature invalid")

	// ErrExpired indicates a well-formed, correctly signed token past
	// its expiry.
	ErrExpired = errors.New("token expired")

	// ErrInvalid indicates any other validation failure, including a
	// token of the wrong kind (access where refresh expected).
	ErrInvalid = errors.New("token invalid")
)

// Claims is the payload embedded in every CineShare token.
type Claims struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Type     string `json:"typ"`
	jwt.RegisteredClaims
}

// UserID returns the token subject.
func (c *Claims) UserID() string {
	return c.Subject
}

// Pair is an issued access/refresh token pair.
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Identity is the subject identity embedded into issued tokens.
type Identity struct {
	UserID   string
	Email    string
	Username string
	Role     string
}

// Service issues and validates token pairs.
type Service struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewService creates a token service. The secret must be non-empty;
// key length policy is enforced by config validation at startup.
func NewService(secret string, accessTTL, refreshTTL time.Duration) (*Service, error) {
	if secret == "" {
		return nil, errors.New("token: signing secret is required")
	}
	return &Service{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

// Issue signs a fresh access/refresh pair for the given identity.
func (s *Service) Issue(id Identity) (Pair, error) {
	access, err := s.sign(id, typeAccess, s.accessTTL)
	if err != nil {
		return Pair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := s.sign(id, typeRefresh, s.refreshTTL)
	if err != nil {
		return Pair{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Service) sign(id Identity, kind string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := &Claims{
		Email:    id.Email,
		Username: id.Username,
		Role:     id.Role,
		Type:     kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Validate checks an access token and returns its claims.
// This is a pure function of the token and the signing key; no I/O.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	return s.parse(tokenString, typeAccess)
}

// Refresh validates a refresh token and issues a fresh pair for the
// same identity. The old pair is conceptually superseded but remains
// valid until expiry; there is no server-side single-use enforcement.
func (s *Service) Refresh(refreshToken string) (Pair, *Claims, error) {
	claims, err := s.parse(refreshToken, typeRefresh)
	if err != nil {
		return Pair{}, nil, ErrInvalid
	}

	pair, err := s.Issue(Identity{
		UserID:   claims.UserID(),
		Email:    claims.Email,
		Username: claims.Username,
		Role:     claims.Role,
	})
	if err != nil {
		return Pair{}, nil, err
	}
	return pair, claims, nil
}

// parse validates structure, signature and expiry in that order, then
// checks the token kind.
func (s *Service) parse(tokenString, wantType string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))

	if err != nil {
		return nil, classifyParseError(err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalid
	}

	if claims.Type != wantType {
		return nil, ErrInvalid
	}

	return claims, nil
}

// classifyParseError maps golang-jwt errors to the service taxonomy.
// Malformed and signature failures take precedence over expiry, so an
// attacker cannot learn expiry state from a forged token.
func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrSignatureInvalid
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	default:
		return ErrInvalid
	}
}
