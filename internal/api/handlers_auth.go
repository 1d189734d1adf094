// CineShare - Movie Review Social Platform
// Copyright 2026 CineShare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cineshare/cineshare

package api

import (
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/cineshare/cineshare/internal/auth"
	"github.com/cineshare/cineshare/internal/logging"
	"github.com/cineshare/cineshare/internal/metrics"
	"github.com/cineshare/cineshare/internal/models"
	"github.com/cineshare/cineshare/internal/store"
	"github.com/cineshare/cineshare/internal/token"
)

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,alphanum,min=3,max=30"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// authResponse is the payload for register, login and refresh.
type authResponse struct {
	User         models.PublicUser `json:"user"`
	AccessToken  string            `json:"access_token"`
	RefreshToken string            `json:"refresh_token"`
}

// register creates an account and signs in the new user.
//
//	@Summary	Register a new account
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		registerRequest	true	"Account details"
//	@Success	201		{object}	Response{data=authResponse}
//	@Failure	400		{object}	Response
//	@Failure	409		{object}	Response
//	@Router		/api/v1/auth/register [post]
func (rt *Router) register(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)

	var req registerRequest
	if !decodeBody(rw, r, &req) {
		return
	}

	cost := rt.cfg.Security.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), cost)
	if err != nil {
		rw.InternalError(err)
		return
	}

	user := &models.User{
		Email:        strings.ToLower(req.Email),
		Username:     req.Username,
		PasswordHash: string(hash),
	}
	if err := rt.store.CreateUser(r.Context(), user); err != nil {
		rw.StoreError(err, "", "Email or username already taken")
		return
	}

	pair, err := rt.issuePair(user)
	if err != nil {
		rw.InternalError(err)
		return
	}

	logging.Ctx(r.Context()).Info().Str("user_id", user.ID).Msg("User registered")
	rw.Created(authResponse{User: user.Public(), AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

// login verifies credentials and issues a token pair. Failed attempts
// count toward the per-email lockout; the response for a wrong password
// and an unknown email is identical.
//
//	@Summary	Sign in
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		loginRequest	true	"Credentials"
//	@Success	200		{object}	Response{data=authResponse}
//	@Failure	401		{object}	Response
//	@Failure	429		{object}	Response
//	@Router		/api/v1/auth/login [post]
func (rt *Router) login(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)

	var req loginRequest
	if !decodeBody(rw, r, &req) {
		return
	}
	email := strings.ToLower(req.Email)

	if locked, _ := rt.lockout.IsLocked(email); locked {
		metrics.RecordAuthAttempt("locked")
		rw.Fail(http.StatusTooManyRequests, ErrCodeTooManyRequests,
			"Account temporarily locked, try again later")
		return
	}

	user, err := rt.store.GetUserByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn a bcrypt comparison so unknown emails take as long
			// as wrong passwords.
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(req.Password))
			rt.lockout.RecordFailure(email)
			metrics.RecordAuthAttempt("failure")
			rw.Unauthorized("Invalid email or password")
			return
		}
		rw.InternalError(err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		rt.lockout.RecordFailure(email)
		metrics.RecordAuthAttempt("failure")
		rw.Unauthorized("Invalid email or password")
		return
	}

	rt.lockout.RecordSuccess(email)

	pair, err := rt.issuePair(user)
	if err != nil {
		rw.InternalError(err)
		return
	}

	metrics.RecordAuthAttempt("success")
	logging.Ctx(r.Context()).Info().Str("user_id", user.ID).Msg("User logged in")
	rw.OK(authResponse{User: user.Public(), AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

// refresh exchanges a valid refresh token for a fresh pair. The user is
// reloaded so role changes take effect on rotation.
//
//	@Summary	Refresh a token pair
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		refreshRequest	true	"Refresh token"
//	@Success	200		{object}	Response{data=authResponse}
//	@Failure	401		{object}	Response
//	@Router		/api/v1/auth/refresh [post]
func (rt *Router) refresh(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)

	var req refreshRequest
	if !decodeBody(rw, r, &req) {
		return
	}

	_, claims, err := rt.tokens.Refresh(req.RefreshToken)
	if err != nil {
		metrics.RecordTokenRefresh("failure")
		rw.Unauthorized("Invalid or expired refresh token")
		return
	}

	user, err := rt.store.GetUser(r.Context(), claims.UserID())
	if err != nil {
		metrics.RecordTokenRefresh("failure")
		if errors.Is(err, store.ErrNotFound) {
			rw.Unauthorized("Account no longer exists")
			return
		}
		rw.InternalError(err)
		return
	}

	pair, err := rt.issuePair(user)
	if err != nil {
		rw.InternalError(err)
		return
	}

	metrics.RecordTokenRefresh("success")
	rw.OK(authResponse{User: user.Public(), AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

// logout acknowledges sign-out. Tokens are stateless; the client
// discards its pair and the refresh token simply ages out.
//
//	@Summary	Sign out
//	@Tags		auth
//	@Produce	json
//	@Success	204	"No Content"
//	@Router		/api/v1/auth/logout [post]
func (rt *Router) logout(w http.ResponseWriter, r *http.Request) {
	respond(w, r).NoContent()
}

// me returns the authenticated user's full profile.
//
//	@Summary	Current user profile
//	@Tags		auth
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	Response{data=models.User}
//	@Failure	401	{object}	Response
//	@Router		/api/v1/auth/me [get]
func (rt *Router) me(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)
	identity := auth.IdentityFromContext(r.Context())

	user, err := rt.store.GetUser(r.Context(), identity.ID)
	if err != nil {
		rw.StoreError(err, "Account no longer exists", "")
		return
	}
	rw.OK(user)
}

func (rt *Router) issuePair(user *models.User) (token.Pair, error) {
	return rt.tokens.Issue(token.Identity{
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
		Role:     user.Role,
	})
}

// dummyHash is a bcrypt hash of a throwaway string, used to equalize
// timing between unknown-email and wrong-password failures.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")
