// CineShare - Movie Review Social Platform
// Copyright 2026 CineShare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cineshare/cineshare

// Package client is the Go client for a CineShare server: session
// management with coordinated token refresh, and reconnecting
// websocket channel consumers.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// TokenPair is the access/refresh pair returned by the auth endpoints.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// ErrNotAuthenticated is returned when a request needs a session and
// none has been established.
var ErrNotAuthenticated = fmt.Errorf("client: not authenticated")

// Session holds credentials for one signed-in user and transparently
// refreshes the pair. At most one refresh request is in flight at any
// time: a 401-triggered refresh and a timer-triggered refresh that
// race simply share the same outcome.
type Session struct {
	baseURL string
	http    *http.Client

	mu       sync.Mutex
	pair     TokenPair
	inflight *refreshCall
}

// refreshCall is a single-flight refresh shared by every waiter.
type refreshCall struct {
	done chan struct{}
	err  error
}

// NewSession creates a session against baseURL (e.g.
// "http://localhost:8994"). The zero http.Client is used when
// httpClient is nil.
func NewSession(baseURL string, httpClient *http.Client) *Session {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Session{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// SetPair installs an existing token pair, e.g. one restored from disk.
func (s *Session) SetPair(pair TokenPair) {
	s.mu.Lock()
	s.pair = pair
	s.mu.Unlock()
}

// AccessToken returns the current access token, empty when signed out.
func (s *Session) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pair.AccessToken
}

// Login signs in and stores the returned pair.
func (s *Session) Login(ctx context.Context, email, password string) error {
	var data struct {
		TokenPair
	}
	err := s.post(ctx, "/api/v1/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &data)
	if err != nil {
		return err
	}
	s.SetPair(data.TokenPair)
	return nil
}

// Register creates an account and stores the returned pair.
func (s *Session) Register(ctx context.Context, email, username, password string) error {
	var data struct {
		TokenPair
	}
	err := s.post(ctx, "/api/v1/auth/register", map[string]string{
		"email":    email,
		"username": username,
		"password": password,
	}, &data)
	if err != nil {
		return err
	}
	s.SetPair(data.TokenPair)
	return nil
}

// Refresh exchanges the refresh token for a new pair. Concurrent
// callers (the proactive timer and any number of 401 retries) are
// collapsed onto one server round trip.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if call := s.inflight; call != nil {
		s.mu.Unlock()
		select {
		case <-call.done:
			return call.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	refreshToken := s.pair.RefreshToken
	call := &refreshCall{done: make(chan struct{})}
	s.inflight = call
	s.mu.Unlock()

	pair, err := s.doRefresh(ctx, refreshToken)

	s.mu.Lock()
	if err == nil {
		s.pair = pair
	}
	call.err = err
	s.inflight = nil
	s.mu.Unlock()
	close(call.done)

	return err
}

func (s *Session) doRefresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if refreshToken == "" {
		return TokenPair{}, ErrNotAuthenticated
	}
	var data struct {
		TokenPair
	}
	err := s.post(ctx, "/api/v1/auth/refresh", map[string]string{
		"refresh_token": refreshToken,
	}, &data)
	if err != nil {
		return TokenPair{}, err
	}
	return data.TokenPair, nil
}

// AutoRefresh proactively refreshes the pair every interval until the
// context is canceled. Run it in its own goroutine; failures are
// returned to the caller through the channel and do not stop the loop.
func (s *Session) AutoRefresh(ctx context.Context, interval time.Duration) <-chan error {
	errs := make(chan error, 1)
	go func() {
		defer close(errs)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.Refresh(ctx); err != nil {
					select {
					case errs <- err:
					default:
					}
				}
			}
		}
	}()
	return errs
}

// Do performs an authenticated request. On a 401 it refreshes once and
// retries; a second 401 is returned to the caller.
func (s *Session) Do(ctx context.Context, method, path string, body, out any) error {
	status, err := s.roundTrip(ctx, method, path, body, out, true)
	if err != nil {
		return err
	}
	if status != http.StatusUnauthorized {
		return nil
	}

	if err := s.Refresh(ctx); err != nil {
		return err
	}
	status, err = s.roundTrip(ctx, method, path, body, out, true)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized {
		return ErrNotAuthenticated
	}
	return nil
}

// post performs an unauthenticated POST and decodes the envelope data.
func (s *Session) post(ctx context.Context, path string, body, out any) error {
	status, err := s.roundTripDecode(ctx, http.MethodPost, path, body, out, false)
	if err != nil {
		return err
	}
	if status >= 400 {
		return fmt.Errorf("client: %s returned %d", path, status)
	}
	return nil
}

// apiEnvelope mirrors the server's response wrapper.
type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *Session) roundTrip(ctx context.Context, method, path string, body, out any, authed bool) (int, error) {
	status, err := s.roundTripDecode(ctx, method, path, body, out, authed)
	if err != nil {
		return 0, err
	}
	if status >= 400 && status != http.StatusUnauthorized {
		return status, fmt.Errorf("client: %s %s returned %d", method, path, status)
	}
	return status, nil
}

func (s *Session) roundTripDecode(ctx context.Context, method, path string, body, out any, authed bool) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("client: marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("client: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		if token := s.AccessToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if out == nil || resp.StatusCode >= 400 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
		return resp.StatusCode, nil
	}

	var env apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return resp.StatusCode, fmt.Errorf("client: decode response: %w", err)
	}
	if env.Data != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("client: decode data: %w", err)
		}
	}
	return resp.StatusCode, nil
}
