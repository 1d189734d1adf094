// CineShare - Movie Review Social Platform
// Copyright 2026 CineShare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cineshare/cineshare

package movies

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cineshare/cineshare/internal/config"
	"github.com/cineshare/cineshare/internal/logging"
)

func init() {
	logging.Init(logging.Config{Level: "error", Output: io.Discard})
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server, *atomic.Int64) {
	t.Helper()
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler.ServeHTTP(w, r)
	}))

	client := NewClient(&config.MoviesConfig{
		BaseURL:           srv.URL,
		APIKey:            "test-key",
		Timeout:           5 * time.Second,
		RequestsPerSecond: 100,
		CacheTTL:          time.Minute,
	})

	t.Cleanup(func() {
		client.Close()
		srv.Close()
	})
	return client, srv, &calls
}

func TestSearchDecodesResults(t *testing.T) {
	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/movie" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("query") != "dune" {
			t.Errorf("query = %s", r.URL.Query().Get("query"))
		}
		if r.URL.Query().Get("api_key") != "test-key" {
			t.Error("missing api key")
		}
		w.Write([]byte(`{"results":[{"id":438631,"title":"Dune","vote_average":7.8}]}`))
	}))

	movies, err := client.Search(context.Background(), "dune")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(movies) != 1 || movies[0].ID != "438631" || movies[0].Title != "Dune" {
		t.Errorf("movies = %+v", movies)
	}
}

func TestGetCachesResponses(t *testing.T) {
	client, _, calls := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":550,"title":"Fight Club"}`))
	}))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		movie, err := client.Get(ctx, "550")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if movie.Title != "Fight Club" {
			t.Errorf("movie = %+v", movie)
		}
	}

	if calls.Load() != 1 {
		t.Errorf("upstream called %d times, want 1 (cached)", calls.Load())
	}
}

func TestBreakerOpensOnRepeatedFailures(t *testing.T) {
	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, err := client.Get(ctx, "1"); err == nil {
			t.Fatal("expected error from failing upstream")
		}
	}

	// Breaker is now open; no further upstream calls are made.
	_, err := client.Get(ctx, "1")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}

func TestUpstreamErrorStatus(t *testing.T) {
	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	if _, err := client.Get(context.Background(), "0"); err == nil {
		t.Error("expected error for 404 upstream response")
	}
}
