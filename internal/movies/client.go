// CineShare - Movie Review Social Platform
// Copyright 2026 CineShare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cineshare/cineshare

// Package movies is the client for the external movie metadata API.
// Lookups are rate limited, cached, and wrapped in a circuit breaker
// so a degraded upstream cannot stall review browsing.
package movies

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/cineshare/cineshare/internal/cache"
	"github.com/cineshare/cineshare/internal/config"
	"github.com/cineshare/cineshare/internal/logging"
	"github.com/cineshare/cineshare/internal/metrics"
)

// Movie is the metadata projection served to clients.
type Movie struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview,omitempty"`
	PosterPath  string  `json:"poster_path,omitempty"`
	ReleaseDate string  `json:"release_date,omitempty"`
	VoteAverage float64 `json:"vote_average,omitempty"`
}

// upstream response shapes (TMDB-style API).
type upstreamMovie struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	ReleaseDate string  `json:"release_date"`
	VoteAverage float64 `json:"vote_average"`
}

type searchResponse struct {
	Results []upstreamMovie `json:"results"`
}

// ErrUnavailable is returned while the circuit breaker is open.
var ErrUnavailable = fmt.Errorf("movie metadata service unavailable")

// Client calls the metadata API.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]byte]
	cache   *cache.Cache
}

// NewClient builds a metadata client from configuration.
func NewClient(cfg *config.MoviesConfig) *Client {
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "movie-metadata",
		MaxRequests: 3,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Metadata circuit breaker state change")
		},
	})

	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), int(cfg.RequestsPerSecond)+1),
		breaker: breaker,
		cache:   cache.New(cfg.CacheTTL),
	}
}

// Close releases the cache's background resources.
func (c *Client) Close() {
	c.cache.Close()
}

// Search queries the metadata API by title.
func (c *Client) Search(ctx context.Context, query string) ([]Movie, error) {
	body, err := c.fetch(ctx, "/search/movie", url.Values{"query": {query}})
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]Movie, len(resp.Results))
	for i, m := range resp.Results {
		out[i] = toMovie(m)
	}
	return out, nil
}

// Get fetches one movie by its upstream ID.
func (c *Client) Get(ctx context.Context, id string) (*Movie, error) {
	body, err := c.fetch(ctx, "/movie/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}

	var m upstreamMovie
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("decode movie response: %w", err)
	}
	movie := toMovie(m)
	return &movie, nil
}

func toMovie(m upstreamMovie) Movie {
	return Movie{
		ID:          fmt.Sprintf("%d", m.ID),
		Title:       m.Title,
		Overview:    m.Overview,
		PosterPath:  m.PosterPath,
		ReleaseDate: m.ReleaseDate,
		VoteAverage: m.VoteAverage,
	}
}

// fetch performs a cached, rate limited, breaker-protected GET.
func (c *Client) fetch(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if query == nil {
		query = url.Values{}
	}
	cacheKey := path + "?" + query.Encode()
	if cached, ok := c.cache.Get(cacheKey); ok {
		metrics.RecordMovieLookup("hit")
		return cached.([]byte), nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.do(ctx, path, query)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			metrics.RecordMovieLookup("open")
			return nil, ErrUnavailable
		}
		metrics.RecordMovieLookup("error")
		return nil, err
	}

	metrics.RecordMovieLookup("miss")
	c.cache.Set(cacheKey, body)
	return body, nil
}

func (c *Client) do(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if c.apiKey != "" {
		query.Set("api_key", c.apiKey)
	}

	u := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		u += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build metadata request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("metadata request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metadata API returned %d for %s", resp.StatusCode, path)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("read metadata response: %w", err)
	}
	return body, nil
}
