// CineShare - Movie Review Social Platform
// Copyright 2026 CineShare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cineshare/cineshare

// Package metrics exposes Prometheus instrumentation for the HTTP API,
// the realtime WebSocket layer, the event bus, and authentication.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cineshare_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cineshare_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// WebSocket metrics
	WSConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cineshare_ws_connections_active",
			Help: "Currently open WebSocket connections",
		},
	)

	WSEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cineshare_ws_events_total",
			Help: "WebSocket events processed, by channel and direction",
		},
		[]string{"channel", "event", "direction"}, // direction: "in" or "out"
	)

	WSEventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cineshare_ws_events_dropped_total",
			Help: "Events dropped because a client send buffer was full",
		},
		[]string{"channel"},
	)

	// Event bus metrics
	BusPublishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cineshare_bus_publish_total",
			Help: "Events published to the bus",
		},
		[]string{"topic"},
	)

	BusErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cineshare_bus_errors_total",
			Help: "Bus publish failures",
		},
		[]string{"topic"},
	)

	// Authentication metrics
	AuthAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cineshare_auth_attempts_total",
			Help: "Login attempts by outcome",
		},
		[]string{"outcome"}, // "success", "failure", "locked"
	)

	TokenRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cineshare_token_refresh_total",
			Help: "Token refresh attempts by outcome",
		},
		[]string{"outcome"},
	)

	// Movie metadata client metrics
	MovieLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cineshare_movie_lookups_total",
			Help: "Movie metadata lookups by result",
		},
		[]string{"result"}, // "hit", "miss", "error", "open"
	)
)

// RecordHTTPRequest records one completed HTTP request.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	HTTPRequestDuration.WithLabelValues(method, route, code).Observe(duration.Seconds())
	HTTPRequestsTotal.WithLabelValues(method, route, code).Inc()
}

// RecordWSConnect tracks a WebSocket connection opening.
func RecordWSConnect() {
	WSConnectionsActive.Inc()
}

// RecordWSDisconnect tracks a WebSocket connection closing.
func RecordWSDisconnect() {
	WSConnectionsActive.Dec()
}

// RecordWSEvent records an event flowing through a realtime channel.
func RecordWSEvent(channel, event, direction string) {
	WSEventsTotal.WithLabelValues(channel, event, direction).Inc()
}

// RecordWSDrop records an event dropped due to a slow client.
func RecordWSDrop(channel string) {
	WSEventsDropped.WithLabelValues(channel).Inc()
}

// RecordBusPublish records a successful bus publish.
func RecordBusPublish(topic string) {
	BusPublishTotal.WithLabelValues(topic).Inc()
}

// RecordBusError records a failed bus publish.
func RecordBusError(topic string) {
	BusErrorsTotal.WithLabelValues(topic).Inc()
}

// RecordAuthAttempt records a login attempt outcome.
func RecordAuthAttempt(outcome string) {
	AuthAttemptsTotal.WithLabelValues(outcome).Inc()
}

// RecordTokenRefresh records a refresh attempt outcome.
func RecordTokenRefresh(outcome string) {
	TokenRefreshTotal.WithLabelValues(outcome).Inc()
}

// RecordMovieLookup records a metadata lookup result.
func RecordMovieLookup(result string) {
	MovieLookupsTotal.WithLabelValues(result).Inc()
}
