// CineShare - Movie Review Social Platform
// Copyright 2026 CineShare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cineshare/cineshare

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordWSConnectionGauge(t *testing.T) {
	before := testutil.ToFloat64(WSConnectionsActive)

	RecordWSConnect()
	RecordWSConnect()
	if got := testutil.ToFloat64(WSConnectionsActive); got != before+2 {
		t.Errorf("gauge = %v, want %v", got, before+2)
	}

	RecordWSDisconnect()
	RecordWSDisconnect()
	if got := testutil.ToFloat64(WSConnectionsActive); got != before {
		t.Errorf("gauge = %v, want %v after disconnects", got, before)
	}
}

func TestRecordBusCounters(t *testing.T) {
	topic := "test.topic"
	before := testutil.ToFloat64(BusPublishTotal.WithLabelValues(topic))

	RecordBusPublish(topic)
	RecordBusPublish(topic)
	if got := testutil.ToFloat64(BusPublishTotal.WithLabelValues(topic)); got != before+2 {
		t.Errorf("publish counter = %v, want %v", got, before+2)
	}

	RecordBusError(topic)
	if got := testutil.ToFloat64(BusErrorsTotal.WithLabelValues(topic)); got < 1 {
		t.Errorf("error counter = %v, want >= 1", got)
	}
}

func TestRecordWSEventLabels(t *testing.T) {
	tests := []struct {
		channel   string
		event     string
		direction string
	}{
		{"messaging", "sendMessage", "in"},
		{"messaging", "newMessage", "out"},
		{"presence", "presenceChange", "out"},
		{"notifications", "notification", "out"},
	}

	for _, tt := range tests {
		RecordWSEvent(tt.channel, tt.event, tt.direction)
		got := testutil.ToFloat64(WSEventsTotal.WithLabelValues(tt.channel, tt.event, tt.direction))
		if got < 1 {
			t.Errorf("counter for %s/%s/%s = %v, want >= 1", tt.channel, tt.event, tt.direction, got)
		}
	}
}

func TestRecordHTTPRequestDoesNotPanic(t *testing.T) {
	RecordHTTPRequest("GET", "/api/v1/reviews", 200, 12*time.Millisecond)
	RecordHTTPRequest("POST", "/api/v1/auth/login", 401, 3*time.Millisecond)

	got := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/reviews", "200"))
	if got < 1 {
		t.Errorf("http counter = %v, want >= 1", got)
	}
}

func TestRecordAuthOutcomes(t *testing.T) {
	for _, outcome := range []string{"success", "failure", "locked"} {
		RecordAuthAttempt(outcome)
		if got := testutil.ToFloat64(AuthAttemptsTotal.WithLabelValues(outcome)); got < 1 {
			t.Errorf("auth counter %q = %v, want >= 1", outcome, got)
		}
	}
	RecordTokenRefresh("success")
	RecordMovieLookup("hit")
}
