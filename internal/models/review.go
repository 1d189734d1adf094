// CineShare - Movie Review Social Platform
// Copyright 2026 CineShare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cineshare/cineshare

package models

import "time"

// Review is a user's review of a movie. MovieID references the external
// movie metadata API; CineShare does not store movie records itself.
type Review struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"author_id"`
	MovieID    string    `json:"movie_id"`
	MovieTitle string    `json:"movie_title"`
	Rating     int       `json:"rating"` // 1-10
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// WatchlistEntry marks a movie a user intends to watch.
type WatchlistEntry struct {
	UserID     string    `json:"user_id"`
	MovieID    string    `json:"movie_id"`
	MovieTitle string    `json:"movie_title"`
	AddedAt    time.Time `json:"added_at"`
}

// Report reason values accepted by the moderation API.
const (
	ReportReasonSpam          = "spam"
	ReportReasonHarassment    = "harassment"
	ReportReasonSpoilers      = "spoilers"
	ReportReasonInappropriate = "inappropriate"
)

// ReportReasons lists every accepted report reason.
var ReportReasons = []string{
	ReportReasonSpam,
	ReportReasonHarassment,
	ReportReasonSpoilers,
	ReportReasonInappropriate,
}

// Report status values.
const (
	ReportStatusOpen      = "open"
	ReportStatusResolved  = "resolved"
	ReportStatusDismissed = "dismissed"
)

// Report is a user's complaint about a review. A given user may report a
// given review at most once.
type Report struct {
	ID         string    `json:"id"`
	ReviewID   string    `json:"review_id"`
	ReporterID string    `json:"reporter_id"`
	Reason     string    `json:"reason"`
	Details    string    `json:"details,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}
