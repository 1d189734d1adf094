// CineShare - Movie Review Social Platform
// Copyright 2026 CineShare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cineshare/cineshare

package api

import (
	"net/http"
	"testing"

	"github.com/cineshare/cineshare/internal/models"
)

func (f *fixture) seedReview(t *testing.T, session authResponse) models.Review {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/v1/reviews", session.AccessToken, createReviewRequest{
		MovieID:    "550",
		MovieTitle: "Fight Club",
		Rating:     2,
		Title:      "Spoiler-laden rant",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed review: %d %s", rec.Code, rec.Body.String())
	}
	var review models.Review
	decodeData(t, rec, &review)
	return review
}

func TestReportLifecycle(t *testing.T) {
	f := newFixture(t)
	author := f.registerUser(t)
	reporter := f.registerUser(t)
	review := f.seedReview(t, author)

	rec := f.do(t, http.MethodPost, "/api/v1/reports", reporter.AccessToken, createReportRequest{
		ReviewID: review.ID,
		Reason:   "spoilers",
		Details:  "Gives away the ending in the first line.",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create report: %d %s", rec.Code, rec.Body.String())
	}
	var report models.Report
	decodeData(t, rec, &report)
	if report.Status != models.ReportStatusOpen || report.ReporterID != reporter.User.ID {
		t.Errorf("unexpected report: %+v", report)
	}

	// Same reporter, same review: rejected.
	rec = f.do(t, http.MethodPost, "/api/v1/reports", reporter.AccessToken, createReportRequest{
		ReviewID: review.ID,
		Reason:   "spam",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate report: %d, want 409", rec.Code)
	}

	// A different reporter may still report it.
	third := f.registerUser(t)
	rec = f.do(t, http.MethodPost, "/api/v1/reports", third.AccessToken, createReportRequest{
		ReviewID: review.ID,
		Reason:   "abuse",
	})
	if rec.Code != http.StatusCreated {
		t.Errorf("report by different user: %d, want 201", rec.Code)
	}
}

func TestReportUnknownReview(t *testing.T) {
	f := newFixture(t)
	session := f.registerUser(t)

	rec := f.do(t, http.MethodPost, "/api/v1/reports", session.AccessToken, createReportRequest{
		ReviewID: "no-such-review",
		Reason:   "spam",
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("report unknown review: %d, want 404", rec.Code)
	}
}

func TestModerationRequiresRole(t *testing.T) {
	f := newFixture(t)
	user := f.registerUser(t)

	if rec := f.do(t, http.MethodGet, "/api/v1/reports", user.AccessToken, nil); rec.Code != http.StatusForbidden {
		t.Errorf("report list as user: %d, want 403", rec.Code)
	}

	moderator := f.promote(t, user, models.RoleModerator)
	if rec := f.do(t, http.MethodGet, "/api/v1/reports", moderator.AccessToken, nil); rec.Code != http.StatusOK {
		t.Errorf("report list as moderator: %d, want 200", rec.Code)
	}
}

func TestReportTriage(t *testing.T) {
	f := newFixture(t)
	author := f.registerUser(t)
	reporter := f.registerUser(t)
	review := f.seedReview(t, author)

	rec := f.do(t, http.MethodPost, "/api/v1/reports", reporter.AccessToken, createReportRequest{
		ReviewID: review.ID,
		Reason:   "abuse",
	})
	var report models.Report
	decodeData(t, rec, &report)

	moderator := f.promote(t, f.registerUser(t), models.RoleModerator)

	rec = f.do(t, http.MethodPut, "/api/v1/reports/"+report.ID, moderator.AccessToken, setReportStatusRequest{
		Status: models.ReportStatusResolved,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("set status: %d %s", rec.Code, rec.Body.String())
	}
	var updated models.Report
	decodeData(t, rec, &updated)
	if updated.Status != models.ReportStatusResolved {
		t.Errorf("status = %s, want resolved", updated.Status)
	}

	// Status filter on the list.
	var open []models.Report
	decodeData(t, f.do(t, http.MethodGet, "/api/v1/reports?status=open", moderator.AccessToken, nil), &open)
	if len(open) != 0 {
		t.Errorf("open reports = %+v, want none", open)
	}
	var resolved []models.Report
	decodeData(t, f.do(t, http.MethodGet, "/api/v1/reports?status=resolved", moderator.AccessToken, nil), &resolved)
	if len(resolved) != 1 {
		t.Errorf("resolved reports = %d, want 1", len(resolved))
	}
}

func TestSetUserRoleAdminOnly(t *testing.T) {
	f := newFixture(t)
	target := f.registerUser(t)
	requester := f.registerUser(t)

	path := "/api/v1/users/" + target.User.ID + "/role"
	body := setRoleRequest{Role: models.RoleModerator}

	if rec := f.do(t, http.MethodPut, path, requester.AccessToken, body); rec.Code != http.StatusForbidden {
		t.Errorf("role change as user: %d, want 403", rec.Code)
	}

	moderator := f.promote(t, requester, models.RoleModerator)
	if rec := f.do(t, http.MethodPut, path, moderator.AccessToken, body); rec.Code != http.StatusForbidden {
		t.Errorf("role change as moderator: %d, want 403", rec.Code)
	}

	admin := f.promote(t, moderator, models.RoleAdmin)
	rec := f.do(t, http.MethodPut, path, admin.AccessToken, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("role change as admin: %d %s", rec.Code, rec.Body.String())
	}

	var updated models.PublicUser
	decodeData(t, rec, &updated)
	if updated.ID != target.User.ID {
		t.Errorf("updated user = %+v", updated)
	}
}
