// CineShare - Movie Review Social Platform
// Copyright 2026 CineShare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cineshare/cineshare

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cineshare/cineshare/internal/auth"
	"github.com/cineshare/cineshare/internal/logging"
	"github.com/cineshare/cineshare/internal/models"
)

type createReportRequest struct {
	ReviewID string `json:"review_id" validate:"required"`
	Reason   string `json:"reason" validate:"required,oneof=spam abuse spoilers other"`
	Details  string `json:"details" validate:"max=2000"`
}

type setReportStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=open resolved dismissed"`
}

// createReport files a report against a review. One report per
// reporter per review.
//
//	@Summary	Report a review
//	@Tags		moderation
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		body	body		createReportRequest	true	"Report"
//	@Success	201		{object}	Response{data=models.Report}
//	@Failure	404		{object}	Response
//	@Failure	409		{object}	Response
//	@Router		/api/v1/reports [post]
func (rt *Router) createReport(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)
	identity := auth.IdentityFromContext(r.Context())

	var req createReportRequest
	if !decodeBody(rw, r, &req) {
		return
	}

	if _, err := rt.store.GetReview(r.Context(), req.ReviewID); err != nil {
		rw.StoreError(err, "Review not found", "")
		return
	}

	report := &models.Report{
		ReviewID:   req.ReviewID,
		ReporterID: identity.ID,
		Reason:     req.Reason,
		Details:    req.Details,
	}
	if err := rt.store.CreateReport(r.Context(), report); err != nil {
		rw.StoreError(err, "Review not found", "You already reported this review")
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("report_id", report.ID).
		Str("review_id", report.ReviewID).
		Msg("Review reported")
	rw.Created(report)
}

// listReports lists reports, optionally filtered by status.
//
//	@Summary	List reports
//	@Tags		moderation
//	@Produce	json
//	@Security	BearerAuth
//	@Param		status	query		string	false	"Filter by status"	Enums(open, resolved, dismissed)
//	@Success	200		{object}	Response{data=[]models.Report}
//	@Failure	403		{object}	Response
//	@Router		/api/v1/reports [get]
func (rt *Router) listReports(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)

	reports, err := rt.store.ListReports(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		rw.InternalError(err)
		return
	}
	rw.OK(reports)
}

// getReport loads one report.
//
//	@Summary	Get a report
//	@Tags		moderation
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"Report ID"
//	@Success	200	{object}	Response{data=models.Report}
//	@Failure	404	{object}	Response
//	@Router		/api/v1/reports/{id} [get]
func (rt *Router) getReport(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)

	report, err := rt.store.GetReport(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		rw.StoreError(err, "Report not found", "")
		return
	}
	rw.OK(report)
}

// setReportStatus moves a report through its triage states.
//
//	@Summary	Update report status
//	@Tags		moderation
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		string					true	"Report ID"
//	@Param		body	body		setReportStatusRequest	true	"New status"
//	@Success	200		{object}	Response{data=models.Report}
//	@Failure	404		{object}	Response
//	@Router		/api/v1/reports/{id} [put]
func (rt *Router) setReportStatus(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)
	identity := auth.IdentityFromContext(r.Context())
	reportID := chi.URLParam(r, "id")

	var req setReportStatusRequest
	if !decodeBody(rw, r, &req) {
		return
	}

	if err := rt.store.SetReportStatus(r.Context(), reportID, req.Status); err != nil {
		rw.StoreError(err, "Report not found", "")
		return
	}

	report, err := rt.store.GetReport(r.Context(), reportID)
	if err != nil {
		rw.StoreError(err, "Report not found", "")
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("report_id", reportID).
		Str("status", req.Status).
		Str("moderator_id", identity.ID).
		Msg("Report status updated")
	rw.OK(report)
}

// setUserRole assigns a role to a user. Admin only through the role
// policy.
//
//	@Summary	Set a user's role
//	@Tags		admin
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		string			true	"User ID"
//	@Param		body	body		setRoleRequest	true	"New role"
//	@Success	200		{object}	Response{data=models.PublicUser}
//	@Failure	404		{object}	Response
//	@Router		/api/v1/users/{id}/role [put]
func (rt *Router) setUserRole(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)
	identity := auth.IdentityFromContext(r.Context())

	var req setRoleRequest
	if !decodeBody(rw, r, &req) {
		return
	}

	user, err := rt.store.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		rw.StoreError(err, "User not found", "")
		return
	}

	user.Role = req.Role
	if err := rt.store.UpdateUser(r.Context(), user); err != nil {
		rw.StoreError(err, "User not found", "")
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("user_id", user.ID).
		Str("role", req.Role).
		Str("admin_id", identity.ID).
		Msg("User role changed")
	rw.OK(user.Public())
}

type setRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user moderator admin"`
}
