// CineShare - Movie Review Social Platform
// Copyright 2026 CineShare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cineshare/cineshare

// Package api provides the CineShare REST surface: Chi routing, the
// standardized response envelope, and the handlers that produce the
// realtime events fanned out by the websocket layer.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/cineshare/cineshare/internal/logging"
	"github.com/cineshare/cineshare/internal/store"
	"github.com/cineshare/cineshare/internal/validation"
)

// Response is the envelope for every API response.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// Error carries a machine-readable code alongside the human message.
type Error struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// Meta is optional response metadata.
type Meta struct {
	RequestID  string    `json:"request_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	DurationMs int64     `json:"duration_ms,omitempty"`
}

// Error codes.
const (
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeConflict         = "CONFLICT"
	ErrCodeTooManyRequests  = "TOO_MANY_REQUESTS"
	ErrCodeValidationFailed = "VALIDATION_FAILED"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeBadGateway       = "EXTERNAL_SERVICE_FAILED"
)

// responder writes envelope responses for one request.
type responder struct {
	w     http.ResponseWriter
	r     *http.Request
	start time.Time
}

func respond(w http.ResponseWriter, r *http.Request) *responder {
	return &responder{w: w, r: r, start: time.Now()}
}

func (rw *responder) meta() *Meta {
	return &Meta{
		RequestID:  logging.RequestIDFromContext(rw.r.Context()),
		Timestamp:  time.Now(),
		DurationMs: time.Since(rw.start).Milliseconds(),
	}
}

// OK writes a 200 response with data.
func (rw *responder) OK(data interface{}) {
	rw.writeJSON(http.StatusOK, Response{Success: true, Data: data, Meta: rw.meta()})
}

// Created writes a 201 response with data.
func (rw *responder) Created(data interface{}) {
	rw.writeJSON(http.StatusCreated, Response{Success: true, Data: data, Meta: rw.meta()})
}

// NoContent writes a 204 response.
func (rw *responder) NoContent() {
	rw.w.WriteHeader(http.StatusNoContent)
}

// Fail writes an error response with the given status and code.
func (rw *responder) Fail(status int, code, message string) {
	rw.FailWithDetails(status, code, message, nil)
}

// FailWithDetails writes an error response with structured details.
func (rw *responder) FailWithDetails(status int, code, message string, details interface{}) {
	requestID := logging.RequestIDFromContext(rw.r.Context())
	rw.writeJSON(status, Response{
		Success: false,
		Error: &Error{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: requestID,
		},
		Meta: rw.meta(),
	})
}

func (rw *responder) BadRequest(message string) {
	rw.Fail(http.StatusBadRequest, ErrCodeBadRequest, message)
}

func (rw *responder) Unauthorized(message string) {
	rw.Fail(http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

func (rw *responder) Forbidden(message string) {
	rw.Fail(http.StatusForbidden, ErrCodeForbidden, message)
}

func (rw *responder) NotFound(message string) {
	rw.Fail(http.StatusNotFound, ErrCodeNotFound, message)
}

func (rw *responder) Conflict(message string) {
	rw.Fail(http.StatusConflict, ErrCodeConflict, message)
}

func (rw *responder) InternalError(err error) {
	logging.Ctx(rw.r.Context()).Error().Err(err).Msg("Internal error")
	rw.Fail(http.StatusInternalServerError, ErrCodeInternalError, "An internal error occurred")
}

// ValidationFailed writes the multi-field validation error shape.
func (rw *responder) ValidationFailed(verr *validation.Error) {
	rw.FailWithDetails(http.StatusBadRequest, ErrCodeValidationFailed, "Validation failed", verr.Details())
}

// StoreError translates store sentinel errors into 404 and 409
// responses; anything else is a 500.
func (rw *responder) StoreError(err error, notFoundMsg, conflictMsg string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		rw.NotFound(notFoundMsg)
	case errors.Is(err, store.ErrConflict):
		rw.Conflict(conflictMsg)
	default:
		rw.InternalError(err)
	}
}

func (rw *responder) writeJSON(status int, data interface{}) {
	rw.w.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.w.WriteHeader(status)
	if err := json.NewEncoder(rw.w).Encode(data); err != nil {
		logging.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// decodeBody decodes a JSON request body into dst and validates it.
// A false return means an error response was already written.
func decodeBody(rw *responder, r *http.Request, dst interface{}) bool {
	defer func() { _ = r.Body.Close() }()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		rw.BadRequest("Malformed JSON body")
		return false
	}
	if verr := validation.Struct(dst); verr != nil {
		rw.ValidationFailed(verr)
		return false
	}
	return true
}
