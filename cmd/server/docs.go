// CineShare - Movie Review Social Platform
// Copyright 2026 CineShare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cineshare/cineshare

// Package main provides the CineShare HTTP server
//
// @title CineShare API
// @version 1.0
// @description Movie review social platform: reviews, watchlists, follows,
// @description direct messaging, and realtime notification/presence/feed
// @description channels over WebSocket.
// @description
// @description ## Authentication
// @description
// @description REST endpoints require a JWT access token in the
// @description `Authorization: Bearer` header. Obtain a pair via
// @description `/api/v1/auth/login` or `/api/v1/auth/register` and rotate it
// @description via `/api/v1/auth/refresh`. WebSocket channels authenticate
// @description during the upgrade handshake with a `token` query parameter.
// @description
// @description ## Error Responses
// @description
// @description All error responses share one envelope:
// @description ```json
// @description {
// @description   "success": false,
// @description   "error": {
// @description     "code": "ERROR_CODE",
// @description     "message": "Human-readable error message",
// @description     "details": {}
// @description   }
// @description }
// @description ```
//
// @contact.name GitHub Repository
// @contact.url https://github.com/cineshare/cineshare/issues
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @host localhost:8994
// @BasePath /
// @schemes http https
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT access token, prefixed with "Bearer ".
//
// @tag.name auth
// @tag.description Registration, sign-in, and token rotation
//
// @tag.name reviews
// @tag.description Movie reviews and per-movie listings
//
// @tag.name watchlist
// @tag.description Per-user watchlists
//
// @tag.name social
// @tag.description Follows and public profiles
//
// @tag.name notifications
// @tag.description Durable notification inbox
//
// @tag.name messaging
// @tag.description Direct-message conversation history
//
// @tag.name moderation
// @tag.description Review reports and triage
//
// @tag.name movies
// @tag.description Movie metadata proxy
package main
