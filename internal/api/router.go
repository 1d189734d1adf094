// CineShare - Movie Review Social Platform
// Copyright 2026 CineShare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cineshare/cineshare

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/cineshare/cineshare/docs"
	"github.com/cineshare/cineshare/internal/auth"
	"github.com/cineshare/cineshare/internal/authz"
	"github.com/cineshare/cineshare/internal/bus"
	"github.com/cineshare/cineshare/internal/config"
	"github.com/cineshare/cineshare/internal/movies"
	"github.com/cineshare/cineshare/internal/realtime"
	"github.com/cineshare/cineshare/internal/store"
	"github.com/cineshare/cineshare/internal/token"
)

// Router assembles the REST and websocket surface.
type Router struct {
	cfg      *config.Config
	store    *store.Store
	tokens   *token.Service
	guard    *auth.Middleware
	lockout  *auth.Lockout
	enforcer *authz.Enforcer
	bus      *bus.Bus
	movies   *movies.Client
	ws       *realtime.Handler
}

// NewRouter wires the handler dependencies together.
func NewRouter(
	cfg *config.Config,
	st *store.Store,
	tokens *token.Service,
	enforcer *authz.Enforcer,
	eventBus *bus.Bus,
	movieClient *movies.Client,
	ws *realtime.Handler,
) *Router {
	lockoutCfg := auth.DefaultLockoutConfig()
	lockoutCfg.Enabled = cfg.Security.LockoutEnabled

	return &Router{
		cfg:      cfg,
		store:    st,
		tokens:   tokens,
		guard:    auth.NewMiddleware(tokens),
		lockout:  auth.NewLockout(lockoutCfg),
		enforcer: enforcer,
		bus:      eventBus,
		movies:   movieClient,
		ws:       ws,
	}
}

// Handler builds the full route tree.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger)
	r.Use(corsHandler(&rt.cfg.Server))

	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
	))
	r.Get("/healthz", rt.health)

	// Websocket channels authenticate during the upgrade handshake.
	r.Route("/ws", func(r chi.Router) {
		r.Get("/notifications", rt.ws.Channel(realtime.ChannelNotifications))
		r.Get("/presence", rt.ws.Channel(realtime.ChannelPresence))
		r.Get("/feed", rt.ws.Channel(realtime.ChannelFeed))
		r.Get("/messages", rt.ws.Channel(realtime.ChannelMessaging))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(requestMetrics)
		r.Use(loginRateLimit(&rt.cfg.Security))

		r.Post("/register", rt.register)
		r.Post("/login", rt.login)
		r.Post("/refresh", rt.refresh)
		r.Post("/logout", rt.logout)
		r.With(rt.guard.RequireAuth).Get("/me", rt.me)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(requestMetrics)
		r.Use(rt.guard.RequireAuth)

		r.Post("/reviews", rt.createReview)
		r.Get("/reviews/{id}", rt.getReview)
		r.Put("/reviews/{id}", rt.updateReview)
		r.Delete("/reviews/{id}", rt.deleteReview)

		r.Get("/movies/search", rt.searchMovies)
		r.Get("/movies/{id}", rt.getMovie)
		r.Get("/movies/{id}/reviews", rt.listMovieReviews)

		r.Get("/watchlist", rt.listWatchlist)
		r.Post("/watchlist", rt.addToWatchlist)
		r.Delete("/watchlist/{movieID}", rt.removeFromWatchlist)

		r.Get("/users/{id}", rt.getUser)
		r.Get("/users/{id}/reviews", rt.listUserReviews)
		r.Post("/users/{id}/follow", rt.follow)
		r.Delete("/users/{id}/follow", rt.unfollow)
		r.Get("/users/{id}/followers", rt.listFollowers)
		r.Get("/users/{id}/following", rt.listFollowing)

		r.Get("/notifications", rt.listNotifications)
		r.Post("/notifications/{id}/read", rt.markNotificationRead)
		r.Post("/notifications/read-all", rt.markAllNotificationsRead)

		r.Get("/conversations", rt.listConversations)
		r.Get("/conversations/{id}/messages", rt.listMessages)

		r.Post("/reports", rt.createReport)

		// Moderation and administration, guarded by role policy.
		r.Group(func(r chi.Router) {
			r.Use(rt.enforcer.Middleware)
			r.Get("/reports", rt.listReports)
			r.Get("/reports/{id}", rt.getReport)
			r.Put("/reports/{id}", rt.setReportStatus)
			r.Put("/users/{id}/role", rt.setUserRole)
		})
	})

	return r
}

// health reports liveness.
//
//	@Summary	Liveness probe
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	Response
//	@Router		/healthz [get]
func (rt *Router) health(w http.ResponseWriter, r *http.Request) {
	respond(w, r).OK(map[string]string{"status": "ok"})
}
