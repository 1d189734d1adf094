// CineShare - Movie Review Social Platform
// Copyright 2026 CineShare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cineshare/cineshare

// Package main is the entry point for the CineShare server.
//
// Startup order:
//
//  1. Configuration (Koanf v2: defaults, config.yaml, CINESHARE_* env)
//  2. Logging (zerolog)
//  3. Store (BadgerDB)
//  4. Event bus (in-process channel, or NATS JetStream)
//  5. Realtime hub, movie metadata client, token service
//  6. Supervisor tree (realtime layer + HTTP server)
//
// Shutdown on SIGINT/SIGTERM drains in-flight HTTP requests, closes
// every websocket connection, and flushes the store.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cineshare/cineshare/internal/api"
	"github.com/cineshare/cineshare/internal/authz"
	"github.com/cineshare/cineshare/internal/bus"
	"github.com/cineshare/cineshare/internal/config"
	"github.com/cineshare/cineshare/internal/logging"
	"github.com/cineshare/cineshare/internal/movies"
	"github.com/cineshare/cineshare/internal/presence"
	"github.com/cineshare/cineshare/internal/realtime"
	"github.com/cineshare/cineshare/internal/store"
	"github.com/cineshare/cineshare/internal/supervisor"
	"github.com/cineshare/cineshare/internal/token"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("store_path", cfg.Store.Path).
		Str("bus_mode", cfg.Bus.Mode).
		Msg("Starting CineShare")

	st, err := store.Open(&cfg.Store)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open store")
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing store")
		}
	}()

	eventBus, err := bus.New(&cfg.Bus)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to start event bus")
	}
	defer func() {
		if err := eventBus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	tokens, err := token.NewService(cfg.Security.JWTSecret,
		cfg.Security.AccessTokenTTL, cfg.Security.RefreshTokenTTL)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create token service")
	}

	enforcer, err := authz.NewEnforcer(authz.DefaultRules())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build role enforcer")
	}

	movieClient := movies.NewClient(&cfg.Movies)
	defer movieClient.Close()

	hub := realtime.NewHub(st, presence.NewRegistry(), eventBus)
	ws := realtime.NewHandler(hub, tokens, cfg.Server.CORSOrigins)

	router := api.NewRouter(cfg, st, tokens, enforcer, eventBus, movieClient, ws)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	treeCfg := supervisor.DefaultTreeConfig()
	treeCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout
	tree := supervisor.NewTree(logging.NewSlogLogger(), treeCfg)
	tree.AddRealtimeService(supervisor.NewHubService(hub))
	tree.AddAPIService(supervisor.NewHTTPService(server, cfg.Server.ShutdownTimeout))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("CineShare stopped")
}
