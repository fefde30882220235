// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

// Package main is the entry point for the Oseh backend server.
//
// The backend serves the wellness content API: journey and daily event views
// rendered from cached templates with per-request credentials, admin search
// and curation endpoints, and entitlement checks backed by RevenueCat.
//
// # Application Architecture
//
// The server runs under a Suture v4 supervisor tree:
//
//	RootSupervisor ("oseh")
//	├── DataSupervisor ("data-layer")
//	│   ├── Cache GC (badger value log maintenance)
//	│   └── Premiere warmer (pre-fills the live daily event view)
//	├── MessagingSupervisor ("messaging-layer")
//	│   └── Eviction subscriber (redis pub/sub)
//	└── APISupervisor ("api-layer")
//	    └── HTTP server
//
// Component initialization order:
//
//  1. Configuration: Koanf v2 with defaults, optional YAML file, OSEH_* env vars
//  2. Logging: zerolog via the logging package
//  3. Database: SQLite system of record (schema applied on open)
//  4. Local cache: badger disk cache for view templates
//  5. Shared cache: redis for the cross-instance tier, locks, and pub/sub
//  6. Entitlements: RevenueCat provider client with circuit breaker
//  7. Auth: JWT signer and personal access token manager
//  8. Services: journeys, daily events, instructors, users
//  9. HTTP server: chi router wired into the supervisor tree
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - OSEH_* environment variables (e.g. OSEH_HTTP_PORT, OSEH_REDIS_ADDR)
//   - Config file (config.yaml, or OSEH_CONFIG_PATH)
//   - Built-in defaults
//
// Required settings for production:
//   - OSEH_JWT_SECRET: 32+ character secret for HS256 token signing
//   - OSEH_REVENUECAT_KEY: RevenueCat secret API key
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete (10s timeout)
//   - Stops the eviction subscriber and cache maintenance loops
//   - Closes cache and database handles
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

	"github.com/oseh/backend/internal/api"
	"github.com/oseh/backend/internal/auth"
	"github.com/oseh/backend/internal/authz"
	"github.com/oseh/backend/internal/config"
	"github.com/oseh/backend/internal/dailyevents"
	"github.com/oseh/backend/internal/database"
	"github.com/oseh/backend/internal/entitlements"
	"github.com/oseh/backend/internal/instructors"
	"github.com/oseh/backend/internal/journeys"
	"github.com/oseh/backend/internal/localcache"
	"github.com/oseh/backend/internal/logging"
	"github.com/oseh/backend/internal/sharedcache"
	"github.com/oseh/backend/internal/supervisor"
	"github.com/oseh/backend/internal/supervisor/services"
	"github.com/oseh/backend/internal/users"
	"github.com/oseh/backend/internal/viewcache"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize zerolog with configuration
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Msg("Starting Oseh backend with supervisor tree")
	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("db_path", cfg.Database.Path).
		Str("redis_addr", cfg.Redis.Addr).
		Str("cache_path", cfg.LocalCache.Path).
		Msg("Configuration loaded")

	// Initialize the system of record; the schema is applied on open
	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	// Open the local template cache
	local, err := localcache.Open(localcache.Config{
		Path: cfg.LocalCache.Path,
		TTL:  cfg.LocalCache.TTL,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open local cache")
	}
	defer func() {
		if err := local.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing local cache")
		}
	}()

	// Connect the shared cache tier. Startup fails fast on an unreachable
	// redis; once running, the supervisor handles dropped connections.
	shared, err := sharedcache.Connect(context.Background(), sharedcache.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to connect to redis")
	}
	defer func() {
		if err := shared.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing redis connection")
		}
	}()
	logging.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to redis")

	// Entitlement provider client with circuit breaker for fault tolerance.
	// The circuit breaker prevents cascading failures when RevenueCat is
	// unavailable; sustained provider errors flip checks to fail-open.
	provider := entitlements.NewProviderClient(&cfg.Entitlements)
	checker := entitlements.New(&cfg.Entitlements, db, shared, provider)
	defer checker.Close()

	// Token signing and verification
	signer, err := auth.NewSigner(&cfg.Auth)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create JWT signer")
	}
	tokens := auth.NewAdminTokenManager(db)

	enforcer, err := authz.NewEnforcer()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create authorization enforcer")
	}

	// Domain services share the cache tiers through their view coordinators
	journeysSvc := journeys.New(db, signer, local, shared)
	dailyEventsSvc := dailyevents.New(db, signer, local, shared)
	instructorsSvc := instructors.New(db)
	usersSvc := users.New(db)

	router := api.New(api.Deps{
		Config:       cfg,
		Signer:       signer,
		Tokens:       tokens,
		Enforcer:     enforcer,
		Journeys:     journeysSvc,
		DailyEvents:  dailyEventsSvc,
		Instructors:  instructorsSvc,
		Users:        usersSvc,
		Entitlements: checker,
		DB:           db,
		Shared:       shared,
	})

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge zerolog to slog for sutureslog compatibility
	slogLogger := logging.NewSlogLogger()

	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// Data layer: cache maintenance
	tree.AddDataService(services.NewCacheGCService(local, cfg.LocalCache.GCInterval))
	tree.AddDataService(services.NewPremiereWarmerService(dailyEventsSvc, 30*time.Second))

	// Messaging layer: eviction pub/sub for both view coordinators
	subscriber := viewcache.NewSubscriber(shared,
		journeysSvc.Coordinator(),
		dailyEventsSvc.Coordinator(),
	)
	tree.AddMessagingService(subscriber)

	// API layer: HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Routes(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server configured")

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// Wait for supervisor to finish (either from signal or error)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
