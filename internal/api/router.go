// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oseh/backend/internal/auth"
	"github.com/oseh/backend/internal/authz"
	"github.com/oseh/backend/internal/config"
	"github.com/oseh/backend/internal/dailyevents"
	"github.com/oseh/backend/internal/database"
	"github.com/oseh/backend/internal/entitlements"
	"github.com/oseh/backend/internal/instructors"
	"github.com/oseh/backend/internal/journeys"
	"github.com/oseh/backend/internal/middleware"
	"github.com/oseh/backend/internal/sharedcache"
	"github.com/oseh/backend/internal/users"
)

// Deps collects everything the router needs. All fields are required.
type Deps struct {
	Config       *config.Config
	Signer       *auth.Signer
	Tokens       *auth.AdminTokenManager
	Enforcer     *authz.Enforcer
	Journeys     *journeys.Service
	DailyEvents  *dailyevents.Service
	Instructors  *instructors.Service
	Users        *users.Service
	Entitlements *entitlements.Checker
	DB           *database.DB
	Shared       *sharedcache.Client
}

// Router holds handler dependencies and builds the route tree.
type Router struct {
	cfg          *config.Config
	signer       *auth.Signer
	tokens       *auth.AdminTokenManager
	enforcer     *authz.Enforcer
	journeys     *journeys.Service
	dailyEvents  *dailyevents.Service
	instructors  *instructors.Service
	users        *users.Service
	entitlements *entitlements.Checker
	db           *database.DB
	shared       *sharedcache.Client
	force        *forceLimiter
}

// New creates a router from its dependencies.
func New(d Deps) *Router {
	return &Router{
		cfg:          d.Config,
		signer:       d.Signer,
		tokens:       d.Tokens,
		enforcer:     d.Enforcer,
		journeys:     d.Journeys,
		dailyEvents:  d.DailyEvents,
		instructors:  d.Instructors,
		users:        d.Users,
		entitlements: d.Entitlements,
		db:           d.DB,
		shared:       d.Shared,
		force:        newForceLimiter(d.Config.API.ForceRefreshPerMinute),
	}
}

// Routes builds the full route tree.
//
// Ops endpoints (/healthz, /readyz, /metrics) sit outside /api/1 and skip
// auth, rate limiting, and compression. Everything under /api/1 is rate
// limited by client IP and served compressed when the client asks for it.
func (rt *Router) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.Prometheus)

	r.Get("/healthz", rt.Healthz)
	r.Get("/readyz", rt.Readyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/1", func(r chi.Router) {
		r.Use(httprate.LimitByIP(rt.cfg.API.RateLimitReqs, rt.cfg.API.RateLimitWindow))
		r.Use(middleware.Compression)

		// User surface: rendered views and entitlement checks.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireUser(rt.signer))

			r.Get("/journeys/{uid}", rt.GetJourney)
			r.Get("/daily_events/now", rt.GetCurrentDailyEvent)
			r.Get("/users/me/entitlements/{identifier}", rt.GetEntitlement)
		})

		// Admin surface: personal access tokens plus per-object role checks.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin(rt.tokens))

			read := func(object string) func(http.Handler) http.Handler {
				return authz.Require(rt.enforcer, object, authz.ActionRead)
			}
			write := func(object string) func(http.Handler) http.Handler {
				return authz.Require(rt.enforcer, object, authz.ActionWrite)
			}

			r.With(read(authz.ObjectJourneys)).Post("/journeys/search", rt.SearchJourneys)
			r.With(write(authz.ObjectJourneys)).Put("/journeys/{uid}", rt.UpdateJourney)
			r.With(write(authz.ObjectJourneys)).Delete("/journeys/{uid}", rt.DeleteJourney)

			r.With(read(authz.ObjectDailyEvents)).Post("/daily_events/search", rt.SearchDailyEvents)
			r.With(write(authz.ObjectDailyEvents)).Post("/daily_events", rt.CreateDailyEvent)
			r.With(write(authz.ObjectDailyEvents)).Post("/daily_events/{uid}/journeys", rt.AddDailyEventJourney)
			r.With(write(authz.ObjectDailyEvents)).Post("/daily_events/{uid}/premiere", rt.PremiereDailyEvent)

			r.With(read(authz.ObjectInstructors)).Post("/instructors/search", rt.SearchInstructors)
			r.With(read(authz.ObjectInstructors)).Get("/instructors/{uid}", rt.GetInstructor)
			r.With(write(authz.ObjectInstructors)).Post("/instructors", rt.CreateInstructor)

			r.With(read(authz.ObjectUsers)).Post("/users/search", rt.SearchUsers)
			r.With(write(authz.ObjectUsers)).Post("/users", rt.CreateUser)

			r.With(read(authz.ObjectAdminTokens)).Get("/admin_tokens", rt.ListAdminTokens)
			r.With(write(authz.ObjectAdminTokens)).Post("/admin_tokens", rt.CreateAdminToken)
			r.With(write(authz.ObjectAdminTokens)).Delete("/admin_tokens/{uid}", rt.RevokeAdminToken)
		})
	})

	return r
}
