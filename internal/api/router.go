// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/tomtom215/tutorhub/internal/auth"
	"github.com/tomtom215/tutorhub/internal/authz"
	"github.com/tomtom215/tutorhub/internal/middleware"
)

// compressionLevel is the gzip level for JSON responses.
const compressionLevel = 5

// RouterConfig holds router options.
type RouterConfig struct {
	Middleware     *ChiMiddlewareConfig
	SwaggerEnabled bool
}

// Router wires handlers to routes.
type Router struct {
	handler        *Handler
	auth           *auth.Middleware
	authz          *authz.Middleware
	chiMiddleware  *ChiMiddleware
	swaggerEnabled bool
}

// NewRouter creates a router. Authentication and authorization failures are
// rendered in the API envelope.
func NewRouter(handler *Handler, authenticator auth.Authenticator, users auth.UserStore, enforcer *authz.Enforcer, cfg RouterConfig) *Router {
	return &Router{
		handler:        handler,
		auth:           auth.NewMiddleware(authenticator, users, writeError),
		authz:          authz.NewMiddleware(enforcer, writeError),
		chiMiddleware:  NewChiMiddleware(cfg.Middleware),
		swaggerEnabled: cfg.SwaggerEnabled,
	}
}

// Setup builds the chi handler tree.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.AccessLog)
	r.Use(router.chiMiddleware.CORS()) // CORS must be global to handle OPTIONS preflight

	r.NotFound(respondNotFound)
	r.MethodNotAllowed(respondMethodNotAllowed)

	h := router.handler
	can := router.authz.Require

	r.Route("/api", func(r chi.Router) {
		// ========================
		// Health Endpoints
		// ========================
		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitHealth())
			r.Get("/health/live", h.HealthLive)
			r.Get("/health/ready", h.HealthReady)
		})

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit())
			r.Use(router.auth.Authenticate)

			// Registration needs a verified subject but no user row yet.
			r.Post("/users/register", h.RegisterUser)

			r.Group(func(r chi.Router) {
				r.Use(router.auth.RequireUser)

				// Upgraded connections bypass compression.
				r.With(can(authz.ObjectReport, authz.ActionRead)).Get("/reports/session/{id}/events", h.ReportEvents)

				r.Group(func(r chi.Router) {
					r.Use(chimiddleware.Compress(compressionLevel, "application/json"))
					router.registerUserRoutes(r)
					router.registerSessionRoutes(r)
					router.registerRatingRoutes(r)
					router.registerReportRoutes(r)
					router.registerAdminRoutes(r)
				})
			})
		})
	})

	// ========================
	// Observability
	// ========================
	r.Handle("/metrics", promhttp.Handler())
	if router.swaggerEnabled {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
			httpSwagger.DeepLinking(true),
			httpSwagger.DocExpansion("list"),
			httpSwagger.DomID("swagger-ui"),
		))
	}

	return r
}

func (router *Router) registerUserRoutes(r chi.Router) {
	r.With(router.authz.Require(authz.ObjectUser, authz.ActionRead)).Get("/users/me", router.handler.Me)
}

func (router *Router) registerSessionRoutes(r chi.Router) {
	h := router.handler
	can := router.authz.Require

	r.Route("/sessions", func(r chi.Router) {
		r.With(can(authz.ObjectSession, authz.ActionCreate)).Post("/", h.CreateSession)
		r.With(can(authz.ObjectSession, authz.ActionRead)).Get("/", h.ListSessions)

		r.Route("/{id}", func(r chi.Router) {
			r.With(can(authz.ObjectSession, authz.ActionRead)).Get("/", h.GetSession)
			r.With(can(authz.ObjectSession, authz.ActionCancel)).Delete("/", h.CancelSession)
			r.With(can(authz.ObjectSession, authz.ActionUpdate)).Patch("/status", h.UpdateSessionStatus)
			r.With(can(authz.ObjectRoom, authz.ActionJoin)).Get("/room", h.RoomToken)
			r.With(can(authz.ObjectMessage, authz.ActionWrite)).Post("/messages", h.PostMessage)
			r.With(can(authz.ObjectMessage, authz.ActionRead)).Get("/messages", h.ListMessages)
			r.With(can(authz.ObjectNote, authz.ActionWrite)).Put("/notes", h.SaveNote)
			r.With(can(authz.ObjectNote, authz.ActionRead)).Get("/notes", h.GetNote)
		})
	})
}

func (router *Router) registerRatingRoutes(r chi.Router) {
	h := router.handler
	can := router.authz.Require

	r.With(can(authz.ObjectRating, authz.ActionCreate)).Post("/ratings/session/{id}", h.SubmitRating)
	r.With(can(authz.ObjectRating, authz.ActionRead)).Get("/ratings/session/{id}", h.GetRating)
}

func (router *Router) registerReportRoutes(r chi.Router) {
	h := router.handler
	can := router.authz.Require

	r.With(can(authz.ObjectReport, authz.ActionList)).Get("/reports", h.ListTutorReports)
	r.With(can(authz.ObjectReport, authz.ActionCreate)).Post("/reports/session/{id}", h.EnqueueReport)
	r.With(can(authz.ObjectReport, authz.ActionRead)).Get("/reports/session/{id}", h.GetReport)
	r.With(can(authz.ObjectReport, authz.ActionRead)).Get("/reports/session/{id}/status", h.ReportStatus)
}

func (router *Router) registerAdminRoutes(r chi.Router) {
	h := router.handler
	can := router.authz.Require

	r.Route("/admin", func(r chi.Router) {
		r.With(can(authz.ObjectTutorMetrics, authz.ActionRead)).Get("/tutors/{id}/metrics", h.GetTutorMetrics)
		r.With(can(authz.ObjectTutorMetrics, authz.ActionRecalculate)).Post("/tutors/{id}/metrics/recalculate", h.RecalculateTutorMetrics)
		r.With(can(authz.ObjectQueue, authz.ActionRead)).Get("/queue", h.QueueOverview)
	})
}
