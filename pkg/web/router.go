// Copyright 2026 Krafter Authors
// SPDX-License-Identifier: AGPL-3.0

package web

import (
	"net/http"

	chi "github.com/go-chi/chi/v5"
	middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/krafter/backend/internal/logging"
	"github.com/krafter/backend/internal/monitoring"
	"github.com/krafter/backend/internal/tracing"
	"github.com/krafter/backend/pkg/auth"
	"github.com/krafter/backend/pkg/authentication"
	"github.com/krafter/backend/pkg/metrics"
	"github.com/krafter/backend/pkg/realtime"
	"github.com/krafter/backend/pkg/status"
	"github.com/krafter/backend/pkg/tenancy"
)

func NewRouter(
	authAPI *auth.API,
	authnMiddleware *authentication.Middleware,
	tenantMiddleware *tenancy.Middleware,
	realtimeHandler *realtime.Handler,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) http.Handler {
	router := chi.NewMux()

	middlewares := make(chi.Middlewares, 0)
	middlewares = append(
		middlewares,
		middleware.RequestID,
		monitoring.NewMiddleware(monitor, logger).ResponseTime(),
		middlewareCORS([]string{"*"}),
	)

	router.Use(middlewares...)

	// Operational endpoints stay outside the tenant pipeline so scrapes and
	// probes never depend on tenant state.
	metrics.NewAPI(logger).RegisterEndpoints(router)
	status.NewAPI(tracer, monitor, logger).RegisterEndpoints(router)

	// The realtime handler runs its own tenant resolution on the handshake.
	realtimeHandler.RegisterEndpoints(router)

	// Token endpoints resolve a tenant (identified users get it attributed)
	// but must stay reachable without one, so only Identify runs ahead.
	router.Group(func(r chi.Router) {
		r.Use(authnMiddleware.Identify())
		r.Use(tenantMiddleware.ResolveTenant())

		authAPI.RegisterEndpoints(r)
	})

	// Everything else requires a valid bearer token and a resolved tenant.
	router.Group(func(r chi.Router) {
		r.Use(authnMiddleware.Authenticate())
		r.Use(tenantMiddleware.ResolveTenant())

		tenancy.NewAPI(tracer, logger).RegisterEndpoints(r)
	})

	return tracing.NewMiddleware(monitor, logger).OpenTelemetry(router)
}

func middlewareCORS(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", tenancy.IdentifierHeader},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
