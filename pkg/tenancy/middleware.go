// Copyright 2026 Krafter Authors
// SPDX-License-Identifier: AGPL-3.0

package tenancy

import (
	"encoding/json"
	"net/http"

	"github.com/krafter/backend/internal/logging"
	"github.com/krafter/backend/internal/monitoring"
	"github.com/krafter/backend/internal/tracing"
	"github.com/krafter/backend/pkg/authentication"
)

// Middleware resolves the tenant for every request before downstream handlers
// run. Resolution failures terminate the request; there is no caching across
// requests, so a tenant deactivated mid-session is rejected on its next call.
type Middleware struct {
	finder FinderInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewMiddleware(finder FinderInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Middleware {
	return &Middleware{
		finder:  finder,
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}

func (m *Middleware) ResolveTenant() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := m.tracer.Start(r.Context(), "tenancy.Middleware.ResolveTenant")
			defer span.End()

			identifier := IdentifierFromRequest(r)

			tenant, err := m.finder.Find(ctx, identifier)
			if err != nil {
				m.rejectedResponse(w, identifier, err)
				return
			}

			userID, _ := authentication.GetUserID(ctx)
			current := BuildCurrentTenant(tenant, RequestOrigin(r), r.Host, RemoteIP(r), userID)

			ctx = WithCurrentTenant(ctx, current)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (m *Middleware) rejectedResponse(w http.ResponseWriter, identifier string, err error) {
	m.logger.Debugf("tenant resolution failed for %q: %v", identifier, err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(StatusCode(err))
	if encErr := json.NewEncoder(w).Encode(map[string]interface{}{
		"error": err.Error(),
	}); encErr != nil {
		m.logger.Errorf("failed to encode tenant rejection response: %v", encErr)
	}
}
