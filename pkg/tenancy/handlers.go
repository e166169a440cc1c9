// Copyright 2026 Krafter Authors
// SPDX-License-Identifier: AGPL-3.0

package tenancy

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/krafter/backend/internal/logging"
	"github.com/krafter/backend/internal/tracing"
)

type API struct {
	tracer tracing.TracingInterface
	logger logging.LoggerInterface
}

func NewAPI(tracer tracing.TracingInterface, logger logging.LoggerInterface) *API {
	return &API{
		tracer: tracer,
		logger: logger,
	}
}

func (a *API) RegisterEndpoints(mux chi.Router) {
	mux.Get("/api/tenant/current", a.currentTenant)
}

// currentTenant echoes the details the middleware resolved for this request.
func (a *API) currentTenant(w http.ResponseWriter, r *http.Request) {
	_, span := a.tracer.Start(r.Context(), "tenancy.API.currentTenant")
	defer span.End()

	current, ok := CurrentTenantFromContext(r.Context())
	if !ok {
		http.Error(w, "no tenant resolved", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"id":          current.ID,
		"identifier":  current.Identifier,
		"name":        current.Name,
		"tenant_link": current.TenantLink,
		"host":        current.Host,
		"user_id":     current.UserID,
	}); err != nil {
		a.logger.Errorf("failed to encode current tenant response: %v", err)
	}
}
