// Copyright 2026 Krafter Authors
// SPDX-License-Identifier: AGPL-3.0

package tenancy

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/krafter/backend/internal/logging"
	"github.com/krafter/backend/internal/monitoring"
	"github.com/krafter/backend/internal/tracing"
	"github.com/krafter/backend/internal/types"
	"github.com/krafter/backend/pkg/authentication"
)

func newTestMiddleware(store TenantStoreInterface, root *types.Tenant, strict bool) *Middleware {
	finder := newTestFinder(store, root, strict)
	return NewMiddleware(finder, tracing.NewNoopTracer(), monitoring.NewNoopMonitor("test"), logging.NewNoopLogger())
}

func TestMiddleware_ResolveTenant(t *testing.T) {
	root := RootTenant("krafter")
	acme := activeTenant("tenant-1", "acme")

	inactive := activeTenant("tenant-2", "dormant")
	inactive.IsActive = false

	store := &fakeTenantStore{tenants: map[string]*types.Tenant{
		"acme":    acme,
		"dormant": inactive,
	}}

	testCases := []struct {
		name           string
		host           string
		header         string
		expectedStatus int
		expectedID     string
	}{
		{
			name:           "subdomain resolves tenant",
			host:           "acme.krafter.io",
			expectedStatus: http.StatusOK,
			expectedID:     acme.ID,
		},
		{
			name:           "header resolves tenant",
			host:           "krafter.io",
			header:         "acme",
			expectedStatus: http.StatusOK,
			expectedID:     acme.ID,
		},
		{
			name:           "unknown subdomain falls back to root",
			host:           "nobody.krafter.io",
			expectedStatus: http.StatusOK,
			expectedID:     root.ID,
		},
		{
			name:           "inactive tenant is rejected",
			host:           "dormant.krafter.io",
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mdw := newTestMiddleware(store, root, false)

			var resolved *CurrentTenant
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				resolved, _ = CurrentTenantFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			r := httptest.NewRequest("GET", "http://example.com/api/tenant/current", nil)
			r.Host = tc.host
			if tc.header != "" {
				r.Header.Set(IdentifierHeader, tc.header)
			}
			w := httptest.NewRecorder()

			mdw.ResolveTenant()(next).ServeHTTP(w, r)

			if w.Code != tc.expectedStatus {
				t.Fatalf("expected status %d, got %d", tc.expectedStatus, w.Code)
			}

			if tc.expectedStatus != http.StatusOK {
				var body map[string]interface{}
				if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
					t.Fatalf("rejection body is not JSON: %v", err)
				}
				if _, ok := body["error"]; !ok {
					t.Fatal("rejection body has no error field")
				}
				if resolved != nil {
					t.Fatal("handler must not run on rejection")
				}
				return
			}

			if resolved == nil {
				t.Fatal("expected current tenant in handler context")
			}
			if resolved.ID != tc.expectedID {
				t.Fatalf("expected tenant %q, got %q", tc.expectedID, resolved.ID)
			}
		})
	}
}

func TestMiddleware_ResolveTenantCarriesUserID(t *testing.T) {
	store := &fakeTenantStore{tenants: map[string]*types.Tenant{}}
	mdw := newTestMiddleware(store, RootTenant("krafter"), false)

	var resolved *CurrentTenant
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resolved, _ = CurrentTenantFromContext(r.Context())
	})

	r := httptest.NewRequest("GET", "http://krafter.io/", nil)
	r = r.WithContext(authentication.WithUserID(r.Context(), "user-42"))
	w := httptest.NewRecorder()

	mdw.ResolveTenant()(next).ServeHTTP(w, r)

	if resolved == nil || resolved.UserID != "user-42" {
		t.Fatalf("expected user-42 on current tenant, got %+v", resolved)
	}
}

func TestMiddleware_ResolveTenantFreshPerRequest(t *testing.T) {
	acme := activeTenant("tenant-1", "acme")
	beta := activeTenant("tenant-2", "beta")
	store := &fakeTenantStore{tenants: map[string]*types.Tenant{"acme": acme, "beta": beta}}
	mdw := newTestMiddleware(store, RootTenant("krafter"), false)

	seen := make([]string, 0, 2)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		current, _ := CurrentTenantFromContext(r.Context())
		seen = append(seen, current.ID)
	})
	handler := mdw.ResolveTenant()(next)

	for _, host := range []string{"acme.krafter.io", "beta.krafter.io"} {
		r := httptest.NewRequest("GET", "http://example.com/", nil)
		r.Host = host
		handler.ServeHTTP(httptest.NewRecorder(), r)
	}

	if seen[0] != "tenant-1" || seen[1] != "tenant-2" {
		t.Fatalf("resolution leaked across requests: %v", seen)
	}
}

func TestMiddleware_ExpiredTenantRejectedMidSession(t *testing.T) {
	acme := activeTenant("tenant-1", "acme")
	store := &fakeTenantStore{tenants: map[string]*types.Tenant{"acme": acme}}
	mdw := newTestMiddleware(store, RootTenant("krafter"), false)

	handler := mdw.ResolveTenant()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	r := httptest.NewRequest("GET", "http://acme.krafter.io/", nil)
	r.Host = "acme.krafter.io"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("expected initial request to pass, got %d", w.Code)
	}

	// No caching: the next request observes the updated record immediately.
	acme.ValidUpto = time.Now().UTC().Add(-time.Minute)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r.Clone(r.Context()))
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected expired tenant to be rejected, got %d", w.Code)
	}
}
