// Copyright 2026 Krafter Authors
// SPDX-License-Identifier: AGPL-3.0

package tenancy

import (
	"context"

	"github.com/krafter/backend/internal/types"
)

// CurrentTenant carries the resolved tenant plus request-derived facts for the
// lifetime of one request or connection. It is built once by the middleware,
// read-only downstream, and never shared across requests.
type CurrentTenant struct {
	types.Tenant

	// TenantLink is the request origin (scheme://host, no path), used to build
	// tenant-specific URLs.
	TenantLink string
	// Host is the canonical https link to the host the request arrived on.
	Host      string
	IPAddress string
	UserID    string
}

// Define a private custom type to avoid collisions
type contextKey struct{}

var currentTenantKey = contextKey{}

// WithCurrentTenant returns a new context carrying the current tenant details.
func WithCurrentTenant(ctx context.Context, t *CurrentTenant) context.Context {
	return context.WithValue(ctx, currentTenantKey, t)
}

// CurrentTenantFromContext retrieves the current tenant details from the context.
func CurrentTenantFromContext(ctx context.Context) (*CurrentTenant, bool) {
	t, ok := ctx.Value(currentTenantKey).(*CurrentTenant)
	return t, ok
}

// BuildCurrentTenant copies the tenant record and attaches the request facts.
// The returned value is owned by the calling request scope.
func BuildCurrentTenant(tenant *types.Tenant, origin, host, remoteIP, userID string) *CurrentTenant {
	return &CurrentTenant{
		Tenant:     *tenant,
		TenantLink: origin,
		Host:       "https://" + host,
		IPAddress:  remoteIP,
		UserID:     userID,
	}
}
