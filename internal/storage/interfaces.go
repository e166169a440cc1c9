// Copyright 2026 Krafter Authors
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"

	"github.com/krafter/backend/internal/types"
)

// TenantStoreInterface is the read/write surface over the tenants table. The
// resolver only uses GetTenantByIdentifier; the rest serves provisioning tooling.
type TenantStoreInterface interface {
	GetTenantByIdentifier(ctx context.Context, identifier string) (*types.Tenant, error)
	GetTenantByID(ctx context.Context, id string) (*types.Tenant, error)
	ListTenants(ctx context.Context) ([]*types.Tenant, error)
	CreateTenant(ctx context.Context, t *types.Tenant) (*types.Tenant, error)
	UpdateTenant(ctx context.Context, t *types.Tenant, paths []string) error
	DeleteTenant(ctx context.Context, id, reason string) error
}

// RefreshTokenStoreInterface persists the single refresh token per user.
type RefreshTokenStoreInterface interface {
	GetRefreshToken(ctx context.Context, userID string) (*types.RefreshToken, error)
	UpsertRefreshToken(ctx context.Context, t *types.RefreshToken) error
	DeleteRefreshToken(ctx context.Context, userID string) error
}
