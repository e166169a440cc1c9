// Copyright 2026 Krafter Authors
// SPDX-License-Identifier: AGPL-3.0

package tenancy

import (
	"context"

	"github.com/krafter/backend/internal/types"
)

type FinderInterface interface {
	Find(ctx context.Context, identifier string) (*types.Tenant, error)
}

// TenantStoreInterface is the subset of the storage layer the finder needs.
type TenantStoreInterface interface {
	GetTenantByIdentifier(ctx context.Context, identifier string) (*types.Tenant, error)
}
