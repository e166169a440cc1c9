// Copyright 2026 Krafter Authors
// SPDX-License-Identifier: AGPL-3.0

package tenancy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/krafter/backend/internal/logging"
	"github.com/krafter/backend/internal/monitoring"
	"github.com/krafter/backend/internal/storage"
	"github.com/krafter/backend/internal/tracing"
	"github.com/krafter/backend/internal/types"
)

var _ FinderInterface = (*Finder)(nil)

// RootTenant synthesizes the fallback tenant used when no tenant row backs the
// root identifier. It never expires and is always active.
func RootTenant(identifier string) *types.Tenant {
	return &types.Tenant{
		ID:         "root",
		Identifier: identifier,
		Name:       "Root",
		IsActive:   true,
		ValidUpto:  time.Now().UTC().AddDate(100, 0, 0),
	}
}

// Finder resolves a request identifier to a tenant record. A blank identifier
// resolves to the root tenant. An unknown identifier also resolves to the root
// tenant unless strict matching is enabled; callers needing hard isolation must
// either enable strict mode or compare the returned identifier themselves.
type Finder struct {
	store  TenantStoreInterface
	root   *types.Tenant
	strict bool

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewFinder(
	store TenantStoreInterface,
	root *types.Tenant,
	strict bool,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Finder {
	return &Finder{
		store:   store,
		root:    root,
		strict:  strict,
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}

func (f *Finder) Find(ctx context.Context, identifier string) (*types.Tenant, error) {
	ctx, span := f.tracer.Start(ctx, "tenancy.Finder.Find")
	defer span.End()

	if strings.TrimSpace(identifier) == "" {
		return f.root, nil
	}

	tenant, err := f.store.GetTenantByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			if f.strict {
				return nil, fmt.Errorf("%w: %s", ErrTenantNotFound, identifier)
			}
			return f.root, nil
		}
		return nil, fmt.Errorf("tenant lookup failed: %w", err)
	}

	if !tenant.IsActive {
		f.logger.Security().TenantRejected(identifier, "inactive")
		return nil, ErrTenantInactive
	}

	if tenant.ValidUpto.Before(time.Now().UTC()) {
		f.logger.Security().TenantRejected(identifier, "expired")
		return nil, ErrTenantExpired
	}

	return tenant, nil
}
