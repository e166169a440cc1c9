// Copyright 2026 Krafter Authors
// SPDX-License-Identifier: AGPL-3.0

package tenancy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/krafter/backend/internal/logging"
	"github.com/krafter/backend/internal/monitoring"
	"github.com/krafter/backend/internal/storage"
	"github.com/krafter/backend/internal/tracing"
	"github.com/krafter/backend/internal/types"
)

type fakeTenantStore struct {
	tenants map[string]*types.Tenant
	err     error
}

func (f *fakeTenantStore) GetTenantByIdentifier(ctx context.Context, identifier string) (*types.Tenant, error) {
	if f.err != nil {
		return nil, f.err
	}
	tenant, ok := f.tenants[identifier]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return tenant, nil
}

func activeTenant(id, identifier string) *types.Tenant {
	return &types.Tenant{
		ID:         id,
		Identifier: identifier,
		IsActive:   true,
		ValidUpto:  time.Now().UTC().Add(24 * time.Hour),
	}
}

func newTestFinder(store TenantStoreInterface, root *types.Tenant, strict bool) *Finder {
	return NewFinder(store, root, strict, tracing.NewNoopTracer(), monitoring.NewNoopMonitor("test"), logging.NewNoopLogger())
}

func TestFinder_Find(t *testing.T) {
	root := RootTenant("krafter")
	acme := activeTenant("tenant-1", "acme")

	inactive := activeTenant("tenant-2", "dormant")
	inactive.IsActive = false

	expired := activeTenant("tenant-3", "lapsed")
	expired.ValidUpto = time.Now().UTC().Add(-time.Hour)

	store := &fakeTenantStore{tenants: map[string]*types.Tenant{
		"acme":    acme,
		"dormant": inactive,
		"lapsed":  expired,
	}}

	testCases := []struct {
		name        string
		identifier  string
		strict      bool
		expectedID  string
		expectedErr error
	}{
		{
			name:       "known identifier resolves to its tenant",
			identifier: "acme",
			expectedID: acme.ID,
		},
		{
			name:       "blank identifier resolves to root",
			identifier: "",
			expectedID: root.ID,
		},
		{
			name:       "whitespace identifier resolves to root",
			identifier: "   ",
			expectedID: root.ID,
		},
		{
			name:       "unknown identifier falls back to root",
			identifier: "nobody",
			expectedID: root.ID,
		},
		{
			name:        "unknown identifier errors in strict mode",
			identifier:  "nobody",
			strict:      true,
			expectedErr: ErrTenantNotFound,
		},
		{
			name:        "inactive tenant is rejected",
			identifier:  "dormant",
			expectedErr: ErrTenantInactive,
		},
		{
			name:        "expired tenant is rejected",
			identifier:  "lapsed",
			expectedErr: ErrTenantExpired,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			finder := newTestFinder(store, root, tc.strict)

			tenant, err := finder.Find(context.Background(), tc.identifier)

			if tc.expectedErr != nil {
				if !errors.Is(err, tc.expectedErr) {
					t.Fatalf("expected error %v, got %v", tc.expectedErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tenant.ID != tc.expectedID {
				t.Fatalf("expected tenant %q, got %q", tc.expectedID, tenant.ID)
			}
		})
	}
}

func TestFinder_FindStoreFailure(t *testing.T) {
	storeErr := errors.New("connection refused")
	finder := newTestFinder(&fakeTenantStore{err: storeErr}, RootTenant("krafter"), false)

	if _, err := finder.Find(context.Background(), "acme"); !errors.Is(err, storeErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestFinder_RejectionStatusCodes(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected int
	}{
		{"not found", ErrTenantNotFound, 404},
		{"inactive", ErrTenantInactive, 403},
		{"expired", ErrTenantExpired, 403},
		{"other", errors.New("boom"), 500},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StatusCode(tc.err); got != tc.expected {
				t.Fatalf("expected status %d, got %d", tc.expected, got)
			}
		})
	}
}
