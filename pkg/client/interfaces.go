// Copyright 2026 Krafter Authors
// SPDX-License-Identifier: AGPL-3.0

package client

import (
	"context"

	"github.com/krafter/backend/internal/types"
)

// CredentialStoreInterface holds the caller's token pair. Implementations are
// the in-memory store (browser-storage analogue) and the redis-backed cache.
type CredentialStoreInterface interface {
	Credential(ctx context.Context) (*types.Credential, error)
	SetCredential(ctx context.Context, c *types.Credential) error
	// Clear removes everything, used on logout.
	Clear(ctx context.Context) error
}

// RefresherInterface performs the actual credential refresh call and writes
// the new pair into the credential store on success.
type RefresherInterface interface {
	Refresh(ctx context.Context) error
}
