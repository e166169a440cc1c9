// Copyright 2026 Krafter Authors
// SPDX-License-Identifier: AGPL-3.0

package auth

import (
	"context"

	"github.com/krafter/backend/internal/types"
	"github.com/krafter/backend/pkg/authentication"
)

type ServiceInterface interface {
	CreateToken(ctx context.Context, email, password, ipAddress string) (*types.Credential, error)
	RefreshToken(ctx context.Context, accessToken, refreshToken, ipAddress string) (*types.Credential, error)
	ExternalLogin(ctx context.Context, rawIDToken, ipAddress string) (*types.Credential, error)
	Logout(ctx context.Context, userID string) error
}

// RefreshTokenStoreInterface is the subset of the storage layer this package needs.
type RefreshTokenStoreInterface interface {
	GetRefreshToken(ctx context.Context, userID string) (*types.RefreshToken, error)
	UpsertRefreshToken(ctx context.Context, t *types.RefreshToken) error
	DeleteRefreshToken(ctx context.Context, userID string) error
}

// TxRunnerInterface runs a function inside a database transaction; the store
// calls made with the inner context join that transaction.
type TxRunnerInterface interface {
	WithTx(ctx context.Context, fn func(context.Context) error) error
}

// IdentityProviderInterface abstracts the user directory; user management
// itself lives outside this service.
type IdentityProviderInterface interface {
	VerifyPassword(ctx context.Context, email, password string) (*UserAccount, error)
	GetByEmail(ctx context.Context, email string) (*UserAccount, error)
}

// ExternalVerifierInterface validates third-party ID tokens.
type ExternalVerifierInterface interface {
	VerifyIDToken(ctx context.Context, rawToken string) (*authentication.ExternalIdentity, error)
}

// UserAccount is the directory record needed to issue tokens.
type UserAccount struct {
	ID          string
	Email       string
	Permissions []string
}
