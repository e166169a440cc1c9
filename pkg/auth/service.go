// Copyright 2026 Krafter Authors
// SPDX-License-Identifier: AGPL-3.0

package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/krafter/backend/internal/logging"
	"github.com/krafter/backend/internal/monitoring"
	"github.com/krafter/backend/internal/storage"
	"github.com/krafter/backend/internal/tracing"
	"github.com/krafter/backend/internal/types"
	"github.com/krafter/backend/pkg/authentication"
)

var _ ServiceInterface = (*Service)(nil)

// Service issues, refreshes and revokes credentials. Refresh tokens rotate on
// every use; the previous token becomes invalid the moment a new pair is
// persisted.
type Service struct {
	issuer   *TokenIssuer
	verifier *authentication.HMACVerifier
	users    IdentityProviderInterface
	external ExternalVerifierInterface
	store    RefreshTokenStoreInterface
	tx       TxRunnerInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewService(
	issuer *TokenIssuer,
	verifier *authentication.HMACVerifier,
	users IdentityProviderInterface,
	external ExternalVerifierInterface,
	store RefreshTokenStoreInterface,
	tx TxRunnerInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Service {
	return &Service{
		issuer:   issuer,
		verifier: verifier,
		users:    users,
		external: external,
		store:    store,
		tx:       tx,
		tracer:   tracer,
		monitor:  monitor,
		logger:   logger,
	}
}

// CreateToken authenticates the email/password pair and issues a credential.
func (s *Service) CreateToken(ctx context.Context, email, password, ipAddress string) (*types.Credential, error) {
	ctx, span := s.tracer.Start(ctx, "auth.Service.CreateToken")
	defer span.End()

	account, err := s.users.VerifyPassword(ctx, email, password)
	if err != nil {
		s.logger.Security().AuthFailure(email, "password verification failed")
		return nil, ErrInvalidCredentials
	}

	return s.issueAndStore(ctx, account, ipAddress)
}

// RefreshToken rotates the credential pair. The access token only needs a
// valid signature; its lifetime claims are ignored so expired tokens can be
// exchanged. The refresh token must match the stored record exactly and be
// unexpired. Validation and rotation run in one transaction so two concurrent
// exchanges of the same token cannot both succeed.
func (s *Service) RefreshToken(ctx context.Context, accessToken, refreshToken, ipAddress string) (*types.Credential, error) {
	ctx, span := s.tracer.Start(ctx, "auth.Service.RefreshToken")
	defer span.End()

	userID, err := s.verifier.VerifyExpiredToken(ctx, accessToken)
	if err != nil {
		s.logger.Security().AuthFailure("", "refresh with unverifiable access token")
		return nil, ErrInvalidRefreshToken
	}

	var credential *types.Credential
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		stored, err := s.store.GetRefreshToken(ctx, userID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				s.logger.Security().AuthFailure(userID, "refresh without stored token")
				return ErrInvalidRefreshToken
			}
			return fmt.Errorf("failed to load refresh token: %w", err)
		}

		if subtle.ConstantTimeCompare([]byte(stored.Token), []byte(refreshToken)) != 1 {
			s.logger.Security().AuthFailure(userID, "refresh token mismatch")
			return ErrInvalidRefreshToken
		}

		if time.Now().UTC().After(stored.ExpiresAt) {
			s.logger.Security().AuthFailure(userID, "refresh token expired")
			return ErrInvalidRefreshToken
		}

		account := &UserAccount{
			ID:          userID,
			Email:       emailFromToken(accessToken),
			Permissions: authentication.Permissions(accessToken),
		}

		credential, err = s.issuer.IssueCredential(account)
		if err != nil {
			return err
		}

		return s.store.UpsertRefreshToken(ctx, &types.RefreshToken{
			UserID:    userID,
			Token:     credential.RefreshToken,
			ExpiresAt: credential.RefreshExpiresAt,
			IPAddress: ipAddress,
		})
	})
	if err != nil {
		return nil, err
	}

	return credential, nil
}

// ExternalLogin exchanges a third-party ID token for our own credential. The
// external identity must map onto an existing directory account by email.
func (s *Service) ExternalLogin(ctx context.Context, rawIDToken, ipAddress string) (*types.Credential, error) {
	ctx, span := s.tracer.Start(ctx, "auth.Service.ExternalLogin")
	defer span.End()

	if s.external == nil {
		return nil, ErrExternalAuthFailed
	}

	identity, err := s.external.VerifyIDToken(ctx, rawIDToken)
	if err != nil {
		s.logger.Security().AuthFailure("", "external id token rejected")
		return nil, ErrExternalAuthFailed
	}

	account, err := s.users.GetByEmail(ctx, identity.Email)
	if err != nil {
		s.logger.Security().AuthFailure(identity.Email, "external identity has no account")
		return nil, ErrExternalAuthFailed
	}

	return s.issueAndStore(ctx, account, ipAddress)
}

// Logout revokes the stored refresh token. Missing records are not an error;
// logout is idempotent.
func (s *Service) Logout(ctx context.Context, userID string) error {
	ctx, span := s.tracer.Start(ctx, "auth.Service.Logout")
	defer span.End()

	if err := s.store.DeleteRefreshToken(ctx, userID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

func (s *Service) issueAndStore(ctx context.Context, account *UserAccount, ipAddress string) (*types.Credential, error) {
	credential, err := s.issuer.IssueCredential(account)
	if err != nil {
		return nil, err
	}

	record := &types.RefreshToken{
		UserID:    account.ID,
		Token:     credential.RefreshToken,
		ExpiresAt: credential.RefreshExpiresAt,
		IPAddress: ipAddress,
	}
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		return s.store.UpsertRefreshToken(ctx, record)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist refresh token: %w", err)
	}

	return credential, nil
}
