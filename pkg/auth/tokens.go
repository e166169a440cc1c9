// Copyright 2026 Krafter Authors
// SPDX-License-Identifier: AGPL-3.0

package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/krafter/backend/internal/types"
)

const tokenIssuer = "krafter"

// refresh tokens are opaque; 32 bytes of entropy encoded url-safe
const refreshTokenBytes = 32

// TokenIssuer mints signed access tokens and opaque refresh tokens.
type TokenIssuer struct {
	secret          []byte
	accessLifetime  time.Duration
	refreshLifetime time.Duration
}

func NewTokenIssuer(secret string, accessLifetime, refreshLifetime time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:          []byte(secret),
		accessLifetime:  accessLifetime,
		refreshLifetime: refreshLifetime,
	}
}

// IssueCredential builds a fresh access/refresh pair for the account.
func (i *TokenIssuer) IssueCredential(account *UserAccount) (*types.Credential, error) {
	now := time.Now().UTC()
	accessExpiry := now.Add(i.accessLifetime)
	refreshExpiry := now.Add(i.refreshLifetime)

	claims := jwt.MapClaims{
		"sub":         account.ID,
		"email":       account.Email,
		"permissions": account.Permissions,
		"iss":         tokenIssuer,
		"iat":         now.Unix(),
		"exp":         accessExpiry.Unix(),
	}

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshToken, err := newOpaqueToken()
	if err != nil {
		return nil, err
	}

	return &types.Credential{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  accessExpiry,
		RefreshExpiresAt: refreshExpiry,
		Permissions:      account.Permissions,
	}, nil
}

// emailFromToken pulls the email claim without validating the token. Callers
// must have verified the signature separately.
func emailFromToken(rawToken string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(rawToken, claims); err != nil {
		return ""
	}
	email, _ := claims["email"].(string)
	return email
}

func newOpaqueToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
