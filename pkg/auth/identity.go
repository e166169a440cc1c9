// Copyright 2026 Krafter Authors
// SPDX-License-Identifier: AGPL-3.0

package auth

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var _ IdentityProviderInterface = (*StaticIdentityProvider)(nil)

// StaticIdentityProvider is a fixed in-process user directory. Production
// deployments plug a real directory behind IdentityProviderInterface; this one
// covers bootstrap and development, seeded with a single admin account.
type StaticIdentityProvider struct {
	accounts map[string]staticAccount
}

type staticAccount struct {
	account      UserAccount
	passwordHash []byte
}

// NewStaticIdentityProvider seeds the directory with one admin account. The
// password is hashed immediately; the plaintext is not retained.
func NewStaticIdentityProvider(adminEmail, adminPassword string, permissions []string) (*StaticIdentityProvider, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash admin password: %w", err)
	}

	email := normalizeEmail(adminEmail)
	return &StaticIdentityProvider{
		accounts: map[string]staticAccount{
			email: {
				account: UserAccount{
					ID:          "admin",
					Email:       email,
					Permissions: permissions,
				},
				passwordHash: hash,
			},
		},
	}, nil
}

func (p *StaticIdentityProvider) VerifyPassword(ctx context.Context, email, password string) (*UserAccount, error) {
	entry, ok := p.accounts[normalizeEmail(email)]
	if !ok {
		// Burn a comparison anyway so lookups take the same time either way.
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(entry.passwordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	account := entry.account
	return &account, nil
}

func (p *StaticIdentityProvider) GetByEmail(ctx context.Context, email string) (*UserAccount, error) {
	entry, ok := p.accounts[normalizeEmail(email)]
	if !ok {
		return nil, ErrInvalidCredentials
	}
	account := entry.account
	return &account, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var dummyHash = mustHash("krafter-timing-pad")

func mustHash(s string) []byte {
	h, err := bcrypt.GenerateFromPassword([]byte(s), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return h
}
