// Copyright 2026 Krafter Authors
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"time"
)

// Tenant is an isolated customer partition. Identifier is the short slug used
// for subdomain matching and is unique among non-deleted tenants.
type Tenant struct {
	ID         string    `db:"id"`
	Identifier string    `db:"identifier"`
	Name       string    `db:"name"`
	AdminEmail string    `db:"admin_email"`
	IsActive   bool      `db:"is_active"`
	ValidUpto  time.Time `db:"valid_upto"`
	IsDeleted  bool      `db:"is_deleted"`
	CreatedAt  time.Time `db:"created_at"`
	CreatedBy  string    `db:"created_by"`
}

// RefreshToken is the server-side record of an issued refresh token. Each
// successful refresh replaces the row wholesale.
type RefreshToken struct {
	UserID    string    `db:"user_id"`
	Token     string    `db:"token"`
	ExpiresAt time.Time `db:"expires_at"`
	IPAddress string    `db:"ip_address"`
	CreatedAt time.Time `db:"created_at"`
}

// Credential is the access/refresh token pair held by an authenticated caller.
type Credential struct {
	AccessToken      string    `json:"token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"token_expiry_time"`
	RefreshExpiresAt time.Time `json:"refresh_token_expiry_time"`
	Permissions      []string  `json:"permissions"`
}
