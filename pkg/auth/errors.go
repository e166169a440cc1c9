// Copyright 2026 Krafter Authors
// SPDX-License-Identifier: AGPL-3.0

package auth

import (
	"errors"
)

var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	ErrExternalAuthFailed  = errors.New("external authentication failed")
)
