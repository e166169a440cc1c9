// Copyright 2026 Krafter Authors
// SPDX-License-Identifier: AGPL-3.0

package authentication

import "context"

type TokenVerifierInterface interface {
	// VerifyToken verifies a raw JWT string and validates its claims.
	// Returns the subject (user ID) if the token is valid, otherwise an error.
	VerifyToken(ctx context.Context, rawToken string) (string, error)
}
