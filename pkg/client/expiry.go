// Copyright 2026 Krafter Authors
// SPDX-License-Identifier: AGPL-3.0

package client

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// expirySkew is subtracted from the exp claim so a token is treated as expired
// slightly before the server would reject it.
const expirySkew = time.Minute

// IsTokenExpired classifies a raw JWT by its exp claim, without verifying the
// signature. Any token that cannot be decoded is treated as expired.
func IsTokenExpired(raw string) bool {
	parser := jwt.NewParser()

	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return true
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}

	return !time.Now().Before(exp.Time.Add(-expirySkew))
}
