// Copyright 2026 Krafter Authors
// SPDX-License-Identifier: AGPL-3.0

package tenancy

import (
	"errors"
	"net/http"
)

var (
	// ErrTenantNotFound is only returned when strict matching is enabled;
	// the default behaviour falls back to the root tenant instead.
	ErrTenantNotFound = errors.New("tenant not found")
	ErrTenantInactive = errors.New("tenant is not active")
	ErrTenantExpired  = errors.New("tenant validity expired")
)

// StatusCode maps resolution failures to the HTTP status written by the middleware.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrTenantNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrTenantInactive), errors.Is(err, ErrTenantExpired):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
