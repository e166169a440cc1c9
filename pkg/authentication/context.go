// Copyright 2026 Krafter Authors
// SPDX-License-Identifier: AGPL-3.0

package authentication

import "context"

// Define private custom types to avoid collisions
type userContextKey struct{}
type permissionsContextKey struct{}

// WithUserID returns a new context with the given user ID derived from the parent context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userContextKey{}, userID)
}

// GetUserID retrieves the user ID from the context.
// Returns an empty string and false if the user ID is not present.
func GetUserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userContextKey{}).(string)
	return id, ok
}

// WithPermissions returns a new context carrying the caller's permission names.
func WithPermissions(ctx context.Context, permissions []string) context.Context {
	return context.WithValue(ctx, permissionsContextKey{}, permissions)
}

// GetPermissions retrieves the caller's permission names from the context.
func GetPermissions(ctx context.Context) ([]string, bool) {
	p, ok := ctx.Value(permissionsContextKey{}).([]string)
	return p, ok
}
