// Copyright 2026 Krafter Authors
// SPDX-License-Identifier: AGPL-3.0

package client

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/krafter/backend/internal/logging"
	"github.com/krafter/backend/pkg/tokensync"
)

// publicPaths are endpoints that must not trigger a refresh or require a token.
var publicPaths = []string{
	"/tokens/refresh", "/tokens/create", "/tokens/current", "/tokens/logout",
	"/external-auth", "/app-info", "/health", "/seed", "/login",
}

var _ http.RoundTripper = (*AuthTransport)(nil)

// AuthTransport injects the cached bearer token into outgoing calls, refreshes
// it through the synchronizer when it is expired, and resends exactly once
// after an Unauthorized response.
type AuthTransport struct {
	base      http.RoundTripper
	store     CredentialStoreInterface
	refresher RefresherInterface
	sync      *tokensync.Synchronizer

	logger logging.LoggerInterface
}

func NewAuthTransport(
	base http.RoundTripper,
	store CredentialStoreInterface,
	refresher RefresherInterface,
	sync *tokensync.Synchronizer,
	logger logging.LoggerInterface,
) *AuthTransport {
	if base == nil {
		base = http.DefaultTransport
	}

	return &AuthTransport{
		base:      base,
		store:     store,
		refresher: refresher,
		sync:      sync,
		logger:    logger,
	}
}

func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	path := req.URL.Path
	public := IsPublicPath(path)

	// Buffer the body up front so the request can be resent after a 401.
	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, err
		}
		req.Body = io.NopCloser(bytes.NewReader(body))
	}

	token := t.cachedToken(ctx)

	if !public && token != "" && IsTokenExpired(token) {
		if t.sync.HasRecentSync() {
			t.logger.Debugf("recent refresh detected, re-reading token for %s", path)
		} else {
			t.logger.Debugf("token expired, refreshing before request to %s", path)
			if !t.sync.TryExecute(ctx, t.refresher.Refresh) {
				// Best effort: proceed with whatever token is available and let
				// the 401 path handle the rest.
				t.logger.Warnf("token refresh failed before request to %s", path)
			}
		}
		token = t.cachedToken(ctx)
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized || public {
		return resp, nil
	}

	if t.sync.HasRecentSync() {
		t.logger.Debugf("got 401 but recent refresh detected, retrying %s", path)
	} else {
		t.logger.Debugf("got 401, refreshing and retrying %s", path)
		if !t.sync.TryExecute(ctx, t.refresher.Refresh) {
			t.logger.Warnf("token refresh failed after 401 on %s", path)
		}
	}

	token = t.cachedToken(ctx)
	if token == "" {
		// Nothing to retry with; hand the original 401 back unmodified.
		return resp, nil
	}

	retry := req.Clone(ctx)
	if body != nil {
		retry.Body = io.NopCloser(bytes.NewReader(body))
	}
	retry.Header.Set("Authorization", "Bearer "+token)

	resp.Body.Close()
	return t.base.RoundTrip(retry)
}

func (t *AuthTransport) cachedToken(ctx context.Context) string {
	cred, err := t.store.Credential(ctx)
	if err != nil {
		t.logger.Warnf("failed to read cached credential: %v", err)
		return ""
	}
	if cred == nil {
		return ""
	}
	return cred.AccessToken
}

// IsPublicPath reports whether the path is exempt from all token logic.
func IsPublicPath(path string) bool {
	if path == "" {
		return false
	}

	normalized := strings.ToLower(strings.TrimSpace(path))
	for _, p := range publicPaths {
		if strings.HasPrefix(normalized, p) || strings.Contains(normalized, strings.Trim(p, "/")) {
			return true
		}
	}
	return false
}
