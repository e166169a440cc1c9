// Copyright 2026 Krafter Authors
// SPDX-License-Identifier: AGPL-3.0

package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/krafter/backend/internal/logging"
	"github.com/krafter/backend/internal/types"
	"github.com/krafter/backend/pkg/tokensync"
)

type fakeRefresher struct {
	store *MemoryStore
	token string
	fail  bool
	calls atomic.Int32
}

func (f *fakeRefresher) Refresh(ctx context.Context) error {
	f.calls.Add(1)
	if f.fail {
		return context.DeadlineExceeded
	}
	return f.store.SetCredential(ctx, &types.Credential{
		AccessToken:      f.token,
		RefreshToken:     "refresh",
		AccessExpiresAt:  time.Now().Add(15 * time.Minute),
		RefreshExpiresAt: time.Now().Add(24 * time.Hour),
	})
}

func newTestTransport(base http.RoundTripper, store *MemoryStore, refresher *fakeRefresher) *AuthTransport {
	return NewAuthTransport(base, store, refresher, tokensync.NewSynchronizer(logging.NewNoopLogger()), logging.NewNoopLogger())
}

func setToken(t *testing.T, store *MemoryStore, token string) {
	t.Helper()
	err := store.SetCredential(context.Background(), &types.Credential{
		AccessToken:      token,
		RefreshExpiresAt: time.Now().Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("failed to seed credential: %v", err)
	}
}

func TestAuthTransport_InjectsBearerToken(t *testing.T) {
	valid := tokenExpiringAt(t, time.Now().Add(10*time.Minute))

	var seenAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenAuth = r.Header.Get("Authorization")
	}))
	defer server.Close()

	store := NewMemoryStore()
	setToken(t, store, valid)

	httpClient := &http.Client{Transport: newTestTransport(nil, store, &fakeRefresher{store: store})}
	resp, err := httpClient.Get(server.URL + "/api/tenant/current")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if seenAuth != "Bearer "+valid {
		t.Fatalf("expected bearer header, got %q", seenAuth)
	}
}

func TestAuthTransport_RefreshesExpiredTokenBeforeSending(t *testing.T) {
	expired := tokenExpiringAt(t, time.Now().Add(-time.Minute))
	fresh := tokenExpiringAt(t, time.Now().Add(10*time.Minute))

	var seenAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenAuth = r.Header.Get("Authorization")
	}))
	defer server.Close()

	store := NewMemoryStore()
	setToken(t, store, expired)
	refresher := &fakeRefresher{store: store, token: fresh}

	httpClient := &http.Client{Transport: newTestTransport(nil, store, refresher)}
	resp, err := httpClient.Get(server.URL + "/api/tenant/current")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if refresher.calls.Load() != 1 {
		t.Fatalf("expected 1 refresh, got %d", refresher.calls.Load())
	}
	if seenAuth != "Bearer "+fresh {
		t.Fatalf("expected refreshed token on the wire, got %q", seenAuth)
	}
}

// One 401 triggers exactly one refresh and one resend; a second 401 is
// returned to the caller as-is.
func TestAuthTransport_RetriesOnceAfterUnauthorized(t *testing.T) {
	valid := tokenExpiringAt(t, time.Now().Add(10*time.Minute))
	fresh := tokenExpiringAt(t, time.Now().Add(20*time.Minute))

	var serverCalls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if serverCalls.Add(1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"k":"v"}` {
			t.Errorf("resend lost the request body: %q", body)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	store := NewMemoryStore()
	setToken(t, store, valid)
	refresher := &fakeRefresher{store: store, token: fresh}

	httpClient := &http.Client{Transport: newTestTransport(nil, store, refresher)}
	resp, err := httpClient.Post(server.URL+"/api/tenant/current", "application/json", strings.NewReader(`{"k":"v"}`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 after retry, got %d", resp.StatusCode)
	}
	if serverCalls.Load() != 2 {
		t.Fatalf("expected exactly 2 server calls, got %d", serverCalls.Load())
	}
	if refresher.calls.Load() != 1 {
		t.Fatalf("expected exactly 1 refresh, got %d", refresher.calls.Load())
	}
}

func TestAuthTransport_PersistentUnauthorizedIsNotRetriedTwice(t *testing.T) {
	valid := tokenExpiringAt(t, time.Now().Add(10*time.Minute))

	var serverCalls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serverCalls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	store := NewMemoryStore()
	setToken(t, store, valid)
	refresher := &fakeRefresher{store: store, token: valid}

	httpClient := &http.Client{Transport: newTestTransport(nil, store, refresher)}
	resp, err := httpClient.Get(server.URL + "/api/tenant/current")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected the second 401 back, got %d", resp.StatusCode)
	}
	if serverCalls.Load() != 2 {
		t.Fatalf("expected exactly 2 server calls, got %d", serverCalls.Load())
	}
}

func TestAuthTransport_UnauthorizedWithoutTokenReturnsOriginal(t *testing.T) {
	var serverCalls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serverCalls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	store := NewMemoryStore()
	refresher := &fakeRefresher{store: store, fail: true}

	httpClient := &http.Client{Transport: newTestTransport(nil, store, refresher)}
	resp, err := httpClient.Get(server.URL + "/api/tenant/current")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected original 401, got %d", resp.StatusCode)
	}
	if serverCalls.Load() != 1 {
		t.Fatalf("expected no resend without a token, got %d calls", serverCalls.Load())
	}
}

func TestAuthTransport_PublicPathSkipsTokenLogic(t *testing.T) {
	expired := tokenExpiringAt(t, time.Now().Add(-time.Minute))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	store := NewMemoryStore()
	setToken(t, store, expired)
	refresher := &fakeRefresher{store: store}

	httpClient := &http.Client{Transport: newTestTransport(nil, store, refresher)}
	resp, err := httpClient.Get(server.URL + "/api/tokens/create")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if refresher.calls.Load() != 0 {
		t.Fatalf("public path must not refresh, got %d calls", refresher.calls.Load())
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("public 401 must pass through, got %d", resp.StatusCode)
	}
}

func TestIsPublicPath(t *testing.T) {
	testCases := []struct {
		path     string
		expected bool
	}{
		{"/api/tokens/create", true},
		{"/api/tokens/refresh", true},
		{"/api/tokens/current", true},
		{"/api/tokens/logout", true},
		{"/api/external-auth", true},
		{"/health", true},
		{"/app-info", true},
		{"/login", true},
		{"/seed", true},
		{"/API/Tokens/Refresh", true},
		{"/api/tenant/current", false},
		{"", false},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			if got := IsPublicPath(tc.path); got != tc.expected {
				t.Fatalf("IsPublicPath(%q) = %v, expected %v", tc.path, got, tc.expected)
			}
		})
	}
}
