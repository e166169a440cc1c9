// Copyright 2026 Krafter Authors
// SPDX-License-Identifier: AGPL-3.0

package client

import (
	"testing"
	"time"

	"github.com/krafter/backend/internal/types"
)

func TestEncodeCredentialRoundTrip(t *testing.T) {
	cred := &types.Credential{
		AccessToken:      "access",
		RefreshToken:     "refresh",
		AccessExpiresAt:  time.Now().UTC().Add(15 * time.Minute).Truncate(time.Second),
		RefreshExpiresAt: time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second),
		Permissions:      []string{"admin"},
	}

	data, ttl, err := encodeCredential(cred)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	// The cache entry lives exactly as long as the refresh token.
	if ttl < 23*time.Hour || ttl > 24*time.Hour {
		t.Fatalf("ttl must track the refresh expiry, got %v", ttl)
	}

	decoded, err := decodeCredential(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.AccessToken != cred.AccessToken || decoded.RefreshToken != cred.RefreshToken {
		t.Fatalf("tokens lost in round trip: %+v", decoded)
	}
	if !decoded.RefreshExpiresAt.Equal(cred.RefreshExpiresAt) {
		t.Fatalf("expiry lost in round trip: %v != %v", decoded.RefreshExpiresAt, cred.RefreshExpiresAt)
	}
	if len(decoded.Permissions) != 1 || decoded.Permissions[0] != "admin" {
		t.Fatalf("permissions lost in round trip: %v", decoded.Permissions)
	}
}

func TestEncodeCredentialTTLFloor(t *testing.T) {
	testCases := []struct {
		name             string
		refreshExpiresAt time.Time
	}{
		{"already expired", time.Now().Add(-time.Hour)},
		{"zero expiry", time.Time{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, ttl, err := encodeCredential(&types.Credential{
				AccessToken:      "access",
				RefreshExpiresAt: tc.refreshExpiresAt,
			})
			if err != nil {
				t.Fatalf("encode failed: %v", err)
			}
			if ttl != time.Minute {
				t.Fatalf("expected the one-minute floor, got %v", ttl)
			}
		})
	}
}

func TestDecodeCredentialGarbage(t *testing.T) {
	if _, err := decodeCredential([]byte("{not json")); err == nil {
		t.Fatal("expected decode to fail on garbage")
	}
}
