// Copyright 2026 Krafter Authors
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/krafter/backend/internal/logging"
	"github.com/krafter/backend/internal/monitoring"
	"github.com/krafter/backend/internal/tracing"
)

const testSecret = "verifier-test-secret"

func newTestVerifier() *HMACVerifier {
	return NewHMACVerifier(testSecret, tracing.NewNoopTracer(), monitoring.NewNoopMonitor("test"), logging.NewNoopLogger())
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return raw
}

func TestHMACVerifier_VerifyToken(t *testing.T) {
	testCases := []struct {
		name        string
		token       func(t *testing.T) string
		expectedErr bool
		expectedSub string
	}{
		{
			name: "valid token",
			token: func(t *testing.T) string {
				return signToken(t, testSecret, jwt.MapClaims{
					"sub": "user-1",
					"exp": time.Now().Add(time.Hour).Unix(),
				})
			},
			expectedSub: "user-1",
		},
		{
			name: "expired token",
			token: func(t *testing.T) string {
				return signToken(t, testSecret, jwt.MapClaims{
					"sub": "user-1",
					"exp": time.Now().Add(-time.Hour).Unix(),
				})
			},
			expectedErr: true,
		},
		{
			name: "wrong signing key",
			token: func(t *testing.T) string {
				return signToken(t, "other-secret", jwt.MapClaims{
					"sub": "user-1",
					"exp": time.Now().Add(time.Hour).Unix(),
				})
			},
			expectedErr: true,
		},
		{
			name: "missing exp claim",
			token: func(t *testing.T) string {
				return signToken(t, testSecret, jwt.MapClaims{"sub": "user-1"})
			},
			expectedErr: true,
		},
		{
			name: "missing subject",
			token: func(t *testing.T) string {
				return signToken(t, testSecret, jwt.MapClaims{
					"exp": time.Now().Add(time.Hour).Unix(),
				})
			},
			expectedErr: true,
		},
		{
			name:        "garbage token",
			token:       func(t *testing.T) string { return "garbage" },
			expectedErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			verifier := newTestVerifier()

			sub, err := verifier.VerifyToken(context.Background(), tc.token(t))

			if tc.expectedErr {
				if err == nil {
					t.Fatal("expected verification to fail")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if sub != tc.expectedSub {
				t.Fatalf("expected subject %q, got %q", tc.expectedSub, sub)
			}
		})
	}
}

func TestHMACVerifier_VerifyExpiredToken(t *testing.T) {
	verifier := newTestVerifier()

	expired := signToken(t, testSecret, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	sub, err := verifier.VerifyExpiredToken(context.Background(), expired)
	if err != nil {
		t.Fatalf("expired token with a valid signature must pass: %v", err)
	}
	if sub != "user-1" {
		t.Fatalf("expected subject user-1, got %q", sub)
	}

	forged := signToken(t, "other-secret", jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	if _, err := verifier.VerifyExpiredToken(context.Background(), forged); err == nil {
		t.Fatal("forged signature must be rejected even when lifetime is ignored")
	}
}

func TestPermissions(t *testing.T) {
	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":         "user-1",
		"exp":         time.Now().Add(time.Hour).Unix(),
		"permissions": []string{"admin", "billing"},
	})

	got := Permissions(token)
	if len(got) != 2 || got[0] != "admin" || got[1] != "billing" {
		t.Fatalf("unexpected permissions %v", got)
	}

	if got := Permissions("garbage"); got != nil {
		t.Fatalf("garbage token must yield nil, got %v", got)
	}

	noClaim := signToken(t, testSecret, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	if got := Permissions(noClaim); got != nil {
		t.Fatalf("missing claim must yield nil, got %v", got)
	}
}
