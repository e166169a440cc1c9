// Copyright 2026 Krafter Authors
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var (
	otelHTTPClient = http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
)

// ExternalIdentity is the subset of ID-token claims the login flow needs.
type ExternalIdentity struct {
	Subject string
	Email   string
}

// ExternalVerifier validates ID tokens from an external provider (Google)
// using the issuer's well-known configuration.
type ExternalVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewExternalVerifier discovers the issuer and builds an ID-token verifier
// bound to our client ID.
func NewExternalVerifier(ctx context.Context, issuer, clientID string) (*ExternalVerifier, error) {
	if issuer == "" || clientID == "" {
		return nil, fmt.Errorf("issuer and client id are required for external authentication")
	}

	// Use otel-instrumented HTTP client
	ctx = oidc.ClientContext(ctx, &otelHTTPClient)

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %v", err)
	}

	return &ExternalVerifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

// VerifyIDToken verifies the raw ID token and extracts the external identity.
func (v *ExternalVerifier) VerifyIDToken(ctx context.Context, rawToken string) (*ExternalIdentity, error) {
	token, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	var claims struct {
		Email string `json:"email"`
	}
	if err := token.Claims(&claims); err != nil {
		return nil, err
	}

	return &ExternalIdentity{
		Subject: token.Subject,
		Email:   claims.Email,
	}, nil
}
