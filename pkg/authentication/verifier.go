// Copyright 2026 Krafter Authors
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/krafter/backend/internal/logging"
	"github.com/krafter/backend/internal/monitoring"
	"github.com/krafter/backend/internal/tracing"
)

var _ TokenVerifierInterface = (*HMACVerifier)(nil)

// HMACVerifier validates tokens issued by this service against the shared
// symmetric signing key.
type HMACVerifier struct {
	secret []byte

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewHMACVerifier(
	secret string,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *HMACVerifier {
	return &HMACVerifier{
		secret:  []byte(secret),
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}

func (v *HMACVerifier) keyFunc(t *jwt.Token) (interface{}, error) {
	return v.secret, nil
}

func (v *HMACVerifier) VerifyToken(ctx context.Context, rawToken string) (string, error) {
	ctx, span := v.tracer.Start(ctx, "authentication.HMACVerifier.VerifyToken")
	defer span.End()

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(rawToken, claims, v.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		v.logger.Security().AuthFailure("", "invalid token")
		return "", fmt.Errorf("token verification failed: %w", err)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		v.logger.Security().AuthFailure("", "missing subject")
		return "", fmt.Errorf("token has no subject")
	}

	return sub, nil
}

// VerifyExpiredToken validates the signature but ignores the lifetime claims.
// The refresh flow uses it to recover the subject of an expired access token.
func (v *HMACVerifier) VerifyExpiredToken(ctx context.Context, rawToken string) (string, error) {
	ctx, span := v.tracer.Start(ctx, "authentication.HMACVerifier.VerifyExpiredToken")
	defer span.End()
	_ = ctx

	claims := jwt.MapClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	if _, err := parser.ParseWithClaims(rawToken, claims, v.keyFunc); err != nil {
		return "", fmt.Errorf("token verification failed: %w", err)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("token has no subject")
	}

	return sub, nil
}

// Permissions extracts the permission claim from a verified token's raw form.
func Permissions(rawToken string) []string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(rawToken, claims); err != nil {
		return nil
	}

	raw, ok := claims["permissions"].([]interface{})
	if !ok {
		return nil
	}

	permissions := make([]string, 0, len(raw))
	for _, p := range raw {
		if s, ok := p.(string); ok {
			permissions = append(permissions, s)
		}
	}
	return permissions
}
