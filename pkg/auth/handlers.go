// Copyright 2026 Krafter Authors
// SPDX-License-Identifier: AGPL-3.0

package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/krafter/backend/internal/logging"
	"github.com/krafter/backend/internal/tracing"
	"github.com/krafter/backend/pkg/authentication"
	"github.com/krafter/backend/pkg/tenancy"
)

type API struct {
	service  ServiceInterface
	verifier *authentication.HMACVerifier
	validate *validator.Validate

	tracer tracing.TracingInterface
	logger logging.LoggerInterface
}

func NewAPI(service ServiceInterface, verifier *authentication.HMACVerifier, tracer tracing.TracingInterface, logger logging.LoggerInterface) *API {
	return &API{
		service:  service,
		verifier: verifier,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		tracer:   tracer,
		logger:   logger,
	}
}

func (a *API) RegisterEndpoints(mux chi.Router) {
	mux.Post("/api/tokens/create", a.createToken)
	mux.Post("/api/tokens/refresh", a.refreshToken)
	mux.Get("/api/tokens/current", a.currentToken)
	mux.Post("/api/tokens/logout", a.logout)
	mux.Post("/api/external-auth", a.externalLogin)
}

type createTokenRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func (a *API) createToken(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "auth.API.createToken")
	defer span.End()

	var req createTokenRequest
	if !a.decodeAndValidate(w, r, &req) {
		return
	}

	credential, err := a.service.CreateToken(ctx, req.Email, req.Password, tenancy.RemoteIP(r))
	if err != nil {
		a.serviceError(w, err)
		return
	}

	a.writeJSON(w, http.StatusOK, credential)
}

type refreshTokenRequest struct {
	Token        string `json:"token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func (a *API) refreshToken(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "auth.API.refreshToken")
	defer span.End()

	var req refreshTokenRequest
	if !a.decodeAndValidate(w, r, &req) {
		return
	}

	credential, err := a.service.RefreshToken(ctx, req.Token, req.RefreshToken, tenancy.RemoteIP(r))
	if err != nil {
		a.serviceError(w, err)
		return
	}

	a.writeJSON(w, http.StatusOK, credential)
}

// currentToken reports the identity behind the presented bearer token. Unlike
// the protected routes it answers 401 as JSON rather than being gated by the
// authentication middleware, so clients can probe their session state.
func (a *API) currentToken(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "auth.API.currentToken")
	defer span.End()

	rawToken, ok := bearerToken(r)
	if !ok {
		a.errorResponse(w, http.StatusUnauthorized, "missing authorization header")
		return
	}

	userID, err := a.verifier.VerifyToken(ctx, rawToken)
	if err != nil {
		a.errorResponse(w, http.StatusUnauthorized, "invalid token")
		return
	}

	a.writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":     userID,
		"permissions": authentication.Permissions(rawToken),
	})
}

// logout accepts an expired access token; only the signature has to hold so a
// client whose token just lapsed can still revoke its refresh token.
func (a *API) logout(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "auth.API.logout")
	defer span.End()

	rawToken, ok := bearerToken(r)
	if !ok {
		a.errorResponse(w, http.StatusUnauthorized, "missing authorization header")
		return
	}

	userID, err := a.verifier.VerifyExpiredToken(ctx, rawToken)
	if err != nil {
		a.errorResponse(w, http.StatusUnauthorized, "invalid token")
		return
	}

	if err := a.service.Logout(ctx, userID); err != nil {
		a.errorResponse(w, http.StatusInternalServerError, "logout failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type externalLoginRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

func (a *API) externalLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "auth.API.externalLogin")
	defer span.End()

	var req externalLoginRequest
	if !a.decodeAndValidate(w, r, &req) {
		return
	}

	credential, err := a.service.ExternalLogin(ctx, req.IDToken, tenancy.RemoteIP(r))
	if err != nil {
		a.serviceError(w, err)
		return
	}

	a.writeJSON(w, http.StatusOK, credential)
}

func (a *API) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		a.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := a.validate.Struct(dst); err != nil {
		a.errorResponse(w, http.StatusBadRequest, "request validation failed")
		return false
	}
	return true
}

func (a *API) serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrInvalidRefreshToken), errors.Is(err, ErrExternalAuthFailed):
		a.errorResponse(w, http.StatusUnauthorized, err.Error())
	default:
		a.logger.Errorf("token operation failed: %v", err)
		a.errorResponse(w, http.StatusInternalServerError, "internal server error")
	}
}

func (a *API) errorResponse(w http.ResponseWriter, status int, message string) {
	a.writeJSON(w, status, map[string]interface{}{
		"status":  status,
		"message": message,
	})
}

func (a *API) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		a.logger.Errorf("failed to encode response: %v", err)
	}
}

func bearerToken(r *http.Request) (string, bool) {
	bearer := r.Header.Get("Authorization")
	if !strings.HasPrefix(bearer, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(bearer, "Bearer "), true
}
