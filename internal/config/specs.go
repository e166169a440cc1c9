// Copyright 2026 Krafter Authors
// SPDX-License-Identifier: AGPL-3.0

package config

import (
	"time"
)

// EnvSpec is the basic environment configuration setup needed for the app to start
type EnvSpec struct {
	OtelGRPCEndpoint string `envconfig:"otel_grpc_endpoint"`
	OtelHTTPEndpoint string `envconfig:"otel_http_endpoint"`
	TracingEnabled   bool   `envconfig:"tracing_enabled" default:"true"`

	LogLevel string `envconfig:"log_level" default:"error"`
	Debug    bool   `envconfig:"debug" default:"false"`

	Port int `envconfig:"port" default:"8080"`

	DSN string `envconfig:"DSN" required:"true"`

	DBMaxConns        int32         `envconfig:"db_max_conns" default:"25"`
	DBMinConns        int32         `envconfig:"db_min_conns" default:"2"`
	DBMaxConnLifetime time.Duration `envconfig:"db_max_conn_lifetime" default:"1h"`
	DBMaxConnIdleTime time.Duration `envconfig:"db_max_conn_idle_time" default:"30m"`

	JWTSecret            string        `envconfig:"jwt_secret" required:"true"`
	AccessTokenLifetime  time.Duration `envconfig:"access_token_lifetime" default:"15m"`
	RefreshTokenLifetime time.Duration `envconfig:"refresh_token_lifetime" default:"168h"`

	AdminEmail    string `envconfig:"admin_email" default:"admin@krafter.local"`
	AdminPassword string `envconfig:"admin_password" required:"true"`

	RootTenantIdentifier string `envconfig:"root_tenant_identifier" default:"krafter"`
	StrictTenantMatch    bool   `envconfig:"strict_tenant_match" default:"false"`

	ExternalAuthEnabled bool   `envconfig:"external_auth_enabled" default:"false"`
	GoogleIssuer        string `envconfig:"google_issuer" default:"https://accounts.google.com"`
	GoogleClientID      string `envconfig:"google_client_id"`
}
