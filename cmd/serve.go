// Copyright 2026 Krafter Authors
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/krafter/backend/internal/config"
	"github.com/krafter/backend/internal/db"
	"github.com/krafter/backend/internal/logging"
	"github.com/krafter/backend/internal/monitoring/prometheus"
	"github.com/krafter/backend/internal/storage"
	"github.com/krafter/backend/internal/tracing"
	"github.com/krafter/backend/pkg/auth"
	"github.com/krafter/backend/pkg/authentication"
	"github.com/krafter/backend/pkg/realtime"
	"github.com/krafter/backend/pkg/tenancy"
	"github.com/krafter/backend/pkg/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "serve starts the web server",
	Long:  `Launch the web application, list of environment variables is available in the readme`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := serve(); err != nil {
			fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve() error {
	specs := new(config.EnvSpec)
	if err := envconfig.Process("", specs); err != nil {
		panic(fmt.Errorf("issues with environment sourcing: %s", err))
	}

	logger := logging.NewLogger(specs.LogLevel)
	defer logger.Sync()

	monitor := prometheus.NewMonitor("krafter-backend", logger)
	tracer := tracing.NewTracer(tracing.NewConfig(specs.TracingEnabled, specs.OtelGRPCEndpoint, specs.OtelHTTPEndpoint, logger))

	dbConfig := db.Config{
		DSN:             specs.DSN,
		MaxConns:        specs.DBMaxConns,
		MinConns:        specs.DBMinConns,
		MaxConnLifetime: specs.DBMaxConnLifetime,
		MaxConnIdleTime: specs.DBMaxConnIdleTime,
		TracingEnabled:  specs.TracingEnabled,
	}
	dbClient, err := db.NewDBClient(dbConfig, tracer, monitor, logger)
	if err != nil {
		return fmt.Errorf("failed to create database client: %v", err)
	}
	defer dbClient.Close()
	s := storage.NewStorage(dbClient, tracer, monitor, logger)

	rootTenant, err := s.GetTenantByIdentifier(context.Background(), specs.RootTenantIdentifier)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("failed to load root tenant: %v", err)
		}
		logger.Warnf("no tenant row for root identifier %q, using synthesized root", specs.RootTenantIdentifier)
		rootTenant = tenancy.RootTenant(specs.RootTenantIdentifier)
	}

	finder := tenancy.NewFinder(s, rootTenant, specs.StrictTenantMatch, tracer, monitor, logger)

	verifier := authentication.NewHMACVerifier(specs.JWTSecret, tracer, monitor, logger)
	authnMiddleware := authentication.NewMiddleware(verifier, tracer, monitor, logger)
	tenantMiddleware := tenancy.NewMiddleware(finder, tracer, monitor, logger)

	users, err := auth.NewStaticIdentityProvider(specs.AdminEmail, specs.AdminPassword, []string{"admin"})
	if err != nil {
		return fmt.Errorf("failed to seed identity provider: %v", err)
	}

	var external auth.ExternalVerifierInterface
	if specs.ExternalAuthEnabled {
		external, err = authentication.NewExternalVerifier(context.Background(), specs.GoogleIssuer, specs.GoogleClientID)
		if err != nil {
			return fmt.Errorf("failed to configure external authentication: %v", err)
		}
		logger.Info("External authentication is enabled")
	}

	issuer := auth.NewTokenIssuer(specs.JWTSecret, specs.AccessTokenLifetime, specs.RefreshTokenLifetime)
	authService := auth.NewService(issuer, verifier, users, external, s, dbClient, tracer, monitor, logger)
	authAPI := auth.NewAPI(authService, verifier, tracer, logger)

	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()

	hub := realtime.NewHub(tracer, monitor, logger)
	go hub.Run(hubCtx)
	realtimeHandler := realtime.NewHandler(hub, finder, tracer, logger)

	router := web.NewRouter(
		authAPI,
		authnMiddleware,
		tenantMiddleware,
		realtimeHandler,
		tracer,
		monitor,
		logger,
	)
	logger.Infof("Starting HTTP server on port %v", specs.Port)

	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%v", specs.Port),
		WriteTimeout: time.Second * 60,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      router,
	}

	var serverError error
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Security().SystemStartup()
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverError = fmt.Errorf("server error: %w", err)
			c <- os.Interrupt
		}
	}()

	<-c

	// Create a deadline to wait for.
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	logger.Security().SystemShutdown()
	if err := srv.Shutdown(ctx); err != nil {
		serverError = fmt.Errorf("server shutdown error: %w", err)
	}

	return serverError
}
