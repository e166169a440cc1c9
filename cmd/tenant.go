// Copyright 2026 Krafter Authors
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/krafter/backend/internal/db"
	"github.com/krafter/backend/internal/logging"
	"github.com/krafter/backend/internal/monitoring"
	"github.com/krafter/backend/internal/storage"
	"github.com/krafter/backend/internal/tracing"
	"github.com/krafter/backend/internal/types"
)

var tenantCmd = &cobra.Command{
	Use:   "tenant",
	Short: "Manage tenants",
}

var createTenantCmd = &cobra.Command{
	Use:   "create [identifier] [name]",
	Short: "Create a new tenant",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		adminEmail, _ := cmd.Flags().GetString("admin-email")
		validFor, _ := cmd.Flags().GetDuration("valid-for")

		return withTenantStore(cmd, func(ctx context.Context, store storage.TenantStoreInterface) error {
			return createTenant(ctx, store, cmd.OutOrStdout(), args[0], args[1], adminEmail, validFor)
		})
	},
}

var listTenantsCmd = &cobra.Command{
	Use:   "list",
	Short: "List tenants",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTenantStore(cmd, func(ctx context.Context, store storage.TenantStoreInterface) error {
			return listTenants(ctx, store, cmd.OutOrStdout())
		})
	},
}

var activateTenantCmd = &cobra.Command{
	Use:   "activate [id]",
	Short: "Activate a tenant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTenantStore(cmd, func(ctx context.Context, store storage.TenantStoreInterface) error {
			return setTenantActive(ctx, store, cmd.OutOrStdout(), args[0], true)
		})
	},
}

var deactivateTenantCmd = &cobra.Command{
	Use:   "deactivate [id]",
	Short: "Deactivate a tenant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTenantStore(cmd, func(ctx context.Context, store storage.TenantStoreInterface) error {
			return setTenantActive(ctx, store, cmd.OutOrStdout(), args[0], false)
		})
	},
}

var deleteTenantCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a tenant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reason, _ := cmd.Flags().GetString("reason")

		return withTenantStore(cmd, func(ctx context.Context, store storage.TenantStoreInterface) error {
			return deleteTenant(ctx, store, cmd.OutOrStdout(), args[0], reason)
		})
	},
}

func init() {
	tenantCmd.PersistentFlags().String("dsn", "", "PostgreSQL DSN connection string")
	_ = tenantCmd.MarkPersistentFlagRequired("dsn")

	createTenantCmd.Flags().String("admin-email", "", "Tenant admin email address")
	createTenantCmd.Flags().Duration("valid-for", 365*24*time.Hour, "Validity window starting now")
	deleteTenantCmd.Flags().String("reason", "", "Reason recorded with the deletion")

	tenantCmd.AddCommand(createTenantCmd, listTenantsCmd, activateTenantCmd, deactivateTenantCmd, deleteTenantCmd)
	rootCmd.AddCommand(tenantCmd)
}

// withTenantStore opens a short-lived db client for one provisioning action.
func withTenantStore(cmd *cobra.Command, fn func(context.Context, storage.TenantStoreInterface) error) error {
	dsn, _ := cmd.Flags().GetString("dsn")

	logger := logging.NewLogger("error")
	defer logger.Sync()
	tracer := tracing.NewNoopTracer()
	monitor := monitoring.NewNoopMonitor("krafter-cli")

	dbClient, err := db.NewDBClient(db.Config{
		DSN:             dsn,
		MaxConns:        2,
		MinConns:        1,
		MaxConnLifetime: time.Minute,
		MaxConnIdleTime: time.Minute,
	}, tracer, monitor, logger)
	if err != nil {
		return fmt.Errorf("failed to create database client: %w", err)
	}
	defer dbClient.Close()

	return fn(cmd.Context(), storage.NewStorage(dbClient, tracer, monitor, logger))
}

func createTenant(ctx context.Context, store storage.TenantStoreInterface, out io.Writer, identifier, name, adminEmail string, validFor time.Duration) error {
	created, err := store.CreateTenant(ctx, &types.Tenant{
		Identifier: identifier,
		Name:       name,
		AdminEmail: adminEmail,
		IsActive:   true,
		ValidUpto:  time.Now().UTC().Add(validFor),
		CreatedBy:  "cli",
	})
	if err != nil {
		return fmt.Errorf("failed to create tenant: %w", err)
	}

	fmt.Fprintf(out, "Tenant created: %s (ID: %s)\n", created.Name, created.ID)
	return nil
}

func listTenants(ctx context.Context, store storage.TenantStoreInterface, out io.Writer) error {
	tenants, err := store.ListTenants(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tenants: %w", err)
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tIDENTIFIER\tNAME\tACTIVE\tVALID_UPTO")
	for _, t := range tenants {
		fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%s\n", t.ID, t.Identifier, t.Name, t.IsActive, t.ValidUpto.Format(time.RFC3339))
	}
	return w.Flush()
}

func setTenantActive(ctx context.Context, store storage.TenantStoreInterface, out io.Writer, id string, active bool) error {
	tenant, err := store.GetTenantByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get tenant: %w", err)
	}

	tenant.IsActive = active
	if err := store.UpdateTenant(ctx, tenant, []string{"is_active"}); err != nil {
		return fmt.Errorf("failed to update tenant: %w", err)
	}

	state := "deactivated"
	if active {
		state = "activated"
	}
	fmt.Fprintf(out, "Tenant %s: %s\n", state, id)
	return nil
}

func deleteTenant(ctx context.Context, store storage.TenantStoreInterface, out io.Writer, id, reason string) error {
	if err := store.DeleteTenant(ctx, id, reason); err != nil {
		return fmt.Errorf("failed to delete tenant: %w", err)
	}

	fmt.Fprintf(out, "Tenant deleted: %s\n", id)
	return nil
}
