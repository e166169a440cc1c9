// Copyright 2026 Krafter Authors
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/krafter/backend/internal/db"
	"github.com/krafter/backend/internal/logging"
	"github.com/krafter/backend/internal/monitoring"
	"github.com/krafter/backend/internal/tracing"
	"github.com/krafter/backend/internal/types"
)

var (
	_ TenantStoreInterface       = (*Storage)(nil)
	_ RefreshTokenStoreInterface = (*Storage)(nil)
)

var tenantColumns = []string{"id", "identifier", "name", "admin_email", "is_active", "valid_upto", "is_deleted", "created_at", "created_by"}

type Storage struct {
	db db.DBClientInterface

	logger  logging.LoggerInterface
	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
}

func NewStorage(c db.DBClientInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Storage {
	s := new(Storage)

	s.db = c

	s.logger = logger
	s.tracer = tracer
	s.monitor = monitor

	return s
}

func scanTenant(row sq.RowScanner) (*types.Tenant, error) {
	var t types.Tenant
	err := row.Scan(&t.ID, &t.Identifier, &t.Name, &t.AdminEmail, &t.IsActive, &t.ValidUpto, &t.IsDeleted, &t.CreatedAt, &t.CreatedBy)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTenantByIdentifier looks up a non-deleted tenant by its identifier slug.
// The match is exact and case-sensitive.
func (s *Storage) GetTenantByIdentifier(ctx context.Context, identifier string) (*types.Tenant, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetTenantByIdentifier")
	defer span.End()

	t, err := scanTenant(s.db.Statement(ctx).
		Select(tenantColumns...).
		From("tenants").
		Where(sq.Eq{"identifier": identifier, "is_deleted": false}).
		QueryRowContext(ctx))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get tenant by identifier: %w", err)
	}

	return t, nil
}

func (s *Storage) GetTenantByID(ctx context.Context, id string) (*types.Tenant, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetTenantByID")
	defer span.End()

	t, err := scanTenant(s.db.Statement(ctx).
		Select(tenantColumns...).
		From("tenants").
		Where(sq.Eq{"id": id, "is_deleted": false}).
		QueryRowContext(ctx))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}

	return t, nil
}

func (s *Storage) ListTenants(ctx context.Context) ([]*types.Tenant, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListTenants")
	defer span.End()

	rows, err := s.db.Statement(ctx).
		Select(tenantColumns...).
		From("tenants").
		Where(sq.Eq{"is_deleted": false}).
		OrderBy("created_at").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []*types.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tenant: %w", err)
		}
		tenants = append(tenants, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return tenants, nil
}

func (s *Storage) CreateTenant(ctx context.Context, t *types.Tenant) (*types.Tenant, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CreateTenant")
	defer span.End()

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate tenant ID: %w", err)
	}

	created, err := scanTenant(s.db.Statement(ctx).
		Insert("tenants").
		Columns("id", "identifier", "name", "admin_email", "is_active", "valid_upto", "created_by").
		Values(id.String(), t.Identifier, t.Name, t.AdminEmail, t.IsActive, t.ValidUpto, t.CreatedBy).
		Suffix("RETURNING " + strings.Join(tenantColumns, ", ")).
		QueryRowContext(ctx))

	if err != nil {
		if IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("tenant identifier %q: %w", t.Identifier, ErrDuplicateKey)
		}
		return nil, fmt.Errorf("failed to insert tenant: %w", err)
	}

	return created, nil
}

// UpdateTenant updates only the fields named in paths, PATCH style.
func (s *Storage) UpdateTenant(ctx context.Context, t *types.Tenant, paths []string) error {
	ctx, span := s.tracer.Start(ctx, "storage.UpdateTenant")
	defer span.End()

	updateMap := make(map[string]interface{})
	for _, p := range paths {
		switch p {
		case "name":
			updateMap["name"] = t.Name
		case "admin_email":
			updateMap["admin_email"] = t.AdminEmail
		case "is_active":
			updateMap["is_active"] = t.IsActive
		case "valid_upto":
			updateMap["valid_upto"] = t.ValidUpto
		}
	}

	if len(updateMap) == 0 {
		return nil
	}

	_, err := s.db.Statement(ctx).
		Update("tenants").
		SetMap(updateMap).
		Where(sq.Eq{"id": t.ID, "is_deleted": false}).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to update tenant: %w", err)
	}

	return nil
}

// DeleteTenant soft-deletes, keeping the row for history queries.
func (s *Storage) DeleteTenant(ctx context.Context, id, reason string) error {
	ctx, span := s.tracer.Start(ctx, "storage.DeleteTenant")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Update("tenants").
		Set("is_deleted", true).
		Set("delete_reason", reason).
		Where(sq.Eq{"id": id, "is_deleted": false}).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete tenant: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *Storage) GetRefreshToken(ctx context.Context, userID string) (*types.RefreshToken, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetRefreshToken")
	defer span.End()

	var t types.RefreshToken
	err := s.db.Statement(ctx).
		Select("user_id", "token", "expires_at", "ip_address", "created_at").
		From("refresh_tokens").
		Where(sq.Eq{"user_id": userID}).
		QueryRowContext(ctx).
		Scan(&t.UserID, &t.Token, &t.ExpiresAt, &t.IPAddress, &t.CreatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	return &t, nil
}

// UpsertRefreshToken replaces the user's stored refresh token wholesale.
func (s *Storage) UpsertRefreshToken(ctx context.Context, t *types.RefreshToken) error {
	ctx, span := s.tracer.Start(ctx, "storage.UpsertRefreshToken")
	defer span.End()

	_, err := s.db.Statement(ctx).
		Insert("refresh_tokens").
		Columns("user_id", "token", "expires_at", "ip_address").
		Values(t.UserID, t.Token, t.ExpiresAt, t.IPAddress).
		Suffix("ON CONFLICT (user_id) DO UPDATE SET token = EXCLUDED.token, expires_at = EXCLUDED.expires_at, ip_address = EXCLUDED.ip_address, created_at = now()").
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert refresh token: %w", err)
	}

	return nil
}

func (s *Storage) DeleteRefreshToken(ctx context.Context, userID string) error {
	ctx, span := s.tracer.Start(ctx, "storage.DeleteRefreshToken")
	defer span.End()

	_, err := s.db.Statement(ctx).
		Delete("refresh_tokens").
		Where(sq.Eq{"user_id": userID}).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}

	return nil
}
