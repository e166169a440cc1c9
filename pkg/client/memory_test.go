// Copyright 2026 Krafter Authors
// SPDX-License-Identifier: AGPL-3.0

package client

import (
	"context"
	"testing"
	"time"

	"github.com/krafter/backend/internal/types"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	got, err := store.Credential(ctx)
	if err != nil || got != nil {
		t.Fatalf("fresh store must be empty, got %+v err %v", got, err)
	}

	cred := &types.Credential{
		AccessToken:      "access",
		RefreshToken:     "refresh",
		AccessExpiresAt:  time.Now().Add(15 * time.Minute),
		RefreshExpiresAt: time.Now().Add(24 * time.Hour),
	}
	if err := store.SetCredential(ctx, cred); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	got, err = store.Credential(ctx)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.AccessToken != "access" || got.RefreshToken != "refresh" {
		t.Fatalf("unexpected credential %+v", got)
	}

	// The store hands out copies; mutating one must not affect the stored value.
	got.AccessToken = "mutated"
	again, _ := store.Credential(ctx)
	if again.AccessToken != "access" {
		t.Fatal("store leaked its internal credential")
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	got, _ = store.Credential(ctx)
	if got != nil {
		t.Fatal("store must be empty after clear")
	}
}
