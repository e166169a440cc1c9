// Copyright 2026 Krafter Authors
// SPDX-License-Identifier: AGPL-3.0

package client

import (
	"context"
	"sync"

	"github.com/krafter/backend/internal/types"
)

var _ CredentialStoreInterface = (*MemoryStore)(nil)

// MemoryStore keeps the credential in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	cred *types.Credential
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Credential(ctx context.Context) (*types.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.cred == nil {
		return nil, nil
	}

	c := *s.cred
	return &c, nil
}

func (s *MemoryStore) SetCredential(ctx context.Context, c *types.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cc := *c
	s.cred = &cc
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cred = nil
	return nil
}
