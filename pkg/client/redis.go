// Copyright 2026 Krafter Authors
// SPDX-License-Identifier: AGPL-3.0

package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/krafter/backend/internal/types"
)

var _ CredentialStoreInterface = (*RedisStore)(nil)

// RedisStore is the server-side credential cache. The entry expires with the
// refresh token, so a stale cache can never outlive the credential itself.
type RedisStore struct {
	rdb *redis.Client
	key string
}

func NewRedisStore(rdb *redis.Client, key string) *RedisStore {
	return &RedisStore{
		rdb: rdb,
		key: key,
	}
}

func (s *RedisStore) Credential(ctx context.Context) (*types.Credential, error) {
	data, err := s.rdb.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read credential: %w", err)
	}

	return decodeCredential(data)
}

func (s *RedisStore) SetCredential(ctx context.Context, c *types.Credential) error {
	data, ttl, err := encodeCredential(c)
	if err != nil {
		return err
	}

	if err := s.rdb.Set(ctx, s.key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}

	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	return nil
}

// encodeCredential serialises the credential and derives the cache TTL from
// the refresh token lifetime. Already-expired credentials still get a short
// TTL so a lagging clock cannot produce an immortal key.
func encodeCredential(c *types.Credential) ([]byte, time.Duration, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to encode credential: %w", err)
	}

	ttl := time.Until(c.RefreshExpiresAt)
	if ttl <= 0 {
		ttl = time.Minute
	}

	return data, ttl, nil
}

func decodeCredential(data []byte) (*types.Credential, error) {
	var c types.Credential
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to decode credential: %w", err)
	}
	return &c, nil
}
