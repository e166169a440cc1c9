// Copyright 2026 Krafter Authors
// SPDX-License-Identifier: AGPL-3.0

// Package tokensync serialises credential refresh operations process-wide so
// that many callers observing one expired token trigger a single refresh.
package tokensync

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/krafter/backend/internal/logging"
)

const (
	// RecentSyncThreshold is the window within which a past success lets
	// callers skip their own refresh entirely.
	RecentSyncThreshold = 5 * time.Second

	maxRetryAttempts = 2
	retryBaseDelay   = 100 * time.Millisecond
)

// Synchronizer is a process-wide single-flight gate. Construct one at startup
// and inject it everywhere; at most one operation executes at any instant, and
// every caller either runs the operation itself or observes a recorded success.
type Synchronizer struct {
	gate *semaphore.Weighted

	synchronizing atomic.Bool
	// lastSync holds the unix-nano stamp of the last successful operation.
	// The executor writes it before releasing the gate, so any waiter that
	// observes the free gate also observes the stamp.
	lastSync atomic.Int64

	logger logging.LoggerInterface
}

func NewSynchronizer(logger logging.LoggerInterface) *Synchronizer {
	return &Synchronizer{
		gate:   semaphore.NewWeighted(1),
		logger: logger,
	}
}

// IsSynchronizing reports whether an operation is currently executing.
func (s *Synchronizer) IsSynchronizing() bool {
	return s.synchronizing.Load()
}

// HasRecentSync reports whether an operation succeeded within RecentSyncThreshold.
func (s *Synchronizer) HasRecentSync() bool {
	return s.hasRecentSync(RecentSyncThreshold)
}

func (s *Synchronizer) hasRecentSync(threshold time.Duration) bool {
	last := s.lastSync.Load()
	if last == 0 {
		return false
	}
	return time.Since(time.Unix(0, last)) < threshold
}

// TryExecute runs op under the gate. The first caller to arrive executes; the
// rest wait for its outcome and reuse a success, or retry a bounded number of
// times on failure. Returns true when op succeeded, either here or in another
// caller within the recency window.
func (s *Synchronizer) TryExecute(ctx context.Context, op func(context.Context) error) bool {
	// Fast path: skip if a refresh succeeded moments ago
	if s.HasRecentSync() {
		s.logger.Debugf("recent sync detected, skipping refresh operation")
		return true
	}

	if s.gate.TryAcquire(1) {
		return s.execute(ctx, op)
	}

	// Another refresh in progress, wait for it
	s.logger.Debugf("refresh already in progress, waiting for completion")
	if err := s.gate.Acquire(ctx, 1); err != nil {
		return false
	}
	s.gate.Release(1)

	if s.HasRecentSync() {
		s.logger.Debugf("waited for refresh, recent sync detected")
		return true
	}

	// The prior attempt failed, retry
	return s.executeWithRetry(ctx, op)
}

// execute runs op as the gate holder. The success stamp is written before the
// deferred release, establishing the happens-before edge waiters rely on.
func (s *Synchronizer) execute(ctx context.Context, op func(context.Context) error) bool {
	defer func() {
		s.synchronizing.Store(false)
		s.gate.Release(1)
	}()

	s.synchronizing.Store(true)

	if err := op(ctx); err != nil {
		s.logger.Warnf("refresh operation failed: %v", err)
		return false
	}

	s.lastSync.Store(time.Now().UnixNano())
	return true
}

func (s *Synchronizer) executeWithRetry(ctx context.Context, op func(context.Context) error) bool {
	for attempt := 1; attempt <= maxRetryAttempts; attempt++ {
		if s.HasRecentSync() {
			return true
		}

		if !s.gate.TryAcquire(1) {
			// Another retry in progress, wait for its outcome instead
			if err := s.gate.Acquire(ctx, 1); err != nil {
				return false
			}
			s.gate.Release(1)

			if s.HasRecentSync() {
				s.logger.Debugf("retry succeeded in another caller")
				return true
			}
			continue
		}

		s.logger.Debugf("executing retry attempt %d/%d", attempt, maxRetryAttempts)
		if s.execute(ctx, op) {
			return true
		}

		if attempt < maxRetryAttempts {
			select {
			case <-time.After(retryBaseDelay * time.Duration(attempt)):
			case <-ctx.Done():
				return false
			}
		}
	}

	s.logger.Warnf("all refresh retry attempts exhausted")
	return false
}
