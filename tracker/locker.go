// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tracker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const lockRetryDelay = 100 * time.Millisecond

// Locker excludes writers in other processes that share the same store.
// Stores owned by a single process need none.
type Locker interface {
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
}

type Option func(*Tracker)

// WithLocker makes every tick and history write hold [l].
func WithLocker(l Locker) Option {
	return func(t *Tracker) {
		t.locker = l
	}
}

// lockShared takes the cross-process lock, if one is configured. When
// [wait] is false a lock held elsewhere yields [ErrTickInProgress].
func (t *Tracker) lockShared(ctx context.Context, wait bool) (func(), error) {
	if t.locker == nil {
		return func() {}, nil
	}
	for {
		ok, err := t.locker.TryLock(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSharedLock, err)
		}
		if ok {
			return t.unlockShared, nil
		}
		if !wait {
			return nil, ErrTickInProgress
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}
}

func (t *Tracker) unlockShared() {
	if err := t.locker.Unlock(context.Background()); err != nil {
		t.log.Warn("failed to release shared lock",
			zap.Error(err),
		)
	}
}
