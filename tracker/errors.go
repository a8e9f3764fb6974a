// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tracker

import "errors"

var (
	ErrTickInProgress      = errors.New("tick in progress")
	ErrPersistWatermark    = errors.New("failed to persist watermark")
	ErrCorruptPeriod       = errors.New("corrupt period")
	ErrResultCountMismatch = errors.New("result count does not match selection")
	ErrDuplicateRecord     = errors.New("duplicate record")
	ErrInvalidRecord       = errors.New("invalid record")
	ErrInvalidConfig       = errors.New("invalid config")
	ErrSharedLock          = errors.New("failed to take shared lock")
)
