// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import "errors"

var (
	ErrNoLastSlot    = errors.New("status has no last slot")
	ErrInvalidPeriod = errors.New("invalid period")
	ErrEmptyEndpoint = errors.New("empty endpoint")
)
