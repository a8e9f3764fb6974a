// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

const (
	methodGetStatus     = "get_status"
	methodGetOperations = "get_operations"

	lastSlotPeriodPath = "last_slot.period"
)
