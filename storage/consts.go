// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import "github.com/ava-labs/opwatch/consts"

const (
	periodPrefix byte = iota
	historyPrefix
)

const (
	// Namespace is the sub-directory of the data dir holding the store.
	Namespace = "trackerdb"

	periodLen = consts.Uint64Len
)

var (
	periodKey  = []byte{periodPrefix}
	historyKey = []byte{historyPrefix}
)
