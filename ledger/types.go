// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

type OperationContent struct {
	Fee          string `json:"fee"`
	ExpirePeriod uint64 `json:"expire_period"`
}

type Operation struct {
	Content           OperationContent `json:"content"`
	Signature         string           `json:"signature"`
	ContentCreatorPub string           `json:"content_creator_pub_key"`
}

// OperationInfo is the ledger's view of a single operation.
type OperationInfo struct {
	ID        string    `json:"id"`
	InPool    bool      `json:"in_pool"`
	InBlocks  []string  `json:"in_blocks"`
	IsFinal   bool      `json:"is_final"`
	Operation Operation `json:"operation"`
}

// OperationResult is the outcome of looking up a single hash. If [Err] is
// nil, [Operations] holds every operation the ledger matched (possibly
// none).
type OperationResult struct {
	Err        error
	Operations []OperationInfo
}
