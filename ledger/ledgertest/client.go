// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledgertest

import (
	"context"
	"sync"

	"github.com/ava-labs/opwatch/ledger"
)

var _ ledger.Client = (*Client)(nil)

// Client is a scriptable ledger. Unset hooks return zero values.
type Client struct {
	OnLastPeriod func(ctx context.Context) (uint64, error)
	OnOperations func(ctx context.Context, hashes []string) ([]ledger.OperationResult, error)

	lock            sync.Mutex
	lastPeriodCalls int
	operationCalls  [][]string
}

func (c *Client) LastPeriod(ctx context.Context) (uint64, error) {
	c.lock.Lock()
	c.lastPeriodCalls++
	c.lock.Unlock()

	if c.OnLastPeriod == nil {
		return 0, nil
	}
	return c.OnLastPeriod(ctx)
}

func (c *Client) Operations(ctx context.Context, hashes []string) ([]ledger.OperationResult, error) {
	c.lock.Lock()
	c.operationCalls = append(c.operationCalls, append([]string(nil), hashes...))
	c.lock.Unlock()

	if c.OnOperations == nil {
		return make([]ledger.OperationResult, len(hashes)), nil
	}
	return c.OnOperations(ctx, hashes)
}

func (c *Client) LastPeriodCalls() int {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.lastPeriodCalls
}

// OperationCalls returns the hashes requested by every Operations call, in
// call order.
func (c *Client) OperationCalls() [][]string {
	c.lock.Lock()
	defer c.lock.Unlock()

	return append([][]string(nil), c.operationCalls...)
}

// Period returns a LastPeriod hook that always reports [period].
func Period(period uint64) func(context.Context) (uint64, error) {
	return func(context.Context) (uint64, error) {
		return period, nil
	}
}

// Final builds a result holding a single final operation.
func Final(expirePeriod uint64) ledger.OperationResult {
	return op(true, expirePeriod)
}

// Pending builds a result holding a single non-final operation.
func Pending(expirePeriod uint64) ledger.OperationResult {
	return op(false, expirePeriod)
}

// Failed builds a result carrying a lookup error.
func Failed(err error) ledger.OperationResult {
	return ledger.OperationResult{Err: err}
}

// Missing builds a result for a hash the ledger does not know.
func Missing() ledger.OperationResult {
	return ledger.OperationResult{Operations: []ledger.OperationInfo{}}
}

func op(final bool, expirePeriod uint64) ledger.OperationResult {
	return ledger.OperationResult{
		Operations: []ledger.OperationInfo{
			{
				IsFinal: final,
				Operation: ledger.Operation{
					Content: ledger.OperationContent{ExpirePeriod: expirePeriod},
				},
			},
		},
	}
}
