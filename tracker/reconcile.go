// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/ava-labs/avalanchego/utils/set"
	"go.uber.org/zap"

	"github.com/ava-labs/opwatch/ledger"
)

type Notification struct {
	Title   string
	ID      string
	Message string
}

// Outcome summarizes a reconciliation pass.
type Outcome struct {
	// Queried is the number of hashes sent to the ledger.
	Queried int
	// Changed reports whether any record was modified.
	Changed bool
	// Notifications holds one entry per record that became terminal, in
	// history order.
	Notifications []Notification
}

// Reconcile classifies every stale, non-terminal record in [records] against
// the ledger, mutating them in place. At most one ledger query is issued. If
// the query fails, no record is modified.
func (t *Tracker) Reconcile(ctx context.Context, records []*Record, period uint64) (*Outcome, error) {
	start := time.Now()
	defer func() {
		t.metrics.reconcile.Observe(float64(time.Since(start)))
	}()

	var (
		now       = t.clock.Time().UnixMilli()
		threshold = t.config.StaleThreshold.Milliseconds()
		seen      = set.NewSet[string](len(records))
		selected  []*Record
	)
	for _, r := range records {
		if !r.stale(now, threshold) || seen.Contains(r.Hash) {
			continue
		}
		seen.Add(r.Hash)
		selected = append(selected, r)
	}

	outcome := &Outcome{}
	if len(selected) == 0 {
		return outcome, nil
	}

	hashes := make([]string, len(selected))
	for i, r := range selected {
		hashes[i] = r.Hash
	}
	results, err := t.ledger.Operations(ctx, hashes)
	if err != nil {
		t.metrics.ledgerErrors.Inc()
		t.log.Warn("failed to fetch operations",
			zap.Int("count", len(hashes)),
			zap.Error(err),
		)
		return nil, err
	}
	if len(results) != len(selected) {
		return nil, fmt.Errorf("%w: requested %d, got %d", ErrResultCountMismatch, len(selected), len(results))
	}
	outcome.Queried = len(selected)
	t.metrics.queried.Add(float64(len(selected)))

	for i, result := range results {
		r := selected[i]
		reason, changed := t.classify(r, result, period)
		if !changed {
			continue
		}
		outcome.Changed = true
		if !r.Confirmed {
			continue
		}
		t.log.Info("operation finalized",
			zap.String("hash", r.Hash),
			zap.Bool("success", r.Success),
			zap.String("reason", reason),
			zap.Uint64("period", period),
		)
		outcome.Notifications = append(outcome.Notifications, Notification{
			Title:   r.Title,
			ID:      r.Hash,
			Message: reason,
		})
	}
	return outcome, nil
}

// classify applies [result] to the pending record [r]. It returns the
// terminal reason (empty if [r] is still pending) and whether [r] changed.
func (t *Tracker) classify(r *Record, result ledger.OperationResult, period uint64) (string, bool) {
	if result.Err != nil {
		r.Failures++
		if r.Failures < t.config.MaxOperationErrors {
			t.metrics.retried.Inc()
			t.log.Debug("deferring failed lookup",
				zap.String("hash", r.Hash),
				zap.Uint32("failures", r.Failures),
				zap.Error(result.Err),
			)
			return "", true
		}
		t.metrics.rejected.Inc()
		return r.finalize(false, result.Err.Error()), true
	}
	if len(result.Operations) == 0 {
		t.metrics.notFound.Inc()
		return r.finalize(false, StatusNotFound), true
	}

	op := result.Operations[0]
	switch {
	case !op.IsFinal && op.Operation.Content.ExpirePeriod < period:
		t.metrics.expired.Inc()
		return r.finalize(false, StatusExpirePeriod), true
	case op.IsFinal:
		t.metrics.confirmed.Inc()
		return r.finalize(true, ""), true
	case r.Failures > 0:
		r.Failures = 0
		return "", true
	default:
		return "", false
	}
}
