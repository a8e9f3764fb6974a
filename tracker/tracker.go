// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ava-labs/avalanchego/utils/set"
	"github.com/ava-labs/avalanchego/utils/timer/mockable"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ava-labs/opwatch/ledger"
)

// History is the durable, ordered collection of records. The tracker is its
// only writer; processes sharing one must configure a [Locker].
type History interface {
	LoadHistory() ([]*Record, error)
	SaveHistory(records []*Record) error
}

// Notifier delivers a one-shot alert. It must not block.
type Notifier interface {
	Notify(title string, id string, message string)
}

type Tracker struct {
	log       logging.Logger
	config    Config
	ledger    ledger.Client
	watermark *Watermark
	history   History
	notifier  Notifier
	metrics   *metrics
	clock     mockable.Clock
	locker    Locker

	// lock admits a single evaluation or history write at a time.
	lock sync.Mutex
	// unsaved holds records that became terminal and were announced but
	// whose history write failed, keyed by hash. Guarded by [lock].
	unsaved map[string]*Record
}

func New(
	log logging.Logger,
	config Config,
	client ledger.Client,
	periods PeriodStore,
	history History,
	notifier Notifier,
	registerer prometheus.Registerer,
	options ...Option,
) (*Tracker, error) {
	if err := config.Verify(); err != nil {
		return nil, err
	}
	m, err := newMetrics(registerer)
	if err != nil {
		return nil, err
	}
	t := &Tracker{
		log:       log,
		config:    config,
		ledger:    client,
		watermark: NewWatermark(log, periods),
		history:   history,
		notifier:  notifier,
		metrics:   m,
		unsaved:   make(map[string]*Record),
	}
	for _, o := range options {
		o(t)
	}
	if config.RestoreWatermark {
		if err := t.watermark.Restore(); err != nil {
			return nil, fmt.Errorf("failed to restore watermark: %w", err)
		}
		m.period.Set(float64(t.watermark.Period()))
	}
	return t, nil
}

func (t *Tracker) Period() uint64 {
	return t.watermark.Period()
}

// Subscribe evaluates immediately and then every PollInterval until the
// returned subscription is cancelled.
func (t *Tracker) Subscribe(ctx context.Context) *Subscription {
	return NewPoller(t.log, t.config.PollInterval, t.Tick).Subscribe(ctx)
}

// Tick runs one evaluation: refresh the watermark and, only if it advanced,
// reconcile the history against the ledger. Returns [ErrTickInProgress]
// without doing anything if another evaluation holds the gate, in this
// process or, with a [Locker], in another one.
//
// Notifications are sent even if the history write fails. The announced
// outcomes are then kept in memory and written with the next successful
// history write, so they are not announced again.
func (t *Tracker) Tick(ctx context.Context) error {
	if !t.lock.TryLock() {
		t.metrics.ticksSkipped.Inc()
		return ErrTickInProgress
	}
	defer t.lock.Unlock()

	if t.config.TickTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.config.TickTimeout)
		defer cancel()
	}
	unlock, err := t.lockShared(ctx, false)
	if errors.Is(err, ErrTickInProgress) {
		t.metrics.ticksSkipped.Inc()
		return err
	}
	if err != nil {
		t.log.Warn("failed to take shared lock",
			zap.Error(err),
		)
		return err
	}
	defer unlock()

	t.metrics.ticks.Inc()

	period, err := t.ledger.LastPeriod(ctx)
	switch {
	case errors.Is(err, ledger.ErrNoLastSlot):
		t.log.Debug("ledger reported no last slot")
		return nil
	case err != nil:
		t.metrics.ledgerErrors.Inc()
		t.log.Warn("failed to fetch ledger period",
			zap.Error(err),
		)
		return err
	}

	advanced, persistErr := t.watermark.TryAdvance(period)
	if persistErr != nil {
		t.metrics.persistFails.Inc()
		t.log.Error("failed to persist watermark",
			zap.Uint64("period", period),
			zap.Error(persistErr),
		)
	}
	if !advanced {
		t.log.Debug("period did not advance",
			zap.Uint64("observed", period),
			zap.Uint64("watermark", t.watermark.Period()),
		)
		return nil
	}
	t.metrics.period.Set(float64(period))

	return errors.Join(persistErr, t.reconcileHistory(ctx, period))
}

func (t *Tracker) reconcileHistory(ctx context.Context, period uint64) error {
	records, err := t.history.LoadHistory()
	if err != nil {
		t.log.Error("failed to load history",
			zap.Error(err),
		)
		return err
	}
	restored := t.applyUnsaved(records)
	outcome, err := t.Reconcile(ctx, records, period)
	if err != nil {
		return err
	}

	var saveErr error
	if outcome.Changed || restored {
		if saveErr = t.saveHistory(records); saveErr != nil {
			t.metrics.persistFails.Inc()
			t.log.Error("failed to save history",
				zap.Int("records", len(records)),
				zap.Error(saveErr),
			)
			t.keepUnsaved(records, outcome.Notifications)
		}
	}
	for _, n := range outcome.Notifications {
		t.notifier.Notify(n.Title, n.ID, n.Message)
	}
	return saveErr
}

// applyUnsaved copies terminal outcomes that were announced but never
// written onto [records]. Reports whether any record changed.
func (t *Tracker) applyUnsaved(records []*Record) bool {
	changed := false
	for _, r := range records {
		u, ok := t.unsaved[r.Hash]
		if !ok || r.Confirmed {
			continue
		}
		r.Confirmed = u.Confirmed
		r.Success = u.Success
		r.Error = u.Error
		r.Failures = u.Failures
		changed = true
	}
	return changed
}

func (t *Tracker) keepUnsaved(records []*Record, notifications []Notification) {
	announced := set.NewSet[string](len(notifications))
	for _, n := range notifications {
		announced.Add(n.ID)
	}
	for _, r := range records {
		if r.Confirmed && announced.Contains(r.Hash) {
			c := *r
			t.unsaved[r.Hash] = &c
		}
	}
}

// saveHistory writes [records] and forgets outcomes it made durable.
func (t *Tracker) saveHistory(records []*Record) error {
	if err := t.history.SaveHistory(records); err != nil {
		return err
	}
	clear(t.unsaved)
	return nil
}

// Track appends a new pending record to the history. The record's
// classification fields are reset and a zero timestamp is replaced with
// the current time. With a [Locker], Track waits for the shared lock until
// [ctx] is done.
func (t *Tracker) Track(ctx context.Context, r *Record) error {
	if len(r.Hash) == 0 {
		return fmt.Errorf("%w: empty hash", ErrInvalidRecord)
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	unlock, err := t.lockShared(ctx, true)
	if err != nil {
		return err
	}
	defer unlock()

	records, err := t.history.LoadHistory()
	if err != nil {
		return err
	}
	for _, existing := range records {
		if existing.Hash == r.Hash {
			return fmt.Errorf("%w: %s", ErrDuplicateRecord, r.Hash)
		}
	}

	timestamp := r.Timestamp
	if timestamp == 0 {
		timestamp = t.clock.Time().UnixMilli()
	}
	t.applyUnsaved(records)
	records = append(records, &Record{
		Hash:      r.Hash,
		Title:     r.Title,
		Timestamp: timestamp,
	})
	if err := t.saveHistory(records); err != nil {
		return err
	}
	t.log.Info("tracking operation",
		zap.String("hash", r.Hash),
		zap.String("title", r.Title),
	)
	return nil
}

// Records returns the current history.
func (t *Tracker) Records() ([]*Record, error) {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.history.LoadHistory()
}
