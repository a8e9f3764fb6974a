// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tracker

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/utils/logging"
	"go.uber.org/zap"
)

// PeriodStore persists the watermark. GetPeriod returns
// [database.ErrNotFound] if no period was ever stored.
type PeriodStore interface {
	GetPeriod() (uint64, error)
	StorePeriod(period uint64) error
}

// Watermark is the highest ledger period the tracker has acted on. It never
// moves backwards.
type Watermark struct {
	log   logging.Logger
	store PeriodStore

	lock   sync.Mutex
	period uint64
}

func NewWatermark(log logging.Logger, store PeriodStore) *Watermark {
	return &Watermark{
		log:   log,
		store: store,
	}
}

func (w *Watermark) Period() uint64 {
	w.lock.Lock()
	defer w.lock.Unlock()

	return w.period
}

// TryAdvance accepts [candidate] iff it is strictly greater than both the
// current and the persisted period, persisting it before returning. A
// higher persisted period, written by another process, is adopted instead.
// A persistence failure is returned wrapped in [ErrPersistWatermark]; the
// in-memory value is kept regardless.
func (w *Watermark) TryAdvance(candidate uint64) (bool, error) {
	w.lock.Lock()
	defer w.lock.Unlock()

	if candidate <= w.period {
		return false, nil
	}
	persisted, err := w.store.GetPeriod()
	switch {
	case err == nil && persisted >= candidate:
		w.log.Debug("adopting persisted period",
			zap.Uint64("candidate", candidate),
			zap.Uint64("persisted", persisted),
		)
		w.period = persisted
		return false, nil
	case err != nil && !errors.Is(err, database.ErrNotFound) && !errors.Is(err, ErrCorruptPeriod):
		// Writing blind could lower a period stored by another process.
		w.period = candidate
		return true, fmt.Errorf("%w: %w", ErrPersistWatermark, err)
	}

	w.period = candidate
	if err := w.store.StorePeriod(candidate); err != nil {
		return true, fmt.Errorf("%w: %w", ErrPersistWatermark, err)
	}
	return true, nil
}

// Restore loads the persisted period. A missing or corrupt value is replaced
// with the current in-memory period. A persisted value lower than the
// current one is ignored.
func (w *Watermark) Restore() error {
	w.lock.Lock()
	defer w.lock.Unlock()

	period, err := w.store.GetPeriod()
	switch {
	case errors.Is(err, database.ErrNotFound):
		w.log.Info("no persisted period, initializing",
			zap.Uint64("period", w.period),
		)
		return w.store.StorePeriod(w.period)
	case errors.Is(err, ErrCorruptPeriod):
		w.log.Warn("discarding corrupt persisted period",
			zap.Uint64("period", w.period),
			zap.Error(err),
		)
		return w.store.StorePeriod(w.period)
	case err != nil:
		return err
	}

	if period > w.period {
		w.period = period
	}
	w.log.Info("restored period",
		zap.Uint64("period", w.period),
	)
	return nil
}
