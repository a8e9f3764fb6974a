// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/api/metrics"
	"github.com/ava-labs/avalanchego/database"

	"github.com/ava-labs/opwatch/pebble"
	"github.com/ava-labs/opwatch/tracker"
	"github.com/ava-labs/opwatch/utils"
)

var (
	_ tracker.PeriodStore = (*Storage)(nil)
	_ tracker.History     = (*Storage)(nil)

	ErrCorruptHistory = errors.New("corrupt history")
)

// Storage keeps the watermark and the record history in a key-value store.
type Storage struct {
	db database.KeyValueReaderWriterDeleter
}

func New(db database.KeyValueReaderWriterDeleter) *Storage {
	return &Storage{db: db}
}

// Open creates a pebble database under [dataDir]/[namespace] and registers
// its metrics with [gatherer].
func Open(cfg pebble.Config, dataDir string, namespace string, gatherer metrics.MultiGatherer) (*Storage, *pebble.Database, error) {
	path, err := utils.InitSubDirectory(dataDir, namespace)
	if err != nil {
		return nil, nil, err
	}

	db, registry, err := pebble.New(path, cfg)
	if err != nil {
		return nil, nil, err
	}

	if err := gatherer.Register(namespace, registry); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return New(db), db, nil
}

func (s *Storage) GetPeriod() (uint64, error) {
	v, err := s.db.Get(periodKey)
	if err != nil {
		return 0, err
	}
	if len(v) != periodLen {
		return 0, fmt.Errorf("%w: expected %d bytes, got %d", tracker.ErrCorruptPeriod, periodLen, len(v))
	}
	return binary.BigEndian.Uint64(v), nil
}

func (s *Storage) StorePeriod(period uint64) error {
	return s.db.Put(periodKey, binary.BigEndian.AppendUint64(nil, period))
}

// LoadHistory returns the stored records in insertion order. An absent
// history is empty.
func (s *Storage) LoadHistory() ([]*tracker.Record, error) {
	v, err := s.db.Get(historyKey)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var records []*tracker.Record
	if err := json.Unmarshal(v, &records); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptHistory, err)
	}
	return records, nil
}

func (s *Storage) SaveHistory(records []*tracker.Record) error {
	if records == nil {
		records = []*tracker.Record{}
	}
	v, err := json.Marshal(records)
	if err != nil {
		return err
	}
	return s.db.Put(historyKey, v)
}

// Reset removes the watermark and the history.
func (s *Storage) Reset() error {
	if err := s.db.Delete(periodKey); err != nil {
		return err
	}
	return s.db.Delete(historyKey)
}
