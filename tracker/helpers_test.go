// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tracker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/opwatch/ledger/ledgertest"
)

var testNow = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

type memPeriods struct {
	lock     sync.Mutex
	period   uint64
	found    bool
	getErr   error
	storeErr error
	stored   []uint64
}

func (m *memPeriods) GetPeriod() (uint64, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.getErr != nil {
		return 0, m.getErr
	}
	if !m.found {
		return 0, database.ErrNotFound
	}
	return m.period, nil
}

func (m *memPeriods) StorePeriod(period uint64) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.storeErr != nil {
		return m.storeErr
	}
	m.period = period
	m.found = true
	m.stored = append(m.stored, period)
	return nil
}

func (m *memPeriods) Stored() []uint64 {
	m.lock.Lock()
	defer m.lock.Unlock()

	return append([]uint64(nil), m.stored...)
}

// memHistory copies records in and out to mimic a serializing store.
type memHistory struct {
	lock    sync.Mutex
	records []*Record
	loadErr error
	saveErr error
	saves   int
}

func copyRecords(records []*Record) []*Record {
	out := make([]*Record, len(records))
	for i, r := range records {
		c := *r
		out[i] = &c
	}
	return out
}

func (m *memHistory) LoadHistory() ([]*Record, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return copyRecords(m.records), nil
}

func (m *memHistory) SaveHistory(records []*Record) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.records = copyRecords(records)
	return nil
}

func (m *memHistory) Saves() int {
	m.lock.Lock()
	defer m.lock.Unlock()

	return m.saves
}

func (m *memHistory) Get(hash string) *Record {
	m.lock.Lock()
	defer m.lock.Unlock()

	for _, r := range m.records {
		if r.Hash == hash {
			c := *r
			return &c
		}
	}
	return nil
}

type recordingNotifier struct {
	lock          sync.Mutex
	notifications []Notification
}

func (n *recordingNotifier) Notify(title string, id string, message string) {
	n.lock.Lock()
	defer n.lock.Unlock()

	n.notifications = append(n.notifications, Notification{
		Title:   title,
		ID:      id,
		Message: message,
	})
}

func (n *recordingNotifier) Notifications() []Notification {
	n.lock.Lock()
	defer n.lock.Unlock()

	return append([]Notification(nil), n.notifications...)
}

// memLocker stands in for a lock shared with other processes.
type memLocker struct {
	lock    sync.Mutex
	held    bool
	err     error
	unlocks int
}

func (m *memLocker) TryLock(context.Context) (bool, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.err != nil {
		return false, m.err
	}
	if m.held {
		return false, nil
	}
	m.held = true
	return true, nil
}

func (m *memLocker) Unlock(context.Context) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.held = false
	m.unlocks++
	return nil
}

func (m *memLocker) Held() bool {
	m.lock.Lock()
	defer m.lock.Unlock()

	return m.held
}

func (m *memLocker) Unlocks() int {
	m.lock.Lock()
	defer m.lock.Unlock()

	return m.unlocks
}

type testEnv struct {
	tracker  *Tracker
	ledger   *ledgertest.Client
	periods  *memPeriods
	history  *memHistory
	notifier *recordingNotifier
}

func newTestEnv(t *testing.T, config Config, records ...*Record) *testEnv {
	return newTestEnvWithOptions(t, config, nil, records...)
}

func newTestEnvWithOptions(t *testing.T, config Config, options []Option, records ...*Record) *testEnv {
	env := &testEnv{
		ledger:   &ledgertest.Client{},
		periods:  &memPeriods{},
		history:  &memHistory{records: copyRecords(records)},
		notifier: &recordingNotifier{},
	}
	tr, err := New(
		logging.NoLog{},
		config,
		env.ledger,
		env.periods,
		env.history,
		env.notifier,
		prometheus.NewRegistry(),
		options...,
	)
	require.NoError(t, err)
	tr.clock.Set(testNow)
	env.tracker = tr
	return env
}

// pending builds a non-terminal record submitted [age] before testNow.
func pending(hash string, age time.Duration) *Record {
	return &Record{
		Hash:      hash,
		Title:     "transfer " + hash,
		Timestamp: testNow.Add(-age).UnixMilli(),
	}
}
