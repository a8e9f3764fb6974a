// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pebble

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/ava-labs/avalanchego/database"
	"github.com/cockroachdb/pebble"
	"github.com/prometheus/client_golang/prometheus"
)

var _ database.KeyValueReaderWriterDeleter = (*Database)(nil)

type Config struct {
	CacheSize                   int  `mapstructure:"cacheSize" yaml:"cacheSize"`
	BytesPerSync                int  `mapstructure:"bytesPerSync" yaml:"bytesPerSync"`
	WALBytesPerSync             int  `mapstructure:"walBytesPerSync" yaml:"walBytesPerSync"`
	MemTableStopWritesThreshold int  `mapstructure:"memTableStopWritesThreshold" yaml:"memTableStopWritesThreshold"`
	MemTableSize                int  `mapstructure:"memTableSize" yaml:"memTableSize"`
	MaxOpenFiles                int  `mapstructure:"maxOpenFiles" yaml:"maxOpenFiles"`
	ConcurrentCompactions       int  `mapstructure:"concurrentCompactions" yaml:"concurrentCompactions"`
	Sync                        bool `mapstructure:"sync" yaml:"sync"`
}

// The tracker writes a handful of small keys per tick, so the defaults are
// far smaller than a chain database would use.
func NewDefaultConfig() Config {
	return Config{
		CacheSize:                   16 * 1024 * 1024,
		BytesPerSync:                512 * 1024,
		WALBytesPerSync:             512 * 1024,
		MemTableStopWritesThreshold: 4,
		MemTableSize:                4 * 1024 * 1024,
		MaxOpenFiles:                256,
		ConcurrentCompactions:       1,
		Sync:                        true,
	}
}

type Database struct {
	lock      sync.RWMutex
	db        *pebble.DB
	closed    bool
	closing   chan struct{}
	metricsWg sync.WaitGroup

	writeOptions *pebble.WriteOptions
	metrics      *metrics
}

func New(file string, cfg Config) (*Database, *prometheus.Registry, error) {
	registry, metrics, err := newMetrics()
	if err != nil {
		return nil, nil, err
	}
	d := &Database{
		closing:      make(chan struct{}),
		writeOptions: &pebble.WriteOptions{Sync: cfg.Sync},
		metrics:      metrics,
	}
	opts := &pebble.Options{
		Cache:                       pebble.NewCache(int64(cfg.CacheSize)),
		BytesPerSync:                cfg.BytesPerSync,
		Comparer:                    pebble.DefaultComparer,
		WALBytesPerSync:             cfg.WALBytesPerSync,
		MemTableStopWritesThreshold: cfg.MemTableStopWritesThreshold,
		MemTableSize:                uint64(cfg.MemTableSize),
		MaxOpenFiles:                cfg.MaxOpenFiles,
		MaxConcurrentCompactions:    func() int { return cfg.ConcurrentCompactions },
		EventListener: &pebble.EventListener{
			CompactionBegin: d.onCompactionBegin,
			CompactionEnd:   d.onCompactionEnd,
			WriteStallBegin: d.onWriteStallBegin,
			WriteStallEnd:   d.onWriteStallEnd,
		},
	}
	defer opts.Cache.Unref()

	db, err := pebble.Open(file, opts)
	if err != nil {
		return nil, nil, err
	}
	d.db = db

	d.metricsWg.Add(1)
	go func() {
		defer d.metricsWg.Done()
		d.collectMetrics()
	}()
	return d, registry, nil
}

func (db *Database) Has(key []byte) (bool, error) {
	_, err := db.Get(key)
	switch {
	case errors.Is(err, database.ErrNotFound):
		return false, nil
	case err != nil:
		return false, err
	default:
		return true, nil
	}
}

func (db *Database) Get(key []byte) ([]byte, error) {
	start := time.Now()
	defer func() {
		db.metrics.getLatency.Observe(float64(time.Since(start)))
	}()

	db.lock.RLock()
	defer db.lock.RUnlock()

	if db.closed {
		return nil, database.ErrClosed
	}
	v, closer, err := db.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	return slices.Clone(v), nil
}

func (db *Database) Put(key []byte, value []byte) error {
	db.lock.RLock()
	defer db.lock.RUnlock()

	if db.closed {
		return database.ErrClosed
	}
	return db.db.Set(key, value, db.writeOptions)
}

func (db *Database) Delete(key []byte) error {
	db.lock.RLock()
	defer db.lock.RUnlock()

	if db.closed {
		return database.ErrClosed
	}
	return db.db.Delete(key, db.writeOptions)
}

func (db *Database) Close() error {
	db.lock.Lock()
	if db.closed {
		db.lock.Unlock()
		return database.ErrClosed
	}
	db.closed = true
	close(db.closing)
	db.lock.Unlock()

	db.metricsWg.Wait()
	return db.db.Close()
}
