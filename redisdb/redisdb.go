// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package redisdb exposes a Redis keyspace as an avalanchego key-value store.
// Processes sharing a keyspace serialize their writes through a [Lease].
package redisdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ava-labs/avalanchego/database"
	"github.com/redis/go-redis/v9"
)

var (
	_ database.KeyValueReaderWriterDeleter = (*Database)(nil)

	ErrEmptyAddress = errors.New("empty redis address")
)

type Config struct {
	Address  string        `mapstructure:"address" yaml:"address"`
	Password string        `mapstructure:"password" yaml:"password"`
	DB       int           `mapstructure:"db" yaml:"db"`
	Prefix   string        `mapstructure:"prefix" yaml:"prefix"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
	// LeaseTTL bounds how long a crashed writer can keep the store locked.
	LeaseTTL time.Duration `mapstructure:"leaseTTL" yaml:"leaseTTL"`
}

func NewDefaultConfig() Config {
	return Config{
		Address:  "127.0.0.1:6379",
		Prefix:   "opwatch:",
		Timeout:  5 * time.Second,
		LeaseTTL: time.Minute,
	}
}

type Database struct {
	client   *redis.Client
	prefix   string
	timeout  time.Duration
	leaseTTL time.Duration
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, cfg Config) (*Database, error) {
	if len(cfg.Address) == 0 {
		return nil, ErrEmptyAddress
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	db := &Database{
		client:   client,
		prefix:   cfg.Prefix,
		timeout:  cfg.Timeout,
		leaseTTL: cfg.LeaseTTL,
	}

	ctx, cancel := db.context(ctx)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Address, err)
	}
	return db, nil
}

func (db *Database) context(parent context.Context) (context.Context, context.CancelFunc) {
	if db.timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, db.timeout)
}

func (db *Database) key(key []byte) string {
	return db.prefix + string(key)
}

func (db *Database) Has(key []byte) (bool, error) {
	ctx, cancel := db.context(context.Background())
	defer cancel()

	n, err := db.client.Exists(ctx, db.key(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (db *Database) Get(key []byte) ([]byte, error) {
	ctx, cancel := db.context(context.Background())
	defer cancel()

	v, err := db.client.Get(ctx, db.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, database.ErrNotFound
	}
	return v, err
}

func (db *Database) Put(key []byte, value []byte) error {
	ctx, cancel := db.context(context.Background())
	defer cancel()

	return db.client.Set(ctx, db.key(key), value, 0).Err()
}

func (db *Database) Delete(key []byte) error {
	ctx, cancel := db.context(context.Background())
	defer cancel()

	return db.client.Del(ctx, db.key(key)).Err()
}

func (db *Database) Close() error {
	return db.client.Close()
}
