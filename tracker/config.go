// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tracker

import (
	"fmt"
	"time"
)

const DefaultPollInterval = 5 * time.Second

type Config struct {
	// PollInterval is the delay between two evaluations.
	PollInterval time.Duration `mapstructure:"pollInterval" yaml:"pollInterval"`
	// StaleThreshold is the grace period after submission before a record
	// is eligible for a status check.
	StaleThreshold time.Duration `mapstructure:"staleThreshold" yaml:"staleThreshold"`
	// TickTimeout bounds a single evaluation, ledger queries included.
	TickTimeout time.Duration `mapstructure:"tickTimeout" yaml:"tickTimeout"`
	// MaxOperationErrors is the number of consecutive lookup errors after
	// which a record is marked failed. 1 fails on the first error.
	MaxOperationErrors uint32 `mapstructure:"maxOperationErrors" yaml:"maxOperationErrors"`
	// RestoreWatermark loads the last persisted period on startup.
	RestoreWatermark bool `mapstructure:"restoreWatermark" yaml:"restoreWatermark"`
}

func NewDefaultConfig() Config {
	return Config{
		PollInterval:       DefaultPollInterval,
		StaleThreshold:     3 * time.Second,
		TickTimeout:        30 * time.Second,
		MaxOperationErrors: 1,
		RestoreWatermark:   true,
	}
}

func (c Config) Verify() error {
	switch {
	case c.PollInterval <= 0:
		return fmt.Errorf("%w: poll interval must be positive, got %s", ErrInvalidConfig, c.PollInterval)
	case c.StaleThreshold < 0:
		return fmt.Errorf("%w: stale threshold must not be negative, got %s", ErrInvalidConfig, c.StaleThreshold)
	case c.TickTimeout < 0:
		return fmt.Errorf("%w: tick timeout must not be negative, got %s", ErrInvalidConfig, c.TickTimeout)
	case c.MaxOperationErrors == 0:
		return fmt.Errorf("%w: max operation errors must be at least 1", ErrInvalidConfig)
	default:
		return nil
	}
}
