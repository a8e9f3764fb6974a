// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"github.com/ava-labs/opwatch/notify"
	"github.com/ava-labs/opwatch/tracker"
)

func TestLoadDefaults(t *testing.T) {
	require := require.New(t)

	c, err := Load(viper.New())
	require.NoError(err)
	require.Equal(NewDefault(), c)
}

func TestLoadFile(t *testing.T) {
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "opwatch.yaml")
	require.NoError(os.WriteFile(path, []byte(`
logLevel: debug
store: redis
tracker:
  pollInterval: 2s
  maxOperationErrors: 3
ledger:
  endpoint: https://node.example.com/api
notify:
  slackToken: xoxb-1
  slackChannel: "#ops"
redis:
  address: redis:6379
`), 0o600))

	v := viper.New()
	v.SetConfigFile(path)
	c, err := Load(v)
	require.NoError(err)

	require.Equal("debug", c.LogLevel)
	require.Equal(StoreRedis, c.Store)
	require.Equal(2*time.Second, c.Tracker.PollInterval)
	require.Equal(uint32(3), c.Tracker.MaxOperationErrors)
	// Untouched fields keep their defaults.
	require.Equal(3*time.Second, c.Tracker.StaleThreshold)
	require.True(c.Tracker.RestoreWatermark)
	require.Equal("https://node.example.com/api", c.Ledger.Endpoint)
	require.Equal("#ops", c.Notify.SlackChannel)
	require.Equal(notify.NewDefaultConfig().Backlog, c.Notify.Backlog)
	require.Equal("redis:6379", c.Redis.Address)
	require.Equal(time.Minute, c.Redis.LeaseTTL)
}

func TestLoadEnv(t *testing.T) {
	require := require.New(t)

	t.Setenv("OPWATCH_TRACKER_STALETHRESHOLD", "10s")
	t.Setenv("OPWATCH_LEDGER_ENDPOINT", "http://10.0.0.1:33035")
	t.Setenv("OPWATCH_TRACKER_RESTOREWATERMARK", "false")

	c, err := Load(viper.New())
	require.NoError(err)
	require.Equal(10*time.Second, c.Tracker.StaleThreshold)
	require.Equal("http://10.0.0.1:33035", c.Ledger.Endpoint)
	require.False(c.Tracker.RestoreWatermark)
}

func TestLoadMissingFile(t *testing.T) {
	v := viper.New()
	v.SetConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load(v)
	require.Error(t, err)
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		err    error
	}{
		{
			name:   "default",
			modify: func(*Config) {},
		},
		{
			name:   "bad log level",
			modify: func(c *Config) { c.LogLevel = "loud" },
			err:    ErrInvalidConfig,
		},
		{
			name:   "no endpoint",
			modify: func(c *Config) { c.Ledger.Endpoint = "" },
			err:    ErrInvalidConfig,
		},
		{
			name:   "unknown store",
			modify: func(c *Config) { c.Store = "sqlite" },
			err:    ErrInvalidConfig,
		},
		{
			name:   "pebble without data dir",
			modify: func(c *Config) { c.DataDir = "" },
			err:    ErrInvalidConfig,
		},
		{
			name: "redis without address",
			modify: func(c *Config) {
				c.Store = StoreRedis
				c.Redis.Address = ""
			},
			err: ErrInvalidConfig,
		},
		{
			name: "redis lease shorter than a tick",
			modify: func(c *Config) {
				c.Store = StoreRedis
				c.Redis.LeaseTTL = c.Tracker.TickTimeout
			},
			err: ErrInvalidConfig,
		},
		{
			name:   "tracker",
			modify: func(c *Config) { c.Tracker.MaxOperationErrors = 0 },
			err:    tracker.ErrInvalidConfig,
		},
		{
			name:   "notify",
			modify: func(c *Config) { c.Notify.Backlog = 0 },
			err:    notify.ErrInvalidSink,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewDefault()
			tt.modify(&c)
			require.ErrorIs(t, c.Verify(), tt.err)
		})
	}
}

func TestMarshal(t *testing.T) {
	require := require.New(t)

	c := NewDefault()
	b, err := c.Marshal()
	require.NoError(err)
	require.Contains(string(b), "pollInterval: 5s")

	var decoded Config
	require.NoError(yaml.Unmarshal(b, &decoded))
	require.Equal(c, decoded)
}
