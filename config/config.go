// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"github.com/ava-labs/opwatch/ledger"
	"github.com/ava-labs/opwatch/notify"
	"github.com/ava-labs/opwatch/pebble"
	"github.com/ava-labs/opwatch/redisdb"
	"github.com/ava-labs/opwatch/tracker"
)

const (
	EnvPrefix = "OPWATCH"

	StorePebble = "pebble"
	StoreRedis  = "redis"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	LogLevel    string `mapstructure:"logLevel" yaml:"logLevel"`
	LogDir      string `mapstructure:"logDir" yaml:"logDir"`
	DataDir     string `mapstructure:"dataDir" yaml:"dataDir"`
	MetricsAddr string `mapstructure:"metricsAddr" yaml:"metricsAddr"`
	// Store selects the backend for the watermark and the history.
	Store string `mapstructure:"store" yaml:"store"`

	Tracker tracker.Config `mapstructure:"tracker" yaml:"tracker"`
	Ledger  ledger.Config  `mapstructure:"ledger" yaml:"ledger"`
	Notify  notify.Config  `mapstructure:"notify" yaml:"notify"`
	Pebble  pebble.Config  `mapstructure:"pebble" yaml:"pebble"`
	Redis   redisdb.Config `mapstructure:"redis" yaml:"redis"`
}

func NewDefault() Config {
	return Config{
		LogLevel:    logging.Info.String(),
		LogDir:      ".opwatch/logs",
		DataDir:     ".opwatch/data",
		MetricsAddr: "127.0.0.1:9650",
		Store:       StorePebble,
		Tracker:     tracker.NewDefaultConfig(),
		Ledger:      ledger.NewDefaultConfig(),
		Notify:      notify.NewDefaultConfig(),
		Pebble:      pebble.NewDefaultConfig(),
		Redis:       redisdb.NewDefaultConfig(),
	}
}

// Load reads the config from [v]. Every field starts at its default and can
// be overridden by the config file or by an OPWATCH_ prefixed environment
// variable, e.g. OPWATCH_TRACKER_POLLINTERVAL=10s.
func Load(v *viper.Viper) (Config, error) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := setDefaults(v, NewDefault()); err != nil {
		return Config{}, err
	}
	// Empty lists are omitted from the defaults.
	if err := v.BindEnv("notify.emailTo"); err != nil {
		return Config{}, err
	}

	if len(v.ConfigFileUsed()) > 0 {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read %s: %w", v.ConfigFileUsed(), err)
		}
	}

	c := NewDefault()
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, err
	}
	return c, c.Verify()
}

// setDefaults registers every leaf of [c] with [v] so that environment
// overrides apply to keys absent from the config file.
func setDefaults(v *viper.Viper, c Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	var tree map[string]interface{}
	if err := yaml.Unmarshal(b, &tree); err != nil {
		return err
	}
	walk("", tree, v.SetDefault)
	return nil
}

func walk(prefix string, node map[string]interface{}, set func(string, interface{})) {
	for k, val := range node {
		key := k
		if len(prefix) > 0 {
			key = prefix + "." + k
		}
		if child, ok := val.(map[interface{}]interface{}); ok {
			m := make(map[string]interface{}, len(child))
			for ck, cv := range child {
				m[fmt.Sprint(ck)] = cv
			}
			walk(key, m, set)
			continue
		}
		set(key, val)
	}
}

func (c Config) Verify() error {
	if _, err := logging.ToLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if len(c.Ledger.Endpoint) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, ledger.ErrEmptyEndpoint)
	}
	switch c.Store {
	case StorePebble:
		if len(c.DataDir) == 0 {
			return fmt.Errorf("%w: data dir required for %s store", ErrInvalidConfig, StorePebble)
		}
	case StoreRedis:
		if len(c.Redis.Address) == 0 {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, redisdb.ErrEmptyAddress)
		}
		// A lease that can expire mid-tick would admit a second writer.
		if c.Redis.LeaseTTL <= c.Tracker.TickTimeout {
			return fmt.Errorf("%w: redis lease ttl %s must exceed tick timeout %s", ErrInvalidConfig, c.Redis.LeaseTTL, c.Tracker.TickTimeout)
		}
	default:
		return fmt.Errorf("%w: unknown store %q", ErrInvalidConfig, c.Store)
	}
	if err := c.Tracker.Verify(); err != nil {
		return err
	}
	return c.Notify.Verify()
}

// Marshal renders the config as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
