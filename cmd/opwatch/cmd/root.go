// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// "opwatch" implements the operation tracker command line interface.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/ava-labs/avalanchego/api/metrics"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ava-labs/opwatch/config"
	"github.com/ava-labs/opwatch/consts"
	"github.com/ava-labs/opwatch/ledger"
	"github.com/ava-labs/opwatch/redisdb"
	"github.com/ava-labs/opwatch/storage"
	"github.com/ava-labs/opwatch/tracker"
)

const (
	trackerNamespace = "opwatch"
	writerLease      = "writer"

	logFileMaxSize  = 8 // megabytes
	logFileMaxFiles = 5
	logFileMaxAge   = 14 // days
)

type app struct {
	v          *viper.Viper
	configFile string
	quiet      bool

	config   config.Config
	logs     *logFactory
	log      logging.Logger
	gatherer metrics.MultiGatherer
	// locker is set when the store is shared with other processes.
	locker tracker.Locker

	closers []func() error
}

func NewRootCmd() *cobra.Command {
	a := &app{
		v:        viper.New(),
		log:      logging.NoLog{},
		gatherer: metrics.NewPrefixGatherer(),
	}
	cmd := &cobra.Command{
		Use:   consts.Name,
		Short: "Track submitted ledger operations until they are final",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.init()
		},
	}

	cobra.EnablePrefixMatching = true
	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.DisableAutoGenTag = true
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "path to a YAML config file")
	flags.String("log-level", config.NewDefault().LogLevel, "log level")
	flags.String("data-dir", config.NewDefault().DataDir, "directory holding the pebble store")
	flags.BoolVar(&a.quiet, "quiet", false, "only write logs to the log file")
	for key, flag := range map[string]string{
		"logLevel": "log-level",
		"dataDir":  "data-dir",
	} {
		if err := a.v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}

	// Resources are released even when a command fails.
	cobra.OnFinalize(func() {
		if err := a.close(); err != nil {
			a.log.Warn("failed to release resources",
				zap.Error(err),
			)
		}
		if a.logs != nil {
			a.logs.Close()
		}
	})

	cmd.AddCommand(
		newRunCmd(a),
		newTickCmd(a),
		newTrackCmd(a),
		newHistoryCmd(a),
		newPeriodCmd(a),
		newConfigCmd(a),
		newPrometheusCmd(a),
		newAddressCmd(),
	)
	return cmd
}

func (a *app) init() error {
	if len(a.configFile) > 0 {
		a.v.SetConfigFile(a.configFile)
	}
	c, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.config = c

	level, err := logging.ToLevel(c.LogLevel)
	if err != nil {
		return err
	}
	loggingConfig := logging.Config{}
	loggingConfig.LogLevel = level
	loggingConfig.DisplayLevel = level
	loggingConfig.LogFormat = logging.JSON
	loggingConfig.Directory = c.LogDir
	loggingConfig.MaxSize = logFileMaxSize
	loggingConfig.MaxFiles = logFileMaxFiles
	loggingConfig.MaxAge = logFileMaxAge
	loggingConfig.DisableWriterDisplaying = a.quiet

	a.logs = newLogFactory(loggingConfig)
	a.log, err = a.logs.Make(consts.Name)
	if err != nil {
		a.logs.Close()
		return err
	}
	a.log.Debug("config loaded",
		zap.String("store", c.Store),
		zap.String("endpoint", c.Ledger.Endpoint),
		zap.String("dataDir", c.DataDir),
	)
	return nil
}

// close releases everything opened by the command, most recent first.
func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *app) openStorage(ctx context.Context) (*storage.Storage, error) {
	switch a.config.Store {
	case config.StoreRedis:
		db, err := redisdb.New(ctx, a.config.Redis)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		a.locker = db.NewLease(writerLease)
		return storage.New(db), nil
	default:
		dataDir, err := filepath.Abs(a.config.DataDir)
		if err != nil {
			return nil, err
		}
		s, db, err := storage.Open(a.config.Pebble, dataDir, storage.Namespace, a.gatherer)
		if err != nil {
			return nil, fmt.Errorf("failed to open store in %s: %w", dataDir, err)
		}
		a.closers = append(a.closers, db.Close)
		return s, nil
	}
}

// newTracker wires a tracker over the configured store and ledger. The
// watermark is restored here when enabled.
func (a *app) newTracker(ctx context.Context, notifier tracker.Notifier) (*tracker.Tracker, *storage.Storage, error) {
	s, err := a.openStorage(ctx)
	if err != nil {
		return nil, nil, err
	}
	client, err := ledger.NewJSONRPCClient(a.config.Ledger)
	if err != nil {
		return nil, nil, err
	}
	registry := prometheus.NewRegistry()
	if err := a.gatherer.Register(trackerNamespace, registry); err != nil {
		return nil, nil, err
	}
	var options []tracker.Option
	if a.locker != nil {
		options = append(options, tracker.WithLocker(a.locker))
	}
	t, err := tracker.New(
		a.log,
		a.config.Tracker,
		client,
		s,
		s,
		notifier,
		registry,
		options...,
	)
	if err != nil {
		return nil, nil, err
	}
	return t, s, nil
}
