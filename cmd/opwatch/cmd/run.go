// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ava-labs/opwatch/notify"
	"github.com/ava-labs/opwatch/tracker"
	"github.com/ava-labs/opwatch/utils"
)

const (
	metricsPath     = "/metrics"
	healthPath      = "/health"
	shutdownTimeout = 5 * time.Second
	readTimeout     = 10 * time.Second
)

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Poll the ledger and reconcile tracked operations until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd.Context())
		},
	}
}

func (a *app) run(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dispatcher, err := notify.New(a.log, a.config.Notify, notify.NewSinks(a.log, a.config.Notify)...)
	if err != nil {
		return err
	}
	dispatcher.Start()
	defer dispatcher.Stop()

	t, _, err := a.newTracker(ctx, dispatcher)
	if err != nil {
		return err
	}
	utils.Outf(
		"{{green}}tracking{{/}} {{cyan}}endpoint:{{/}} %s {{cyan}}period:{{/}} %d {{cyan}}interval:{{/}} %s\n",
		a.config.Ledger.Endpoint,
		t.Period(),
		a.config.Tracker.PollInterval,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sub := t.Subscribe(gctx)
		<-gctx.Done()
		sub.Unsubscribe()
		<-sub.Done()
		a.log.Info("poller stopped",
			zap.Uint64("period", t.Period()),
		)
		return nil
	})
	if len(a.config.MetricsAddr) > 0 {
		server := &http.Server{
			Addr:              a.config.MetricsAddr,
			Handler:           a.metricsHandler(t),
			ReadHeaderTimeout: readTimeout,
		}
		g.Go(func() error {
			a.log.Info("serving metrics",
				zap.String("addr", server.Addr),
			)
			if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	utils.Outf("{{yellow}}stopped{{/}} {{cyan}}period:{{/}} %d\n", t.Period())
	return err
}

type healthReply struct {
	Period uint64 `json:"period"`
}

func (a *app) metricsHandler(t *tracker.Tracker) http.Handler {
	r := mux.NewRouter()
	r.Handle(metricsPath, promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.HandleFunc(healthPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(healthReply{Period: t.Period()})
	}).Methods(http.MethodGet)
	return r
}
