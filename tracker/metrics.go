// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tracker

import (
	"github.com/ava-labs/avalanchego/utils/metric"
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tracker"

type metrics struct {
	ticks        prometheus.Counter
	ticksSkipped prometheus.Counter
	ledgerErrors prometheus.Counter
	persistFails prometheus.Counter
	period       prometheus.Gauge

	queried   prometheus.Counter
	confirmed prometheus.Counter
	expired   prometheus.Counter
	notFound  prometheus.Counter
	rejected  prometheus.Counter
	retried   prometheus.Counter

	reconcile metric.Averager
}

func newMetrics(r prometheus.Registerer) (*metrics, error) {
	reconcile, err := metric.NewAverager(
		"tracker_reconcile",
		"time spent reconciling pending records (ns)",
		r,
	)
	if err != nil {
		return nil, err
	}
	m := &metrics{
		reconcile: reconcile,
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks",
			Help:      "number of evaluations started",
		}),
		ticksSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_skipped",
			Help:      "number of evaluations skipped because another was in flight",
		}),
		ledgerErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_errors",
			Help:      "number of failed ledger queries",
		}),
		persistFails: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_failures",
			Help:      "number of failed watermark or history writes",
		}),
		period: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "period",
			Help:      "current watermark period",
		}),
		queried: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queried",
			Help:      "number of hashes looked up on the ledger",
		}),
		confirmed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "confirmed",
			Help:      "number of records that reached finality",
		}),
		expired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expired",
			Help:      "number of records that expired before finality",
		}),
		notFound: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "not_found",
			Help:      "number of records unknown to the ledger",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected",
			Help:      "number of records failed by a lookup error",
		}),
		retried: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retried",
			Help:      "number of lookup errors deferred to a later tick",
		}),
	}
	errs := wrappers.Errs{}
	errs.Add(
		r.Register(m.ticks),
		r.Register(m.ticksSkipped),
		r.Register(m.ledgerErrors),
		r.Register(m.persistFails),
		r.Register(m.period),
		r.Register(m.queried),
		r.Register(m.confirmed),
		r.Register(m.expired),
		r.Register(m.notFound),
		r.Register(m.rejected),
		r.Register(m.retried),
	)
	return m, errs.Err
}
