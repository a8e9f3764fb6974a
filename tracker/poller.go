// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/ava-labs/avalanchego/utils/logging"
	"go.uber.org/zap"
)

// Poller runs an evaluation immediately and then at a fixed delay.
// Evaluations never overlap: a tick that fires while one is running is
// dropped.
type Poller struct {
	log   logging.Logger
	delay time.Duration
	f     func(context.Context) error
}

// NewPoller returns a poller that calls [f] every [delay]. A non-positive
// [delay] is replaced with [DefaultPollInterval].
func NewPoller(log logging.Logger, delay time.Duration, f func(context.Context) error) *Poller {
	if delay <= 0 {
		log.Warn("invalid poll interval, using default",
			zap.Duration("delay", delay),
			zap.Duration("default", DefaultPollInterval),
		)
		delay = DefaultPollInterval
	}
	return &Poller{
		log:   log,
		delay: delay,
		f:     f,
	}
}

type Subscription struct {
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// Unsubscribe stops future evaluations. An in-flight evaluation runs to
// completion; wait on Done to observe it. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}

// Done is closed once the subscription has stopped and no evaluation is
// running.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Subscribe starts polling. Cancelling [ctx] also stops the subscription.
func (p *Poller) Subscribe(ctx context.Context) *Subscription {
	s := &Subscription{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go p.loop(ctx, s)
	return s
}

func (p *Poller) loop(ctx context.Context, s *Subscription) {
	defer close(s.done)

	p.evaluate(ctx)

	t := time.NewTicker(p.delay)
	defer t.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		case <-t.C:
		}

		// Unsubscribe wins over a tick that fired at the same time.
		select {
		case <-s.stop:
			return
		default:
		}
		p.evaluate(ctx)
	}
}

func (p *Poller) evaluate(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("evaluation panicked",
				zap.Any("panic", r),
			)
		}
	}()

	if err := p.f(ctx); err != nil {
		p.log.Debug("evaluation failed",
			zap.Error(err),
		)
	}
}
