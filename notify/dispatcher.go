// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/ava-labs/avalanchego/utils/logging"
	"go.uber.org/zap"
)

// Dispatcher fans notifications out to its sinks on a background goroutine.
// Delivery is best-effort: a failed or panicking sink is logged and skipped.
type Dispatcher struct {
	log    logging.Logger
	config Config
	sinks  []Sink

	queue chan Notification

	lock     sync.RWMutex
	started  bool
	stopped  bool
	done     chan struct{}
	stopOnce sync.Once
}

func New(log logging.Logger, config Config, sinks ...Sink) (*Dispatcher, error) {
	if err := config.Verify(); err != nil {
		return nil, err
	}
	return &Dispatcher{
		log:    log,
		config: config,
		sinks:  sinks,
		queue:  make(chan Notification, config.Backlog),
		done:   make(chan struct{}),
	}, nil
}

// Start launches the delivery loop. Calling it more than once has no effect.
func (d *Dispatcher) Start() {
	d.lock.Lock()
	defer d.lock.Unlock()

	if d.started || d.stopped {
		return
	}
	d.started = true
	go d.loop()
}

// Notify enqueues a notification and returns immediately. If the queue is
// full or the dispatcher is stopped, the notification is dropped.
func (d *Dispatcher) Notify(title string, id string, message string) {
	n := Notification{
		Title:   title,
		ID:      id,
		Message: message,
	}

	d.lock.RLock()
	defer d.lock.RUnlock()

	if d.stopped {
		d.log.Warn("dropping notification",
			zap.String("id", id),
			zap.Error(ErrStopped),
		)
		return
	}
	select {
	case d.queue <- n:
	default:
		d.log.Warn("dropping notification, queue full",
			zap.String("id", id),
			zap.Int("backlog", cap(d.queue)),
		)
	}
}

// Stop delivers everything already queued and waits for the loop to exit.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		d.lock.Lock()
		d.stopped = true
		started := d.started
		close(d.queue)
		d.lock.Unlock()

		if !started {
			d.log.Info("dispatcher never started, draining",
				zap.Int("pending", len(d.queue)),
			)
			d.loop()
		}
	})
	<-d.done
}

func (d *Dispatcher) loop() {
	defer close(d.done)

	for n := range d.queue {
		for _, sink := range d.sinks {
			d.send(sink, n)
		}
	}
}

func (d *Dispatcher) send(sink Sink, n Notification) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("notification sink panicked",
				zap.String("sink", sink.Name()),
				zap.String("id", n.ID),
				zap.String("panic", fmt.Sprint(r)),
			)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d.config.SendTimeout)
	defer cancel()

	if err := sink.Send(ctx, n); err != nil {
		d.log.Warn("failed to deliver notification",
			zap.String("sink", sink.Name()),
			zap.String("id", n.ID),
			zap.Error(err),
		)
		return
	}
	d.log.Debug("delivered notification",
		zap.String("sink", sink.Name()),
		zap.String("id", n.ID),
	)
}
