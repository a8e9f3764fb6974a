// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type recordingSink struct {
	lock  sync.Mutex
	block chan struct{}
	sent  []Notification
}

func (*recordingSink) Name() string { return "recording" }

func (s *recordingSink) Send(ctx context.Context, n Notification) error {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.lock.Lock()
	defer s.lock.Unlock()

	s.sent = append(s.sent, n)
	return nil
}

func (s *recordingSink) Sent() []Notification {
	s.lock.Lock()
	defer s.lock.Unlock()

	return append([]Notification(nil), s.sent...)
}

func TestDispatcherDelivers(t *testing.T) {
	require := require.New(t)

	ctrl := gomock.NewController(t)
	failing := NewMockSink(ctrl)
	failing.EXPECT().Name().Return("failing").AnyTimes()
	failing.EXPECT().Send(gomock.Any(), Notification{
		Title:   "payout",
		ID:      "op1",
		Message: "Confirmed",
	}).Return(errors.New("unreachable"))
	failing.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, Notification) error {
			panic("bad sink")
		},
	)

	sink := &recordingSink{}
	d, err := New(logging.NoLog{}, NewDefaultConfig(), failing, sink)
	require.NoError(err)
	d.Start()
	d.Start()

	d.Notify("payout", "op1", "Confirmed")
	d.Notify("refund", "op2", "Expire period")
	d.Stop()

	require.Equal([]Notification{
		{Title: "payout", ID: "op1", Message: "Confirmed"},
		{Title: "refund", ID: "op2", Message: "Expire period"},
	}, sink.Sent())
}

func TestDispatcherNotifyNeverBlocks(t *testing.T) {
	require := require.New(t)

	config := NewDefaultConfig()
	config.Backlog = 2
	sink := &recordingSink{block: make(chan struct{})}
	d, err := New(logging.NoLog{}, config, sink)
	require.NoError(err)

	// Not started: the queue fills up and the rest is dropped.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			d.Notify("t", "id", "m")
		}
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		require.FailNow("notify blocked")
	}

	close(sink.block)
	d.Stop()
	require.Len(sink.Sent(), 2)
}

func TestDispatcherStopDrainsUnstarted(t *testing.T) {
	require := require.New(t)

	sink := &recordingSink{}
	d, err := New(logging.NoLog{}, NewDefaultConfig(), sink)
	require.NoError(err)

	d.Notify("t", "op1", "Confirmed")
	d.Stop()
	d.Stop()
	require.Len(sink.Sent(), 1)

	// Dropped after stop.
	d.Notify("t", "op2", "Confirmed")
	d.Start()
	require.Len(sink.Sent(), 1)
}

func TestDispatcherSendTimeout(t *testing.T) {
	require := require.New(t)

	config := NewDefaultConfig()
	config.SendTimeout = 10 * time.Millisecond
	stuck := &recordingSink{block: make(chan struct{})}
	d, err := New(logging.NoLog{}, config, stuck)
	require.NoError(err)
	d.Start()

	d.Notify("t", "op1", "Confirmed")
	d.Notify("t", "op2", "Confirmed")
	d.Stop()
	require.Empty(stuck.Sent())
}

func TestConfigVerify(t *testing.T) {
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
			name:   "zero backlog",
			modify: func(c *Config) { c.Backlog = 0 },
			err:    ErrInvalidSink,
		},
		{
			name:   "zero timeout",
			modify: func(c *Config) { c.SendTimeout = 0 },
			err:    ErrInvalidSink,
		},
		{
			name:   "slack without channel",
			modify: func(c *Config) { c.SlackToken = "xoxb" },
			err:    ErrInvalidSink,
		},
		{
			name: "sendgrid without recipients",
			modify: func(c *Config) {
				c.SendGridKey = "SG.key"
				c.EmailFrom = "ops@example.com"
			},
			err: ErrInvalidSink,
		},
		{
			name: "all sinks",
			modify: func(c *Config) {
				c.SlackToken = "xoxb"
				c.SlackChannel = "#ops"
				c.SendGridKey = "SG.key"
				c.EmailFrom = "ops@example.com"
				c.EmailTo = []string{"oncall@example.com"}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := NewDefaultConfig()
			tt.modify(&config)
			require.ErrorIs(t, config.Verify(), tt.err)
		})
	}
}

func TestNewSinks(t *testing.T) {
	require := require.New(t)

	config := NewDefaultConfig()
	require.Len(NewSinks(logging.NoLog{}, config), 1)

	config.SlackToken = "xoxb"
	config.SlackChannel = "#ops"
	config.SendGridKey = "SG.key"
	config.EmailFrom = "ops@example.com"
	config.EmailTo = []string{"oncall@example.com"}
	sinks := NewSinks(logging.NoLog{}, config)
	names := make([]string, len(sinks))
	for i, s := range sinks {
		names[i] = s.Name()
	}
	require.Equal([]string{"log", "slack", "email"}, names)
}
