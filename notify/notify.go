// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package notify

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrStopped          = errors.New("dispatcher stopped")
	ErrInvalidSink      = errors.New("invalid sink config")
	ErrUnexpectedStatus = errors.New("unexpected response status")
)

// Notification is a one-shot alert about a record that reached a terminal
// state.
type Notification struct {
	Title   string
	ID      string
	Message string
}

func (n Notification) String() string {
	return fmt.Sprintf("%s (%s): %s", n.Title, n.ID, n.Message)
}

// Sink delivers a notification to one destination.
type Sink interface {
	Name() string
	Send(ctx context.Context, n Notification) error
}

type Config struct {
	// Backlog is the number of notifications queued before new ones are
	// dropped.
	Backlog int `mapstructure:"backlog" yaml:"backlog"`
	// SendTimeout bounds a single delivery to a single sink.
	SendTimeout time.Duration `mapstructure:"sendTimeout" yaml:"sendTimeout"`

	SlackToken   string   `mapstructure:"slackToken" yaml:"slackToken"`
	SlackChannel string   `mapstructure:"slackChannel" yaml:"slackChannel"`
	SendGridKey  string   `mapstructure:"sendgridKey" yaml:"sendgridKey"`
	EmailFrom    string   `mapstructure:"emailFrom" yaml:"emailFrom"`
	EmailTo      []string `mapstructure:"emailTo" yaml:"emailTo,omitempty"`
}

func NewDefaultConfig() Config {
	return Config{
		Backlog:     256,
		SendTimeout: 10 * time.Second,
	}
}

func (c Config) Verify() error {
	switch {
	case c.Backlog <= 0:
		return fmt.Errorf("%w: backlog must be positive, got %d", ErrInvalidSink, c.Backlog)
	case c.SendTimeout <= 0:
		return fmt.Errorf("%w: send timeout must be positive, got %s", ErrInvalidSink, c.SendTimeout)
	case len(c.SlackToken) > 0 && len(c.SlackChannel) == 0:
		return fmt.Errorf("%w: slack token set without a channel", ErrInvalidSink)
	case len(c.SendGridKey) > 0 && (len(c.EmailFrom) == 0 || len(c.EmailTo) == 0):
		return fmt.Errorf("%w: sendgrid key set without sender or recipients", ErrInvalidSink)
	default:
		return nil
	}
}

// Discard drops every notification. It serves commands that never finalize
// records.
type Discard struct{}

func NewDiscard() Discard { return Discard{} }

func (Discard) Notify(string, string, string) {}
