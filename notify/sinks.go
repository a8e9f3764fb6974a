// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

const senderName = "opwatch"

var (
	_ Sink = (*LogSink)(nil)
	_ Sink = (*SlackSink)(nil)
	_ Sink = (*EmailSink)(nil)
)

// LogSink writes notifications to the log.
type LogSink struct {
	log logging.Logger
}

func NewLogSink(log logging.Logger) *LogSink {
	return &LogSink{log: log}
}

func (*LogSink) Name() string { return "log" }

func (s *LogSink) Send(_ context.Context, n Notification) error {
	s.log.Info("operation finalized",
		zap.String("title", n.Title),
		zap.String("id", n.ID),
		zap.String("message", n.Message),
	)
	return nil
}

// SlackSink posts notifications to a single channel.
type SlackSink struct {
	client  *slack.Client
	channel string
}

func NewSlackSink(token string, channel string, options ...slack.Option) *SlackSink {
	return &SlackSink{
		client:  slack.New(token, options...),
		channel: channel,
	}
}

func (*SlackSink) Name() string { return "slack" }

func (s *SlackSink) Send(ctx context.Context, n Notification) error {
	_, _, err := s.client.PostMessageContext(
		ctx,
		s.channel,
		slack.MsgOptionText(fmt.Sprintf("*%s*\n`%s`\n%s", n.Title, n.ID, n.Message), false),
	)
	if err != nil {
		return fmt.Errorf("failed to post to %s: %w", s.channel, err)
	}
	return nil
}

type emailClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// EmailSink mails notifications through SendGrid, one message per
// recipient.
type EmailSink struct {
	client emailClient
	from   *mail.Email
	to     []string
}

func NewEmailSink(key string, from string, to []string) *EmailSink {
	return newEmailSink(sendgrid.NewSendClient(key), from, to)
}

func newEmailSink(client emailClient, from string, to []string) *EmailSink {
	return &EmailSink{
		client: client,
		from:   mail.NewEmail(senderName, from),
		to:     to,
	}
}

func (*EmailSink) Name() string { return "email" }

func (s *EmailSink) Send(ctx context.Context, n Notification) error {
	subject := fmt.Sprintf("[%s] %s", senderName, n.Title)
	body := n.String()
	for _, to := range s.to {
		email := mail.NewSingleEmail(s.from, subject, mail.NewEmail("", to), body, body)
		resp, err := s.client.SendWithContext(ctx, email)
		if err != nil {
			return fmt.Errorf("failed to mail %s: %w", to, err)
		}
		if resp.StatusCode >= http.StatusMultipleChoices {
			return fmt.Errorf("%w: %d for %s", ErrUnexpectedStatus, resp.StatusCode, to)
		}
	}
	return nil
}

// NewSinks builds the sinks enabled by [config]. The log sink is always
// present.
func NewSinks(log logging.Logger, config Config) []Sink {
	sinks := []Sink{NewLogSink(log)}
	if len(config.SlackToken) > 0 {
		sinks = append(sinks, NewSlackSink(config.SlackToken, config.SlackChannel))
	}
	if len(config.SendGridKey) > 0 {
		sinks = append(sinks, NewEmailSink(config.SendGridKey, config.EmailFrom, config.EmailTo))
	}
	return sinks
}
