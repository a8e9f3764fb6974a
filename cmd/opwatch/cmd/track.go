// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ava-labs/opwatch/cli/prompt"
	"github.com/ava-labs/opwatch/notify"
	"github.com/ava-labs/opwatch/tracker"
	"github.com/ava-labs/opwatch/utils"
)

const maxTitleLen = 256

func newTrackCmd(a *app) *cobra.Command {
	var timestamp int64
	cmd := &cobra.Command{
		Use:   "track [hash] [title]",
		Short: "Start tracking a submitted operation",
		PreRunE: func(_ *cobra.Command, args []string) error {
			if len(args) > 2 {
				return ErrInvalidArgs
			}
			if len(args) > 0 {
				return prompt.ValidateHash(args[0])
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := recordFromArgs(args)
			if err != nil {
				return err
			}
			r.Timestamp = timestamp
			return a.track(cmd.Context(), r)
		},
	}
	cmd.Flags().Int64Var(&timestamp, "timestamp", 0, "submission time in unix milliseconds (default now)")
	return cmd
}

func recordFromArgs(args []string) (*tracker.Record, error) {
	var (
		r   = &tracker.Record{}
		err error
	)
	if len(args) > 0 {
		r.Hash = args[0]
	} else if r.Hash, err = prompt.Hash("operation hash"); err != nil {
		return nil, err
	}
	if len(args) > 1 {
		r.Title = args[1]
	} else if r.Title, err = prompt.String("title", 0, maxTitleLen); err != nil {
		return nil, err
	}
	return r, nil
}

func (a *app) track(ctx context.Context, r *tracker.Record) error {
	if ctx == nil {
		ctx = context.Background()
	}
	t, _, err := a.newTracker(ctx, notify.NewDiscard())
	if err != nil {
		return err
	}
	// A writer in another process holds the shared lock for at most one
	// lease.
	ctx, cancel := context.WithTimeout(ctx, a.config.Redis.LeaseTTL)
	defer cancel()
	if err := t.Track(ctx, r); err != nil {
		return err
	}
	utils.Outf("{{green}}tracking{{/}} %s {{cyan}}title:{{/}} %q\n", r.Hash, r.Title)
	return nil
}
