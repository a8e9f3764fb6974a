// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ava-labs/opwatch/notify"
	"github.com/ava-labs/opwatch/utils"
)

func newTickCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tick",
		Short: "Run a single evaluation and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.tick(cmd.Context())
		},
	}
}

func (a *app) tick(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
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
	before := t.Period()
	if err := t.Tick(ctx); err != nil {
		return err
	}
	after := t.Period()
	if after == before {
		utils.Outf("{{yellow}}period unchanged:{{/}} %d\n", after)
		return nil
	}
	utils.Outf("{{green}}advanced period:{{/}} %d -> %d\n", before, after)
	return a.printHistory(t, false)
}
