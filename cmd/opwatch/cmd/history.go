// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ava-labs/opwatch/notify"
	"github.com/ava-labs/opwatch/tracker"
	"github.com/ava-labs/opwatch/utils"
)

func newHistoryCmd(a *app) *cobra.Command {
	var pendingOnly bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List tracked operations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			t, _, err := a.newTracker(ctx, notify.NewDiscard())
			if err != nil {
				return err
			}
			return a.printHistory(t, pendingOnly)
		},
	}
	cmd.Flags().BoolVar(&pendingOnly, "pending", false, "only list operations awaiting finality")
	return cmd
}

func (*app) printHistory(t *tracker.Tracker, pendingOnly bool) error {
	records, err := t.Records()
	if err != nil {
		return err
	}
	utils.Outf("{{cyan}}watermark:{{/}} %d {{cyan}}records:{{/}} %d\n", t.Period(), len(records))
	for i, r := range records {
		if pendingOnly && r.Confirmed {
			continue
		}
		color, text := status(r)
		utils.Outf(
			"%d) {{cyan}}hash:{{/}} %s {{cyan}}submitted:{{/}} %s {{"+color+"}}%s{{/}} {{cyan}}title:{{/}} %s\n",
			i,
			utils.ShortHash(r.Hash),
			utils.FormatMilli(r.Timestamp),
			text,
			r.Title,
		)
	}
	return nil
}

// status returns the formatter color and label for [r].
func status(r *tracker.Record) (string, string) {
	switch {
	case !r.Confirmed:
		return "yellow", "pending"
	case r.Success:
		return "green", tracker.StatusConfirmed
	default:
		return "red", r.Error
	}
}
