// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"context"
	"errors"

	"github.com/ava-labs/avalanchego/database"
	"github.com/spf13/cobra"

	"github.com/ava-labs/opwatch/ledger"
	"github.com/ava-labs/opwatch/utils"
)

func newPeriodCmd(a *app) *cobra.Command {
	var remote bool
	cmd := &cobra.Command{
		Use:   "period",
		Short: "Show the persisted watermark",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			s, err := a.openStorage(ctx)
			if err != nil {
				return err
			}
			period, err := s.GetPeriod()
			switch {
			case errors.Is(err, database.ErrNotFound):
				utils.Outf("{{yellow}}no period persisted{{/}}\n")
			case err != nil:
				return err
			default:
				utils.Outf("{{cyan}}watermark:{{/}} %d\n", period)
			}
			if !remote {
				return nil
			}

			client, err := ledger.NewJSONRPCClient(a.config.Ledger)
			if err != nil {
				return err
			}
			last, err := client.LastPeriod(ctx)
			if err != nil {
				return err
			}
			utils.Outf("{{cyan}}ledger:{{/}} %d\n", last)
			return nil
		},
	}
	cmd.Flags().BoolVar(&remote, "ledger", false, "also query the ledger for its last period")
	return cmd
}
