// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"encoding/hex"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ava-labs/opwatch/address"
	"github.com/ava-labs/opwatch/utils"
)

func newAddressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "address",
		Short: "Convert between hex payloads and base58check",
		RunE: func(*cobra.Command, []string) error {
			return ErrMissingSubcommand
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:  "encode [hex]",
			Args: cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				b, err := hex.DecodeString(strings.TrimPrefix(args[0], "0x"))
				if err != nil {
					return err
				}
				s, err := address.Encode(b)
				if err != nil {
					return err
				}
				utils.Outf("%s\n", s)
				return nil
			},
		},
		&cobra.Command{
			Use:  "decode [base58]",
			Args: cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				b, err := address.Decode(args[0])
				if err != nil {
					return err
				}
				utils.Outf("{{cyan}}prefix:{{/}} %02x {{cyan}}data:{{/}} %x\n", b[0], b[1:])
				return nil
			},
		},
	)
	return cmd
}
