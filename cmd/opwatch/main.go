// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// "opwatch" tracks submitted ledger operations until they are final.
package main

import (
	"os"

	"github.com/fatih/color"

	"github.com/ava-labs/opwatch/cmd/opwatch/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		color.Red("opwatch failed: %v", err)
		os.Exit(1)
	}
	os.Exit(0)
}
