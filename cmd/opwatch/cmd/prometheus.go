// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ava-labs/opwatch/cli"
)

func newPrometheusCmd(a *app) *cobra.Command {
	var (
		baseURI        string
		openBrowser    bool
		prometheusFile string
	)
	cmd := &cobra.Command{
		Use:   "prometheus",
		Short: "Generate a prometheus scrape config and dashboard for the metrics server",
		RunE: func(*cobra.Command, []string) error {
			return cli.GeneratePrometheus(
				baseURI,
				openBrowser,
				prometheusFile,
				metricsPath,
				[]string{a.config.MetricsAddr},
			)
		},
	}
	cmd.Flags().StringVar(&baseURI, "prometheus-base-uri", "http://localhost:9090", "prometheus server location")
	cmd.Flags().BoolVar(&openBrowser, "prometheus-open-browser", false, "open the dashboard in a browser")
	cmd.Flags().StringVar(&prometheusFile, "prometheus-file", "/tmp/opwatch-prometheus.yaml", "prometheus config file location")
	return cmd
}
