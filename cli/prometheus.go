// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cli

import (
	"fmt"
	"net/url"
	"os"

	"github.com/pkg/browser"
	"gopkg.in/yaml.v2"

	"github.com/ava-labs/opwatch/utils"
)

const (
	fsModeWrite    = 0o600
	scrapeInterval = "5s"
	jobName        = "opwatch"
)

// Panels is the pre-built dashboard for a running tracker.
var Panels = []string{
	"opwatch_tracker_period",
	"increase(opwatch_tracker_confirmed[1m])",
	"increase(opwatch_tracker_expired[1m]) + increase(opwatch_tracker_not_found[1m]) + increase(opwatch_tracker_rejected[1m])",
	"increase(opwatch_tracker_ledger_errors[1m])",
	"increase(opwatch_tracker_ticks_skipped[1m])",
	"opwatch_tracker_reconcile_sum / opwatch_tracker_reconcile_count / 1000000",
}

type PrometheusStaticConfig struct {
	Targets []string `yaml:"targets"`
}

type PrometheusScrapeConfig struct {
	JobName       string                    `yaml:"job_name"`
	StaticConfigs []*PrometheusStaticConfig `yaml:"static_configs"`
	MetricsPath   string                    `yaml:"metrics_path"`
}

type PrometheusConfig struct {
	Global struct {
		ScrapeInterval     string `yaml:"scrape_interval"`
		EvaluationInterval string `yaml:"evaluation_interval"`
	} `yaml:"global"`
	ScrapeConfigs []*PrometheusScrapeConfig `yaml:"scrape_configs"`
}

// WritePrometheusConfig writes a scrape config for the trackers listening
// on [targets].
func WritePrometheusConfig(file string, metricsPath string, targets []string) error {
	var prometheusConfig PrometheusConfig
	prometheusConfig.Global.ScrapeInterval = scrapeInterval
	prometheusConfig.Global.EvaluationInterval = scrapeInterval
	prometheusConfig.ScrapeConfigs = []*PrometheusScrapeConfig{
		{
			JobName: jobName,
			StaticConfigs: []*PrometheusStaticConfig{
				{
					Targets: targets,
				},
			},
			MetricsPath: metricsPath,
		},
	}
	yamlData, err := yaml.Marshal(&prometheusConfig)
	if err != nil {
		return err
	}
	return os.WriteFile(file, yamlData, fsModeWrite)
}

// DashboardURL links to a prometheus graph page showing [panels].
//
// Params are encoded by hand because prometheus skips any panels that are
// not numerically sorted and `url.Values` only sorts lexicographically.
func DashboardURL(baseURI string, panels []string) string {
	dashboard := baseURI + "/graph"
	for i, panel := range panels {
		appendChar := "&"
		if i == 0 {
			appendChar = "?"
		}
		dashboard = fmt.Sprintf("%s%sg%d.expr=%s&g%d.tab=0&g%d.step_input=1&g%d.range_input=30m", dashboard, appendChar, i, url.QueryEscape(panel), i, i, i)
	}
	return dashboard
}

func GeneratePrometheus(baseURI string, openBrowser bool, prometheusFile string, metricsPath string, targets []string) error {
	if err := WritePrometheusConfig(prometheusFile, metricsPath, targets); err != nil {
		return err
	}
	utils.Outf("{{green}}wrote prometheus config:{{/}} %s\n", prometheusFile)

	dashboard := DashboardURL(baseURI, Panels)
	if !openBrowser {
		utils.Outf("{{orange}}pre-built dashboard:{{/}} %s\n", dashboard)
		utils.Outf("{{green}}prometheus cmd:{{/}} prometheus --config.file=%s\n", prometheusFile)
		return nil
	}
	return browser.OpenURL(dashboard)
}
