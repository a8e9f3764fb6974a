// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func TestWritePrometheusConfig(t *testing.T) {
	require := require.New(t)

	file := filepath.Join(t.TempDir(), "prometheus.yaml")
	require.NoError(WritePrometheusConfig(file, "/metrics", []string{"127.0.0.1:9650"}))

	b, err := os.ReadFile(file)
	require.NoError(err)
	var c PrometheusConfig
	require.NoError(yaml.Unmarshal(b, &c))
	require.Equal(scrapeInterval, c.Global.ScrapeInterval)
	require.Len(c.ScrapeConfigs, 1)
	require.Equal(jobName, c.ScrapeConfigs[0].JobName)
	require.Equal("/metrics", c.ScrapeConfigs[0].MetricsPath)
	require.Equal([]string{"127.0.0.1:9650"}, c.ScrapeConfigs[0].StaticConfigs[0].Targets)
}

func TestDashboardURL(t *testing.T) {
	require := require.New(t)

	u := DashboardURL("http://localhost:9090", []string{"a", "b c"})
	require.True(strings.HasPrefix(u, "http://localhost:9090/graph?g0.expr=a&"))
	require.Contains(u, "&g1.expr=b+c&")
	require.Less(strings.Index(u, "g0."), strings.Index(u, "g1."))
}
