// kestrel
// (C) 2025, Deutsche Telekom IT GmbH
//
// Deutsche Telekom IT GmbH and all other contributors /
// copyright owners license this file to you under the Apache
// License, Version 2.0 (the "License"); you may not use this
// file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

// Package scrape reads a Prometheus exposition endpoint and extracts the
// samples of one metric.
package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/caas-team/kestrel/internal/helper"
	"github.com/caas-team/kestrel/internal/httpclient"
	"github.com/caas-team/kestrel/pkg/assets"
	"github.com/caas-team/kestrel/pkg/checks"
)

const CheckName = "scrape"

// maxBodySize caps how much of the exposition is parsed.
const maxBodySize = 4 << 20

type config struct {
	URL    string            `mapstructure:"url"`
	Metric string            `mapstructure:"metric"`
	Labels map[string]string `mapstructure:"labels"`
}

// Run scrapes the endpoint and reports every sample of the configured
// metric whose labels contain the configured ones.
func Run(ctx context.Context, _ assets.Asset, assetConfig, checkConfig map[string]any) (checks.Result, error) {
	cfg, err := parseConfig(assetConfig, checkConfig)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.URL, http.NoBody)
	if err != nil {
		return nil, checks.ErrInvalidConfig{CheckName: CheckName, Field: "url", Reason: err.Error()}
	}
	resp, err := httpclient.FromContext(ctx).Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to scrape %s: %w", cfg.URL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &checks.Error{
			Message: fmt.Sprintf("scrape endpoint %s returned status %d", cfg.URL, resp.StatusCode),
		}
	}

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &checks.Error{Message: fmt.Sprintf("failed to parse exposition: %v", err)}
	}
	family, ok := families[cfg.Metric]
	if !ok {
		return nil, &checks.Error{Message: fmt.Sprintf("metric %q is not exposed by %s", cfg.Metric, cfg.URL)}
	}

	var items []checks.Item
	for _, m := range family.GetMetric() {
		labels := labelMap(m)
		if !matches(labels, cfg.Labels) {
			continue
		}
		value, err := sampleValue(family, m)
		if err != nil {
			return nil, err
		}
		items = append(items, checks.Item{
			"name":   sampleName(cfg.Metric, labels),
			"value":  value,
			"labels": labels,
		})
	}
	if len(items) == 0 {
		return nil, &checks.Error{
			Message: fmt.Sprintf("no sample of %q matches labels %v", cfg.Metric, cfg.Labels),
		}
	}
	return checks.Result{"metrics": items}, nil
}

func parseConfig(assetConfig, checkConfig map[string]any) (config, error) {
	cfg, err := helper.Decode[config](checks.MergedConfig(assetConfig, checkConfig))
	if err != nil {
		return config{}, checks.ErrInvalidConfig{CheckName: CheckName, Field: "config", Reason: err.Error()}
	}
	if cfg.URL == "" {
		return config{}, checks.ErrInvalidConfig{CheckName: CheckName, Field: "url", Reason: "must not be empty"}
	}
	if cfg.Metric == "" {
		return config{}, checks.ErrInvalidConfig{CheckName: CheckName, Field: "metric", Reason: "must not be empty"}
	}
	return cfg, nil
}

func labelMap(m *dto.Metric) map[string]string {
	labels := make(map[string]string, len(m.GetLabel()))
	for _, l := range m.GetLabel() {
		labels[l.GetName()] = l.GetValue()
	}
	return labels
}

// matches reports whether every wanted label is present with its value.
func matches(labels, wanted map[string]string) bool {
	for k, v := range wanted {
		if labels[k] != v {
			return false
		}
	}
	return true
}

func sampleValue(family *dto.MetricFamily, m *dto.Metric) (float64, error) {
	switch family.GetType() {
	case dto.MetricType_COUNTER:
		return m.GetCounter().GetValue(), nil
	case dto.MetricType_GAUGE:
		return m.GetGauge().GetValue(), nil
	case dto.MetricType_UNTYPED:
		return m.GetUntyped().GetValue(), nil
	default:
		return 0, &checks.Error{
			Message: fmt.Sprintf("metric %q has unsupported type %s", family.GetName(), family.GetType()),
		}
	}
}

// sampleName qualifies the metric name with its label values so items stay
// unique within the result type.
func sampleName(metric string, labels map[string]string) string {
	if len(labels) == 0 {
		return metric
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+labels[k])
	}
	return metric + "{" + strings.Join(pairs, ",") + "}"
}
