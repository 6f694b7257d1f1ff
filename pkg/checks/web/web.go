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

// Package web probes an HTTP endpoint and measures status and latency.
// An optional jsonpath expression extracts a value from the response body.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/oliveagle/jsonpath"

	"github.com/caas-team/kestrel/internal/helper"
	"github.com/caas-team/kestrel/internal/httpclient"
	"github.com/caas-team/kestrel/pkg/assets"
	"github.com/caas-team/kestrel/pkg/checks"
)

const CheckName = "web"

// maxBodySize caps how much of the response body is read for jsonpath
// extraction.
const maxBodySize = 1 << 20

type config struct {
	URL            string            `mapstructure:"url"`
	Method         string            `mapstructure:"method"`
	Headers        map[string]string `mapstructure:"headers"`
	ExpectedStatus int               `mapstructure:"expectedStatus"`
	JSONPath       string            `mapstructure:"jsonPath"`
}

// Run executes one probe against the configured endpoint.
func Run(ctx context.Context, _ assets.Asset, assetConfig, checkConfig map[string]any) (checks.Result, error) {
	cfg, err := parseConfig(assetConfig, checkConfig)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, cfg.Method, cfg.URL, http.NoBody)
	if err != nil {
		return nil, checks.ErrInvalidConfig{CheckName: CheckName, Field: "url", Reason: err.Error()}
	}
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}

	client := httpclient.FromContext(ctx)
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", cfg.URL, err)
	}
	defer resp.Body.Close()
	latency := time.Since(start)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", cfg.URL, err)
	}

	item := checks.Item{
		"name":       cfg.URL,
		"statusCode": resp.StatusCode,
		"latency":    latency.Seconds(),
	}
	if cfg.JSONPath != "" {
		value, err := extract(body, cfg.JSONPath)
		if err != nil {
			return nil, &checks.Error{Message: err.Error()}
		}
		item["value"] = value
	}
	result := checks.Result{"response": []checks.Item{item}}

	if resp.StatusCode != cfg.ExpectedStatus {
		return nil, &checks.IncompleteError{
			Result:   result,
			Message:  fmt.Sprintf("unexpected status code %d, want %d", resp.StatusCode, cfg.ExpectedStatus),
			Severity: checks.SeverityMedium,
		}
	}
	return result, nil
}

func parseConfig(assetConfig, checkConfig map[string]any) (config, error) {
	cfg, err := helper.Decode[config](checks.MergedConfig(assetConfig, checkConfig))
	if err != nil {
		return config{}, checks.ErrInvalidConfig{CheckName: CheckName, Field: "config", Reason: err.Error()}
	}
	if cfg.URL == "" {
		return config{}, checks.ErrInvalidConfig{CheckName: CheckName, Field: "url", Reason: "must not be empty"}
	}
	u, err := url.Parse(cfg.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return config{}, checks.ErrInvalidConfig{CheckName: CheckName, Field: "url", Reason: "must be an absolute http or https url"}
	}
	if cfg.Method == "" {
		cfg.Method = http.MethodGet
	}
	if cfg.ExpectedStatus == 0 {
		cfg.ExpectedStatus = http.StatusOK
	}
	return cfg, nil
}

// extract evaluates the jsonpath expression against the response body.
func extract(body []byte, path string) (any, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("response is not json: %w", err)
	}
	value, err := jsonpath.JsonPathLookup(doc, path)
	if err != nil {
		return nil, fmt.Errorf("jsonpath %q yielded nothing: %w", path, err)
	}
	return value, nil
}
