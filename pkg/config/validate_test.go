// kestrel
// (C) 2023, Deutsche Telekom IT GmbH
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

package config

import (
	"context"
	"testing"
	"time"

	"github.com/caas-team/kestrel/internal/helper"
	"github.com/caas-team/kestrel/internal/logger"
	"github.com/caas-team/kestrel/pkg/kestrel/metrics"
	"github.com/caas-team/kestrel/pkg/sink"
)

// validConfig returns a startup config that passes validation; tests mutate
// single fields to provoke the violation under test.
func validConfig() *Config {
	return &Config{
		SleepTime:    2 * time.Second,
		CheckTimeout: 10 * time.Second,
		GracePeriod:  30 * time.Second,
		Api:          ApiConfig{ListeningAddress: ":8080"},
		Loader: LoaderConfig{
			Type:     "http",
			Interval: time.Minute,
			Http: HttpLoaderConfig{
				Url:     "https://test.de/config",
				Timeout: time.Second,
				RetryCfg: helper.RetryConfig{
					Count: 1,
					Delay: time.Second,
				},
			},
		},
		Telemetry: metrics.Config{Exporter: metrics.NOOP},
	}
}

func TestConfig_Validate(t *testing.T) {
	ctx, cancel := logger.NewContextWithLogger(context.Background())
	defer cancel()

	fm := &RunFlagsNameMapping{
		SleepTime:            "sleepTime",
		CheckTimeout:         "checkTimeout",
		GracePeriod:          "gracePeriod",
		LoaderType:           "loaderType",
		LoaderInterval:       "loaderInterval",
		LoaderHttpUrl:        "loaderHttpUrl",
		LoaderHttpRetryCount: "loaderHttpRetryCount",
		LoaderFilePath:       "loaderFilePath",
		HubAddress:           "hubAddress",
		HubRateLimit:         "hubRateLimit",
		HubRetryCount:        "hubRetryCount",
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name:    "config ok",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "sleep time zero",
			mutate:  func(c *Config) { c.SleepTime = 0 },
			wantErr: true,
		},
		{
			name:    "sleep time too high",
			mutate:  func(c *Config) { c.SleepTime = 2 * time.Minute },
			wantErr: true,
		},
		{
			name:    "check timeout zero",
			mutate:  func(c *Config) { c.CheckTimeout = 0 },
			wantErr: true,
		},
		{
			name:    "grace period negative",
			mutate:  func(c *Config) { c.GracePeriod = -time.Second },
			wantErr: true,
		},
		{
			name:    "loader interval zero",
			mutate:  func(c *Config) { c.Loader.Interval = 0 },
			wantErr: true,
		},
		{
			name:    "loader http url missing",
			mutate:  func(c *Config) { c.Loader.Http.Url = "" },
			wantErr: true,
		},
		{
			name:    "loader http url malformed",
			mutate:  func(c *Config) { c.Loader.Http.Url = "this is not a valid url" },
			wantErr: true,
		},
		{
			name:    "loader http retry count too high",
			mutate:  func(c *Config) { c.Loader.Http.RetryCfg.Count = 100000 },
			wantErr: true,
		},
		{
			name: "loader file path missing",
			mutate: func(c *Config) {
				c.Loader.Type = "file"
				c.Loader.File.Path = ""
			},
			wantErr: true,
		},
		{
			name: "loader file ok",
			mutate: func(c *Config) {
				c.Loader.Type = "file"
				c.Loader.File.Path = "assets.yaml"
			},
			wantErr: false,
		},
		{
			name:    "loader type unknown",
			mutate:  func(c *Config) { c.Loader.Type = "ftp" },
			wantErr: true,
		},
		{
			name: "hub ok",
			mutate: func(c *Config) {
				c.Hub = sink.HubConfig{
					Address: "https://hub.test.de",
					Retry:   helper.RetryConfig{Count: 2, Delay: time.Second},
				}
			},
			wantErr: false,
		},
		{
			name: "hub address malformed",
			mutate: func(c *Config) {
				c.Hub = sink.HubConfig{Address: "not a url"}
			},
			wantErr: true,
		},
		{
			name: "hub rate limit negative",
			mutate: func(c *Config) {
				c.Hub = sink.HubConfig{
					Address:   "https://hub.test.de",
					RateLimit: -1,
				}
			},
			wantErr: true,
		},
		{
			name: "hub retry count too high",
			mutate: func(c *Config) {
				c.Hub = sink.HubConfig{
					Address: "https://hub.test.de",
					Retry:   helper.RetryConfig{Count: 10, Delay: time.Second},
				}
			},
			wantErr: true,
		},
		{
			name:    "telemetry exporter unknown",
			mutate:  func(c *Config) { c.Telemetry.Exporter = "carrier-pigeon" },
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			if err := c.Validate(ctx, fm); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
