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
	"time"

	"github.com/caas-team/kestrel/internal/helper"
	"github.com/caas-team/kestrel/pkg/kestrel/metrics"
	"github.com/caas-team/kestrel/pkg/sink"
)

// Config is the startup configuration of the agent. It is assembled from
// flags, environment and the config file once and stays fixed for the
// process lifetime; the hot reloadable part lives in Runtime.
type Config struct {
	// SleepTime is the scheduler tick period.
	SleepTime time.Duration
	// CheckTimeout is the default time budget of a check invocation.
	CheckTimeout time.Duration
	// GracePeriod bounds how long shutdown waits for in-flight checks.
	GracePeriod time.Duration
	Api         ApiConfig
	Loader      LoaderConfig
	Hub         sink.HubConfig
	Telemetry   metrics.Config
}

// ApiConfig is the configuration for the data API
type ApiConfig struct {
	ListeningAddress string
}

// LoaderConfig is the configuration for loader
type LoaderConfig struct {
	Type     string
	Interval time.Duration
	Http     HttpLoaderConfig
	File     FileLoaderConfig
}

// HttpLoaderConfig is the configuration
// for the specific http loader
type HttpLoaderConfig struct {
	Url      string
	Token    string
	Timeout  time.Duration
	RetryCfg helper.RetryConfig
}

type FileLoaderConfig struct {
	Path string
}
