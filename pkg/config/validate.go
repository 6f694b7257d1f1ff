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
	"fmt"
	"net/url"

	"github.com/caas-team/kestrel/internal/logger"
)

// Validates the startup config
func (c *Config) Validate(ctx context.Context, fm *RunFlagsNameMapping) error {
	ctx, cancel := logger.NewContextWithLogger(ctx)
	defer cancel()
	log := logger.FromContext(ctx)

	ok := true
	if c.SleepTime <= 0 || c.SleepTime > maxSleepTime {
		ok = false
		log.Error("The sleep time should be above 0 and at most 60 seconds",
			fm.SleepTime, c.SleepTime.String())
	}
	if c.CheckTimeout <= 0 {
		ok = false
		log.Error("The check timeout should be above 0",
			fm.CheckTimeout, c.CheckTimeout.String())
	}
	if c.GracePeriod < 0 {
		ok = false
		log.Error("The grace period should not be negative",
			fm.GracePeriod, c.GracePeriod.String())
	}
	if c.Loader.Interval <= 0 {
		ok = false
		log.Error("The loader interval should be above 0",
			fm.LoaderInterval, c.Loader.Interval.String())
	}

	switch c.Loader.Type {
	case httpLoader:
		if _, err := url.ParseRequestURI(c.Loader.Http.Url); err != nil {
			ok = false
			log.ErrorContext(ctx, "The loader http url is not a valid url",
				fm.LoaderHttpUrl, c.Loader.Http.Url)
		}
		if c.Loader.Http.RetryCfg.Count < 0 || c.Loader.Http.RetryCfg.Count >= 5 {
			ok = false
			log.Error("The amount of loader http retries should be above 0 and below 6",
				fm.LoaderHttpRetryCount, c.Loader.Http.RetryCfg.Count)
		}
	case fileLoader:
		if c.Loader.File.Path == "" {
			ok = false
			log.Error("The loader file path is not set", fm.LoaderFilePath, c.Loader.File.Path)
		}
	default:
		ok = false
		log.Error("The loader type is not supported", fm.LoaderType, c.Loader.Type)
	}

	if c.Hub.Address != "" {
		if _, err := url.ParseRequestURI(c.Hub.Address); err != nil {
			ok = false
			log.Error("The hub address is not a valid url", fm.HubAddress, c.Hub.Address)
		}
		if c.Hub.RateLimit < 0 {
			ok = false
			log.Error("The hub rate limit should not be negative",
				fm.HubRateLimit, c.Hub.RateLimit)
		}
		if c.Hub.Retry.Count < 0 || c.Hub.Retry.Count >= 5 {
			ok = false
			log.Error("The amount of hub retries should be above 0 and below 6",
				fm.HubRetryCount, c.Hub.Retry.Count)
		}
	}

	if err := c.Telemetry.Validate(ctx); err != nil {
		ok = false
	}

	if !ok {
		return fmt.Errorf("validation of configuration failed")
	}
	return nil
}
