// kestrel
// (C) 2024, Deutsche Telekom IT GmbH
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
	"time"

	"github.com/caas-team/kestrel/internal/logger"
	"github.com/caas-team/kestrel/pkg/assets"
)

// maxSleepTime caps the scheduler tick period a runtime revision may set.
const maxSleepTime = 60 * time.Second

// Runtime is the hot reloadable part of the configuration. Loaders fetch
// it periodically and push every valid revision to the agent, which applies
// it without a restart.
type Runtime struct {
	// SleepTime overrides the scheduler tick period when set.
	SleepTime *assets.Duration `yaml:"sleepTime,omitempty" json:"sleepTime,omitempty"`
	// LogLevel overrides the process log level when set.
	// One of DEBUG, INFO, WARN or ERROR.
	LogLevel string `yaml:"logLevel,omitempty" json:"logLevel,omitempty"`
	// Assets are the monitored assets with their check specs.
	Assets []assets.Asset `yaml:"assets" json:"assets"`
}

// Validate checks the runtime revision for consistency. Invalid revisions
// are rejected as a whole; the agent keeps running on the previous one.
func (r Runtime) Validate(ctx context.Context) error {
	log := logger.FromContext(ctx)

	if r.SleepTime != nil {
		st := r.SleepTime.Std()
		if st <= 0 || st > maxSleepTime {
			log.Error("The sleep time is out of bounds", "sleepTime", st.String())
			return ErrInvalidSleepTime
		}
	}

	seen := map[assets.ID]bool{}
	for _, a := range r.Assets {
		if err := a.Validate(); err != nil {
			log.Error("Invalid asset in runtime configuration", "error", err)
			return err
		}
		if seen[a.ID] {
			log.Error("Duplicate asset id in runtime configuration", "assetId", string(a.ID))
			return ErrDuplicateAssetID
		}
		seen[a.ID] = true
	}
	return nil
}
