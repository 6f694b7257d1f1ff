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

// Package assets holds the model of the monitored assets and the registry
// the scheduler reads its work from.
package assets

import (
	"fmt"
	"strconv"
	"unicode"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// ID identifies an asset towards the collector. Collectors hand out both
// integer and string ids; integers decode to their decimal string.
type ID string

// UnmarshalYAML decodes an id from either a string or an integer scalar.
func (i *ID) UnmarshalYAML(value *yaml.Node) error {
	var v any
	if err := value.Decode(&v); err != nil {
		return err
	}
	switch t := v.(type) {
	case string:
		*i = ID(t)
	case int:
		*i = ID(strconv.Itoa(t))
	case int64:
		*i = ID(strconv.FormatInt(t, 10))
	case uint64:
		*i = ID(strconv.FormatUint(t, 10))
	case float64:
		if t != float64(int64(t)) {
			return fmt.Errorf("invalid asset id %v", t)
		}
		*i = ID(strconv.FormatInt(int64(t), 10))
	default:
		return fmt.Errorf("invalid asset id %v of type %T", v, v)
	}
	return nil
}

// Asset is a monitored entity. Assets are immutable once published to the
// registry; a configuration reload replaces the whole set.
type Asset struct {
	// ID identifies the asset towards the collector.
	ID ID `json:"id" yaml:"id"`
	// Name is a human readable ascii name.
	Name string `json:"name" yaml:"name"`
	// Config is the opaque asset level configuration passed to every check
	// running against this asset.
	Config map[string]any `json:"config,omitempty" yaml:"config,omitempty"`
	// Checks are the check bindings declared on this asset.
	Checks []CheckSpec `json:"checks" yaml:"checks"`
}

// CheckSpec binds one named check routine to the asset it is declared on.
type CheckSpec struct {
	// Name is the registered name of the check routine.
	Name string `json:"name" yaml:"name"`
	// Interval is the time between two executions of the binding.
	Interval Duration `json:"interval" yaml:"interval"`
	// Timeout bounds a single execution. Zero means the engine default.
	Timeout Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	// Config is the opaque check level configuration.
	Config map[string]any `json:"config,omitempty" yaml:"config,omitempty"`
	// Mute lists windows during which the binding is not dispatched.
	Mute []MuteWindow `json:"mute,omitempty" yaml:"mute,omitempty"`
}

// MuteWindow suppresses dispatches of a binding while it is active. Cron is
// a standard five field expression marking the start of the window.
type MuteWindow struct {
	Cron     string   `json:"cron" yaml:"cron"`
	Duration Duration `json:"duration" yaml:"duration"`
}

// Validate checks the asset against the engine's contract. The first
// violation is returned.
func (a Asset) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("asset %q has no id", a.Name)
	}
	if a.Name == "" {
		return fmt.Errorf("asset %q has no name", a.ID)
	}
	if !isASCII(a.Name) {
		return fmt.Errorf("asset name %q is not ascii", a.Name)
	}
	for _, c := range a.Checks {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("asset %q: %w", a.Name, err)
		}
	}
	return nil
}

// Validate checks the binding spec against the engine's contract.
func (c CheckSpec) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("check binding has no name")
	}
	if c.Interval <= 0 {
		return fmt.Errorf("check %q has a non-positive interval", c.Name)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("check %q has a negative timeout", c.Name)
	}
	for _, w := range c.Mute {
		if _, err := cron.ParseStandard(w.Cron); err != nil {
			return fmt.Errorf("check %q has an invalid mute spec %q: %w", c.Name, w.Cron, err)
		}
		if w.Duration <= 0 {
			return fmt.Errorf("check %q has a mute window without a duration", c.Name)
		}
	}
	return nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > unicode.MaxASCII {
			return false
		}
	}
	return true
}
