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

// Package checks defines the contract between the engine and the check
// routines: the run function signature, the result payload, the error
// protocol and the classification of an invocation's terminal state into
// exactly one outcome.
package checks

import (
	"context"
	"time"

	"github.com/caas-team/kestrel/pkg/assets"
)

// RunFunc is a single check routine. It is stateless and registered once at
// startup under a unique name; the engine invokes it per binding with the
// asset, the opaque asset level configuration and the opaque check level
// configuration. The routine either returns a result payload or signals a
// condition through the error protocol in this package. The context carries
// the execution deadline and a logger scoped to the binding.
type RunFunc func(ctx context.Context, asset assets.Asset, assetConfig, checkConfig map[string]any) (Result, error)

// MergedConfig flattens the asset level and check level configuration into
// one map, with the check level taking precedence. The inputs are not
// modified.
func MergedConfig(assetConfig, checkConfig map[string]any) map[string]any {
	merged := make(map[string]any, len(assetConfig)+len(checkConfig))
	for k, v := range assetConfig {
		merged[k] = v
	}
	for k, v := range checkConfig {
		merged[k] = v
	}
	return merged
}

// Report couples one classified outcome with the identity of the binding
// that produced it. It is the unit stored by the agent and delivered to the
// collector.
type Report struct {
	// AssetID and AssetName identify the asset the check ran against.
	AssetID   string `json:"assetId" yaml:"assetId"`
	AssetName string `json:"assetName" yaml:"assetName"`
	// Check is the registered name of the check routine.
	Check string `json:"check" yaml:"check"`
	// Timestamp is the UTC time the invocation started.
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	// Duration is the wall clock time the invocation took.
	Duration time.Duration `json:"duration" yaml:"duration"`
	// Outcome is the classified terminal state of the invocation.
	Outcome Outcome `json:"outcome" yaml:"outcome"`
}
