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
	"strings"
)

const (
	httpLoader = "http"
	fileLoader = "file"
)

// Loader fetches runtime configuration revisions and pushes every valid one
// to the agent. Run blocks until the context is done.
type Loader interface {
	Run(ctx context.Context) error
}

// NewLoader creates the loader selected by the startup config. The loader
// type has been validated before, unknown types fall back to the file loader.
func NewLoader(cfg *Config, cRuntime chan<- Runtime) Loader {
	switch strings.ToLower(cfg.Loader.Type) {
	case httpLoader:
		return NewHttpLoader(cfg, cRuntime)
	default:
		return NewFileLoader(cfg, cRuntime)
	}
}
