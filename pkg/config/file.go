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
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/caas-team/kestrel/internal/logger"
)

var _ Loader = (*FileLoader)(nil)

// FileLoader reads the runtime configuration from a local file. The file is
// re-read every interval so edits are picked up without a restart.
type FileLoader struct {
	path     string
	interval time.Duration
	cRuntime chan<- Runtime
}

func NewFileLoader(cfg *Config, cRuntime chan<- Runtime) *FileLoader {
	return &FileLoader{
		path:     cfg.Loader.File.Path,
		interval: cfg.Loader.Interval,
		cRuntime: cRuntime,
	}
}

// Run reads the file once immediately and then on every interval tick. A
// revision that fails to read, parse or validate is skipped; the agent keeps
// the previous one.
func (f *FileLoader) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)
	tick := time.NewTicker(f.interval)
	defer tick.Stop()

	for {
		if err := f.load(ctx); err != nil {
			log.Warn("Skipping broken runtime configuration", "path", f.path, "error", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
	}
}

func (f *FileLoader) load(ctx context.Context) error {
	log := logger.FromContext(ctx)
	log.Debug("Reading config from file", "file", f.path)
	b, err := os.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var rt Runtime
	if err = yaml.Unmarshal(b, &rt); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	if err = rt.Validate(ctx); err != nil {
		return fmt.Errorf("failed to validate config file: %w", err)
	}

	select {
	case f.cRuntime <- rt:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}
