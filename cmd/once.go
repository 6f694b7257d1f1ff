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

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/semaphore"
	"gopkg.in/yaml.v3"

	"github.com/caas-team/kestrel/internal/logger"
	"github.com/caas-team/kestrel/pkg/assets"
	"github.com/caas-team/kestrel/pkg/checks"
	"github.com/caas-team/kestrel/pkg/checks/register"
	"github.com/caas-team/kestrel/pkg/config"
	"github.com/caas-team/kestrel/pkg/scheduler"
	"github.com/caas-team/kestrel/pkg/sink"
)

// onceFlags are local to the once command, it does not share the viper
// keys of the run command
type onceFlags struct {
	path     string
	assetID  string
	check    string
	parallel int64
	timeout  int
}

// NewCmdOnce creates a new once command
func NewCmdOnce() *cobra.Command {
	f := &onceFlags{}

	cmd := &cobra.Command{
		Use:   "once",
		Short: "Run the configured checks a single time",
		Long: "Kestrel runs every check binding of the runtime configuration exactly once,\n" +
			"writes the outcomes to stdout and exits non-zero when any check failed.",
		SilenceUsage: true,
		RunE:         once(f),
	}

	cmd.PersistentFlags().StringVarP(&f.path, "config", "c", "config.yaml", "The path to the runtime configuration file")
	cmd.PersistentFlags().StringVar(&f.assetID, "asset", "", "Only run bindings of the asset with this id")
	cmd.PersistentFlags().StringVar(&f.check, "check", "", "Only run bindings of this check")
	cmd.PersistentFlags().Int64Var(&f.parallel, "parallel", 4, "Maximum number of checks running at the same time")
	cmd.PersistentFlags().IntVar(&f.timeout, "checkTimeout", 10, "The fallback time budget in seconds for checks without their own timeout")

	return cmd
}

// onceBinding is one (asset, check) pair selected for a single run
type onceBinding struct {
	asset assets.Asset
	spec  assets.CheckSpec
	run   checks.RunFunc
}

// once loads the runtime configuration, runs the selected bindings a
// single time and writes the outcomes to stdout. Mute windows do not
// apply, the command is meant for ad-hoc diagnostics.
func once(f *onceFlags) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		log := logger.NewLogger()
		ctx := logger.IntoContext(context.Background(), log)
		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		rt, err := loadRuntime(ctx, f.path)
		if err != nil {
			return err
		}

		var bindings []onceBinding
		for _, asset := range rt.Assets {
			if f.assetID != "" && string(asset.ID) != f.assetID {
				continue
			}
			for _, spec := range asset.Checks {
				if f.check != "" && spec.Name != f.check {
					continue
				}
				run, ok := register.RegisteredChecks[spec.Name]
				if !ok {
					log.Warn("Check not implemented", "check", spec.Name, "asset", asset.Name)
					continue
				}
				bindings = append(bindings, onceBinding{asset: asset, spec: spec, run: run})
			}
		}
		if len(bindings) == 0 {
			return fmt.Errorf("no check bindings match the given filters")
		}

		writer := sink.NewWriter(os.Stdout)
		exec := scheduler.NewExecutor(time.Duration(f.timeout) * time.Second)
		sem := semaphore.NewWeighted(f.parallel)

		var wg sync.WaitGroup
		var failed atomic.Int64
		for _, b := range bindings {
			if err = sem.Acquire(ctx, 1); err != nil {
				break
			}
			wg.Add(1)
			go func(b onceBinding) {
				defer wg.Done()
				defer sem.Release(1)

				report := exec.Run(ctx, b.asset, b.spec, b.run)
				if report.Outcome.Kind == checks.KindFailure {
					failed.Add(1)
				}
				if !report.Outcome.Deliverable() {
					return
				}
				if dErr := writer.Deliver(ctx, report); dErr != nil {
					log.Error("Failed to write report", "error", dErr)
				}
			}(b)
		}
		wg.Wait()
		if cErr := writer.Close(); cErr != nil {
			log.Error("Failed to flush reports", "error", cErr)
		}

		if n := failed.Load(); n > 0 {
			return fmt.Errorf("%d of %d checks failed", n, len(bindings))
		}
		return nil
	}
}

// loadRuntime reads and validates the runtime configuration file
func loadRuntime(ctx context.Context, path string) (*config.Runtime, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var rt config.Runtime
	if err = yaml.Unmarshal(b, &rt); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err = rt.Validate(ctx); err != nil {
		return nil, fmt.Errorf("failed to validate config file: %w", err)
	}
	return &rt, nil
}
