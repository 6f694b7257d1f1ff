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

package scheduler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/caas-team/kestrel/internal/httpclient"
	"github.com/caas-team/kestrel/internal/logger"
	"github.com/caas-team/kestrel/pkg/assets"
	"github.com/caas-team/kestrel/pkg/checks"
)

// invocation is everything the executor needs to run one binding once.
type invocation struct {
	key    string
	gen    uint64
	asset  assets.Asset
	spec   assets.CheckSpec
	run    checks.RunFunc
	budget time.Duration
}

// Executor runs single check invocations under a time budget and
// classifies their terminal state. It is safe for concurrent use; all
// invocations share one pooled http client whose requests are bounded by
// the invocation deadline.
type Executor struct {
	timeout time.Duration
	now     func() time.Time
	client  *http.Client
}

// NewExecutor creates an executor falling back to the given time budget
// for invocations without one of their own.
func NewExecutor(timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Executor{timeout: timeout, now: time.Now, client: &http.Client{}}
}

// Run executes the named check once against the asset and returns the
// classified report. It is the single invocation entry point for callers
// outside the scheduler loop.
func (e *Executor) Run(ctx context.Context, asset assets.Asset, spec assets.CheckSpec, run checks.RunFunc) checks.Report {
	return e.Execute(ctx, invocation{
		asset:  asset,
		spec:   spec,
		run:    run,
		budget: spec.Timeout.Std(),
	})
}

// Execute runs one invocation to completion. It never panics and never
// returns without a report: a panicking check is contained and classified
// as a failure, and a check overrunning its budget is abandoned promptly
// with a timeout failure while its goroutine drains into a buffered
// channel.
func (e *Executor) Execute(ctx context.Context, inv invocation) checks.Report {
	budget := inv.budget
	if budget <= 0 {
		budget = e.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	log := logger.FromContext(ctx).With("asset", inv.asset.Name, "assetId", string(inv.asset.ID), "check", inv.spec.Name)
	ctx = logger.IntoContext(ctx, log)
	ctx = httpclient.IntoContext(ctx, e.client)

	type invocationResult struct {
		result checks.Result
		err    error
	}
	start := e.now()
	done := make(chan invocationResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- invocationResult{err: fmt.Errorf("check panicked: %v", r)}
			}
		}()
		result, err := inv.run(ctx, inv.asset, inv.asset.Config, inv.spec.Config)
		done <- invocationResult{result: result, err: err}
	}()

	var outcome checks.Outcome
	select {
	case r := <-done:
		outcome = checks.Classify(r.result, r.err)
	case <-ctx.Done():
		outcome = checks.Classify(nil, ctx.Err())
	}
	duration := e.now().Sub(start)

	log.Debug("Check finished", "kind", string(outcome.Kind), "duration", duration.String())

	return checks.Report{
		AssetID:   string(inv.asset.ID),
		AssetName: inv.asset.Name,
		Check:     inv.spec.Name,
		Timestamp: start.UTC(),
		Duration:  duration,
		Outcome:   outcome,
	}
}
