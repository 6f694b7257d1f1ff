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

package kestrel

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caas-team/kestrel/internal/logger"
	"github.com/caas-team/kestrel/pkg/api"
	"github.com/caas-team/kestrel/pkg/assets"
	"github.com/caas-team/kestrel/pkg/checks/register"
	"github.com/caas-team/kestrel/pkg/config"
	"github.com/caas-team/kestrel/pkg/db"
	"github.com/caas-team/kestrel/pkg/healthz"
	"github.com/caas-team/kestrel/pkg/kestrel/metrics"
	"github.com/caas-team/kestrel/pkg/scheduler"
	"github.com/caas-team/kestrel/pkg/sink"
)

// shutdownTimeout bounds the final hub flush and the telemetry shutdown
const shutdownTimeout = 30 * time.Second

// Kestrel is the monitoring agent. It loads runtime configuration,
// schedules check runs against the configured assets and serves the
// collected outcomes over its api.
type Kestrel struct {
	cfg     *config.Config
	version string

	registry  *assets.Registry
	db        db.DB
	metrics   metrics.Provider
	api       api.API
	scheduler *scheduler.Scheduler
	loader    config.Loader
	checker   *healthz.Checker

	// hub is nil when no collector address is configured, outcomes then
	// go to the writer on stdout instead
	hub    *sink.Hub
	writer *sink.Writer

	// cRuntime is the channel the loader pushes runtime configuration
	// revisions into
	cRuntime chan config.Runtime
	// cErr carries fatal errors of the loader and the api
	cErr chan error
	// cSched and cHub carry the return of the scheduler and the hub
	// worker, the shutdown sequence waits on them
	cSched chan error
	cHub   chan error
}

// New creates a kestrel from a startup configuration
func New(cfg *config.Config, version string) *Kestrel {
	k := &Kestrel{
		cfg:      cfg,
		version:  version,
		registry: assets.NewRegistry(),
		db:       db.NewInMemory(),
		metrics:  metrics.New(cfg.Telemetry, version),
		api:      api.New(cfg.Api),
		cRuntime: make(chan config.Runtime, 1),
		cErr:     make(chan error, 2),
		cSched:   make(chan error, 1),
		cHub:     make(chan error, 1),
	}

	var snk sink.Sink
	if cfg.Hub.Address != "" {
		k.hub = sink.NewHub(cfg.Hub, version)
		snk = k.hub
	} else {
		k.writer = sink.NewWriter(os.Stdout)
		snk = k.writer
	}

	k.scheduler = scheduler.New(k.registry, register.RegisteredChecks, k.db, snk,
		scheduler.WithSleepTime(cfg.SleepTime),
		scheduler.WithCheckTimeout(cfg.CheckTimeout),
		scheduler.WithGracePeriod(cfg.GracePeriod),
	)
	k.loader = config.NewLoader(cfg, k.cRuntime)

	probes := []healthz.Probe{k.scheduler}
	if k.hub != nil {
		probes = append(probes, k.hub)
	}
	k.checker = healthz.New(probes...)
	return k
}

// Run starts the agent and blocks until the context is canceled or a
// component fails fatally. On cancellation it shuts down gracefully and
// returns nil.
func (k *Kestrel) Run(ctx context.Context) error {
	ctx, cancel := logger.NewContextWithLogger(ctx)
	defer cancel()
	log := logger.FromContext(ctx)

	if err := k.metrics.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	registry := k.metrics.GetRegistry()
	registry.MustRegister(k.scheduler.GetMetricCollectors()...)
	if k.hub != nil {
		registry.MustRegister(k.hub.GetMetricCollectors()...)
	}

	if err := k.api.RegisterRoutes(ctx, k.routes()...); err != nil {
		return fmt.Errorf("failed to register api routes: %w", err)
	}

	go func() {
		k.cErr <- k.loader.Run(ctx)
	}()
	go func() {
		k.cErr <- k.api.Run(ctx)
	}()
	go func() {
		k.cSched <- k.scheduler.Run(ctx)
	}()
	if k.hub != nil {
		go func() {
			k.cHub <- k.hub.Run(ctx)
		}()
	}

	for {
		select {
		case <-ctx.Done():
			return k.shutdown(ctx, cancel)
		case rt := <-k.cRuntime:
			k.apply(ctx, rt)
		case err := <-k.cErr:
			if err == nil || errors.Is(err, context.Canceled) {
				continue
			}
			log.Error("Component failed, shutting down", "error", err)
			return errors.Join(err, k.shutdown(ctx, cancel))
		}
	}
}

// apply applies one runtime configuration revision. The loader already
// validated it.
func (k *Kestrel) apply(ctx context.Context, rt config.Runtime) {
	log := logger.FromContext(ctx)

	if rt.LogLevel != "" {
		logger.SetLevel(rt.LogLevel)
	}
	k.registry.Replace(rt.Assets)

	var sleepTime time.Duration
	if rt.SleepTime != nil {
		sleepTime = rt.SleepTime.Std()
	}
	k.scheduler.Reconcile(ctx, sleepTime)

	log.Info("Applied runtime configuration", "assets", len(rt.Assets))
}

// shutdown stops the components in dependency order. The scheduler
// drains first so outcomes finishing within the grace period still
// reach the sink before the final hub flush.
func (k *Kestrel) shutdown(ctx context.Context, stop context.CancelFunc) error {
	log := logger.FromContext(ctx)
	log.Info("Shutting down kestrel gracefully")
	stop()

	errS := <-k.cSched

	sCtx, cancel := context.WithTimeout(logger.IntoContext(context.Background(), log), shutdownTimeout)
	defer cancel()

	if k.hub != nil {
		errS = errors.Join(errS, <-k.cHub)
		if err := k.hub.Flush(sCtx); err != nil {
			log.Error("Failed to flush queued reports to the hub", "error", err)
			errS = errors.Join(errS, err)
		}
	}
	if k.writer != nil {
		errS = errors.Join(errS, k.writer.Close())
	}

	errS = errors.Join(errS, k.api.Shutdown(sCtx))
	errS = errors.Join(errS, k.metrics.Shutdown(sCtx))

	if errS != nil {
		return fmt.Errorf("failed to shutdown gracefully: %w", errS)
	}
	log.Info("Shutdown complete")
	return nil
}
