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

// Package scheduler owns the per binding state machine and the tick loop
// that dispatches due check invocations. One goroutine holds all binding
// state; dispatches are fire and forget and completions are funneled back
// over a channel, so outcomes of the same binding stay strictly ordered.
//
// Missed ticks are never replayed: a binding that fell behind, for whatever
// reason, resumes its cadence from the current time instead of bursting.
package scheduler

import (
	"context"
	"reflect"
	"sync/atomic"
	"time"

	"github.com/caas-team/kestrel/internal/logger"
	"github.com/caas-team/kestrel/pkg/assets"
	"github.com/caas-team/kestrel/pkg/checks"
	"github.com/caas-team/kestrel/pkg/db"
	"github.com/caas-team/kestrel/pkg/sink"
)

// State of a check binding.
type State string

const (
	// StateIdle means the binding waits for its next due time.
	StateIdle State = "idle"
	// StateRunning means exactly one invocation is in flight.
	StateRunning State = "running"
	// StateDisabled means the check disabled the binding; it stays out of
	// scheduling until the agent restarts or the binding is re-created.
	StateDisabled State = "disabled"
)

const (
	defaultSleepTime = 2 * time.Second
	defaultTimeout   = 10 * time.Second
	defaultGrace     = 30 * time.Second
)

// binding is the scheduler's mutable state for one (asset, check) pair.
// All fields are owned by the run loop goroutine.
type binding struct {
	asset   assets.Asset
	spec    assets.CheckSpec
	run     checks.RunFunc
	windows []muteWindow
	// gen guards against completions of an invocation dispatched before the
	// binding was re-created or removed.
	gen     uint64
	state   State
	lastRun time.Time
	nextDue time.Time
}

// completion carries one finished invocation back into the run loop.
type completion struct {
	key    string
	gen    uint64
	report checks.Report
}

// update asks the run loop to reconcile and optionally change its period.
type update struct {
	sleepTime time.Duration
}

// Scheduler dispatches the check bindings of the registered assets.
type Scheduler struct {
	registry *assets.Registry
	checks   map[string]checks.RunFunc
	db       db.DB
	sink     sink.Sink
	exec     *Executor

	sleepTime time.Duration
	grace     time.Duration
	now       func() time.Time

	metrics  schedulerMetrics
	bindings map[string]*binding
	inflight int
	lastTick time.Time

	// liveness markers for the health probe, in real wall clock time
	lastScan atomic.Int64
	period   atomic.Int64

	cUpdate chan update
	cDone   chan completion
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithSleepTime sets the initial tick period.
func WithSleepTime(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.sleepTime = d
		}
	}
}

// WithCheckTimeout sets the default time budget for bindings without an
// explicit timeout.
func WithCheckTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.exec.timeout = d
		}
	}
}

// WithGracePeriod bounds how long shutdown waits for in-flight invocations.
func WithGracePeriod(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.grace = d
		}
	}
}

// WithNow overrides the clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
		s.exec.now = now
	}
}

// New creates a scheduler reading its work from the registry and executing
// it with the given check routines. Reports are stored in the database and
// handed to the sink.
func New(registry *assets.Registry, cks map[string]checks.RunFunc, database db.DB, snk sink.Sink, opts ...Option) *Scheduler {
	s := &Scheduler{
		registry:  registry,
		checks:    cks,
		db:        database,
		sink:      snk,
		exec:      NewExecutor(defaultTimeout),
		sleepTime: defaultSleepTime,
		grace:     defaultGrace,
		now:       time.Now,
		metrics:   newSchedulerMetrics(),
		bindings:  map[string]*binding{},
		cUpdate:   make(chan update, 1),
		cDone:     make(chan completion),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run starts the scheduler loop and blocks until the context is done and
// the shutdown grace has passed. Failing checks never end the loop; a
// non-nil error indicates a defect in the engine itself.
func (s *Scheduler) Run(ctx context.Context) error {
	ctx, cancel := logger.NewContextWithLogger(ctx)
	defer cancel()
	log := logger.FromContext(ctx)

	// invocations run on a context that survives run context cancellation,
	// so in-flight checks can use the shutdown grace; their time budgets
	// still apply
	execCtx, stopExec := context.WithCancel(context.WithoutCancel(ctx))
	defer stopExec()

	s.reconcile(ctx)
	s.period.Store(int64(s.sleepTime))

	ticker := time.NewTicker(s.sleepTime)
	defer ticker.Stop()

	log.Info("Scheduler started", "bindings", len(s.bindings), "sleepTime", s.sleepTime.String())

	for {
		select {
		case <-ctx.Done():
			return s.shutdown(ctx, stopExec)
		case u := <-s.cUpdate:
			if u.sleepTime > 0 && u.sleepTime != s.sleepTime {
				s.sleepTime = u.sleepTime
				s.period.Store(int64(s.sleepTime))
				ticker.Reset(s.sleepTime)
				log.Info("Tick period updated", "sleepTime", s.sleepTime.String())
			}
			s.reconcile(ctx)
		case c := <-s.cDone:
			s.complete(ctx, c)
		case <-ticker.C:
			s.scan(ctx, execCtx)
		}
	}
}

// Reconcile asks the run loop to align its bindings with the registry
// content and, when sleepTime is positive, to adopt a new tick period.
// Safe for concurrent use.
func (s *Scheduler) Reconcile(ctx context.Context, sleepTime time.Duration) {
	select {
	case s.cUpdate <- update{sleepTime: sleepTime}:
	case <-ctx.Done():
	}
}

// Healthy reports whether the tick loop has scanned recently. Before the
// first scan it optimistically reports true.
func (s *Scheduler) Healthy(_ context.Context) bool {
	last := s.lastScan.Load()
	if last == 0 {
		return true
	}
	period := time.Duration(s.period.Load())
	if period <= 0 {
		period = defaultSleepTime
	}
	return time.Since(time.Unix(0, last)) < 3*period
}

// Name implements the healthz probe contract.
func (s *Scheduler) Name() string {
	return "scheduler"
}

// reconcile aligns the binding table with the registry. Bindings whose
// spec or asset configuration changed are re-created, which also clears a
// disabled flag; unchanged bindings keep their state. Bindings for assets
// no longer registered are dropped.
func (s *Scheduler) reconcile(ctx context.Context) {
	log := logger.FromContext(ctx)
	now := s.now()

	seen := map[string]struct{}{}
	for _, asset := range s.registry.List() {
		for _, spec := range asset.Checks {
			key := bindingKey(asset.ID, spec.Name)
			if _, dup := seen[key]; dup {
				log.Warn("Duplicate check binding, keeping the first", "asset", asset.Name, "check", spec.Name)
				continue
			}
			seen[key] = struct{}{}

			if b, ok := s.bindings[key]; ok && !bindingChanged(b, asset, spec) {
				continue
			}

			run, ok := s.checks[spec.Name]
			if !ok {
				log.Warn("Check not implemented", "check", spec.Name, "asset", asset.Name)
				delete(s.bindings, key)
				continue
			}

			gen := uint64(1)
			if old, ok := s.bindings[key]; ok {
				gen = old.gen + 1
				log.Debug("Re-creating binding", "asset", asset.Name, "check", spec.Name)
			}
			s.bindings[key] = &binding{
				asset:   asset,
				spec:    spec,
				run:     run,
				windows: compileWindows(ctx, spec.Mute),
				gen:     gen,
				state:   StateIdle,
				nextDue: now.Add(spec.Interval.Std()),
			}
		}
	}

	for key := range s.bindings {
		if _, ok := seen[key]; !ok {
			delete(s.bindings, key)
		}
	}

	s.updateGauges()
	log.Info("Bindings reconciled", "bindings", len(s.bindings), "inflight", s.inflight)
}

// scan dispatches every idle binding that is due at the current time. A
// binding inside a mute window has its due turns swallowed but keeps its
// cadence.
func (s *Scheduler) scan(ctx, execCtx context.Context) {
	log := logger.FromContext(ctx)
	now := s.now()
	s.lastScan.Store(time.Now().UnixNano())

	if !s.lastTick.IsZero() && now.Before(s.lastTick) {
		// now is before the previous tick; maybe the clock has changed?
		log.Warn("Skipping scan, current time is before the previous tick",
			"now", now.String(), "lastTick", s.lastTick.String())
		return
	}
	s.lastTick = now

	due := 0
	for key, b := range s.bindings {
		if b.state != StateIdle || now.Before(b.nextDue) {
			continue
		}
		if muted(b.windows, now) {
			interval := b.spec.Interval.Std()
			for !now.Before(b.nextDue) {
				b.nextDue = b.nextDue.Add(interval)
			}
			s.metrics.muted.WithLabelValues(b.spec.Name).Inc()
			log.Debug("Binding is muted", "asset", b.asset.Name, "check", b.spec.Name)
			continue
		}

		b.state = StateRunning
		b.lastRun = now
		s.inflight++
		due++
		go s.execute(execCtx, invocation{
			key:    key,
			gen:    b.gen,
			asset:  b.asset,
			spec:   b.spec,
			run:    b.run,
			budget: b.spec.Timeout.Std(),
		})
	}
	if due > 0 {
		log.Debug("Dispatched due bindings", "count", due, "inflight", s.inflight)
	}
	s.updateGauges()
}

// execute runs one invocation and funnels the completion back into the run
// loop. Completions arriving after the shutdown grace are dropped here.
func (s *Scheduler) execute(execCtx context.Context, inv invocation) {
	report := s.exec.Execute(execCtx, inv)
	select {
	case s.cDone <- completion{key: inv.key, gen: inv.gen, report: report}:
	case <-execCtx.Done():
	}
}

// complete applies the state transition for one finished invocation and
// delivers its report. Every deliverable outcome is stored and handed to
// the sink exactly once; suppressed and disabled outcomes produce nothing.
func (s *Scheduler) complete(ctx context.Context, c completion) {
	log := logger.FromContext(ctx)
	s.inflight--
	s.observe(c.report)

	b, ok := s.bindings[c.key]
	if ok && b.gen == c.gen {
		if c.report.Outcome.Kind == checks.KindDisabled {
			b.state = StateDisabled
			log.Info("Check disabled itself until restart", "asset", b.asset.Name, "check", b.spec.Name)
		} else {
			b.state = StateIdle
			b.nextDue = s.now().Add(b.spec.Interval.Std())
		}
	}
	s.updateGauges()

	if !c.report.Outcome.Deliverable() {
		if c.report.Outcome.Kind == checks.KindSuppressed {
			log.Debug("Result suppressed", "asset", c.report.AssetName, "check", c.report.Check)
		}
		return
	}

	switch c.report.Outcome.Kind {
	case checks.KindFailure:
		log.Error("Check failed", "asset", c.report.AssetName, "check", c.report.Check,
			"message", c.report.Outcome.Message, "severity", string(c.report.Outcome.Severity))
	case checks.KindPartial:
		log.Warn("Check returned a partial result", "asset", c.report.AssetName, "check", c.report.Check,
			"message", c.report.Outcome.Message)
	}

	s.db.Save(c.report)
	if err := s.sink.Deliver(ctx, c.report); err != nil {
		log.Error("Failed to hand report to the sink", "error", err)
	}
}

// shutdown waits up to the grace period for in-flight invocations.
// Finished outcomes arriving within the grace are still delivered, the
// rest are abandoned.
func (s *Scheduler) shutdown(ctx context.Context, stopExec context.CancelFunc) error {
	log := logger.FromContext(ctx)
	log.Info("Scheduler shutting down", "inflight", s.inflight, "grace", s.grace.String())

	timer := time.NewTimer(s.grace)
	defer timer.Stop()
	for s.inflight > 0 {
		select {
		case c := <-s.cDone:
			s.complete(ctx, c)
		case <-timer.C:
			stopExec()
			log.Warn("Abandoning in-flight checks after grace period", "inflight", s.inflight)
			return nil
		}
	}
	return nil
}

func bindingKey(id assets.ID, check string) string {
	return string(id) + "/" + check
}

// bindingChanged reports whether the binding must be re-created because its
// spec or the asset it runs against changed.
func bindingChanged(b *binding, asset assets.Asset, spec assets.CheckSpec) bool {
	return b.asset.Name != asset.Name ||
		!reflect.DeepEqual(b.asset.Config, asset.Config) ||
		!reflect.DeepEqual(b.spec, spec)
}
