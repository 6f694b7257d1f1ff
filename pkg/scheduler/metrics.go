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
	"github.com/prometheus/client_golang/prometheus"

	"github.com/caas-team/kestrel/pkg/checks"
)

type schedulerMetrics struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	muted    *prometheus.CounterVec
	bindings *prometheus.GaugeVec
}

func newSchedulerMetrics() schedulerMetrics {
	return schedulerMetrics{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kestrel_check_runs_total",
				Help: "Total check invocations by terminal outcome kind",
			},
			[]string{"check", "kind"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kestrel_check_duration_seconds",
				Help:    "Wall clock duration of check invocations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"check"},
		),
		muted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kestrel_check_muted_total",
				Help: "Due turns swallowed by mute windows",
			},
			[]string{"check"},
		),
		bindings: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "kestrel_bindings",
				Help: "Number of check bindings by state",
			},
			[]string{"state"},
		),
	}
}

// GetMetricCollectors returns the scheduler's collectors for registration
// with the metrics registry.
func (s *Scheduler) GetMetricCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		s.metrics.runs,
		s.metrics.duration,
		s.metrics.muted,
		s.metrics.bindings,
	}
}

func (s *Scheduler) observe(r checks.Report) {
	s.metrics.runs.WithLabelValues(r.Check, string(r.Outcome.Kind)).Inc()
	s.metrics.duration.WithLabelValues(r.Check).Observe(r.Duration.Seconds())
}

func (s *Scheduler) updateGauges() {
	counts := map[State]int{StateIdle: 0, StateRunning: 0, StateDisabled: 0}
	for _, b := range s.bindings {
		counts[b.state]++
	}
	for state, n := range counts {
		s.metrics.bindings.WithLabelValues(string(state)).Set(float64(n))
	}
}
