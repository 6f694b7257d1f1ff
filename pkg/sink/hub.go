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

package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/caas-team/kestrel/internal/helper"
	"github.com/caas-team/kestrel/internal/logger"
	"github.com/caas-team/kestrel/pkg/checks"
)

const (
	defaultBatchSize     = 64
	defaultUploadTimeout = 30 * time.Second
	drainInterval        = 250 * time.Millisecond
	// queueSoftCap is where the health probe starts reporting the sink as
	// behind; the queue itself grows as needed and never drops reports
	queueSoftCap = 1024
)

// HubConfig configures the hub sink.
type HubConfig struct {
	// Address is the base url of the collector hub. Leaving it empty
	// selects a local writer sink instead.
	Address string `yaml:"address" mapstructure:"address"`
	// Token authenticates the agent against the hub.
	Token string `yaml:"token" mapstructure:"token"`
	// Timeout bounds a single upload attempt.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// RateLimit caps uploads per second; zero means no limit.
	RateLimit float64 `yaml:"rateLimit" mapstructure:"rateLimit"`
	// Retry controls how failed uploads are repeated.
	Retry helper.RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// UploadError is returned when the hub rejects an upload.
type UploadError struct {
	Code int
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("hub rejected upload with status %d", e.Code)
}

// Hub forwards reports to the collector hub over HTTP. Deliver only
// enqueues; Run drains the queue in batches, retries failed uploads with
// backoff and requeues what still fails, so accepted reports survive hub
// outages for as long as the agent lives.
type Hub struct {
	address string
	token   string
	agentID string
	version string
	timeout time.Duration
	client  *http.Client
	limiter *rate.Limiter
	retry   helper.RetryConfig

	mu    sync.Mutex
	queue []checks.Report
	seq   uint64

	metrics hubMetrics
}

var _ Sink = (*Hub)(nil)

// NewHub creates the hub sink. The version is stamped into every upload
// envelope.
func NewHub(cfg HubConfig, version string) *Hub {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultUploadTimeout
	}
	retry := cfg.Retry
	if retry.Count <= 0 {
		retry = helper.RetryConfig{Count: 3, Delay: time.Second}
	}
	h := &Hub{
		address: strings.TrimSuffix(cfg.Address, "/"),
		token:   cfg.Token,
		agentID: uuid.NewString(),
		version: version,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
		retry:   retry,
		metrics: newHubMetrics(),
	}
	if cfg.RateLimit > 0 {
		h.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return h
}

// Deliver enqueues reports for upload. It never blocks and never fails.
func (h *Hub) Deliver(_ context.Context, reports ...checks.Report) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.queue = append(h.queue, reports...)
	h.metrics.queue.Set(float64(len(h.queue)))
	return nil
}

// Run drains the queue until the context is done.
func (h *Hub) Run(ctx context.Context) error {
	ctx, cancel := logger.NewContextWithLogger(ctx)
	defer cancel()
	log := logger.FromContext(ctx)
	log.Info("Hub sink started", "address", h.address, "agentId", h.agentID)

	ticker := time.NewTicker(drainInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := h.drainOnce(ctx); err != nil {
				log.Error("Failed to upload report batch", "error", err)
			}
		}
	}
}

// Flush synchronously uploads everything still queued. It is meant for
// shutdown, after the scheduler stopped producing and Run has returned.
func (h *Hub) Flush(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch := h.pop(defaultBatchSize)
		if len(batch) == 0 {
			return nil
		}
		if err := h.send(ctx, batch); err != nil {
			h.requeue(batch)
			return err
		}
	}
}

// Healthy reports whether the sink keeps up with the report volume.
func (h *Hub) Healthy(_ context.Context) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.queue) < queueSoftCap
}

// Name implements the healthz probe contract.
func (h *Hub) Name() string {
	return "hub"
}

// GetMetricCollectors returns the hub's collectors for registration with
// the metrics registry.
func (h *Hub) GetMetricCollectors() []prometheus.Collector {
	return []prometheus.Collector{h.metrics.queue, h.metrics.sent, h.metrics.errors}
}

func (h *Hub) drainOnce(ctx context.Context) error {
	batch := h.pop(defaultBatchSize)
	if len(batch) == 0 {
		return nil
	}
	if h.limiter != nil {
		if err := h.limiter.Wait(ctx); err != nil {
			h.requeue(batch)
			return err
		}
	}
	if err := h.send(ctx, batch); err != nil {
		h.requeue(batch)
		return err
	}
	return nil
}

// send uploads one batch, retrying transient failures.
func (h *Hub) send(ctx context.Context, reports []checks.Report) error {
	h.seq++
	body, err := json.Marshal(envelope{
		AgentID:  h.agentID,
		Version:  h.version,
		SentAt:   time.Now().UTC(),
		BatchSeq: h.seq,
		Reports:  wrapAll(reports),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal upload: %w", err)
	}

	upload := func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.address+"/v1/reports", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if h.token != "" {
			req.Header.Set("Authorization", "Bearer "+h.token)
		}
		resp, err := h.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
			return &UploadError{Code: resp.StatusCode}
		}
		return nil
	}

	if err := helper.Retry(upload, h.retry)(ctx); err != nil {
		h.metrics.errors.Inc()
		return err
	}
	h.metrics.sent.Add(float64(len(reports)))
	return nil
}

func (h *Hub) pop(n int) []checks.Report {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.queue) == 0 {
		return nil
	}
	if n > len(h.queue) {
		n = len(h.queue)
	}
	batch := make([]checks.Report, n)
	copy(batch, h.queue)
	h.queue = h.queue[n:]
	h.metrics.queue.Set(float64(len(h.queue)))
	return batch
}

func (h *Hub) requeue(batch []checks.Report) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.queue = append(batch, h.queue...)
	h.metrics.queue.Set(float64(len(h.queue)))
}

type hubMetrics struct {
	queue  prometheus.Gauge
	sent   prometheus.Counter
	errors prometheus.Counter
}

func newHubMetrics() hubMetrics {
	return hubMetrics{
		queue: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kestrel_hub_queue_size",
			Help: "Reports waiting for upload to the hub",
		}),
		sent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kestrel_hub_reports_sent_total",
			Help: "Reports successfully uploaded to the hub",
		}),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kestrel_hub_upload_errors_total",
			Help: "Report batch uploads that failed after retries",
		}),
	}
}
