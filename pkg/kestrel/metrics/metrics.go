// kestrel
// (C) 2024, Deutsche Telekom IT GmbH
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

// Package metrics owns the agent's telemetry: the prometheus registry the
// components register their collectors with and the optional OpenTelemetry
// trace provider.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/caas-team/kestrel/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

var _ Provider = (*manager)(nil)

type Provider interface {
	Tracer
	Collector
}

// Tracer initializes and tears down the OpenTelemetry trace pipeline.
type Tracer interface {
	// Initialize sets up the trace provider per the configured exporter.
	Initialize(ctx context.Context) error
	// Shutdown flushes pending spans and stops the provider.
	Shutdown(ctx context.Context) error
}

// Collector exposes the prometheus registry of the agent.
type Collector interface {
	// GetRegistry returns the registry the components register their
	// collectors with.
	GetRegistry() *prometheus.Registry
}

type manager struct {
	config   Config
	version  string
	registry *prometheus.Registry
	// tp stays nil when tracing is disabled
	tp *sdktrace.TracerProvider
}

// New creates the provider with a fresh registry carrying the standard go
// and process collectors.
func New(config Config, version string) Provider {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &manager{
		config:   config,
		version:  version,
		registry: registry,
	}
}

// GetRegistry returns the registry to register prometheus metrics
func (m *manager) GetRegistry() *prometheus.Registry {
	return m.registry
}

const (
	// batchTimeout is the maximum time the exporter will wait for a batch to be ready
	batchTimeout = 5 * time.Second
	// maxQueueSize is the maximum number of spans that can be queued before they are dropped
	maxQueueSize = 1000
	// maxBatchSize is the maximum number of spans that can be exported in a single batch
	maxBatchSize = 100
)

// Initialize sets up the OpenTelemetry tracing. With the noop exporter no
// provider is installed at all.
func (m *manager) Initialize(ctx context.Context) error {
	log := logger.FromContext(ctx)

	exporter, err := m.config.Exporter.Create(ctx, &m.config)
	if err != nil {
		log.ErrorContext(ctx, "Failed to create exporter", "error", err)
		return fmt.Errorf("failed to create exporter: %w", err)
	}
	if exporter == nil {
		log.DebugContext(ctx, "Tracing disabled, no exporter configured")
		return nil
	}

	res, err := resource.New(ctx,
		resource.WithHost(),
		resource.WithContainer(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String("kestrel"),
			semconv.ServiceVersionKey.String(m.version),
		),
	)
	if err != nil {
		log.ErrorContext(ctx, "Failed to create resource", "error", err)
		return fmt.Errorf("failed to create resource: %w", err)
	}

	bsp := sdktrace.NewBatchSpanProcessor(exporter,
		sdktrace.WithBatchTimeout(batchTimeout),
		sdktrace.WithMaxQueueSize(maxQueueSize),
		sdktrace.WithMaxExportBatchSize(maxBatchSize),
	)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithSpanProcessor(bsp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	m.tp = tp
	log.DebugContext(ctx, "Tracing initialized with new provider", "provider", m.config.Exporter)
	return nil
}

// Shutdown flushes and stops the trace provider if one was installed.
func (m *manager) Shutdown(ctx context.Context) error {
	log := logger.FromContext(ctx)
	if m.tp != nil {
		if err := m.tp.Shutdown(ctx); err != nil {
			log.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
			return fmt.Errorf("failed to shutdown tracer provider: %w", err)
		}
	}

	log.DebugContext(ctx, "Tracing shutdown")
	return nil
}
