package metrics

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc/credentials"
)

// Exporter selects how traces leave the agent
type Exporter string

const (
	// HTTP ships the traces to an OTLP collector over HTTP/1.1
	HTTP Exporter = "http"
	// GRPC ships the traces to an OTLP collector over gRPC
	GRPC Exporter = "grpc"
	// STDOUT writes the traces to standard output
	STDOUT Exporter = "stdout"
	// NOOP discards the traces
	NOOP Exporter = "noop"
)

func (e Exporter) String() string {
	return string(e)
}

// Validate checks that the exporter names a known protocol
func (e Exporter) Validate() error {
	switch e {
	case HTTP, GRPC, STDOUT, NOOP:
		return nil
	default:
		return fmt.Errorf("unsupported exporter type: %s", e.String())
	}
}

// IsExporting returns true if the exporter ships traces to a remote collector
func (e Exporter) IsExporting() bool {
	return e == HTTP || e == GRPC
}

// Create builds the span exporter for the protocol. The noop exporter yields
// nil so the caller can skip installing a trace provider altogether.
func (e Exporter) Create(ctx context.Context, config *Config) (sdktrace.SpanExporter, error) {
	switch e {
	case HTTP:
		return newHTTPExporter(ctx, config)
	case GRPC:
		return newGRPCExporter(ctx, config)
	case STDOUT:
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case NOOP:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported exporter type: %s", e.String())
	}
}

func newHTTPExporter(ctx context.Context, config *Config) (sdktrace.SpanExporter, error) {
	tlsCfg, err := loadTLSConfig(config.CertPath)
	if err != nil {
		return nil, err
	}

	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(config.Url),
		otlptracehttp.WithHeaders(authHeaders(config)),
	}
	if tlsCfg != nil {
		opts = append(opts, otlptracehttp.WithTLSClientConfig(tlsCfg))
	} else {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	return otlptracehttp.New(ctx, opts...)
}

func newGRPCExporter(ctx context.Context, config *Config) (sdktrace.SpanExporter, error) {
	tlsCfg, err := loadTLSConfig(config.CertPath)
	if err != nil {
		return nil, err
	}

	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(config.Url),
		otlptracegrpc.WithHeaders(authHeaders(config)),
	}
	if tlsCfg != nil {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewTLS(tlsCfg)))
	} else {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	return otlptracegrpc.New(ctx, opts...)
}

// authHeaders returns the bearer header for the configured token, if any
func authHeaders(config *Config) map[string]string {
	headers := map[string]string{}
	if config.Token != "" {
		headers["Authorization"] = fmt.Sprintf("Bearer %s", config.Token)
	}
	return headers
}

// loadTLSConfig reads the CA bundle used to verify the collector endpoint.
// An empty or "insecure" path disables TLS.
func loadTLSConfig(certFile string) (*tls.Config, error) {
	if certFile == "" || certFile == "insecure" {
		return nil, nil
	}

	b, err := os.ReadFile(certFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read certificate file %q: %w", certFile, err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(b) {
		return nil, fmt.Errorf("no certificates found in %q", certFile)
	}

	return &tls.Config{
		RootCAs:    pool,
		MinVersion: tls.VersionTLS12,
	}, nil
}
