package metrics

import (
	"context"
	"fmt"

	"github.com/caas-team/kestrel/internal/logger"
)

// Config holds the trace pipeline settings
type Config struct {
	// Exporter selects the protocol the traces are exported with
	Exporter Exporter `yaml:"exporter" mapstructure:"exporter"`
	// Url is the collector endpoint the traces are shipped to
	Url string `yaml:"url" mapstructure:"url"`
	// Token authenticates the agent against the collector
	Token string `yaml:"token" mapstructure:"token"`
	// CertPath points to the CA bundle used to verify the collector endpoint
	CertPath string `yaml:"certPath" mapstructure:"certPath"`
}

// Validate checks the exporter and, for remote exporters, the endpoint url
func (c *Config) Validate(ctx context.Context) error {
	log := logger.FromContext(ctx)
	if err := c.Exporter.Validate(); err != nil {
		log.ErrorContext(ctx, "Invalid exporter", "error", err)
		return err
	}

	if c.Exporter.IsExporting() && c.Url == "" {
		log.ErrorContext(ctx, "Url is required for otlp exporter", "exporter", c.Exporter)
		return fmt.Errorf("url is required for otlp exporter %q", c.Exporter)
	}
	return nil
}
