// Package config holds the service's runtime configuration: process
// settings from the environment and the feed catalog from YAML.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	envconfig "bayarea-dashboard/pkg/config"
)

// AppConfig is the process-level configuration read from the environment.
type AppConfig struct {
	// HTTPAddr is the listen address of the API server.
	HTTPAddr string
	// CatalogPath points at a feed catalog YAML. Empty uses the built-in one.
	CatalogPath string
	// RelevancePath points at a relevance filter YAML. Empty uses defaults.
	RelevancePath string
	// UpstreamTimeout is the per-attempt timeout for sources that set none.
	UpstreamTimeout time.Duration
	// ProducerTimeout bounds one feed refresh.
	ProducerTimeout time.Duration
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
	// TracingEnabled installs an SDK tracer provider exporting to
	// OTLPEndpoint, sampling TraceSampleRatio of root spans.
	TracingEnabled   bool
	OTLPEndpoint     string
	TraceSampleRatio float64
	// UserAgent is sent on every upstream request.
	UserAgent string
	// CORSAllowedOrigins lists browser origins allowed to call the API.
	// "*" allows any origin. Empty disables CORS headers.
	CORSAllowedOrigins []string
	Version            string
}

// LoadAppConfig reads AppConfig from the environment and validates it.
func LoadAppConfig() (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddr:        envconfig.GetEnvString("HTTP_ADDR", ":8080"),
		CatalogPath:     envconfig.GetEnvString("FEED_CATALOG_PATH", ""),
		RelevancePath:   envconfig.GetEnvString("RELEVANCE_CONFIG_PATH", ""),
		UpstreamTimeout: envconfig.GetEnvDuration("UPSTREAM_TIMEOUT", 8*time.Second),
		ProducerTimeout: envconfig.GetEnvDuration("PRODUCER_TIMEOUT", 25*time.Second),
		ShutdownTimeout: envconfig.GetEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		TracingEnabled:  envconfig.GetEnvBool("OTEL_TRACES_ENABLED", false),
		OTLPEndpoint:    envconfig.GetEnvString("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318"),
		UserAgent:       envconfig.GetEnvString("UPSTREAM_USER_AGENT", "BayAreaDashboard/1.0"),
		Version:         envconfig.GetEnvString("VERSION", "dev"),

		TraceSampleRatio:   envconfig.GetEnvFloat("OTEL_TRACE_SAMPLE_RATIO", 0.1),
		CORSAllowedOrigins: envconfig.GetEnvStringList("CORS_ALLOWED_ORIGINS", nil),
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports every invalid field at once.
func (c AppConfig) Validate() error {
	var errs []error
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("HTTP_ADDR must not be empty"))
	}
	if err := envconfig.ValidateDurationRange(c.UpstreamTimeout, 100*time.Millisecond, time.Minute); err != nil {
		errs = append(errs, fmt.Errorf("UPSTREAM_TIMEOUT: %w", err))
	}
	if err := envconfig.ValidatePositiveDuration(c.ProducerTimeout); err != nil {
		errs = append(errs, fmt.Errorf("PRODUCER_TIMEOUT: %w", err))
	}
	if err := envconfig.ValidatePositiveDuration(c.ShutdownTimeout); err != nil {
		errs = append(errs, fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err))
	}
	if err := envconfig.ValidateFraction(c.TraceSampleRatio); err != nil {
		errs = append(errs, fmt.Errorf("OTEL_TRACE_SAMPLE_RATIO: %w", err))
	}
	for _, o := range c.CORSAllowedOrigins {
		if o != "*" && !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			errs = append(errs, fmt.Errorf("CORS_ALLOWED_ORIGINS: %q must be \"*\" or start with http:// or https://", o))
		}
	}
	return errors.Join(errs...)
}
