package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.opentelemetry.io/otel/attribute"
)

// Config holds all configuration for the service. It is read once at
// startup; there is no dynamic reconfiguration.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Routing
	DefaultProvider string `envconfig:"DEFAULT_PROVIDER" default:"shiprocket"`

	// Rate shopping
	RateProviderTimeout  time.Duration `envconfig:"RATE_PROVIDER_TIMEOUT" default:"5s"`
	RateAggregateTimeout time.Duration `envconfig:"RATE_AGGREGATE_TIMEOUT" default:"8s"`

	// Shiprocket
	ShiprocketEmail    string        `envconfig:"SHIPROCKET_EMAIL"`
	ShiprocketPassword string        `envconfig:"SHIPROCKET_PASSWORD"`
	ShiprocketBaseURL  string        `envconfig:"SHIPROCKET_BASE_URL" default:"https://apiv2.shiprocket.in"`
	ShiprocketTimeout  time.Duration `envconfig:"SHIPROCKET_TIMEOUT" default:"10s"`
	ShiprocketEnabled  bool          `envconfig:"SHIPROCKET_ENABLED" default:"true"`
	ShiprocketUseMock  bool          `envconfig:"SHIPROCKET_USE_MOCK" default:"false"`

	// NimbusPost
	NimbusPostEmail    string        `envconfig:"NIMBUSPOST_EMAIL"`
	NimbusPostPassword string        `envconfig:"NIMBUSPOST_PASSWORD"`
	NimbusPostBaseURL  string        `envconfig:"NIMBUSPOST_BASE_URL" default:"https://api.nimbuspost.com"`
	NimbusPostTimeout  time.Duration `envconfig:"NIMBUSPOST_TIMEOUT" default:"10s"`
	NimbusPostEnabled  bool          `envconfig:"NIMBUSPOST_ENABLED" default:"true"`
	NimbusPostUseMock  bool          `envconfig:"NIMBUSPOST_USE_MOCK" default:"false"`

	// Persistence. Empty DSN falls back to the in-memory store.
	PostgresDSN string `envconfig:"POSTGRES_DSN"`

	// Token store. Empty address keeps tokens in process memory.
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"false"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://localhost:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"ordermesh-courier"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.String("routing.default_provider", c.DefaultProvider),
		attribute.Bool("shiprocket.enabled", c.ShiprocketEnabled),
		attribute.Bool("nimbuspost.enabled", c.NimbusPostEnabled),
	}
}
