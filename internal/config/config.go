// Package config loads the reviews service configuration from the
// environment.
package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/netz98/app-builder-product-reviews/pkg/config"
)

// Config is the full service configuration.
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"reviews-service"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	HTTP    HTTPConfig
	Store   StoreConfig
	Kafka   KafkaConfig
	Tracing TracingConfig
	CORS    CORSConfig
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Port            int           `env:"REVIEWS_HTTP_PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// StoreConfig configures the MongoDB-backed record store.
type StoreConfig struct {
	// URI is the fallback connection string for regions without a
	// dedicated entry in RegionURIs.
	URI string `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017"`

	// RegionURIs maps region names to connection strings, e.g.
	// "emea=mongodb://emea-host:27017,amer=mongodb://amer-host:27017".
	RegionURIs map[string]string `env:"MONGODB_REGION_URIS" envSeparator:"," envKeyValSeparator:"="`

	Database   string `env:"MONGODB_DATABASE" envDefault:"reviews"`
	Region     string `env:"DB_REGION"`
	Collection string `env:"REVIEWS_COLLECTION" envDefault:"reviews"`
}

// KafkaConfig configures event publishing.
type KafkaConfig struct {
	Brokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	Enabled bool     `env:"KAFKA_ENABLED" envDefault:"true"`
}

// TracingConfig configures OpenTelemetry export.
type TracingConfig struct {
	Enabled      bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTLPEndpoint string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	SampleRate   float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// CORSConfig configures cross-origin access for the admin UI.
type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := pkgconfig.Load(&cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for values that would fail at runtime.
func (c *Config) Validate() error {
	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTP.Port)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q", c.LogLevel)
	}
	if c.Store.URI == "" && len(c.Store.RegionURIs) == 0 {
		return fmt.Errorf("no MongoDB connection string configured")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka enabled but no brokers configured")
	}
	return nil
}
