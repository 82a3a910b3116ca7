// Package config loads the data portal configuration.
//
// Settings come from a YAML or JSON document and may be overridden by
// environment variables prefixed with DATAPORTAL, the key path joined with
// underscores: DATAPORTAL_PORTAL_CACHING, DATAPORTAL_LOGGING_LEVEL,
// DATAPORTAL_TRACING_ENDPOINT and so on.
//
// Example configuration:
//
//	portal:
//	  legacy_names: true
//	  caching: true
//	logging:
//	  level: info
//	  format: json
//	tracing:
//	  endpoint: otel-collector:4318
//	  insecure: true
//	  service_name: orders
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/anoideaopen/dataportal/core/logger"
	"github.com/anoideaopen/dataportal/core/telemetry"
)

// EnvPrefix is the prefix of environment variables overriding settings.
const EnvPrefix = "DATAPORTAL"

// DefaultServiceName is the service name reported to the trace collector.
const DefaultServiceName = "dataportal"

var (
	ErrCfgBytesEmpty = errors.New("config bytes is empty")
	ErrInvalidConfig = errors.New("invalid config")
)

// Config is the data portal configuration.
type Config struct {
	Portal  PortalConfig  `mapstructure:"portal"`
	Logging LoggingConfig `mapstructure:"logging"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

// PortalConfig configures method resolution.
type PortalConfig struct {
	LegacyNames bool `mapstructure:"legacy_names"` // Fall back to DataPortal<Kind> and Child<Kind> methods.
	Caching     bool `mapstructure:"caching"`      // Memoize discovery and resolution.
}

// LoggingConfig configures the logrus logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "text" or "json".
}

// TracingConfig configures span export.
type TracingConfig struct {
	Endpoint      string            `mapstructure:"endpoint"`
	Insecure      bool              `mapstructure:"insecure"`
	CACertsBase64 string            `mapstructure:"ca_certs_base64"`
	Headers       map[string]string `mapstructure:"headers"`
	ServiceName   string            `mapstructure:"service_name"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Portal:  PortalConfig{LegacyNames: true, Caching: true},
		Logging: LoggingConfig{Level: "warning", Format: "text"},
		Tracing: TracingConfig{ServiceName: DefaultServiceName},
	}
}

// FromBytes parses a configuration document. format is a viper config type
// such as "yaml" or "json".
func FromBytes(cfgBytes []byte, format string) (*Config, error) {
	if len(cfgBytes) == 0 {
		return nil, ErrCfgBytesEmpty
	}

	v := newViper()
	v.SetConfigType(format)
	if err := v.ReadConfig(bytes.NewReader(cfgBytes)); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return unmarshal(v)
}

// Load reads the configuration file at path. The format is taken from the
// file extension. An empty path yields the defaults with environment
// overrides applied.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	return unmarshal(v)
}

func newViper() *viper.Viper {
	def := Default()

	v := viper.New()
	v.SetDefault("portal.legacy_names", def.Portal.LegacyNames)
	v.SetDefault("portal.caching", def.Portal.Caching)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.format", def.Logging.Format)
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.insecure", false)
	v.SetDefault("tracing.ca_certs_base64", "")
	v.SetDefault("tracing.service_name", def.Tracing.ServiceName)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the logging settings.
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: logging.level: %w", ErrInvalidConfig, err)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: logging.format '%s'", ErrInvalidConfig, c.Logging.Format)
	}
	return nil
}

// Logger builds a logger writing to out with the configured level and format.
func (c *Config) Logger(out io.Writer) (*logrus.Entry, error) {
	return logger.New(c.Logging.Level, c.Logging.Format, out)
}

// CollectorEndpoint returns the trace export settings.
func (c *Config) CollectorEndpoint() *telemetry.CollectorEndpoint {
	return &telemetry.CollectorEndpoint{
		Endpoint:      c.Tracing.Endpoint,
		Insecure:      c.Tracing.Insecure,
		CACertsBase64: c.Tracing.CACertsBase64,
		Headers:       c.Tracing.Headers,
	}
}
