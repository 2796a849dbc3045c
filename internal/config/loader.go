package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	gwerrors "switchgate/pkg/errors"
)

// DefaultEnvPrefix is prepended to every environment override.
const DefaultEnvPrefix = "SWITCHGATE_"

// Loader reads configuration from files and the environment.
type Loader struct {
	envPrefix string
	lookupEnv func(string) (string, bool)
}

// NewLoader creates a loader reading SWITCHGATE_* environment variables.
func NewLoader() *Loader {
	return &Loader{
		envPrefix: DefaultEnvPrefix,
		lookupEnv: os.LookupEnv,
	}
}

// LoadDefault returns the defaults with environment overrides applied.
func (l *Loader) LoadDefault() (*Config, error) {
	cfg := DefaultConfig()
	if err := l.applyEnv(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file and merges it with
// defaults.
//
// This function:
//  1. Starts with default configuration values
//  2. Reads the specified YAML file
//  3. Unmarshals YAML data over the defaults
//  4. Applies environment variable overrides
//
// The result is not validated; callers apply their own overrides first and
// then call Validate.
//
// Example:
//
//	cfg, err := NewLoader().LoadFromFile("config.yaml")
//	if err != nil {
//		log.Fatalf("Failed to load config: %v", err)
//	}
func (l *Loader) LoadFromFile(filename string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, gwerrors.ConfigError("loader", fmt.Sprintf("configuration file not found: %s", filename))
		}

		return nil, gwerrors.Wrapf(gwerrors.CodeConfigurationError, err, "failed to read configuration file %s", filename)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, gwerrors.Wrapf(gwerrors.CodeConfigurationError, err, "failed to parse YAML in %s", filename)
	}

	if err := l.applyEnv(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ValidateFile loads a file and validates the result without keeping it.
func (l *Loader) ValidateFile(filename string) error {
	cfg, err := l.LoadFromFile(filename)
	if err != nil {
		return err
	}

	return cfg.Validate()
}

// SaveToFile writes cfg to filename as YAML.
func (l *Loader) SaveToFile(cfg *Config, filename string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	return nil
}

// GenerateExample returns a commented example configuration.
func (l *Loader) GenerateExample() string {
	return `# switchgate configuration example
#
# Every value can be overridden with an environment variable, for example
# ` + l.envPrefix + `BACKEND_A_URL or ` + l.envPrefix + `SERVER_PORT.
version: "1.0"

server:
  host: "0.0.0.0"
  port: 8080
  read_timeout: 30s
  write_timeout: 30s
  idle_timeout: 120s
  max_header_bytes: 1048576
  graceful_timeout: 30s

# The two services traffic can be switched between. Both are required.
backends:
  a:
    url: "http://localhost:8081"
  b:
    url: "http://localhost:8082"

# Requests under the prefix go to the active backend with the prefix removed:
# /service/hello -> <backend>/hello
routing:
  prefix: "/service"

transport:
  dial_timeout: 5s
  response_header_timeout: 30s
  idle_conn_timeout: 90s
  max_idle_conns: 100
  max_idle_conns_per_host: 10
  max_conns_per_host: 50

logging:
  level: "info"     # debug, info, warn, error
  format: "text"    # text, json
  access_log: true

metrics:
  enabled: true
  path: "/metrics"
`
}

// applyEnv overrides cfg with any environment variables that are set.
func (l *Loader) applyEnv(cfg *Config) error {
	strVars := map[string]*string{
		"SERVER_HOST":    &cfg.Server.Host,
		"BACKEND_A_URL":  &cfg.Backends.A.URL,
		"BACKEND_B_URL":  &cfg.Backends.B.URL,
		"ROUTING_PREFIX": &cfg.Routing.Prefix,
		"LOGGING_LEVEL":  &cfg.Logging.Level,
		"LOGGING_FORMAT": &cfg.Logging.Format,
		"METRICS_PATH":   &cfg.Metrics.Path,
	}

	for name, dst := range strVars {
		if val, ok := l.lookup(name); ok {
			*dst = val
		}
	}

	if val, ok := l.lookup("SERVER_PORT"); ok {
		port, err := strconv.Atoi(val)
		if err != nil {
			return gwerrors.Wrapf(gwerrors.CodeConfigurationError, err, "invalid SERVER_PORT %q", val)
		}

		cfg.Server.Port = port
	}

	boolVars := map[string]*bool{
		"LOGGING_ACCESS_LOG": &cfg.Logging.AccessLog,
		"METRICS_ENABLED":    &cfg.Metrics.Enabled,
	}

	for name, dst := range boolVars {
		if val, ok := l.lookup(name); ok {
			b, err := strconv.ParseBool(val)
			if err != nil {
				return gwerrors.Wrapf(gwerrors.CodeConfigurationError, err, "invalid %s %q", name, val)
			}

			*dst = b
		}
	}

	durationVars := map[string]*time.Duration{
		"SERVER_READ_TIMEOUT":               &cfg.Server.ReadTimeout,
		"SERVER_WRITE_TIMEOUT":              &cfg.Server.WriteTimeout,
		"SERVER_GRACEFUL_TIMEOUT":           &cfg.Server.GracefulTimeout,
		"TRANSPORT_DIAL_TIMEOUT":            &cfg.Transport.DialTimeout,
		"TRANSPORT_RESPONSE_HEADER_TIMEOUT": &cfg.Transport.ResponseHeaderTimeout,
	}

	for name, dst := range durationVars {
		if val, ok := l.lookup(name); ok {
			d, err := time.ParseDuration(val)
			if err != nil {
				return gwerrors.Wrapf(gwerrors.CodeConfigurationError, err, "invalid %s %q", name, val)
			}

			*dst = d
		}
	}

	return nil
}

func (l *Loader) lookup(name string) (string, bool) {
	val, ok := l.lookupEnv(l.envPrefix + name)
	if !ok {
		return "", false
	}

	val = strings.TrimSpace(val)
	return val, val != ""
}
