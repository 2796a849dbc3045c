// Package config provides configuration management for switchgate.
// It defines the configuration structures and validation logic for the
// gateway: server settings, the two backend base URLs, the proxied route
// prefix, upstream transport tuning, logging and metrics.
//
// The configuration system supports:
//   - YAML file-based configuration with environment variable overrides
//   - Validation of all configuration parameters with clear error messages
//   - Command-line flag overrides applied by the caller
//
// Configuration Loading Priority (highest to lowest):
//  1. Command-line flags
//  2. Environment variables
//  3. Configuration file
//  4. Default values
//
// The backend base URLs are read once at startup. Only the selection between
// them changes at runtime.
//
// Example configuration file:
//
//	server:
//	  port: 8080
//	  host: "0.0.0.0"
//	backends:
//	  a:
//	    url: "http://service-a:8081"
//	  b:
//	    url: "http://service-b:8082"
//	routing:
//	  prefix: "/service"
package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	gwerrors "switchgate/pkg/errors"
)

// Config represents the complete configuration for the gateway.
type Config struct {
	// Server contains HTTP server configuration including port and timeouts
	Server ServerConfig `yaml:"server" json:"server"`

	// Backends holds the base URL of each of the two upstream services
	Backends BackendsConfig `yaml:"backends" json:"backends"`

	// Routing configures the proxied route
	Routing RoutingConfig `yaml:"routing" json:"routing"`

	// Transport tunes the upstream HTTP client
	Transport TransportConfig `yaml:"transport" json:"transport"`

	// Logging configures log output format and verbosity
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Metrics configures the Prometheus endpoint
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`

	// Version tracks the configuration file version for compatibility
	Version string `yaml:"version,omitempty" json:"version,omitempty"`
}

// ServerConfig defines HTTP server configuration parameters.
type ServerConfig struct {
	// Host specifies the network interface to bind to (default: "0.0.0.0")
	Host string `yaml:"host" json:"host"`

	// Port specifies the TCP port to listen on (default: 8080)
	Port int `yaml:"port" json:"port"`

	// ReadTimeout limits the time spent reading the request headers and body
	ReadTimeout time.Duration `yaml:"read_timeout" json:"read_timeout"`

	// WriteTimeout limits the time spent writing the response
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`

	// IdleTimeout limits the time connections remain idle before closure
	IdleTimeout time.Duration `yaml:"idle_timeout" json:"idle_timeout"`

	// MaxHeaderBytes limits the size of request headers
	MaxHeaderBytes int `yaml:"max_header_bytes" json:"max_header_bytes"`

	// GracefulTimeout specifies how long to wait during graceful shutdown
	GracefulTimeout time.Duration `yaml:"graceful_timeout" json:"graceful_timeout"`
}

// Addr returns the address the server listens on. An empty host listens on
// all interfaces.
func (s *ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// SetListenAddress overrides Host and Port from a "host:port" address such
// as ":8080" or "[::1]:8080".
func (s *ServerConfig) SetListenAddress(addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return gwerrors.ValidationError("listen address", err.Error())
	}

	p, err := strconv.Atoi(port)
	if err != nil {
		return gwerrors.ValidationError("listen address", fmt.Sprintf("invalid port %q", port))
	}

	s.Host = host
	s.Port = p
	return nil
}

// BackendsConfig holds exactly one entry per backend.
type BackendsConfig struct {
	A BackendConfig `yaml:"a" json:"a"`
	B BackendConfig `yaml:"b" json:"b"`
}

// BackendConfig defines a single upstream service.
type BackendConfig struct {
	// URL is the base URL of the service: scheme, host and port, with an
	// optional base path
	URL string `yaml:"url" json:"url"`
}

// RoutingConfig defines where proxied traffic is mounted.
type RoutingConfig struct {
	// Prefix is the path under which requests are forwarded to the active
	// backend with the prefix stripped (default: "/service")
	Prefix string `yaml:"prefix" json:"prefix"`
}

// TransportConfig tunes the shared upstream transport.
type TransportConfig struct {
	DialTimeout           time.Duration `yaml:"dial_timeout" json:"dial_timeout"`
	ResponseHeaderTimeout time.Duration `yaml:"response_header_timeout" json:"response_header_timeout"`
	IdleConnTimeout       time.Duration `yaml:"idle_conn_timeout" json:"idle_conn_timeout"`
	MaxIdleConns          int           `yaml:"max_idle_conns" json:"max_idle_conns"`
	MaxIdleConnsPerHost   int           `yaml:"max_idle_conns_per_host" json:"max_idle_conns_per_host"`
	MaxConnsPerHost       int           `yaml:"max_conns_per_host" json:"max_conns_per_host"`
}

// LoggingConfig defines logging output format and verbosity settings.
type LoggingConfig struct {
	// Level specifies the minimum log level to output
	Level string `yaml:"level" json:"level"`

	// Format specifies the log output format
	Format string `yaml:"format" json:"format"`

	// AccessLog enables/disables HTTP access logging
	AccessLog bool `yaml:"access_log" json:"access_log"`
}

// MetricsConfig defines the Prometheus exposition endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
}

// DefaultConfig returns a configuration with sensible default values.
//
// The backend URLs are left empty: they have no meaningful default and a
// gateway without both of them must not start.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     120 * time.Second,
			MaxHeaderBytes:  1048576, // 1MB
			GracefulTimeout: 30 * time.Second,
		},
		Routing: RoutingConfig{
			Prefix: "/service",
		},
		Transport: TransportConfig{
			DialTimeout:           5 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
			IdleConnTimeout:       90 * time.Second,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			MaxConnsPerHost:       50,
		},
		Logging: LoggingConfig{
			Level:     "info",
			Format:    "text",
			AccessLog: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Version: "1.0",
	}
}

// Validate performs validation of the whole configuration. Failures carry
// the GATEWAY_CONFIG_ERROR code.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return gwerrors.Wrap(gwerrors.CodeConfigurationError, "server configuration invalid", err)
	}

	if err := c.Backends.A.Validate(); err != nil {
		return gwerrors.Wrap(gwerrors.CodeConfigurationError, "backend A invalid", err)
	}

	if err := c.Backends.B.Validate(); err != nil {
		return gwerrors.Wrap(gwerrors.CodeConfigurationError, "backend B invalid", err)
	}

	if err := c.Routing.Validate(); err != nil {
		return gwerrors.Wrap(gwerrors.CodeConfigurationError, "routing configuration invalid", err)
	}

	if err := c.Transport.Validate(); err != nil {
		return gwerrors.Wrap(gwerrors.CodeConfigurationError, "transport configuration invalid", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return gwerrors.Wrap(gwerrors.CodeConfigurationError, "logging configuration invalid", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return gwerrors.Wrap(gwerrors.CodeConfigurationError, "metrics configuration invalid", err)
	}

	if c.Metrics.Enabled {
		prefix := c.Routing.NormalizedPrefix()
		if c.Metrics.Path == prefix || strings.HasPrefix(c.Metrics.Path, prefix+"/") {
			return gwerrors.ValidationError("metrics.path",
				fmt.Sprintf("%q collides with the routing prefix %q", c.Metrics.Path, prefix))
		}
	}

	return nil
}

// Validate validates the server configuration parameters.
func (s *ServerConfig) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", s.Port)
	}

	if s.ReadTimeout < 0 {
		return fmt.Errorf("read_timeout must be positive, got %v", s.ReadTimeout)
	}

	if s.WriteTimeout < 0 {
		return fmt.Errorf("write_timeout must be positive, got %v", s.WriteTimeout)
	}

	if s.GracefulTimeout < 0 {
		return fmt.Errorf("graceful_timeout must be positive, got %v", s.GracefulTimeout)
	}

	return nil
}

// Validate validates a backend base URL.
func (b *BackendConfig) Validate() error {
	if b.URL == "" {
		return fmt.Errorf("URL is required")
	}

	parsedURL, err := url.Parse(b.URL)
	if err != nil {
		return fmt.Errorf("invalid URL '%s': %w", b.URL, err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got '%s'", parsedURL.Scheme)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("URL '%s' has no host", b.URL)
	}

	if parsedURL.RawQuery != "" || parsedURL.Fragment != "" {
		return fmt.Errorf("URL '%s' must not carry a query or fragment", b.URL)
	}

	return nil
}

// NormalizedPrefix returns the prefix without a trailing slash.
func (r *RoutingConfig) NormalizedPrefix() string {
	if len(r.Prefix) > 1 {
		return strings.TrimRight(r.Prefix, "/")
	}

	return r.Prefix
}

// reservedPaths are served by the control surface and cannot be proxied.
var reservedPaths = map[string]bool{
	"/":       true,
	"/flip":   true,
	"/health": true,
}

// Validate validates the route prefix.
func (r *RoutingConfig) Validate() error {
	prefix := r.NormalizedPrefix()

	if prefix == "" {
		return fmt.Errorf("prefix is required")
	}

	if !strings.HasPrefix(prefix, "/") {
		return fmt.Errorf("prefix must start with '/', got '%s'", r.Prefix)
	}

	if reservedPaths[prefix] {
		return fmt.Errorf("prefix '%s' is reserved", prefix)
	}

	if strings.ContainsAny(prefix, "*{}") {
		return fmt.Errorf("prefix '%s' must be a literal path", prefix)
	}

	return nil
}

// Validate validates the transport settings.
func (t *TransportConfig) Validate() error {
	if t.DialTimeout < 0 {
		return fmt.Errorf("dial_timeout must be positive, got %v", t.DialTimeout)
	}

	if t.ResponseHeaderTimeout < 0 {
		return fmt.Errorf("response_header_timeout must be positive, got %v", t.ResponseHeaderTimeout)
	}

	if t.MaxIdleConns < 0 || t.MaxIdleConnsPerHost < 0 || t.MaxConnsPerHost < 0 {
		return fmt.Errorf("connection limits must be non-negative")
	}

	return nil
}

// Validate validates the logging settings.
func (l *LoggingConfig) Validate() error {
	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported log level '%s'", l.Level)
	}

	switch l.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported log format '%s'", l.Format)
	}

	return nil
}

// Validate validates the metrics settings.
func (m *MetricsConfig) Validate() error {
	if !m.Enabled {
		return nil
	}

	if !strings.HasPrefix(m.Path, "/") {
		return fmt.Errorf("metrics path must start with '/', got '%s'", m.Path)
	}

	if reservedPaths[m.Path] {
		return fmt.Errorf("metrics path '%s' is reserved", m.Path)
	}

	return nil
}
