// Package errors provides the structured error type used across switchgate
// for configuration failures, routing misses and upstream errors.
//
// Every GatewayError carries a machine-readable code, the HTTP status that
// code maps to, and a severity for logging. Errors that reach a client are
// rendered as JSON through WriteJSON.
//
// Thread Safety:
// A GatewayError is not safe for concurrent mutation. The With* builders are
// meant to be chained right after construction, before the error is shared.
package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ErrorCode represents standardized error codes for programmatic handling
// and monitoring.
type ErrorCode string

const (
	// Gateway internal errors
	CodeInternalError       ErrorCode = "GATEWAY_INTERNAL_ERROR"
	CodeConfigurationError  ErrorCode = "GATEWAY_CONFIG_ERROR"
	CodeInitializationError ErrorCode = "GATEWAY_INIT_ERROR"
	CodeShutdownError       ErrorCode = "GATEWAY_SHUTDOWN_ERROR"

	// Routing errors
	CodeRoutingError ErrorCode = "ROUTING_ERROR"

	// Upstream service errors
	CodeUpstreamError       ErrorCode = "UPSTREAM_ERROR"
	CodeUpstreamTimeout     ErrorCode = "UPSTREAM_TIMEOUT"
	CodeUpstreamUnavailable ErrorCode = "UPSTREAM_UNAVAILABLE"

	// Client request errors
	CodeBadRequest       ErrorCode = "CLIENT_BAD_REQUEST"
	CodeNotFound         ErrorCode = "CLIENT_NOT_FOUND"
	CodeMethodNotAllowed ErrorCode = "CLIENT_METHOD_NOT_ALLOWED"
)

// ErrorSeverity indicates the severity level of an error for alerting
// and logging.
type ErrorSeverity uint8

const (
	SeverityDebug    ErrorSeverity = iota // Debug information, not an error
	SeverityInfo                          // Informational, recoverable
	SeverityWarn                          // Warning, potential issue
	SeverityError                         // Error, requires attention
	SeverityCritical                      // Critical, immediate action required
	SeverityFatal                         // Fatal, service unavailable
)

// String returns the string representation of ErrorSeverity
func (s ErrorSeverity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"

	case SeverityInfo:
		return "info"

	case SeverityWarn:
		return "warn"

	case SeverityError:
		return "error"

	case SeverityCritical:
		return "critical"

	case SeverityFatal:
		return "fatal"

	default:
		return "unknown"
	}
}

// MarshalText encodes the severity by name so JSON bodies stay readable.
func (s ErrorSeverity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// GatewayError represents a structured error with context information.
type GatewayError struct {
	Code       ErrorCode     `json:"code"`
	StatusCode int           `json:"status_code"`
	Severity   ErrorSeverity `json:"severity"`
	Timestamp  time.Time     `json:"timestamp"`

	Message string `json:"message"`
	Details string `json:"details,omitempty"`

	RequestID string `json:"request_id,omitempty"`
	Component string `json:"component,omitempty"`

	Context map[string]interface{} `json:"context,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface.
func (e *GatewayError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}

	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ compatibility.
func (e *GatewayError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a GatewayError with the same code.
func (e *GatewayError) Is(target error) bool {
	if t, ok := target.(*GatewayError); ok {
		return e.Code == t.Code
	}

	return false
}

// WithContext adds contextual information to the error.
func (e *GatewayError) WithContext(key string, value interface{}) *GatewayError {
	if e.Context == nil {
		e.Context = make(map[string]interface{}, 4)
	}

	e.Context[key] = value
	return e
}

// WithComponent sets the component name where the error occurred.
func (e *GatewayError) WithComponent(component string) *GatewayError {
	e.Component = component
	return e
}

// WithRequestID sets the request ID for tracing.
func (e *GatewayError) WithRequestID(requestID string) *GatewayError {
	e.RequestID = requestID
	return e
}

// WithCause sets the underlying cause error.
func (e *GatewayError) WithCause(err error) *GatewayError {
	e.Cause = err
	if e.Details == "" && err != nil {
		e.Details = err.Error()
	}

	return e
}

// IsClientError returns true if the error represents a client-side issue (4xx).
func (e *GatewayError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// IsServerError returns true if the error represents a server-side issue (5xx).
func (e *GatewayError) IsServerError() bool {
	return e.StatusCode >= 500
}

// ToJSON serializes the error to JSON.
func (e *GatewayError) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// WriteJSON writes the error to w as a JSON response with the error's
// status code.
func (e *GatewayError) WriteJSON(w http.ResponseWriter) error {
	body, err := e.ToJSON()
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Gateway-Error", "true")
	w.WriteHeader(e.StatusCode)

	_, err = w.Write(body)
	return err
}

// New creates a new GatewayError with the default status and severity for
// its code.
func New(code ErrorCode, message string) *GatewayError {
	return &GatewayError{
		Code:       code,
		Message:    message,
		Timestamp:  time.Now().UTC(),
		StatusCode: getDefaultStatusCode(code),
		Severity:   getDefaultSeverity(code),
	}
}

// Newf creates a new GatewayError with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *GatewayError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with a GatewayError for additional context.
func Wrap(code ErrorCode, message string, err error) *GatewayError {
	if err == nil {
		return New(code, message)
	}

	return New(code, message).WithCause(err)
}

// Wrapf wraps an existing error with a formatted message.
func Wrapf(code ErrorCode, err error, format string, args ...interface{}) *GatewayError {
	return Wrap(code, fmt.Sprintf(format, args...), err)
}

func getDefaultStatusCode(code ErrorCode) int {
	switch code {
	case CodeBadRequest:
		return http.StatusBadRequest

	case CodeNotFound:
		return http.StatusNotFound

	case CodeMethodNotAllowed:
		return http.StatusMethodNotAllowed

	case CodeUpstreamError, CodeUpstreamUnavailable:
		return http.StatusBadGateway

	case CodeUpstreamTimeout:
		return http.StatusGatewayTimeout

	default:
		return http.StatusInternalServerError
	}
}

func getDefaultSeverity(code ErrorCode) ErrorSeverity {
	switch code {
	case CodeInternalError, CodeInitializationError, CodeShutdownError:
		return SeverityFatal

	case CodeConfigurationError:
		return SeverityCritical

	case CodeUpstreamError, CodeUpstreamUnavailable, CodeRoutingError:
		return SeverityError

	case CodeUpstreamTimeout:
		return SeverityWarn

	case CodeBadRequest, CodeNotFound, CodeMethodNotAllowed:
		return SeverityInfo

	default:
		return SeverityError
	}
}

// Helper functions for common error scenarios

// NotFound creates a not found error for a specific resource.
func NotFound(resource string) *GatewayError {
	return Newf(CodeNotFound, "Resource not found: %s", resource)
}

// MethodNotAllowed creates an error for a method the route does not serve.
func MethodNotAllowed(method, path string) *GatewayError {
	return Newf(CodeMethodNotAllowed, "Method %s not allowed on %s", method, path).
		WithContext("method", method).
		WithContext("path", path)
}

// UpstreamError creates the error returned when a backend was reached but
// the exchange failed before a response arrived.
func UpstreamError(backend, target string, err error) *GatewayError {
	return Wrap(CodeUpstreamError, fmt.Sprintf("Upstream error from %s", target), err).
		WithContext("backend", backend).
		WithContext("target", target).
		WithComponent("proxy")
}

// UpstreamUnavailable creates the error returned when a backend cannot be
// reached.
func UpstreamUnavailable(backend, target string, err error) *GatewayError {
	return Wrap(CodeUpstreamUnavailable, "The upstream server is not available", err).
		WithContext("backend", backend).
		WithContext("target", target).
		WithComponent("proxy")
}

// UpstreamTimeout creates an upstream timeout error.
func UpstreamTimeout(backend, target string, err error) *GatewayError {
	return Wrap(CodeUpstreamTimeout, "The upstream server did not respond in time", err).
		WithContext("backend", backend).
		WithContext("target", target).
		WithComponent("proxy")
}

// ConfigError creates a configuration error with component information.
func ConfigError(component, message string) *GatewayError {
	return Newf(CodeConfigurationError, "Configuration error in %s: %s", component, message).
		WithComponent(component)
}

// ValidationError creates a configuration validation error for a single
// field.
func ValidationError(field, reason string) *GatewayError {
	return New(CodeConfigurationError, fmt.Sprintf("Validation failed for field '%s': %s", field, reason)).
		WithContext("field", field).
		WithComponent("config")
}
