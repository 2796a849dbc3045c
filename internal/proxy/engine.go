package proxy

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httputil"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"switchgate/internal/config"
	"switchgate/internal/metrics"
	gwerrors "switchgate/pkg/errors"
	"switchgate/pkg/logger"
)

// Engine executes forwarding for a resolved Decision.
//
// A small httputil.ReverseProxy is built per request around the decision,
// while the underlying http.Transport, and with it the connection pool, is
// shared by every request.
type Engine struct {
	transport http.RoundTripper
	logger    *logger.Logger
	metrics   *metrics.Metrics
}

// NewEngine creates an engine whose transport is tuned by cfg.
//
// Transport Configuration:
//   - DialTimeout: bound on establishing upstream connections
//   - ResponseHeaderTimeout: prevents hanging on slow responses
//   - IdleConnTimeout, MaxIdleConns, MaxIdleConnsPerHost: connection reuse
//   - MaxConnsPerHost: maximum concurrent connections per backend
func NewEngine(cfg config.TransportConfig, log *logger.Logger, m *metrics.Metrics) *Engine {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   cfg.DialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		ForceAttemptHTTP2:     true,
	}

	return &Engine{
		transport: transport,
		logger:    log,
		metrics:   m,
	}
}

// Forward sends r to the destination in d and streams the response back to
// w unmodified.
//
// The destination is applied in the proxy's Rewrite hook, which runs before
// the transport selects a connection. Method, headers, query and body pass
// through; X-Forwarded-* headers are set for the backend.
func (e *Engine) Forward(w http.ResponseWriter, r *http.Request, d Decision) {
	start := time.Now()

	rp := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.Out.URL.Path = d.Path
			pr.Out.URL.RawPath = d.RawPath
			pr.SetURL(d.BaseURL)
			pr.SetXForwarded()
		},
		Transport: e.transport,
		ModifyResponse: func(resp *http.Response) error {
			e.metrics.ObserveResponse(d.Backend, resp.StatusCode, time.Since(start))
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			e.handleError(w, r, d, err)
		},
	}

	e.logger.LogForward(r.Method, r.URL.Path, d.Backend.String(), d.Target(), d.Path)
	rp.ServeHTTP(w, r)
}

// handleError turns a failed upstream round trip into a structured gateway
// error. Timeouts give 504 UPSTREAM_TIMEOUT, failed dials give 502
// UPSTREAM_UNAVAILABLE and any other transport failure gives 502
// UPSTREAM_ERROR. A request the client already abandoned gets no body.
func (e *Engine) handleError(w http.ResponseWriter, r *http.Request, d Decision, err error) {
	if errors.Is(err, context.Canceled) {
		e.logger.Debug("Client went away", "backend", d.Backend.String(), "path", r.URL.Path)
		return
	}

	e.logger.LogUpstreamFailure(d.Backend.String(), d.Target(), err)

	var gwErr *gwerrors.GatewayError
	switch {
	case isTimeout(err):
		gwErr = gwerrors.UpstreamTimeout(d.Backend.String(), d.Target(), err)
	case isDialError(err):
		gwErr = gwerrors.UpstreamUnavailable(d.Backend.String(), d.Target(), err)
	default:
		gwErr = gwerrors.UpstreamError(d.Backend.String(), d.Target(), err)
	}

	gwErr.WithRequestID(middleware.GetReqID(r.Context()))
	e.metrics.ObserveUpstreamError(d.Backend, gwErr.StatusCode)

	if werr := gwErr.WriteJSON(w); werr != nil {
		e.logger.Error("Failed to write error response", "error", werr)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isDialError(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
