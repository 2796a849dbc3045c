// Package server hosts the gateway: it wires the control surface and the
// proxy pipeline into a chi router and runs the HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"switchgate/internal/config"
	"switchgate/internal/control"
	"switchgate/internal/metrics"
	"switchgate/internal/proxy"
	"switchgate/internal/target"
	gwerrors "switchgate/pkg/errors"
	"switchgate/pkg/logger"
)

// Server is a configured gateway ready to serve.
type Server struct {
	cfg     *config.Config
	store   *target.Store
	logger  *logger.Logger
	metrics *metrics.Metrics
	handler http.Handler
}

// New builds the gateway from a validated configuration. It fails when the
// configuration is invalid, so a gateway with an incomplete backend mapping
// never starts.
func New(cfg *config.Config, log *logger.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	endpoints, err := target.ParseEndpoints(cfg.Backends.A.URL, cfg.Backends.B.URL)
	if err != nil {
		return nil, gwerrors.Wrap(gwerrors.CodeConfigurationError, "invalid backend mapping", err).
			WithComponent("server")
	}

	store := target.NewStore()
	m := metrics.New(store)

	s := &Server{
		cfg:     cfg,
		store:   store,
		logger:  log,
		metrics: m,
	}

	router := proxy.NewRouter(store, endpoints, cfg.Routing.NormalizedPrefix())
	engine := proxy.NewEngine(cfg.Transport, log, m)

	s.handler = s.routes(
		control.New(store, router.Prefix(), log),
		router,
		proxy.NewHandler(router, engine, log),
	)

	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Store returns the target store the gateway routes with.
func (s *Server) Store() *target.Store {
	return s.store
}

func (s *Server) routes(ctl *control.Handlers, router *proxy.Router, proxied http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if s.cfg.Logging.AccessLog {
		r.Use(accessLog(s.logger))
	}
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, s.logger, gwerrors.NotFound(r.URL.Path).
			WithRequestID(middleware.GetReqID(r.Context())))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, s.logger, gwerrors.MethodNotAllowed(r.Method, r.URL.Path).
			WithRequestID(middleware.GetReqID(r.Context())))
	})

	r.Get("/", ctl.Index)
	r.Get("/flip", ctl.Toggle)
	r.Get("/health", ctl.Health)

	if s.cfg.Metrics.Enabled {
		reg := s.metrics.Registry()
		r.Method(http.MethodGet, s.cfg.Metrics.Path,
			promhttp.InstrumentMetricHandler(reg, promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	prefix := router.Prefix()
	r.Handle(prefix, proxied)
	r.Handle(prefix+"/*", proxied)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Addr())
	if err != nil {
		return gwerrors.Wrap(gwerrors.CodeInitializationError,
			fmt.Sprintf("failed to listen on %s", s.cfg.Server.Addr()), err)
	}

	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:        s.handler,
		ReadTimeout:    s.cfg.Server.ReadTimeout,
		WriteTimeout:   s.cfg.Server.WriteTimeout,
		IdleTimeout:    s.cfg.Server.IdleTimeout,
		MaxHeaderBytes: s.cfg.Server.MaxHeaderBytes,
	}

	s.logger.LogStartup(ln.Addr().String(), s.cfg.Routing.NormalizedPrefix(),
		s.cfg.Backends.A.URL, s.cfg.Backends.B.URL)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err

	case <-ctx.Done():
	}

	s.logger.Info("Shutting down", "graceful_timeout", s.cfg.Server.GracefulTimeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.GracefulTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return gwerrors.Wrap(gwerrors.CodeShutdownError, "graceful shutdown failed", err)
	}

	return nil
}

func writeError(w http.ResponseWriter, log *logger.Logger, err *gwerrors.GatewayError) {
	if werr := err.WriteJSON(w); werr != nil {
		log.Error("Failed to write error response", "error", werr)
	}
}

// accessLog logs one record per request through the gateway logger.
func accessLog(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				log.LogAccess(r.Method, r.URL.Path, ww.Status(), ww.BytesWritten(),
					time.Since(start), middleware.GetReqID(r.Context()))
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
