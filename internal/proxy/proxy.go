// Package proxy forwards requests under the route prefix to whichever
// backend is active at the moment the request is routed.
//
// Every proxied request goes through two stages:
//
//  1. Resolve: the Router reads the target store once, picks the base URL
//     of the active backend and strips the route prefix from the path. The
//     result is a typed Decision.
//  2. Forward: the Engine sends the request to the destination carried by
//     the Decision and streams the upstream response back.
//
// Stage 1 runs after the host's path matcher has sent the request here and
// before any upstream connection is chosen, so a toggle takes effect on the
// very next request while requests already past stage 1 keep their
// destination.
//
// Example usage:
//
//	store := target.NewStore()
//	router := proxy.NewRouter(store, endpoints, "/service")
//	engine := proxy.NewEngine(cfg.Transport, log, m)
//	http.Handle("/service/", proxy.NewHandler(router, engine, log))
package proxy

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	gwerrors "switchgate/pkg/errors"
	"switchgate/pkg/logger"
)

// Resolver is stage 1 of the proxy pipeline.
type Resolver interface {
	Resolve(r *http.Request) (Decision, bool)
}

// Forwarder is stage 2 of the proxy pipeline.
type Forwarder interface {
	Forward(w http.ResponseWriter, r *http.Request, d Decision)
}

// Handler chains a Resolver and a Forwarder into an http.Handler.
//
// Thread safety: Handler holds no per-request state and is safe for
// concurrent use when its Resolver and Forwarder are.
type Handler struct {
	resolver  Resolver
	forwarder Forwarder
	logger    *logger.Logger
}

// NewHandler creates the proxy pipeline.
func NewHandler(resolver Resolver, forwarder Forwarder, log *logger.Logger) *Handler {
	return &Handler{
		resolver:  resolver,
		forwarder: forwarder,
		logger:    log,
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d, ok := h.resolver.Resolve(r)
	if !ok {
		err := gwerrors.NotFound(r.URL.Path).
			WithRequestID(middleware.GetReqID(r.Context())).
			WithComponent("router")
		if werr := err.WriteJSON(w); werr != nil {
			h.logger.Error("Failed to write error response", "error", werr)
		}

		return
	}

	h.forwarder.Forward(w, r, d)
}
