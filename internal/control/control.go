// Package control implements the operator-facing endpoints of the gateway:
// flipping the active backend, the endpoint index and the health check.
package control

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"switchgate/internal/target"
	"switchgate/pkg/logger"
)

// Handlers serves the control endpoints for one target store.
type Handlers struct {
	store  *target.Store
	prefix string
	logger *logger.Logger
}

// New creates the control handlers. prefix is the proxied route prefix, used
// only to describe the endpoints.
func New(store *target.Store, prefix string, log *logger.Logger) *Handlers {
	return &Handlers{
		store:  store,
		prefix: strings.TrimRight(prefix, "/"),
		logger: log,
	}
}

// Toggle flips the active backend and confirms the new one. Every call
// changes state; two calls return to the original backend.
func (h *Handlers) Toggle(w http.ResponseWriter, r *http.Request) {
	b := h.store.Toggle()
	h.logger.LogFlip(b.Other().String(), b.String(), h.store.Flips())

	writeText(w, h.logger, fmt.Sprintf("Service set to %s\n", b))
}

// Index lists the available endpoints using the scheme and host the client
// reached the gateway with.
func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	base := baseURL(r)

	var sb strings.Builder
	sb.WriteString("Use these endpoints:\n")
	fmt.Fprintf(&sb, " - %s%s: show current service\n", base, h.prefix)
	fmt.Fprintf(&sb, " - %s/flip: flip service (from service A to service B and vice-versa)\n", base)
	fmt.Fprintf(&sb, " - %s%s/hello: call an API from current service\n", base, h.prefix)

	writeText(w, h.logger, sb.String())
}

// healthResponse is the body of the health endpoint.
type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Active  string `json:"active"`
	Flips   uint64 `json:"flips"`
}

// Health reports that the gateway is up and which backend is active.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:  "healthy",
		Service: "switchgate",
		Active:  h.store.Current().String(),
		Flips:   h.store.Flips(),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("Failed to write health check response", "error", err)
	}
}

func writeText(w http.ResponseWriter, log *logger.Logger, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write([]byte(body)); err != nil {
		log.Error("Failed to write response", "error", err)
	}
}

// baseURL returns scheme://host for r, honouring X-Forwarded-Proto and
// X-Forwarded-Host set by a fronting proxy.
func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}

	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}

	host := r.Host
	if fwd := r.Header.Get("X-Forwarded-Host"); fwd != "" {
		host = strings.TrimSpace(strings.Split(fwd, ",")[0])
	}

	return scheme + "://" + host
}
