// Package backend implements the stub text service the gateway is switched
// between in local runs and tests.
package backend

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"switchgate/pkg/logger"
)

// Config describes one stub service.
type Config struct {
	// Name is shown in the welcome message, e.g. "A".
	Name string

	// Greeting is the /hello body. Empty selects the default for Name.
	Greeting string
}

// DefaultGreeting returns the /hello body used when none is configured.
func DefaultGreeting(name string) string {
	if strings.EqualFold(name, "B") {
		return "Bonjour le monde"
	}

	return "Hello world"
}

// New returns the service handler.
func New(cfg Config, log *logger.Logger) http.Handler {
	greeting := cfg.Greeting
	if greeting == "" {
		greeting = DefaultGreeting(cfg.Name)
	}

	welcome := fmt.Sprintf("Welcome to Service %s\n", cfg.Name)
	hello := strings.TrimRight(greeting, "\n") + "\n"

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		reply(w, log, welcome)
	})
	r.Get("/hello", func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Hello requested", "service", cfg.Name, "forwarded_for", r.Header.Get("X-Forwarded-For"))
		reply(w, log, hello)
	})

	return r
}

func reply(w http.ResponseWriter, log *logger.Logger, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte(body)); err != nil {
		log.Warn("Failed to write response", "error", err)
	}
}
