// Command backend runs one stub service for local gateway runs.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/alecthomas/kingpin.v2"

	"switchgate/internal/backend"
	"switchgate/pkg/logger"
)

var (
	name     = kingpin.Flag("name", "Service name shown in responses.").Default("A").String()
	listen   = kingpin.Flag("listen", "Address to listen on.").Default(":9001").String()
	greeting = kingpin.Flag("greeting", "Body returned by /hello (default depends on --name).").String()
	logLevel = kingpin.Flag("log.level", "Log level (debug, info, warn, error).").Default("info").String()
)

func main() {
	kingpin.Parse()

	log := logger.New(logger.LoggerConfig{Level: *logLevel})

	srv := &http.Server{
		Addr:              *listen,
		Handler:           backend.New(backend.Config{Name: *name, Greeting: *greeting}, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Shutdown failed", "error", err)
		}
	}()

	log.Info("Starting stub service", "name", *name, "addr", *listen)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
