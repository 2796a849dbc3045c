// Command switchgate runs the two-backend switching gateway.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/alecthomas/kingpin.v2"

	"switchgate/internal/config"
	"switchgate/internal/server"
	"switchgate/pkg/logger"
)

var (
	configFile    = kingpin.Flag("config.file", "Path to configuration file.").Default("config.yaml").String()
	listenAddress = kingpin.Flag("web.listen-address", "Address to listen on, overrides server.host and server.port.").String()
	backendA      = kingpin.Flag("backend.a", "Base URL of backend A.").String()
	backendB      = kingpin.Flag("backend.b", "Base URL of backend B.").String()
	logLevel      = kingpin.Flag("log.level", "Log level (debug, info, warn, error).").String()
	checkConfig   = kingpin.Flag("check-config", "Validate the configuration and exit.").Bool()
	printExample  = kingpin.Flag("print-example", "Print an example configuration and exit.").Bool()
	writeConfig   = kingpin.Flag("write-config", "Write the effective configuration to this file and exit.").String()
)

func main() {
	kingpin.Parse()

	loader := config.NewLoader()

	if *printExample {
		fmt.Print(loader.GenerateExample())
		return
	}

	cfg, err := load(loader, *configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := applyFlags(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid flags: %v\n", err)
		os.Exit(1)
	}

	if *checkConfig {
		if err := check(loader, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Configuration invalid: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Configuration OK")
		return
	}

	if *writeConfig != "" {
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Configuration invalid: %v\n", err)
			os.Exit(1)
		}
		if err := loader.SaveToFile(cfg, *writeConfig); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write configuration: %v\n", err)
			os.Exit(1)
		}
		return
	}

	log := logger.New(logger.LoggerConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	srv, err := server.New(cfg, log)
	if err != nil {
		log.Error("Failed to create gateway", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		log.Error("Gateway stopped with error", "error", err)
		os.Exit(1)
	}

	log.Info("Gateway stopped")
}

// load reads the file when it exists and falls back to defaults otherwise.
func load(loader *config.Loader, path string) (*config.Config, error) {
	if _, err := os.Stat(path); err == nil {
		return loader.LoadFromFile(path)
	}

	return loader.LoadDefault()
}

// check validates the file alone when no flag overrides it, and the merged
// configuration otherwise.
func check(loader *config.Loader, cfg *config.Config) error {
	if _, err := os.Stat(*configFile); err == nil && !flagOverrides() {
		return loader.ValidateFile(*configFile)
	}

	return cfg.Validate()
}

func flagOverrides() bool {
	return *listenAddress != "" || *backendA != "" || *backendB != "" || *logLevel != ""
}

func applyFlags(cfg *config.Config) error {
	if *listenAddress != "" {
		if err := cfg.Server.SetListenAddress(*listenAddress); err != nil {
			return err
		}
	}

	if *backendA != "" {
		cfg.Backends.A.URL = *backendA
	}
	if *backendB != "" {
		cfg.Backends.B.URL = *backendB
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	return nil
}
