package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/haukened/domainparser/internal/domainparser/app"
	"github.com/haukened/domainparser/internal/domainparser/common/log"
	"github.com/haukened/domainparser/internal/domainparser/config"
	"github.com/haukened/domainparser/internal/domainparser/gateways/transport"
	"github.com/haukened/domainparser/internal/domainparser/services/refresher"
)

const (
	// Version information
	version = "0.1.0-dev"
	appName = "domainparserd"

	defaultShutdownTimeout = 10 * time.Second
)

// Application holds the running components of the daemon.
type Application struct {
	config    *config.AppConfig
	core      *app.App
	transport *transport.HTTPTransport
	logger    log.Logger
}

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Configure global logging
	err = log.Configure(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	log.Info(map[string]any{
		"version":       version,
		"env":           cfg.Env,
		"log_level":     cfg.LogLevel,
		"http_addr":     cfg.HTTPAddr,
		"cache_path":    cfg.CachePath,
		"cache_backend": cfg.CacheBackend,
		"source_url":    cfg.SourceURL,
	}, "Starting domainparser daemon")

	application, err := buildApplication(cfg)
	if err != nil {
		log.Fatal(map[string]any{"error": err}, "Failed to build application")
	}
	defer application.core.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info(map[string]any{"signal": sig.String()}, "Shutdown signal received")
		cancel()
	}()

	if err := application.Run(ctx); err != nil {
		log.Fatal(map[string]any{"error": err}, "Server failed")
	}

	log.Info(nil, "domainparser daemon stopped gracefully")
}

// buildApplication constructs all components and wires them together.
func buildApplication(cfg *config.AppConfig) (*Application, error) {
	logger := log.GetLogger()

	core, err := app.Build(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build application: %w", err)
	}

	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	httpTransport := transport.NewHTTPTransport(transport.Options{
		Addr:          cfg.HTTPAddr,
		Parser:        core.Decomposer,
		Catalog:       core.Catalog,
		Results:       core.Results,
		DefaultSuffix: cfg.DefaultSuffix,
		Logger:        logger,
	})

	return &Application{
		config:    cfg,
		core:      core,
		transport: httpTransport,
		logger:    logger,
	}, nil
}

// Run loads the catalog, starts the HTTP API and the refresh loop, and blocks
// until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	if err := a.core.Catalog.Bootstrap(ctx); err != nil {
		// Parsing reports the catalog as unavailable until a refresh succeeds.
		a.logger.Error(map[string]any{"error": err}, "Suffix catalog unavailable at startup")
	}

	if err := a.transport.Start(ctx); err != nil {
		return fmt.Errorf("failed to start HTTP transport: %w", err)
	}

	a.logger.Info(map[string]any{
		"address":   a.transport.Address(),
		"transport": "HTTP",
	}, "domainparser daemon started")

	refreshDone := make(chan struct{})
	go func() {
		defer close(refreshDone)
		_ = refresher.Run(ctx, refresher.Config{
			Interval: a.config.RefreshInterval,
			Timeout:  a.config.SourceTimeout,
		}, a.core.Catalog, a.logger)
	}()

	<-ctx.Done()
	a.logger.Info(nil, "Shutdown initiated")

	if err := a.transport.Stop(); err != nil {
		a.logger.Warn(map[string]any{"error": err}, "Error during transport shutdown")
	}

	hits, misses, evictions := a.core.Results.Stats()
	a.logger.Info(map[string]any{
		"entries":   a.core.Results.Len(),
		"hits":      hits,
		"misses":    misses,
		"evictions": evictions,
	}, "Result cache statistics")

	select {
	case <-refreshDone:
		a.logger.Info(nil, "Graceful shutdown completed")
		return nil
	case <-time.After(defaultShutdownTimeout):
		a.logger.Warn(map[string]any{"timeout": defaultShutdownTimeout.String()}, "Shutdown timeout exceeded")
		return fmt.Errorf("shutdown timeout")
	}
}
