// Command dashboard serves the crop productivity and thermal sensation
// dashboards.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ezoic/agrodash/dashboard"
	"github.com/ezoic/agrodash/internal/config"
	"github.com/ezoic/agrodash/internal/observability"
	"github.com/ezoic/agrodash/internal/scheduler"
	"github.com/ezoic/agrodash/internal/server"
	"github.com/ezoic/agrodash/pkg/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.LogError(err, "failed to load config")
		os.Exit(1)
	}
	log.Setup(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	logger := log.GetLoggerWithName("main")

	reg, err := buildRegistry(cfg)
	if err != nil {
		logger.Error("failed to build dashboards", "error", err)
		os.Exit(1)
	}

	metrics := observability.NewMetrics()
	srv, err := server.New(server.Options{
		Registry:   reg,
		Metrics:    metrics,
		Breakpoint: cfg.MobileBreakpoint,
		SessionTTL: cfg.SessionTTL,
	})
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	reloader := scheduler.New(cfg.ReportReloadInterval,
		func() (*dashboard.Registry, error) { return buildRegistry(cfg) },
		srv.SetRegistry, metrics)
	if err := reloader.Start(); err != nil {
		logger.Error("failed to start report reloader", "error", err)
		os.Exit(1)
	}
	defer reloader.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Listen(cfg.HTTPAddr); err != nil {
			logger.Error("http server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
}
