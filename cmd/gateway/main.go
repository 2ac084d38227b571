// Package main runs the market-data gateway: the /gateway HTTP API, the
// periodic dependency health loop and the alert sinks.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"chain-gateway/internal/config"
	"chain-gateway/internal/gateway"
	"chain-gateway/internal/httpapi"
	"chain-gateway/internal/logging"
)

// shutdownTimeout bounds graceful shutdown after the first signal.
const shutdownTimeout = 30 * time.Second

func main() {
	envFile := flag.String("env-file", ".env", "Environment file loaded before reading GATEWAY_* variables")
	addr := flag.String("addr", "", "HTTP listen address (overrides GATEWAY_HTTP_ADDR)")
	logLevel := flag.String("log-level", "", "Log level (overrides GATEWAY_LOG_LEVEL)")
	useStub := flag.Bool("stub", false, "Serve from deterministic in-memory upstreams")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.HTTPAddr = *addr
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *useStub {
		cfg.UseStub = true
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatalw("gateway stopped", "error", err)
	}
	logger.Info("shutdown complete")
}

func run(cfg *config.Config, logger *zap.SugaredLogger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app, err := wire(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.close()

	svc := gateway.New(cfg, app.deps, gateway.Options{Logger: logger})

	router := httpapi.NewRouter(svc, httpapi.Options{
		Logger:      logger,
		AlertStream: app.alertStream,
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go svc.RunHealthChecks(ctx)

	serveErr := make(chan error, 1)
	go func() {
		logger.Infow("http server listening", "addr", cfg.HTTPAddr, "stub", cfg.UseStub)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("signal received, shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
