package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"ecomdash/internal/backend"
	"ecomdash/internal/cli"
	apphttp "ecomdash/internal/http"
	"ecomdash/internal/loader"
	applog "ecomdash/internal/log"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Fatal(logger, "Invalid backend configuration", err, "backend", cfg.DataBackend)
	}

	res, err := backend.NewFactory(logger.Logger).CreateSource(context.Background(), backendCfg)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize data source", err, "backend", cfg.DataBackend)
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Error("Failed to close data source", "error", err)
		}
	}()

	// The dataset is loaded once; a failed load is fatal.
	ld := loader.New(res.Source)
	startCtx, cancelStart := context.WithTimeout(context.Background(), 2*time.Minute)
	err = ld.Init(startCtx)
	cancelStart()
	if err != nil {
		_ = res.Close()
		cli.Fatal(logger, "Failed to load dataset", err, "backend", cfg.DataBackend)
	}

	srv := apphttp.NewServer(cfg.Addr(), ld, logger, apphttp.Options{
		ChartCacheSize:     cfg.ChartCacheSize,
		ChartCacheTTL:      cfg.ChartCacheTTL,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
	})
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(context.Background(), logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	logger.Info("Starting ecomdash server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		_ = res.Close()
		cli.Fatal(logger, "Server error", err, "port", cfg.Port)
	}

	<-ctx.Done()
	cli.WaitForShutdown(done)
	logger.Info("Server stopped gracefully")
}
