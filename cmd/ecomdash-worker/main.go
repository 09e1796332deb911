package main

import (
	"context"
	"errors"
	"time"

	"ecomdash/internal/amqp"
	"ecomdash/internal/cli"
	applog "ecomdash/internal/log"
	"ecomdash/internal/source/csvfile"
	"ecomdash/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	logger := cli.SetupLogger(applog.ComponentWorker)
	logger.Info("Starting ecomdash-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		repo.Close()
		cli.Fatal(logger, "Failed to initialize AMQP client", err)
	}
	defer amqpClient.Close()

	importWorker := worker.NewImportWorker(repo, csvfile.Files{
		Category:    cfg.CategoryFile,
		State:       cfg.StateFile,
		TopCategory: cfg.TopCategoryFile,
	})

	base, stop := context.WithCancel(context.Background())
	defer stop()
	ctx, done := cli.GracefulShutdown(base, logger, 30*time.Second, nil)

	// On startup, fill an empty store from the configured directory
	logger.Info("Performing startup import check...")
	if ran, err := importWorker.StartupImportCheck(ctx, cfg.DataDir, csvfile.PathMode(cfg.DataPathMode)); err != nil {
		// Don't exit - requests may still point at a valid directory
		logger.Error("Failed startup import check", "error", err, applog.FieldDataDir, cfg.DataDir)
	} else if ran {
		logger.Info("Startup import completed", applog.FieldDataDir, cfg.DataDir)
	}

	consumeErr := make(chan error, 1)
	go func() {
		consumeErr <- amqpClient.ConsumeImportRequests(ctx, importWorker.HandleImportRequest)
	}()

	select {
	case err := <-consumeErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", "error", err)
		}
		stop()
	case <-ctx.Done():
		<-consumeErr
	}

	cli.WaitForShutdown(done)
	logger.Info("Worker stopped gracefully")
}
