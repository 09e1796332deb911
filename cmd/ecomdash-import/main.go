// Command ecomdash-import loads the CSV extracts into the SQLite store, or
// publishes an import request for ecomdash-worker with -publish.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"ecomdash/internal/amqp"
	"ecomdash/internal/cli"
	applog "ecomdash/internal/log"
	"ecomdash/internal/services"
	"ecomdash/internal/source/csvfile"
	"ecomdash/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(applog.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	dir := flag.String("dir", cfg.DataDir, "directory holding the CSV extracts")
	mode := flag.String("mode", cfg.DataPathMode, "how to resolve a relative -dir: workdir or executable")
	db := flag.String("db", cfg.SQLiteDBPath, "SQLite database path")
	publish := flag.Bool("publish", false, "publish an import request to AMQP instead of importing directly")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall timeout")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var svc *services.ImportService
	if *publish {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			cli.Fatal(logger, "Failed to initialize AMQP client", err)
		}
		svc = services.NewImportService(nil, client)
	} else {
		repo := cli.InitSQLite(logger, *db)
		defer repo.Close()
		svc = services.NewImportService(worker.NewImportWorker(repo, csvfile.Files{
			Category:    cfg.CategoryFile,
			State:       cfg.StateFile,
			TopCategory: cfg.TopCategoryFile,
		}), nil)
	}

	out, err := svc.RequestImport(ctx, *dir, csvfile.PathMode(*mode))
	if cerr := svc.Close(); cerr != nil {
		logger.Error("Failed to close import service", "error", cerr)
	}
	if err != nil {
		cli.Fatal(logger, "Import failed", err, applog.FieldImportID, out.ID, applog.FieldDataDir, *dir)
	}

	if out.Queued {
		logger.Info("Import request published",
			applog.FieldImportID, out.ID,
			applog.FieldDataDir, *dir,
			"queue", cfg.AMQPQueue)
		return
	}
	logger.Info("Import stored",
		applog.FieldImportID, out.Import.ID,
		"source", out.Import.Source,
		"category_rows", out.Import.CategoryRows,
		"state_rows", out.Import.StateRows,
		"top_category_rows", out.Import.TopCategoryRows,
		"db", *db)
}
