package main

import (
	"context"
	"os"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/gateway/google"
	applog "fintrack/internal/log"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	logger.Info("Starting fintrack-worker")

	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).Validate, (*config.Config).ValidateWorker)

	initCtx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	be := cli.InitBackend(initCtx, logger, cfg)
	mirror, err := google.New(initCtx, google.Config{
		SpreadsheetID: cfg.GoogleMirrorSpreadsheetID,
		SheetName:     cfg.GoogleMirrorSheetName,
		Credentials: google.Credentials{
			JSON: cfg.GoogleServiceAccountJSON,
			File: cfg.GoogleServiceAccountFile,
		},
	})
	cancelInit()
	if err != nil {
		logger.Error("Failed to initialize Google Sheets mirror", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets mirror initialized", "spreadsheet_id", cfg.GoogleMirrorSpreadsheetID, "sheet", cfg.GoogleMirrorSheetName)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}

	cleanup := func(context.Context) {
		_ = amqpClient.Close()
		if be.Cleanup != nil {
			if err := be.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", applog.FieldError, err)
			}
		}
	}
	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, cleanup)

	w := worker.NewMirrorWorker(be.Store, mirror, cfg.MirrorInterval, logger)
	if err := w.Run(ctx, amqpClient); err != nil {
		logger.Error("Mirror worker stopped", applog.FieldError, err)
		cleanup(context.Background())
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
