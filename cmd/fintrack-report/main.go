package main

import (
	"context"
	"flag"
	"os"
	"time"

	"fintrack/internal/cli"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/report"
	"fintrack/internal/seed"
	"fintrack/internal/services"
)

func main() {
	seedCount := flag.Int("seed", 0, "insert N generated demo transactions before reporting")
	seedDays := flag.Int("seed-days", 30, "spread generated transactions over the last N days")
	randSeed := flag.Int64("rand-seed", time.Now().UnixNano(), "random seed for generated transactions")
	recent := flag.Int("recent", 10, "number of recent transactions to list (0 hides the table)")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLoggerTo(applog.ComponentApp, os.Stderr)
	cfg := cli.LoadAndValidateConfig(logger)

	budgets, err := cfg.Budgets()
	if err != nil {
		logger.Error("Invalid budgets", applog.FieldError, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	be := cli.InitBackend(ctx, logger, cfg)
	if be.Cleanup != nil {
		defer func() { _ = be.Cleanup() }()
	}

	if *seedCount > 0 {
		gen := seed.NewGenerator(*randSeed, core.Today(), *seedDays)
		ids, err := seed.Seed(ctx, be.Store, gen, *seedCount)
		if err != nil {
			logger.Error("Seeding failed", applog.FieldError, err, applog.FieldCount, len(ids))
			os.Exit(1)
		}
		logger.Info("Seeded demo transactions", applog.FieldCount, len(ids))
	}

	d, err := services.NewDashboardService(be.Store, budgets, 0).Dashboard(ctx)
	if err != nil {
		logger.Error("Failed to build dashboard", applog.FieldError, err)
		os.Exit(1)
	}
	txs, err := be.Store.ListTransactions(ctx)
	if err != nil {
		logger.Error("Failed to list transactions", applog.FieldError, err)
		os.Exit(1)
	}

	if err := report.Render(os.Stdout, d, txs, report.Options{Recent: *recent}); err != nil {
		logger.Error("Failed to render report", applog.FieldError, err)
		os.Exit(1)
	}
}
