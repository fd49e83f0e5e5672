package main

import (
	"context"
	"errors"
	"os"

	"spendwise/internal/backend"
	"spendwise/internal/cli"
	applog "spendwise/internal/log"
	"spendwise/internal/services"
	gsheet "spendwise/internal/sheets/google"
	"spendwise/internal/worker"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig()
	logger.Info("Starting alerts-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the alerts worker")
		os.Exit(1)
	}
	if !backend.BackendType(cfg.DataBackend).Shared() {
		logger.Error("The alerts worker cannot see API writes through a process-local store, set DATA_BACKEND=sqlite",
			"backend", cfg.DataBackend)
		os.Exit(1)
	}

	ctx, stop := cli.GracefulShutdown(logger)
	defer stop()

	res := cli.InitBackend(ctx, logger, cfg)
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", applog.FieldError, err)
		}
	}()
	if res.Events == nil {
		logger.Error("AMQP broker unreachable, nothing to consume")
		os.Exit(1)
	}

	wcfg := worker.Config{
		Notifier:   worker.NewLogNotifier(logger),
		Categories: res.Store,
	}
	if cfg.SheetsEnabled() {
		mirror, err := gsheet.NewFromEnv(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName, logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
			os.Exit(1)
		}
		wcfg.Mirror = mirror
		logger.Info("Google Sheets mirror enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets mirror disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	budgets := services.NewBudgetService(res.Store, res.Store, res.Store, logger)
	w := worker.NewAlertWorker(budgets, wcfg, logger)

	logger.Info("Consuming transaction events", "queue", cfg.AMQPQueue)
	if err := res.Events.ConsumeTransactionEvents(ctx, w.HandleTransactionEvent); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", applog.FieldError, err)
		stop()
		os.Exit(1)
	}
	logger.Info("Alerts worker stopped")
}
