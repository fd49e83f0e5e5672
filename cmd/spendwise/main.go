package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"spendwise/internal/auth"
	"spendwise/internal/cache"
	"spendwise/internal/charts"
	"spendwise/internal/cli"
	apphttp "spendwise/internal/http"
	"spendwise/internal/llm"
	applog "spendwise/internal/log"
	"spendwise/internal/middleware/ratelimit"
	"spendwise/internal/services"
)

const (
	shutdownTimeout   = 30 * time.Second
	cacheCleanupEvery = 5 * time.Minute
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig()

	ctx, stop := cli.GracefulShutdown(logger)
	defer stop()

	res := cli.InitBackend(ctx, logger, cfg)
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", applog.FieldError, err)
		}
	}()
	st := res.Store

	// a nil *amqp.Client must not become a non-nil interface
	var events services.EventPublisher
	if res.Events != nil {
		events = res.Events
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	budgets := services.NewBudgetService(st, st, st, logger)
	goals := services.NewGoalService(st, logger)
	analytics := services.NewAnalyticsService(st, st, logger)

	var completer services.Completer
	if cfg.AdviceEnabled() {
		completer = llm.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
		logger.Info("AI advice enabled", "model", cfg.OpenAIModel)
	} else {
		logger.Info("AI advice disabled - no OPENAI_API_KEY provided")
	}
	advice := services.NewAdviceService(completer, budgets, goals, analytics, cfg.AdviceCacheTTL, logger)

	caches := cache.NewManager(logger)
	caches.Register(advice.Cache())
	caches.StartCleanup(cacheCleanupEvery)
	defer caches.Stop()

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Auth:         services.NewAuthService(st, st, tokens, logger),
		Categories:   services.NewCategoryService(st, st, logger),
		Transactions: services.NewTransactionService(st, st, events, logger),
		Budgets:      budgets,
		Goals:        goals,
		Analytics:    analytics,
		Advice:       advice,
		Charts:       charts.NewRenderer(),
		Store:        st,
		RateLimit:    ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute},
		Logger:       logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting spendwise server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		stop()
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
