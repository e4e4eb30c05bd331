// Command fintrack serves the finance JSON API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/cache"
	"fintrack/internal/cli"
	"fintrack/internal/currency"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig()

	logger.Info("Starting fintrack", "backend", cfg.DataBackend, "notifier", cfg.Notifier)

	store := cli.OpenStore(context.Background(), logger, cfg)
	defer store.Close()

	notifier, closeNotifier, err := cli.NewNotifier(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize notifier", log.FieldError, err, "notifier", cfg.Notifier)
		os.Exit(1)
	}
	defer closeNotifier()

	sink, err := cli.NewReportSink(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}

	converter := currency.NewConverter(currency.Config{
		BaseURL:  cfg.CurrencyAPIURL,
		Timeout:  cfg.CurrencyTimeout,
		CacheTTL: cfg.CurrencyCacheTTL,
	}, logger)
	caches := cache.NewManager(logger)
	caches.Register(converter.Cache())
	caches.StartCleanup(10 * time.Minute)
	defer caches.Stop()

	dispatcher := services.NewNotificationDispatcher(notifier, store.Store, cfg.NotifyTimeout, logger)
	accrual := services.NewAccrualEngine(store.Store, dispatcher, logger)
	reportCfg := services.ReportServiceConfig{BaseCurrency: cfg.BaseCurrency, ConvertTimeout: cfg.CurrencyTimeout}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Auth:         auth.NewService(store.Store, store.Store, auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL), logger),
		Categories:   services.NewCategoryService(store.Store),
		Budgets:      services.NewBudgetService(store.Store, store.Store, logger),
		Transactions: services.NewTransactionService(store.Store, services.NewTransactionValidator(store.Store), accrual, logger),
		Reports:      services.NewReportService(store.Store, converter, sink, reportCfg, logger),
		Dashboard:    services.NewDashboardService(store.Store, store.Store, converter, reportCfg, logger),
		Converter:    converter,
		Pinger:       store.Store,
		Logger:       logger,
	}, apphttp.Options{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRPM:       cfg.RateLimitRPM,
		TrustedProxies:     cfg.TrustedProxies,
	})

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	janitor := worker.NewTokenJanitor(store.Store, cfg.TokenPurgeInterval, logger)
	go janitor.Run(ctx)

	logger.Info("Listening", "port", cfg.Port, "sheets_enabled", sink != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
