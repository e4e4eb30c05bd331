// Package cli holds the start-up steps shared by the fintrack binaries.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/notify"
	"fintrack/internal/ports"
	gsheet "fintrack/internal/sheets/google"
)

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// installs it as the slog default.
func SetupLogger(cfg *config.Config) *slog.Logger {
	logger := slog.New(log.NewHandler(os.Stdout, cfg.LogFormat, log.ParseLevel(cfg.LogLevel)))
	slog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and exits on validation failure.
func LoadAndValidateConfig() (*config.Config, *slog.Logger) {
	cfg := config.Load()
	logger := SetupLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg, logger
}

// OpenStore opens the configured backend or exits.
func OpenStore(ctx context.Context, logger *slog.Logger, cfg *config.Config) *backend.Result {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).Open(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to open store", log.FieldError, err, "backend", bcfg.Type)
		os.Exit(1)
	}
	return res
}

// SMTPConfig maps the SMTP_* settings onto the notifier config.
func SMTPConfig(cfg *config.Config) notify.SMTPConfig {
	return notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		Timeout:  cfg.NotifyTimeout,
	}
}

// NewNotifier returns the budget alert channel named by NOTIFIER. The
// close func is never nil.
func NewNotifier(cfg *config.Config, logger *slog.Logger) (ports.Notifier, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Notifier {
	case config.NotifierSMTP:
		n, err := notify.NewSMTPNotifier(SMTPConfig(cfg), logger)
		if err != nil {
			return nil, noop, err
		}
		return n, noop, nil
	case config.NotifierAMQP:
		c, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return nil, noop, fmt.Errorf("connect to AMQP broker: %w", err)
		}
		logger.Info("Budget alerts are queued for the notifier worker",
			log.FieldComponent, log.ComponentAMQP,
			"exchange", cfg.AMQPExchange,
			"queue", cfg.AMQPQueue)
		return c, c.Close, nil
	default:
		return notify.NewLogNotifier(logger), noop, nil
	}
}

// NewReportSink returns nil when no spreadsheet is configured.
func NewReportSink(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.ReportSink, error) {
	if !cfg.SheetsEnabled() {
		return nil, nil
	}
	c, err := gsheet.NewClient(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Google Sheets report export enabled",
		log.FieldComponent, log.ComponentSheets,
		"sheet", cfg.GoogleSheetName)
	return c, nil
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. cleanup
// runs under timeout after the signal, and done closes once it returns.
func GracefulShutdown(logger *slog.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
