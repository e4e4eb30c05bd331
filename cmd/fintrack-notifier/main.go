// Command fintrack-notifier consumes queued budget alerts and emails them.
package main

import (
	"context"
	"errors"
	"os"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	"fintrack/internal/log"
	"fintrack/internal/notify"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig()

	logger.Info("Starting fintrack-notifier")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the notifier worker")
		os.Exit(1)
	}

	mailer, err := notify.NewSMTPNotifier(cli.SMTPConfig(cfg), logger)
	if err != nil {
		logger.Error("Failed to initialize SMTP notifier", log.FieldError, err)
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, nil)

	alerts := worker.NewAlertWorker(mailer, logger)
	logger.Info("Consuming budget alerts", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	if err := client.ConsumeBudgetAlerts(ctx, alerts.HandleBudgetAlert); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("fintrack-notifier stopped")
}
