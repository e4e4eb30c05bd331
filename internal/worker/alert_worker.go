package worker

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/ports"
)

// AlertWorker delivers queued budget alerts through a mail transport.
type AlertWorker struct {
	notifier ports.Notifier
	logger   *slog.Logger
}

func NewAlertWorker(notifier ports.Notifier, logger *slog.Logger) *AlertWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &AlertWorker{notifier: notifier, logger: logger}
}

// HandleBudgetAlert sends one alert. A returned error requeues the message.
func (w *AlertWorker) HandleBudgetAlert(ctx context.Context, msg *amqp.BudgetAlertMessage) error {
	w.logger.InfoContext(ctx, "Processing budget alert",
		"component", "worker",
		"to", msg.To,
		"subject", msg.Subject,
		"queued_at", msg.Timestamp)

	if err := w.notifier.Send(ctx, msg.To, msg.Subject, msg.Body); err != nil {
		return fmt.Errorf("deliver budget alert: %w", err)
	}
	return nil
}
