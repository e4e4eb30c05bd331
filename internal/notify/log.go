package notify

import (
	"context"
	"log/slog"
)

// LogNotifier writes alerts to the logger instead of delivering them.
// It is the default when no mail transport is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(ctx context.Context, to, subject, body string) error {
	n.logger.InfoContext(ctx, "Notification",
		"component", "notifier",
		"to", to,
		"subject", subject,
		"body", body)
	return nil
}
