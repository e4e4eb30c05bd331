package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/ports"
)

// NotificationDispatcher delivers budget alerts on a best-effort basis:
// failures are logged and never returned.
type NotificationDispatcher struct {
	notifier ports.Notifier
	users    ports.UserStore
	timeout  time.Duration
	logger   *slog.Logger
}

func NewNotificationDispatcher(notifier ports.Notifier, users ports.UserStore, timeout time.Duration, logger *slog.Logger) *NotificationDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &NotificationDispatcher{notifier: notifier, users: users, timeout: timeout, logger: logger}
}

// BudgetExceededSubject is the alert subject for a category.
func BudgetExceededSubject(category string) string {
	return "Budget exceeded: " + category
}

// BudgetExceededMessage formats the alert body.
func BudgetExceededMessage(b core.Budget) string {
	return fmt.Sprintf(
		"Your %s budget for %q has been exceeded.\n\nSpent: %s\nLimit: %s\nOver by: %s\n",
		b.Period, b.Category, b.Spent, b.Limit, b.Spent.Sub(b.Limit))
}

// BudgetExceeded looks up the owner's email and sends one alert for b.
func (d *NotificationDispatcher) BudgetExceeded(ctx context.Context, b core.Budget) {
	fields := log.NewFields().
		WithComponent(log.ComponentNotifier).
		WithOperation(log.OpNotify).
		WithUser(b.UserID).
		WithBudget(b.ID, b.Category, b.Spent.Cents, b.Limit.Cents)

	u, err := d.users.GetUser(ctx, b.UserID)
	if err != nil {
		d.logger.WarnContext(ctx, "Budget alert skipped: user lookup failed", fields.WithError(err).ToSlice()...)
		return
	}
	d.NotifyBudgetExceeded(ctx, u.Email, BudgetExceededSubject(b.Category), BudgetExceededMessage(b))
}

// NotifyBudgetExceeded sends under the dispatcher timeout. The write that
// triggered it has already committed, so errors stop here.
func (d *NotificationDispatcher) NotifyBudgetExceeded(ctx context.Context, email, subject, body string) {
	if d.notifier == nil {
		return
	}
	// Detached from request cancellation; bounded by the timeout instead.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	if err := d.notifier.Send(ctx, email, subject, body); err != nil {
		d.logger.ErrorContext(ctx, "Failed to deliver budget alert",
			log.NewFields().
				WithComponent(log.ComponentNotifier).
				WithOperation(log.OpNotify).
				WithError(err).
				ToSlice()...)
		return
	}
	d.logger.InfoContext(ctx, "Budget alert delivered", log.FieldComponent, log.ComponentNotifier, "subject", subject)
}
