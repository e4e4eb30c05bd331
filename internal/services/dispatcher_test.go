package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

type ctxNotifier struct {
	ctxErr      error
	hasDeadline bool
}

func (n *ctxNotifier) Send(ctx context.Context, _, _, _ string) error {
	n.ctxErr = ctx.Err()
	_, n.hasDeadline = ctx.Deadline()
	return nil
}

func TestBudgetExceededMessage(t *testing.T) {
	b := core.Budget{Category: "Food", Period: core.Monthly, Limit: core.Cents(100000), Spent: core.Cents(120000)}

	assert.Equal(t, "Budget exceeded: Food", BudgetExceededSubject("Food"))
	body := BudgetExceededMessage(b)
	assert.Contains(t, body, `"Food"`)
	assert.Contains(t, body, "1200.00")
	assert.Contains(t, body, "1000.00")
	assert.Contains(t, body, "200.00")
	assert.Contains(t, body, "monthly")
}

func TestNotifyBudgetExceeded_DetachedFromCaller(t *testing.T) {
	n := &ctxNotifier{}
	d := NewNotificationDispatcher(n, nil, time.Second, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.NotifyBudgetExceeded(ctx, "ann@example.com", "s", "b")

	assert.NoError(t, n.ctxErr, "caller cancellation must not abort delivery")
	assert.True(t, n.hasDeadline, "delivery runs under the dispatcher timeout")
}

func TestNotifyBudgetExceeded_NilNotifier(t *testing.T) {
	d := NewNotificationDispatcher(nil, nil, 0, nil)
	assert.NotPanics(t, func() {
		d.NotifyBudgetExceeded(context.Background(), "a@b.c", "s", "b")
	})
}

func TestBudgetExceeded_UnknownUserIsSkipped(t *testing.T) {
	f := newFixture(t)
	d := NewNotificationDispatcher(f.notifier, f.store, time.Second, quietLogger())

	d.BudgetExceeded(f.ctx, core.Budget{UserID: "ghost", Category: "Food", Limit: core.Cents(1), Spent: core.Cents(2)})

	require.Empty(t, f.notifier.Sent())
}
