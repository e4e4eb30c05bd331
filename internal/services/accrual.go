package services

import (
	"context"
	"log/slog"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/ports"
)

// AccrualEngine keeps Budget.Spent in step with expense transactions. All
// changes go through the store's atomic adjustment.
type AccrualEngine struct {
	budgets    ports.BudgetStore
	dispatcher *NotificationDispatcher
	logger     *slog.Logger
}

func NewAccrualEngine(budgets ports.BudgetStore, dispatcher *NotificationDispatcher, logger *slog.Logger) *AccrualEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccrualEngine{budgets: budgets, dispatcher: dispatcher, logger: logger}
}

func (e *AccrualEngine) OnTransactionCreated(ctx context.Context, t core.Transaction) error {
	if t.Type != core.Expense {
		return nil
	}
	return e.adjust(ctx, t.UserID, t.Category, t.Amount.Cents)
}

func (e *AccrualEngine) OnTransactionDeleted(ctx context.Context, t core.Transaction) error {
	if t.Type != core.Expense {
		return nil
	}
	// No floor at zero: spent mirrors the recorded expenses exactly.
	return e.adjust(ctx, t.UserID, t.Category, -t.Amount.Cents)
}

// OnTransactionUpdated reverses the old transaction's contribution and
// applies the new one. Same-category expense edits collapse to one diff.
func (e *AccrualEngine) OnTransactionUpdated(ctx context.Context, old, updated core.Transaction) error {
	wasExpense := old.Type == core.Expense
	isExpense := updated.Type == core.Expense

	switch {
	case wasExpense && isExpense && old.Category == updated.Category:
		diff := updated.Amount.Cents - old.Amount.Cents
		if diff == 0 {
			return nil
		}
		return e.adjust(ctx, updated.UserID, updated.Category, diff)
	case wasExpense && isExpense:
		if err := e.adjust(ctx, old.UserID, old.Category, -old.Amount.Cents); err != nil {
			return err
		}
		return e.adjust(ctx, updated.UserID, updated.Category, updated.Amount.Cents)
	case wasExpense:
		return e.adjust(ctx, old.UserID, old.Category, -old.Amount.Cents)
	case isExpense:
		return e.adjust(ctx, updated.UserID, updated.Category, updated.Amount.Cents)
	}
	return nil
}

func (e *AccrualEngine) adjust(ctx context.Context, userID, category string, delta int64) error {
	b, found, err := e.budgets.AdjustBudgetSpent(ctx, userID, category, delta)
	if err != nil {
		return core.Internal("update budget spent", err)
	}
	if !found {
		// Untracked category.
		return nil
	}

	e.logger.DebugContext(ctx, "Budget accrued",
		log.NewFields().
			WithComponent(log.ComponentAccrual).
			WithOperation(log.OpAccrue).
			WithUser(userID).
			WithBudget(b.ID, b.Category, b.Spent.Cents, b.Limit.Cents).
			ToSlice()...)

	if delta > 0 && b.Exceeded() && e.dispatcher != nil {
		e.dispatcher.BudgetExceeded(ctx, b)
	}
	return nil
}
