package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fintrack/internal/core"
)

const budgetColumns = `id, user_id, category, limit_cents, spent_cents, period, created_at, updated_at`

func scanBudget(s scanner) (core.Budget, error) {
	var (
		b                core.Budget
		created, updated string
		err              error
	)
	if err = s.Scan(&b.ID, &b.UserID, &b.Category, &b.Limit.Cents, &b.Spent.Cents, &b.Period, &created, &updated); err != nil {
		return core.Budget{}, err
	}
	if b.CreatedAt, err = parseTime(created); err != nil {
		return core.Budget{}, err
	}
	if b.UpdatedAt, err = parseTime(updated); err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	now, ts := r.stamp()
	b.ID = newID(b.ID)
	b.CreatedAt, b.UpdatedAt = now, now
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (`+budgetColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.UserID, b.Category, b.Limit.Cents, b.Spent.Cents, b.Period, ts, ts)
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, userID, id string) (core.Budget, error) {
	b, err := scanBudget(r.db.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE user_id = ? AND id = ?`, userID, id))
	if err != nil {
		return core.Budget{}, notFound(err, "get budget")
	}
	return b, nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE user_id = ? ORDER BY created_at, rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	out := []core.Budget{}
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	_, ts := r.stamp()
	out, err := scanBudget(r.db.QueryRowContext(ctx,
		`UPDATE budgets SET category = ?, limit_cents = ?, period = ?, updated_at = ?
		 WHERE user_id = ? AND id = ? RETURNING `+budgetColumns,
		b.Category, b.Limit.Cents, b.Period, ts, b.UserID, b.ID))
	if err != nil {
		return core.Budget{}, notFound(err, "update budget")
	}
	return out, nil
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, userID, id string) (core.Budget, error) {
	b, err := scanBudget(r.db.QueryRowContext(ctx,
		`DELETE FROM budgets WHERE user_id = ? AND id = ? RETURNING `+budgetColumns, userID, id))
	if err != nil {
		return core.Budget{}, notFound(err, "delete budget")
	}
	return b, nil
}

// AdjustBudgetSpent is a single UPDATE, so concurrent adjustments never lose
// an increment.
func (r *SQLiteRepository) AdjustBudgetSpent(ctx context.Context, userID, category string, delta int64) (core.Budget, bool, error) {
	_, ts := r.stamp()
	b, err := scanBudget(r.db.QueryRowContext(ctx,
		`UPDATE budgets SET spent_cents = spent_cents + ?, updated_at = ?
		 WHERE id = (
		     SELECT id FROM budgets WHERE user_id = ? AND category = ?
		     ORDER BY created_at, rowid LIMIT 1
		 ) RETURNING `+budgetColumns,
		delta, ts, userID, category))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, false, nil
	}
	if err != nil {
		return core.Budget{}, false, fmt.Errorf("adjust budget spent: %w", err)
	}
	return b, true, nil
}

func (r *SQLiteRepository) SetBudgetSpent(ctx context.Context, userID, id string, spent int64) (core.Budget, error) {
	_, ts := r.stamp()
	b, err := scanBudget(r.db.QueryRowContext(ctx,
		`UPDATE budgets SET spent_cents = ?, updated_at = ?
		 WHERE user_id = ? AND id = ? RETURNING `+budgetColumns,
		spent, ts, userID, id))
	if err != nil {
		return core.Budget{}, notFound(err, "set budget spent")
	}
	return b, nil
}
