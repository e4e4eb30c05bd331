package storage

import (
	"context"
	"fmt"
	"strings"

	"fintrack/internal/core"
)

const transactionColumns = `id, user_id, amount_cents, type, category, subcategory, account, date, description, created_at, updated_at`

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		t                      core.Transaction
		date, created, updated string
		err                    error
	)
	if err = s.Scan(&t.ID, &t.UserID, &t.Amount.Cents, &t.Type, &t.Category, &t.Subcategory,
		&t.Account, &date, &t.Description, &created, &updated); err != nil {
		return core.Transaction{}, err
	}
	if t.Date, err = parseTime(date); err != nil {
		return core.Transaction{}, err
	}
	if t.CreatedAt, err = parseTime(created); err != nil {
		return core.Transaction{}, err
	}
	if t.UpdatedAt, err = parseTime(updated); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	now, ts := r.stamp()
	t.ID = newID(t.ID)
	t.Date = t.Date.UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Amount.Cents, t.Type, t.Category, t.Subcategory,
		t.Account, formatTime(t.Date), t.Description, ts, ts)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	t, err := scanTransaction(r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? AND id = ?`, userID, id))
	if err != nil {
		return core.Transaction{}, notFound(err, "get transaction")
	}
	return t, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string, f core.TransactionFilter) ([]core.Transaction, error) {
	var (
		where = []string{"user_id = ?"}
		args  = []any{userID}
	)
	if !f.From.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, formatTime(f.From))
	}
	if !f.To.IsZero() {
		where = append(where, "date <= ?")
		args = append(args, formatTime(f.To))
	}
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, f.Type)
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if !f.CreatedSince.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, formatTime(f.CreatedSince))
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY date DESC, created_at DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	_, ts := r.stamp()
	out, err := scanTransaction(r.db.QueryRowContext(ctx,
		`UPDATE transactions SET amount_cents = ?, type = ?, category = ?, subcategory = ?,
		     account = ?, date = ?, description = ?, updated_at = ?
		 WHERE user_id = ? AND id = ? RETURNING `+transactionColumns,
		t.Amount.Cents, t.Type, t.Category, t.Subcategory, t.Account,
		formatTime(t.Date), t.Description, ts, t.UserID, t.ID))
	if err != nil {
		return core.Transaction{}, notFound(err, "update transaction")
	}
	return out, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	t, err := scanTransaction(r.db.QueryRowContext(ctx,
		`DELETE FROM transactions WHERE user_id = ? AND id = ? RETURNING `+transactionColumns, userID, id))
	if err != nil {
		return core.Transaction{}, notFound(err, "delete transaction")
	}
	return t, nil
}
