package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"fintrack/internal/core"
)

const categoryColumns = `id, user_id, name, type, subcategories, created_at, updated_at`

func scanCategory(s scanner) (core.Category, error) {
	var (
		c                      core.Category
		subs, created, updated string
		err                    error
	)
	if err = s.Scan(&c.ID, &c.UserID, &c.Name, &c.Type, &subs, &created, &updated); err != nil {
		return core.Category{}, err
	}
	if err = json.Unmarshal([]byte(subs), &c.Subcategories); err != nil {
		return core.Category{}, fmt.Errorf("decode subcategories: %w", err)
	}
	if c.Subcategories == nil {
		c.Subcategories = core.Subcategories{}
	}
	if c.CreatedAt, err = parseTime(created); err != nil {
		return core.Category{}, err
	}
	if c.UpdatedAt, err = parseTime(updated); err != nil {
		return core.Category{}, err
	}
	return c, nil
}

func encodeSubcategories(s core.Subcategories) (string, error) {
	if s == nil {
		s = core.Subcategories{}
	}
	b, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode subcategories: %w", err)
	}
	return string(b), nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	subs, err := encodeSubcategories(c.Subcategories)
	if err != nil {
		return core.Category{}, err
	}
	now, ts := r.stamp()
	c.ID = newID(c.ID)
	c.CreatedAt, c.UpdatedAt = now, now
	if c.Subcategories == nil {
		c.Subcategories = core.Subcategories{}
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO categories (`+categoryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Name, c.Type, subs, ts, ts)
	if isUniqueViolation(err) {
		return core.Category{}, core.ErrDuplicateCategory
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, userID, id string) (core.Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE user_id = ? AND id = ?`, userID, id))
	if err != nil {
		return core.Category{}, notFound(err, "get category")
	}
	return c, nil
}

func (r *SQLiteRepository) FindCategory(ctx context.Context, userID, name string, typ core.TransactionType) (core.Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE user_id = ? AND name = ? AND type = ?`,
		userID, name, typ))
	if err != nil {
		return core.Category{}, notFound(err, "find category")
	}
	return c, nil
}

func (r *SQLiteRepository) GetCategoryByName(ctx context.Context, userID, name string) (core.Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE user_id = ? AND name = ?`, userID, name))
	if err != nil {
		return core.Category{}, notFound(err, "get category by name")
	}
	return c, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := []core.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	subs, err := encodeSubcategories(c.Subcategories)
	if err != nil {
		return core.Category{}, err
	}
	_, ts := r.stamp()
	out, err := scanCategory(r.db.QueryRowContext(ctx,
		`UPDATE categories SET name = ?, type = ?, subcategories = ?, updated_at = ?
		 WHERE user_id = ? AND id = ? RETURNING `+categoryColumns,
		c.Name, c.Type, subs, ts, c.UserID, c.ID))
	if isUniqueViolation(err) {
		return core.Category{}, core.ErrDuplicateCategory
	}
	if err != nil {
		return core.Category{}, notFound(err, "update category")
	}
	return out, nil
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, userID, id string) (core.Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx,
		`DELETE FROM categories WHERE user_id = ? AND id = ? RETURNING `+categoryColumns, userID, id))
	if err != nil {
		return core.Category{}, notFound(err, "delete category")
	}
	return c, nil
}
