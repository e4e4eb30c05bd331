package storage

import (
	"context"
	"fmt"
	"strings"

	"fintrack/internal/core"
)

const userColumns = `id, name, email, password_hash, created_at, updated_at`

func scanUser(s scanner) (core.User, error) {
	var (
		u                core.User
		created, updated string
		err              error
	)
	if err = s.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &created, &updated); err != nil {
		return core.User{}, err
	}
	if u.CreatedAt, err = parseTime(created); err != nil {
		return core.User{}, err
	}
	if u.UpdatedAt, err = parseTime(updated); err != nil {
		return core.User{}, err
	}
	return u, nil
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	now, ts := r.stamp()
	u.ID = newID(u.ID)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.CreatedAt, u.UpdatedAt = now, now
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.PasswordHash, ts, ts)
	if isUniqueViolation(err) {
		return core.User{}, core.ErrEmailTaken
	}
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id string) (core.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		return core.User{}, notFound(err, "get user")
	}
	return u, nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(strings.TrimSpace(email))))
	if err != nil {
		return core.User{}, notFound(err, "get user by email")
	}
	return u, nil
}

func (r *SQLiteRepository) UpdateUser(ctx context.Context, u core.User) (core.User, error) {
	_, ts := r.stamp()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	out, err := scanUser(r.db.QueryRowContext(ctx,
		`UPDATE users SET name = ?, email = ?, password_hash = ?, updated_at = ?
		 WHERE id = ? RETURNING `+userColumns,
		u.Name, u.Email, u.PasswordHash, ts, u.ID))
	if isUniqueViolation(err) {
		return core.User{}, core.ErrEmailTaken
	}
	if err != nil {
		return core.User{}, notFound(err, "update user")
	}
	return out, nil
}
