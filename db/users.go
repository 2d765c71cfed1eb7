package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"vociary/errs"
	"vociary/models"
)

const userColumns = "id, email, username, password_hash, is_active, created_at"

// CreateUser inserts an active user. A duplicate email or username yields errs.ErrAlreadyExists.
func (q *Queries) CreateUser(ctx context.Context, email, username, passwordHash string) (*models.User, error) {
	res, err := q.db.ExecContext(ctx,
		"INSERT INTO users (email, username, password_hash) VALUES (?, ?, ?)",
		email, username, passwordHash)
	if isUniqueViolation(err) {
		return nil, errs.ErrAlreadyExists
	}
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return q.GetUserByID(ctx, id)
}

func (q *Queries) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	row := q.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	return scanUser(row)
}

// GetUserByLogin matches either the username or the email.
func (q *Queries) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = ? OR email = ? ORDER BY id LIMIT 1",
		login, login)
	return scanUser(row)
}

// LockUser serializes transactions acting on one user's rows until the
// surrounding transaction ends. SQLite runs one writer at a time, so it needs no lock.
func (q *Queries) LockUser(ctx context.Context, id int64) error {
	if q.driver != DriverMySQL {
		_, err := q.GetUserByID(ctx, id)
		return err
	}
	var locked int64
	err := q.db.QueryRowContext(ctx, "SELECT id FROM users WHERE id = ? FOR UPDATE", id).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return errs.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock user: %w", err)
	}
	return nil
}

// SetUserActive flips the activation flag, the only mutable user attribute.
func (q *Queries) SetUserActive(ctx context.Context, id int64, active bool) error {
	res, err := q.db.ExecContext(ctx, "UPDATE users SET is_active = ? WHERE id = ?", active, id)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func scanUser(row scanner) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.IsActive, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}
