package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"tietkiem/internal/core"
)

type UserStore struct {
	q querier
}

const userColumns = `id, username, name, email, passwordHash, phone, createdAt, updatedAt`

func scanUser(row scanner) (core.User, error) {
	var (
		u                    core.User
		email, phone         sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Name, &email, &u.PasswordHash, &phone, &createdAt, &updatedAt); err != nil {
		return core.User{}, err
	}
	u.Email = email.String
	u.Phone = phone.String
	u.CreatedAt = parseTime(createdAt)
	u.UpdatedAt = parseTime(updatedAt)
	return u, nil
}

// Create inserts a user. The password must already be hashed.
func (s *UserStore) Create(ctx context.Context, u core.User) (core.User, error) {
	ts := now()
	res, err := s.q.ExecContext(ctx,
		`INSERT INTO "User" (username, name, email, passwordHash, phone, createdAt, updatedAt)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.Username, u.Name, nullString(u.Email), u.PasswordHash, nullString(u.Phone), ts, ts)
	if err != nil {
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.User{}, fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "User saved", "id", id, "username", u.Username)
	return s.ByID(ctx, id)
}

func (s *UserStore) ByID(ctx context.Context, id int64) (core.User, error) {
	u, err := scanUser(s.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM "User" WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.NotFound(core.EntityUser, id)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

// ByUsername returns ok=false when no user has that username.
func (s *UserStore) ByUsername(ctx context.Context, username string) (core.User, bool, error) {
	return s.lookup(ctx, "username", username)
}

// ByEmail returns ok=false when no user has that email.
func (s *UserStore) ByEmail(ctx context.Context, email string) (core.User, bool, error) {
	return s.lookup(ctx, "email", email)
}

func (s *UserStore) lookup(ctx context.Context, column, value string) (core.User, bool, error) {
	u, err := scanUser(s.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM "User" WHERE `+column+` = ?`, value))
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, false, nil
	}
	if err != nil {
		return core.User{}, false, fmt.Errorf("get user by %s: %w", column, err)
	}
	return u, true, nil
}

func (s *UserStore) UpdateName(ctx context.Context, id int64, name string) (core.User, error) {
	res, err := s.q.ExecContext(ctx, `UPDATE "User" SET name = ?, updatedAt = ? WHERE id = ?`, name, now(), id)
	if err != nil {
		return core.User{}, fmt.Errorf("update user name: %w", err)
	}
	if err := affected(res, core.NotFound(core.EntityUser, id)); err != nil {
		return core.User{}, err
	}
	return s.ByID(ctx, id)
}
