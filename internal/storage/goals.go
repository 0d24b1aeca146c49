package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"tietkiem/internal/core"
)

type GoalStore struct {
	q querier
}

const goalColumns = `id, name, targetAmount, currentAmount, deadline, userId, createdAt, updatedAt`

func scanGoal(row scanner) (core.SavingsGoal, error) {
	var (
		g                    core.SavingsGoal
		deadline             sql.NullString
		userID               sql.NullInt64
		createdAt, updatedAt string
	)
	if err := row.Scan(&g.ID, &g.Name, &g.TargetAmount, &g.CurrentAmount, &deadline, &userID, &createdAt, &updatedAt); err != nil {
		return core.SavingsGoal{}, err
	}
	if deadline.Valid {
		// unparseable legacy deadlines are treated as unset
		g.Deadline, _ = core.ParseDate(deadline.String)
	}
	g.UserID = userID.Int64
	g.CreatedAt = parseTime(createdAt)
	g.UpdatedAt = parseTime(updatedAt)
	return g, nil
}

// Create inserts a goal with a zero current amount.
func (s *GoalStore) Create(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	ts := now()
	res, err := s.q.ExecContext(ctx,
		`INSERT INTO SavingsGoal (name, targetAmount, currentAmount, deadline, userId, createdAt, updatedAt)
		 VALUES (?, ?, 0, ?, ?, ?, ?)`,
		g.Name, g.TargetAmount, nullString(g.Deadline.String()), nullID(g.UserID), ts, ts)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("insert goal: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Goal saved", "id", id, "name", g.Name, "target", g.TargetAmount)
	return s.ByID(ctx, id)
}

// List returns the user's goals, newest first. userID 0 lists every goal.
func (s *GoalStore) List(ctx context.Context, userID int64) ([]core.SavingsGoal, error) {
	query := `SELECT ` + goalColumns + ` FROM SavingsGoal`
	var args []any
	if userID != 0 {
		query += ` WHERE userId = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY createdAt DESC, id DESC`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var out []core.SavingsGoal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *GoalStore) ByID(ctx context.Context, id int64) (core.SavingsGoal, error) {
	g, err := scanGoal(s.q.QueryRowContext(ctx, `SELECT `+goalColumns+` FROM SavingsGoal WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.SavingsGoal{}, core.NotFound(core.EntityGoal, id)
	}
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("get goal %d: %w", id, err)
	}
	return g, nil
}

// Update overwrites the supplied patch fields and always refreshes updatedAt.
func (s *GoalStore) Update(ctx context.Context, id int64, p core.GoalPatch) (core.SavingsGoal, error) {
	var (
		sets []string
		args []any
	)
	if p.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *p.Name)
	}
	if p.TargetAmount != nil {
		sets = append(sets, "targetAmount = ?")
		args = append(args, *p.TargetAmount)
	}
	if p.Deadline.Set {
		sets = append(sets, "deadline = ?")
		args = append(args, nullString(p.Deadline.Date.String()))
	}
	sets = append(sets, "updatedAt = ?")
	args = append(args, now(), id)

	res, err := s.q.ExecContext(ctx, `UPDATE SavingsGoal SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("update goal %d: %w", id, err)
	}
	if err := affected(res, core.NotFound(core.EntityGoal, id)); err != nil {
		return core.SavingsGoal{}, err
	}
	return s.ByID(ctx, id)
}

func (s *GoalStore) Delete(ctx context.Context, id int64) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM SavingsGoal WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete goal %d: %w", id, err)
	}
	return affected(res, core.NotFound(core.EntityGoal, id))
}

// AddAmount increments currentAmount in a single statement.
func (s *GoalStore) AddAmount(ctx context.Context, id int64, amount float64) (core.SavingsGoal, error) {
	res, err := s.q.ExecContext(ctx,
		`UPDATE SavingsGoal SET currentAmount = currentAmount + ?, updatedAt = ? WHERE id = ?`,
		amount, now(), id)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("add amount to goal %d: %w", id, err)
	}
	if err := affected(res, core.NotFound(core.EntityGoal, id)); err != nil {
		return core.SavingsGoal{}, err
	}
	return s.ByID(ctx, id)
}
