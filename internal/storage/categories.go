package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tietkiem/internal/core"
)

type CategoryStore struct {
	q querier
}

func scanCategory(row scanner) (core.Category, error) {
	var (
		c    core.Category
		typ  string
		icon sql.NullString
	)
	if err := row.Scan(&c.ID, &c.Name, &typ, &c.UserID, &icon); err != nil {
		return core.Category{}, err
	}
	c.Type = core.TxType(typ)
	c.Icon = icon.String
	return c, nil
}

func (s *CategoryStore) Create(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := s.q.ExecContext(ctx,
		`INSERT INTO Category (name, type, userId, icon) VALUES (?, ?, ?, ?)`,
		c.Name, string(c.Type), c.UserID, nullString(c.Icon))
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("last insert id: %w", err)
	}
	c.ID = id
	return c, nil
}

// List returns the user's categories ordered by name. An empty typ lists both directions.
func (s *CategoryStore) List(ctx context.Context, userID int64, typ core.TxType) ([]core.Category, error) {
	query := `SELECT id, name, type, userId, icon FROM Category WHERE userId = ?`
	args := []any{userID}
	if typ != "" {
		query += ` AND type = ?`
		args = append(args, string(typ))
	}
	query += ` ORDER BY name`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *CategoryStore) ByID(ctx context.Context, id int64) (core.Category, error) {
	c, err := scanCategory(s.q.QueryRowContext(ctx, `SELECT id, name, type, userId, icon FROM Category WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.NotFound(core.EntityCategory, id)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %d: %w", id, err)
	}
	return c, nil
}
