package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"tietkiem/internal/core"
)

type AccountStore struct {
	q querier
}

const accountColumns = `id, name, bank, accountNumber, balance, createdAt, updatedAt`

func scanAccount(row scanner) (core.Account, error) {
	var (
		a                    core.Account
		bank, number         sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&a.ID, &a.Name, &bank, &number, &a.Balance, &createdAt, &updatedAt); err != nil {
		return core.Account{}, err
	}
	a.Bank = bank.String
	a.AccountNumber = number.String
	a.CreatedAt = parseTime(createdAt)
	a.UpdatedAt = parseTime(updatedAt)
	return a, nil
}

// Create inserts an account whose cached balance starts at a.Balance.
func (s *AccountStore) Create(ctx context.Context, a core.Account) (core.Account, error) {
	ts := now()
	res, err := s.q.ExecContext(ctx,
		`INSERT INTO Account (name, bank, accountNumber, balance, createdAt, updatedAt) VALUES (?, ?, ?, ?, ?, ?)`,
		a.Name, nullString(a.Bank), nullString(a.AccountNumber), a.Balance, ts, ts)
	if err != nil {
		return core.Account{}, fmt.Errorf("insert account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Account{}, fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Account saved", "id", id, "name", a.Name)
	return s.ByID(ctx, id)
}

func (s *AccountStore) ByID(ctx context.Context, id int64) (core.Account, error) {
	a, err := scanAccount(s.q.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM Account WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.NotFound(core.EntityAccount, id)
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account %d: %w", id, err)
	}
	return a, nil
}

func (s *AccountStore) List(ctx context.Context) ([]core.Account, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+accountColumns+` FROM Account ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateBalance writes the cached balance. Only balance recalculation calls it.
func (s *AccountStore) UpdateBalance(ctx context.Context, id int64, balance float64) error {
	res, err := s.q.ExecContext(ctx, `UPDATE Account SET balance = ?, updatedAt = ? WHERE id = ?`, balance, now(), id)
	if err != nil {
		return fmt.Errorf("update balance of account %d: %w", id, err)
	}
	return affected(res, core.NotFound(core.EntityAccount, id))
}
