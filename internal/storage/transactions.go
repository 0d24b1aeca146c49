package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"tietkiem/internal/core"
)

type TransactionStore struct {
	q querier
}

const transactionSelect = `SELECT t.id, t.userId, t.accountId, t.categoryId,
	COALESCE(c.name, t.category, ''), COALESCE(c.icon, ''),
	t.amount, t.type, t.date, t.note, t.syncStatus, t.sheetRow, t.createdAt, t.updatedAt
	FROM "Transaction" t LEFT JOIN Category c ON c.id = t.categoryId`

func scanTransaction(row scanner) (core.Transaction, error) {
	var (
		t                        core.Transaction
		userID, accountID, catID sql.NullInt64
		typ, date                string
		note, sheetRow           sql.NullString
		createdAt, updatedAt     string
	)
	if err := row.Scan(&t.ID, &userID, &accountID, &catID, &t.Category, &t.CategoryIcon,
		&t.Amount, &typ, &date, &note, &t.SyncStatus, &sheetRow, &createdAt, &updatedAt); err != nil {
		return core.Transaction{}, err
	}
	t.UserID = userID.Int64
	t.AccountID = accountID.Int64
	t.CategoryID = catID.Int64
	t.Type = core.TxType(typ)
	t.Date, _ = core.ParseDate(date)
	t.Note = note.String
	t.SheetRow = sheetRow.String
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	return t, nil
}

func collectTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	defer rows.Close()
	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Create inserts a user-scoped or account-scoped transaction. Category is
// stored as a free-text label only when no category reference is given.
func (s *TransactionStore) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	ts := now()
	label := ""
	if t.CategoryID == 0 {
		label = t.Category
	}
	res, err := s.q.ExecContext(ctx,
		`INSERT INTO "Transaction" (userId, accountId, categoryId, category, amount, type, date, note, syncStatus, createdAt, updatedAt)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullID(t.UserID), nullID(t.AccountID), nullID(t.CategoryID), nullString(label),
		t.Amount, string(t.Type), t.Date.String(), nullString(t.Note), core.SyncPending, ts, ts)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("last insert id: %w", err)
	}

	slog.DebugContext(ctx, "Transaction saved", "id", id, "type", t.Type, "amount", t.Amount)
	return s.ByID(ctx, id)
}

func (s *TransactionStore) ByID(ctx context.Context, id int64) (core.Transaction, error) {
	t, err := scanTransaction(s.q.QueryRowContext(ctx, transactionSelect+` WHERE t.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.NotFound(core.EntityTransaction, id)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return t, nil
}

func (s *TransactionStore) Delete(ctx context.Context, id int64) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM "Transaction" WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	return affected(res, core.NotFound(core.EntityTransaction, id))
}

// ListByMonth returns a user's transactions for a YYYY-MM month, newest first.
func (s *TransactionStore) ListByMonth(ctx context.Context, userID int64, month string) ([]core.Transaction, error) {
	rows, err := s.q.QueryContext(ctx,
		transactionSelect+` WHERE t.userId = ? AND strftime('%Y-%m', t.date) = ? ORDER BY t.date DESC, t.createdAt DESC, t.id DESC`,
		userID, month)
	if err != nil {
		return nil, fmt.Errorf("list transactions for %s: %w", month, err)
	}
	return collectTransactions(rows)
}

// ListByAccount returns an account's transactions, newest first.
func (s *TransactionStore) ListByAccount(ctx context.Context, accountID int64) ([]core.Transaction, error) {
	rows, err := s.q.QueryContext(ctx,
		transactionSelect+` WHERE t.accountId = ? ORDER BY t.date DESC, t.id DESC`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list transactions of account %d: %w", accountID, err)
	}
	return collectTransactions(rows)
}

// Range returns transactions dated within [from, to]. userID 0 spans every owner.
func (s *TransactionStore) Range(ctx context.Context, userID int64, from, to core.Date) ([]core.Transaction, error) {
	query := transactionSelect + ` WHERE t.date >= ? AND t.date <= ?`
	args := []any{from.String(), to.String()}
	if userID != 0 {
		query += ` AND t.userId = ?`
		args = append(args, userID)
	}
	rows, err := s.q.QueryContext(ctx, query+` ORDER BY t.date, t.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions in range: %w", err)
	}
	return collectTransactions(rows)
}

// TotalsByAccount sums income and expense amounts of one account.
func (s *TransactionStore) TotalsByAccount(ctx context.Context, accountID int64) (income, expense float64, err error) {
	err = s.q.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(CASE WHEN type = 'income' THEN amount END), 0),
		        COALESCE(SUM(CASE WHEN type = 'expense' THEN amount END), 0)
		 FROM "Transaction" WHERE accountId = ?`, accountID).Scan(&income, &expense)
	if err != nil {
		return 0, 0, fmt.Errorf("sum transactions of account %d: %w", accountID, err)
	}
	return income, expense, nil
}

// CategoryTotals groups a user's transactions of one type in a month by category,
// largest total first.
func (s *TransactionStore) CategoryTotals(ctx context.Context, userID int64, month string, typ core.TxType) ([]core.CategoryTotal, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT COALESCE(c.id, 0), COALESCE(c.name, t.category, ''), COALESCE(c.icon, ''), SUM(t.amount) AS total
		 FROM "Transaction" t LEFT JOIN Category c ON c.id = t.categoryId
		 WHERE t.userId = ? AND strftime('%Y-%m', t.date) = ? AND t.type = ?
		 GROUP BY 1, 2, 3
		 ORDER BY total DESC, 2`,
		userID, month, string(typ))
	if err != nil {
		return nil, fmt.Errorf("category totals for %s: %w", month, err)
	}
	defer rows.Close()

	var out []core.CategoryTotal
	for rows.Next() {
		var ct core.CategoryTotal
		if err := rows.Scan(&ct.CategoryID, &ct.Category, &ct.Icon, &ct.Total); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		out = append(out, ct)
	}
	return out, rows.Err()
}

// DailyTotals returns per-day sums for days of the month that have transactions.
func (s *TransactionStore) DailyTotals(ctx context.Context, userID int64, month string) ([]core.DailyTotal, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT date,
		        COALESCE(SUM(CASE WHEN type = 'expense' THEN amount END), 0),
		        COALESCE(SUM(CASE WHEN type = 'income' THEN amount END), 0)
		 FROM "Transaction"
		 WHERE userId = ? AND strftime('%Y-%m', date) = ?
		 GROUP BY date
		 ORDER BY date`,
		userID, month)
	if err != nil {
		return nil, fmt.Errorf("daily totals for %s: %w", month, err)
	}
	defer rows.Close()

	var out []core.DailyTotal
	for rows.Next() {
		var (
			dt   core.DailyTotal
			date string
		)
		if err := rows.Scan(&date, &dt.Expense, &dt.Income); err != nil {
			return nil, fmt.Errorf("scan daily total: %w", err)
		}
		if dt.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("parse date %q: %w", date, err)
		}
		out = append(out, dt)
	}
	return out, rows.Err()
}

// PendingSync returns up to limit transactions not yet mirrored.
func (s *TransactionStore) PendingSync(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := s.q.QueryContext(ctx,
		transactionSelect+` WHERE t.syncStatus = ? ORDER BY t.id LIMIT ?`, core.SyncPending, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync transactions: %w", err)
	}
	return collectTransactions(rows)
}

func (s *TransactionStore) MarkSynced(ctx context.Context, id int64, sheetRow string) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE "Transaction" SET syncStatus = ?, sheetRow = ? WHERE id = ?`, core.SyncSynced, nullString(sheetRow), id)
	if err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}
	return affected(res, core.NotFound(core.EntityTransaction, id))
}

func (s *TransactionStore) MarkSyncError(ctx context.Context, id int64) error {
	res, err := s.q.ExecContext(ctx, `UPDATE "Transaction" SET syncStatus = ? WHERE id = ?`, core.SyncError, id)
	if err != nil {
		return fmt.Errorf("mark transaction sync error: %w", err)
	}
	return affected(res, core.NotFound(core.EntityTransaction, id))
}
